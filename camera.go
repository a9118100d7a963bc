package mandel

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Camera is the visible window of a view in plane units.
// Size is the vertical extent; the horizontal extent is Size*aspect.
type Camera struct {
	Center mgl64.Vec2
	Size   float64
}

// clampSize keeps size inside [min, max].
func clampSize(size, min, max float64) float64 {
	return math.Max(min, math.Min(max, size))
}

// zoomAbout rescales the camera to newSize keeping the plane point under uv
// where it is: the point is measured before and after the resize and the
// center is translated by the difference.
func (c Camera) zoomAbout(uv mgl64.Vec2, newSize float64, offset mgl64.Vec2, aspect float64) Camera {
	before := Transform{Center: c.Center, Offset: offset, Size: c.Size, Aspect: aspect}.ToPlane(uv)
	after := Transform{Center: c.Center, Offset: offset, Size: newSize, Aspect: aspect}.ToPlane(uv)
	return Camera{
		Center: c.Center.Add(before.Sub(after)),
		Size:   newSize,
	}
}
