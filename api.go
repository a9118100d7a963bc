package mandel

import (
	"image"

	"github.com/go-gl/mathgl/mgl64"
)

// Frame is everything a render kernel needs to draw one view.
type Frame struct {
	Width, Height int
	Kind          Kind

	Center mgl64.Vec2
	Size   float64
	Offset mgl64.Vec2

	// Fixed is the coupled value: the seed z0 on the parameter plane, the
	// parameter c on the dynamics plane.
	Fixed mgl64.Vec2

	// Probe is the view's own probe in surface pixels, y up. The crosshair
	// is drawn around it while ShowProbe is set.
	Probe     mgl64.Vec2
	ShowProbe bool

	Style Style
}

// Bounds is the image rectangle of the frame.
func (f Frame) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.Width, f.Height)
}

// Transform returns the normalized-to-plane transform of the frame.
func (f Frame) Transform() Transform {
	aspect := 1.0
	if f.Height > 0 {
		aspect = float64(f.Width) / float64(f.Height)
	}
	return Transform{Center: f.Center, Offset: f.Offset, Size: f.Size, Aspect: aspect}
}

// Renderer renders a rectangle of a frame. The returned image has the
// tile's bounds in frame coordinates.
type Renderer interface {
	RenderTile(f Frame, tile image.Rectangle) (image.RGBA, error)
}

// FrameRenderer renders a whole frame.
type FrameRenderer interface {
	RenderFrame(f Frame) (*image.RGBA, error)
}
