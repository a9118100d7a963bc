// Package render draws frames of the escape-time views: the per-pixel kernel,
// a tile scheduler that fans a frame out to workers, and the same kernel as
// GPU shader sources.
package render

import (
	"image"
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	mandel "github.com/marben/mandel_julia"
)

// Interior is the color of points whose orbit never escapes.
var Interior = mgl32.Vec3{0.0, 0.07, 0.17}

// Palette stops between the two style colors.
var (
	white = mgl32.Vec3{1, 1, 1}
	black = mgl32.Vec3{0, 0, 0}
)

// Crosshair geometry around the probe, in pixels.
const (
	CrossArm       = 50
	CrossHalfWidth = 2
)

const paletteStops = 4

// Iterate applies z -> z² + c up to maxIter times and stops the first time
// |z| exceeds radius. n is the index of the last iteration performed and m
// the final modulus.
func Iterate(z, c mgl32.Vec2, maxIter int, radius float32) (n int, m float32, escaped bool) {
	for i := 0; i < maxIter; i++ {
		n = i
		z = mgl32.Vec2{
			z[0]*z[0] - z[1]*z[1] + c[0],
			2*z[0]*z[1] + c[1],
		}
		if m = z.Len(); m > radius {
			return n, m, true
		}
	}
	return n, z.Len(), false
}

// Smooth is the continuous iteration count of an orbit that escaped at
// iteration n with modulus m.
func Smooth(n int, m float32) float32 {
	return float32(n) - float32(math.Log2(math.Log2(float64(m)))) - 1
}

// Palette maps a continuous iteration count to a color. The palette repeats
// every period iterations and runs through color1, white, color2 and black
// with an eased blend between neighbouring stops.
//
// A non-finite count, which happens when the escape radius is below 1, maps
// to the first stop.
func Palette(nu float32, period int, c1, c2 mgl32.Vec3) mgl32.Vec3 {
	stops := [paletteStops]mgl32.Vec3{c1, white, c2, black}
	t := fract(nu / float32(max(period, 1)))
	if math.IsNaN(float64(t)) || math.IsInf(float64(t), 0) {
		t = 0
	}
	idx := t * paletteStops
	i0 := int(idx) % paletteStops
	i1 := (i0 + 1) % paletteStops
	local := fract(idx)
	c := float32(math.Cos(float64(local) * math.Pi / 2))
	w := 1 - c*c
	return stops[i0].Mul(1 - w).Add(stops[i1].Mul(w))
}

// fract is x - floor(x), always in [0,1].
func fract(x float32) float32 {
	return x - float32(math.Floor(float64(x)))
}

// uniforms are the per-frame constants of the kernel in single precision.
type uniforms struct {
	width, height float32
	aspect        float32
	center        mgl32.Vec2
	offset        mgl32.Vec2
	size          float32
	fixed         mgl32.Vec2
	kind          mandel.Kind
	probe         mgl32.Vec2
	showProbe     bool
	maxIter       int
	radius        float32
	period        int
	color1        mgl32.Vec3
	color2        mgl32.Vec3
}

func newUniforms(f mandel.Frame) uniforms {
	return uniforms{
		width:     float32(f.Width),
		height:    float32(f.Height),
		aspect:    float32(f.Width) / float32(f.Height),
		center:    vec32(f.Center),
		offset:    vec32(f.Offset),
		size:      float32(f.Size),
		fixed:     vec32(f.Fixed),
		kind:      f.Kind,
		probe:     vec32(f.Probe),
		showProbe: f.ShowProbe,
		maxIter:   f.Style.IterationCap,
		radius:    float32(f.Style.EscapeRadius),
		period:    f.Style.ColorPeriod,
		color1:    f.Style.Color1,
		color2:    f.Style.Color2,
	}
}

// shade returns the color of the fragment at (fx, fy): pixel coordinates
// with the origin at the bottom-left corner and pixel centers at .5.
func (u uniforms) shade(fx, fy float32) mgl32.Vec3 {
	p := mgl32.Vec2{
		u.center[0] + (fx/u.width-u.offset[0])*u.size*u.aspect,
		u.center[1] + (fy/u.height-u.offset[1])*u.size,
	}
	z, c := u.fixed, p
	if u.kind == mandel.DynamicsPlane {
		z, c = p, u.fixed
	}

	col := Interior
	if n, m, escaped := Iterate(z, c, u.maxIter, u.radius); escaped {
		col = Palette(Smooth(n, m), u.period, u.color1, u.color2)
	}

	if u.showProbe && onCross(fx-u.probe[0], fy-u.probe[1]) {
		col = white.Sub(col)
	}
	return col
}

func onCross(dx, dy float32) bool {
	dx, dy = abs32(dx), abs32(dy)
	return (dx < CrossHalfWidth && dy < CrossArm) || (dx < CrossArm && dy < CrossHalfWidth)
}

// Shade is the color of the image pixel (x, y) of f, with y growing down as
// in image.RGBA.
func Shade(f mandel.Frame, x, y int) mgl32.Vec3 {
	u := newUniforms(f)
	return u.shade(float32(x)+0.5, u.height-float32(y)-0.5)
}

// Kernel renders tiles on the CPU.
type Kernel struct {
	// OnTileRender, if set, is called before each tile is rendered.
	OnTileRender func(tile image.Rectangle)
}

var _ mandel.Renderer = Kernel{}

// RenderTile implements mandel.Renderer. The returned image covers tile in
// frame coordinates.
func (k Kernel) RenderTile(f mandel.Frame, tile image.Rectangle) (image.RGBA, error) {
	if k.OnTileRender != nil {
		k.OnTileRender(tile)
	}

	tile = tile.Intersect(f.Bounds())
	img := image.NewRGBA(tile)
	if tile.Empty() {
		return *img, nil
	}

	u := newUniforms(f)
	for py := tile.Min.Y; py < tile.Max.Y; py++ {
		fy := u.height - float32(py) - 0.5
		for px := tile.Min.X; px < tile.Max.X; px++ {
			img.SetRGBA(px, py, toRGBA(u.shade(float32(px)+0.5, fy)))
		}
	}
	return *img, nil
}

func toRGBA(c mgl32.Vec3) color.RGBA {
	return color.RGBA{channel(c[0]), channel(c[1]), channel(c[2]), 255}
}

func channel(v float32) uint8 {
	return uint8(mgl32.Clamp(v, 0, 1)*255 + 0.5)
}

func vec32(v [2]float64) mgl32.Vec2 {
	return mgl32.Vec2{float32(v[0]), float32(v[1])}
}

func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
