package render

import (
	"image"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"

	mandel "github.com/marben/mandel_julia"
)

func testFrame(kind mandel.Kind, w, h int) mandel.Frame {
	f := mandel.Frame{
		Width:  w,
		Height: h,
		Kind:   kind,
		Size:   2.5,
		Offset: mgl64.Vec2{0.75, 0.5},
		Style:  mandel.DefaultStyle(),
	}
	if kind == mandel.DynamicsPlane {
		f.Size = 3.5
		f.Offset = mgl64.Vec2{0.5, 0.5}
	}
	return f
}

func near3(a, b mgl32.Vec3, tol float32) bool {
	for i := range 3 {
		if abs32(a[i]-b[i]) > tol {
			return false
		}
	}
	return true
}

func TestIterate(t *testing.T) {
	t.Run("origin never escapes", func(t *testing.T) {
		n, _, escaped := Iterate(mgl32.Vec2{}, mgl32.Vec2{}, 500, 3)
		if escaped {
			t.Fatal("c = 0 escaped")
		}
		if n != 499 {
			t.Errorf("n = %d, want 499", n)
		}
	})
	t.Run("c = 2 escapes on the second step", func(t *testing.T) {
		n, m, escaped := Iterate(mgl32.Vec2{}, mgl32.Vec2{2, 0}, 500, 3)
		if !escaped || n != 1 || m != 6 {
			t.Errorf("Iterate = %d, %v, %v; want 1, 6, true", n, m, escaped)
		}
	})
	t.Run("zero cap", func(t *testing.T) {
		if _, _, escaped := Iterate(mgl32.Vec2{}, mgl32.Vec2{5, 5}, 0, 3); escaped {
			t.Error("escaped without iterating")
		}
	})
}

func TestEscapeCountFallsOutsideTheSet(t *testing.T) {
	prev := math.MaxInt
	for _, x := range []float32{0.26, 0.3, 0.5, 1, 2, 4} {
		n, _, escaped := Iterate(mgl32.Vec2{}, mgl32.Vec2{x, 0}, 3000, 3)
		if !escaped {
			t.Fatalf("c = %v did not escape", x)
		}
		if n > prev {
			t.Errorf("c = %v escaped at %d, later than a smaller c at %d", x, n, prev)
		}
		prev = n
	}
}

func TestRaisingCapKeepsSmoothCount(t *testing.T) {
	tests := []struct {
		name         string
		small, large int
		radius       float32
	}{
		{"50 to 3000, radius 2", 50, 3000, 2},
		{"2 to 500, radius 3", 2, 500, 3},
		{"100 to 101, radius 4", 100, 101, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			escapedSmall := 0
			for i := range 61 {
				for j := range 61 {
					c := mgl32.Vec2{-2.2 + float32(i)*0.055, -1.5 + float32(j)*0.05}
					n, m, escaped := Iterate(mgl32.Vec2{}, c, tt.small, tt.radius)
					if !escaped {
						continue
					}
					escapedSmall++
					low := Smooth(n, m)

					n, m, escaped = Iterate(mgl32.Vec2{}, c, tt.large, tt.radius)
					if !escaped {
						t.Fatalf("c = %v escaped under cap %d but not under %d", c, tt.small, tt.large)
					}
					if high := Smooth(n, m); high < low {
						t.Errorf("c = %v: smooth count %v under cap %d, %v under cap %d", c, low, tt.small, high, tt.large)
					}
				}
			}
			if escapedSmall == 0 {
				t.Fatal("no grid point escaped")
			}
		})
	}
}

func TestSmooth(t *testing.T) {
	got := Smooth(1, 6)
	want := float32(1 - math.Log2(math.Log2(6)) - 1)
	if abs32(got-want) > 1e-6 {
		t.Errorf("Smooth(1, 6) = %v, want %v", got, want)
	}
	// at |z| = 2 the correction is exactly -1
	if got := Smooth(10, 2); got != 9 {
		t.Errorf("Smooth(10, 2) = %v, want 9", got)
	}
}

func TestPaletteStops(t *testing.T) {
	c1 := mgl32.Vec3{0.1, 0.2, 0.3}
	c2 := mgl32.Vec3{0.7, 0.6, 0.5}
	tests := []struct {
		nu   float32
		want mgl32.Vec3
	}{
		{0, c1},
		{10, white},
		{20, c2},
		{30, black},
		{40, c1},
	}
	for _, tt := range tests {
		if got := Palette(tt.nu, 40, c1, c2); !near3(got, tt.want, 1e-6) {
			t.Errorf("Palette(%v) = %v, want %v", tt.nu, got, tt.want)
		}
	}

	// halfway between stops the blend is even
	mid := Palette(5, 40, c1, c2)
	if want := c1.Add(white).Mul(0.5); !near3(mid, want, 1e-5) {
		t.Errorf("Palette(5) = %v, want %v", mid, want)
	}
}

func TestPalettePeriodic(t *testing.T) {
	c1, c2 := mandel.DefaultStyle().Color1, mandel.DefaultStyle().Color2
	for _, period := range []int{20, 50, 100} {
		for _, nu := range []float32{0.3, 7.25, 19.9, 33.3} {
			a := Palette(nu, period, c1, c2)
			b := Palette(nu+float32(period), period, c1, c2)
			if !near3(a, b, 1e-4) {
				t.Errorf("period %d: Palette(%v) = %v, Palette(%v) = %v", period, nu, a, nu+float32(period), b)
			}
		}
	}
}

func TestPaletteNonFinite(t *testing.T) {
	c1 := mgl32.Vec3{0.2, 0.4, 0.6}
	for _, nu := range []float32{float32(math.NaN()), float32(math.Inf(1)), float32(math.Inf(-1))} {
		if got := Palette(nu, 50, c1, black); got != c1 {
			t.Errorf("Palette(%v) = %v, want first stop %v", nu, got, c1)
		}
	}
}

func TestShadeInterior(t *testing.T) {
	// the camera center sits at 3/4 of the width and half the height
	f := testFrame(mandel.ParameterPlane, 100, 100)
	if got := Shade(f, 75, 49); got != Interior {
		t.Errorf("Shade at c = 0 is %v, want interior %v", got, Interior)
	}
	if got := Shade(f, 0, 0); got == Interior {
		t.Errorf("top-left corner (c = -1.875+1.25i) is interior")
	}
}

func TestShadeDynamicsPlane(t *testing.T) {
	// with c = 0 the filled Julia set is the unit disc
	f := testFrame(mandel.DynamicsPlane, 100, 100)
	if got := Shade(f, 60, 49); got != Interior {
		t.Errorf("z0 = 0.35 is %v, want interior", got)
	}
	if got := Shade(f, 95, 49); got == Interior {
		t.Errorf("z0 = 1.6 is interior")
	}
}

func TestShadeCrosshair(t *testing.T) {
	f := testFrame(mandel.ParameterPlane, 200, 200)
	f.Probe = mgl64.Vec2{100, 100}

	// image row 99 is the row above the probe in y-up surface pixels
	plain := Shade(f, 100, 99)
	f.ShowProbe = true
	crossed := Shade(f, 100, 99)
	if !near3(plain.Add(crossed), white, 1e-6) {
		t.Errorf("crosshair color %v is not the inverse of %v", crossed, plain)
	}

	off := Shade(f, 10, 10)
	f.ShowProbe = false
	if got := Shade(f, 10, 10); got != off {
		t.Errorf("pixel away from the crosshair changed: %v vs %v", off, got)
	}
}

func TestOnCross(t *testing.T) {
	tests := []struct {
		dx, dy float32
		want   bool
	}{
		{0, 0, true},
		{1.5, 49, true},
		{49, -1.5, true},
		{2, 0, true}, // on the horizontal arm only
		{2.5, 10, false},
		{0, 50, false},
		{10, 10, false},
	}
	for _, tt := range tests {
		if got := onCross(tt.dx, tt.dy); got != tt.want {
			t.Errorf("onCross(%v, %v) = %v, want %v", tt.dx, tt.dy, got, tt.want)
		}
	}
}

func TestKernelRenderTile(t *testing.T) {
	f := testFrame(mandel.DynamicsPlane, 40, 30)
	var called []image.Rectangle
	k := Kernel{OnTileRender: func(r image.Rectangle) { called = append(called, r) }}

	tile := image.Rect(30, 20, 50, 40)
	img, err := k.RenderTile(f, tile)
	if err != nil {
		t.Fatal(err)
	}
	if len(called) != 1 || called[0] != tile {
		t.Errorf("OnTileRender calls = %v", called)
	}
	if want := image.Rect(30, 20, 40, 30); img.Rect != want {
		t.Fatalf("tile bounds = %v, want clipped %v", img.Rect, want)
	}
	for y := img.Rect.Min.Y; y < img.Rect.Max.Y; y++ {
		for x := img.Rect.Min.X; x < img.Rect.Max.X; x++ {
			if got, want := img.RGBAAt(x, y), toRGBA(Shade(f, x, y)); got != want {
				t.Fatalf("pixel (%d, %d) = %v, want %v", x, y, got, want)
			}
		}
	}

	empty, err := k.RenderTile(f, image.Rect(100, 100, 120, 120))
	if err != nil || !empty.Rect.Empty() {
		t.Errorf("tile outside the frame = %v, %v", empty.Rect, err)
	}
}

func TestChannel(t *testing.T) {
	tests := []struct {
		in   float32
		want uint8
	}{
		{-1, 0},
		{0, 0},
		{0.5, 128},
		{1, 255},
		{2, 255},
	}
	for _, tt := range tests {
		if got := channel(tt.in); got != tt.want {
			t.Errorf("channel(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
