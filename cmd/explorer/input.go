package main

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	mandel "github.com/marben/mandel_julia"
)

// inputState tracks which view owns the mouse and the touches between ticks.
type inputState struct {
	mouseView *mandel.View
	cursor    mgl64.Vec2

	touchView *mandel.View
	touchIDs  []ebiten.TouchID
	touches   []mgl64.Vec2
}

var landmarkKeys = []ebiten.Key{
	ebiten.KeyDigit1, ebiten.KeyDigit2, ebiten.KeyDigit3,
	ebiten.KeyDigit4, ebiten.KeyDigit5, ebiten.KeyDigit6,
}

func (g *game) handleInput() {
	g.handleMouse()
	g.handleTouches()
	g.handleKeys()
}

func (g *game) handleMouse() {
	in := &g.input
	mx, my := ebiten.CursorPosition()
	p := mgl64.Vec2{float64(mx), float64(my)}
	moved := p != in.cursor
	in.cursor = p

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		if v := g.viewAt(p); v != nil {
			v.PointerDown(p)
			in.mouseView = v
		}
	} else if moved && in.mouseView != nil {
		if contains(in.mouseView.Rect(), p) {
			in.mouseView.PointerMove(p)
		} else {
			in.mouseView.PointerLeave()
			in.mouseView = nil
		}
	}
	if inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft) && in.mouseView != nil {
		in.mouseView.PointerUp()
		in.mouseView = nil
	}

	// Scrolling up reports a positive offset and zooms in.
	if _, dy := ebiten.Wheel(); dy != 0 {
		if v := g.viewAt(p); v != nil {
			v.Wheel(p, -dy)
		}
	}
}

func (g *game) handleTouches() {
	in := &g.input
	prev := len(in.touches)
	in.touchIDs = ebiten.AppendTouchIDs(in.touchIDs[:0])
	in.touches = in.touches[:0]
	for _, id := range in.touchIDs {
		x, y := ebiten.TouchPosition(id)
		in.touches = append(in.touches, mgl64.Vec2{float64(x), float64(y)})
	}
	n := len(in.touches)

	switch {
	case n > 0 && prev == 0:
		in.touchView = g.viewAt(in.touches[0])
		if in.touchView != nil {
			in.touchView.TouchStart(in.touches)
		}
	case in.touchView == nil:
	case n > prev:
		in.touchView.TouchStart(in.touches)
	case n < prev:
		// Lifting any finger ends the gesture; the rest wait for a new touch.
		in.touchView.TouchEnd()
		if n == 0 {
			in.touchView = nil
		}
	default:
		in.touchView.TouchMove(in.touches)
	}
}

func (g *game) handleKeys() {
	e := g.e
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyL):
		e.Parameter.ToggleLock()
	case inpututil.IsKeyJustPressed(ebiten.KeyK):
		e.Dynamics.ToggleLock()
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		e.Parameter.Reset()
		e.Dynamics.Reset()
	case inpututil.IsKeyJustPressed(ebiten.KeyH):
		g.showHUD = !g.showHUD
	case inpututil.IsKeyJustPressed(ebiten.KeyBracketLeft):
		g.patchStyle(mandel.StylePatch{IterationCap: ptr(e.Style.IterationCap - 50)})
	case inpututil.IsKeyJustPressed(ebiten.KeyBracketRight):
		g.patchStyle(mandel.StylePatch{IterationCap: ptr(e.Style.IterationCap + 50)})
	case inpututil.IsKeyJustPressed(ebiten.KeyMinus):
		g.patchStyle(mandel.StylePatch{ColorPeriod: ptr(e.Style.ColorPeriod - 5)})
	case inpututil.IsKeyJustPressed(ebiten.KeyEqual):
		g.patchStyle(mandel.StylePatch{ColorPeriod: ptr(e.Style.ColorPeriod + 5)})
	case inpututil.IsKeyJustPressed(ebiten.KeyComma):
		g.rampDone = true
		g.patchStyle(mandel.StylePatch{EscapeRadius: ptr(e.Style.EscapeRadius - 0.1)})
	case inpututil.IsKeyJustPressed(ebiten.KeyPeriod):
		g.rampDone = true
		g.patchStyle(mandel.StylePatch{EscapeRadius: ptr(e.Style.EscapeRadius + 0.1)})
	}

	names := mandel.LandmarkNames()
	for i, k := range landmarkKeys {
		if i < len(names) && e.Parameter.Rect().Valid() && inpututil.IsKeyJustPressed(k) {
			v := e.Parameter
			v.SetCamera(mandel.Landmarks[names[i]].Camera(v.Config().Offset, v.Rect().Aspect()))
		}
	}
}

func (g *game) patchStyle(p mandel.StylePatch) {
	s, err := g.e.Style.Apply(p)
	if err != nil {
		return
	}
	g.e.Style = s
}

// viewAt returns the view under client point p, or nil.
func (g *game) viewAt(p mgl64.Vec2) *mandel.View {
	for _, v := range g.e.Views() {
		if contains(v.Rect(), p) {
			return v
		}
	}
	return nil
}

func contains(r mandel.Rect, p mgl64.Vec2) bool {
	return r.Valid() &&
		p.X() >= r.Left && p.X() < r.Left+r.Width &&
		p.Y() >= r.Top && p.Y() < r.Top+r.Height
}

func ptr[T any](v T) *T { return &v }
