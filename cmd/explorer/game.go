package main

import (
	"image"
	"log"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	mandel "github.com/marben/mandel_julia"
	"github.com/marben/mandel_julia/internal/hud"
)

// game implements ebiten.Game for the two coupled views.
type game struct {
	e       *mandel.Explorer
	backend backend
	overlay *hud.Overlay
	huds    [2]*hud.Cache
	hudImgs [2]*ebiten.Image
	showHUD bool

	// outside size reported by Layout and the size the views were laid out for
	outW, outH     int
	laidW, laidH   int
	surfaces       [2]*ebiten.Image
	surfaceOrigins [2]image.Point
	input          inputState
	ramp           mandel.EscapeRamp
	rampStart      time.Time
	rampDone       bool
}

func newGame(e *mandel.Explorer, b backend) *game {
	overlay, err := hud.New(14)
	if err != nil {
		log.Printf("falling back to the basic font: %v", err)
		overlay = hud.Basic()
	}
	return &game{
		e:         e,
		backend:   b,
		overlay:   overlay,
		huds:      [2]*hud.Cache{hud.NewCache(overlay), hud.NewCache(overlay)},
		showHUD:   true,
		ramp:      mandel.DefaultEscapeRamp(),
		rampStart: time.Now(),
	}
}

func (g *game) Update() error {
	// Step 1: Follow the window size
	if g.outW != g.laidW || g.outH != g.laidH {
		g.layoutViews(g.outW, g.outH)
	}

	// Step 2: Input
	g.handleInput()

	// Step 3: Opening animation of the escape radius
	if !g.rampDone {
		g.e.Style.EscapeRadius, g.rampDone = g.ramp.At(time.Since(g.rampStart))
	}

	// Step 4: Render both views
	return g.backend.render(g.e, g.surfaces)
}

func (g *game) Draw(screen *ebiten.Image) {
	for i, s := range g.surfaces {
		if s == nil {
			continue
		}
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Translate(float64(g.surfaceOrigins[i].X), float64(g.surfaceOrigins[i].Y))
		screen.DrawImage(s, op)
	}
	if !g.showHUD {
		return
	}
	for i, v := range g.e.Views() {
		if g.surfaces[i] == nil {
			continue
		}
		g.drawHUD(screen, i, g.surfaceOrigins[i].Add(image.Pt(8, 8)), v)
	}
}

// drawHUD draws the overlay of view i. The ebiten image is rebuilt only
// when the text changed since the last frame.
func (g *game) drawHUD(screen *ebiten.Image, i int, at image.Point, v *mandel.View) {
	rgba, changed := g.huds[i].Render(g.overlay.Lines(g.e, v))
	if changed || g.hudImgs[i] == nil {
		if g.hudImgs[i] != nil {
			g.hudImgs[i].Deallocate()
		}
		g.hudImgs[i] = ebiten.NewImageFromImage(rgba)
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(at.X), float64(at.Y))
	screen.DrawImage(g.hudImgs[i], op)
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.outW, g.outH = outsideWidth, outsideHeight
	return outsideWidth, outsideHeight
}

// layoutViews splits the window between the views: side by side in
// landscape, stacked in portrait.
func (g *game) layoutViews(w, h int) {
	g.laidW, g.laidH = w, h
	rects := viewRects(w, h)
	for i, v := range g.e.Views() {
		r := rects[i]
		if g.surfaces[i] != nil {
			g.surfaces[i].Deallocate()
			g.surfaces[i] = nil
		}
		if r.Dx() <= 0 || r.Dy() <= 0 {
			continue
		}
		v.Resize(mandel.Rect{
			Left:   float64(r.Min.X),
			Top:    float64(r.Min.Y),
			Width:  float64(r.Dx()),
			Height: float64(r.Dy()),
		})
		g.surfaces[i] = ebiten.NewImage(r.Dx(), r.Dy())
		g.surfaceOrigins[i] = r.Min
	}
	if inv, ok := g.backend.(interface{ invalidate() }); ok {
		inv.invalidate()
	}
}

func viewRects(w, h int) [2]image.Rectangle {
	if w >= h {
		return [2]image.Rectangle{
			image.Rect(0, 0, w/2, h),
			image.Rect(w/2, 0, w, h),
		}
	}
	return [2]image.Rectangle{
		image.Rect(0, 0, w, h/2),
		image.Rect(0, h/2, w, h),
	}
}
