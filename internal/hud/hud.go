// Package hud draws the text overlay of a view: probe coordinates, zoom and
// the lock caption.
package hud

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"slices"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	mandel "github.com/marben/mandel_julia"
)

const padding = 4

// Overlay draws lines of text in a translucent box.
type Overlay struct {
	face    font.Face
	printer *message.Printer

	Foreground color.Color
	Background color.Color
}

// New returns an overlay using Go Regular at the given point size.
func New(size float64) (*Overlay, error) {
	fnt, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse goregular: %w", err)
	}
	face, err := opentype.NewFace(fnt, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("new face: %w", err)
	}
	return newOverlay(face), nil
}

// Basic returns an overlay with the built-in 7x13 bitmap face. It cannot fail.
func Basic() *Overlay {
	return newOverlay(basicfont.Face7x13)
}

func newOverlay(face font.Face) *Overlay {
	return &Overlay{
		face:       face,
		printer:    message.NewPrinter(language.English),
		Foreground: color.White,
		Background: color.RGBA{A: 160},
	}
}

// Lines returns the overlay text for v.
func (o *Overlay) Lines(e *mandel.Explorer, v *mandel.View) []string {
	cfg := v.Config()
	probe := v.ProbePlane()
	fixed := e.C()
	fixedSym := "C"
	if cfg.Kind == mandel.ParameterPlane {
		fixed = e.Z0()
		fixedSym = "Z0"
	}
	return []string{
		o.printer.Sprintf("%s  %s = %.8f %+.8fi", cfg.Name, cfg.CoupledSymbol, probe.X(), probe.Y()),
		o.printer.Sprintf("%s = %.8f %+.8fi", fixedSym, fixed.X(), fixed.Y()),
		o.printer.Sprintf("zoom %.3g  iterations %d", cfg.InitialSize/v.Camera().Size, e.Style.IterationCap),
		v.LockLabel(),
	}
}

// Measure returns the size of the box Draw fills for lines.
func (o *Overlay) Measure(lines []string) image.Point {
	m := o.face.Metrics()
	lineH := m.Height.Ceil()
	w := 0
	for _, l := range lines {
		w = max(w, font.MeasureString(o.face, l).Ceil())
	}
	return image.Pt(w+2*padding, lineH*len(lines)+2*padding)
}

// Draw paints lines in a box whose top-left corner is at.
func (o *Overlay) Draw(dst draw.Image, at image.Point, lines []string) {
	if len(lines) == 0 {
		return
	}
	box := image.Rectangle{Min: at, Max: at.Add(o.Measure(lines))}
	draw.Draw(dst, box, image.NewUniform(o.Background), image.Point{}, draw.Over)

	m := o.face.Metrics()
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(o.Foreground),
		Face: o.face,
	}
	y := at.Y + padding + m.Ascent.Ceil()
	for _, l := range lines {
		d.Dot = fixed.P(at.X+padding, y)
		d.DrawString(l)
		y += m.Height.Ceil()
	}
}

// Cache keeps the last rendering of an overlay and redraws only when the
// lines change.
type Cache struct {
	o     *Overlay
	lines []string
	img   *image.RGBA
}

// NewCache returns an empty cache drawing with o.
func NewCache(o *Overlay) *Cache {
	return &Cache{o: o}
}

// Render returns lines drawn at the origin of a box sized by Measure, and
// whether the image differs from the one the previous call returned.
func (c *Cache) Render(lines []string) (img *image.RGBA, changed bool) {
	if c.img != nil && slices.Equal(c.lines, lines) {
		return c.img, false
	}
	c.lines = slices.Clone(lines)
	c.img = image.NewRGBA(image.Rectangle{Max: c.o.Measure(lines)})
	c.o.Draw(c.img, image.Point{}, lines)
	return c.img, true
}
