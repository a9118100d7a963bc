package mandel

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/go-gl/mathgl/mgl64"
)

// Slot is a value published by one view and read by the other. Writes and
// reads both happen on the frame timeline, once per frame.
type Slot struct {
	value mgl64.Vec2
}

// Publish stores v.
func (s *Slot) Publish(v mgl64.Vec2) { s.value = v }

// Load returns the last published value.
func (s *Slot) Load() mgl64.Vec2 { return s.value }

// Explorer couples a parameter plane view with a dynamics plane view.
//
// The parameter view's probe is published as c and read by the dynamics
// view; the dynamics view's probe is published as z0 and seeds the parameter
// view. A locked view stops publishing, so the other side keeps the last
// value it saw.
type Explorer struct {
	Parameter *View
	Dynamics  *View
	Style     Style

	c  Slot
	z0 Slot
}

// FramePair holds the images of one frame tick. An image is nil when its
// view has no size yet.
type FramePair struct {
	Parameter *image.RGBA
	Dynamics  *image.RGBA
}

// NewExplorer creates both views with their default configuration.
func NewExplorer() *Explorer {
	return NewExplorerWith(ParameterViewConfig(), DynamicsViewConfig(), DefaultStyle())
}

// NewExplorerWith creates an explorer from explicit view configurations.
func NewExplorerWith(param, dyn ViewConfig, style Style) *Explorer {
	return &Explorer{
		Parameter: NewView(param),
		Dynamics:  NewView(dyn),
		Style:     style.Clamp(),
	}
}

// C returns the parameter currently fed to the dynamics view.
func (e *Explorer) C() mgl64.Vec2 { return e.c.Load() }

// Z0 returns the seed currently fed to the parameter view.
func (e *Explorer) Z0() mgl64.Vec2 { return e.z0.Load() }

// View returns the view with the given name, or nil.
func (e *Explorer) View(name string) *View {
	switch name {
	case e.Parameter.cfg.Name:
		return e.Parameter
	case e.Dynamics.cfg.Name:
		return e.Dynamics
	}
	return nil
}

// Frame renders one tick: the parameter view from the current z0, then the
// dynamics view from the c the parameter view just published. Each unlocked
// view publishes its probe after rendering.
func (e *Explorer) Frame(r FrameRenderer) (FramePair, error) {
	var out FramePair
	img, err := e.renderView(r, e.Parameter, &e.z0, &e.c)
	if err != nil {
		return out, fmt.Errorf("%s view: %w", e.Parameter.cfg.Name, err)
	}
	out.Parameter = img

	img, err = e.renderView(r, e.Dynamics, &e.c, &e.z0)
	if err != nil {
		return out, fmt.Errorf("%s view: %w", e.Dynamics.cfg.Name, err)
	}
	out.Dynamics = img
	return out, nil
}

// Publish runs the coupling step of a tick without rendering.
func (e *Explorer) Publish() {
	e.publish(e.Parameter, &e.c)
	e.publish(e.Dynamics, &e.z0)
}

// Tick returns the render inputs of both views for one frame and runs the
// coupling step in between, so the dynamics view sees the c the parameter
// view publishes in the same tick. Hosts that render on the GPU use it in
// place of Frame.
func (e *Explorer) Tick() (param, dyn Frame) {
	param = e.ViewFrame(e.Parameter)
	e.publish(e.Parameter, &e.c)
	dyn = e.ViewFrame(e.Dynamics)
	e.publish(e.Dynamics, &e.z0)
	return param, dyn
}

// ViewFrame returns the render inputs of v for the current tick.
func (e *Explorer) ViewFrame(v *View) Frame {
	if v == e.Parameter {
		return v.frame(e.z0.Load(), e.Style)
	}
	return v.frame(e.c.Load(), e.Style)
}

func (e *Explorer) renderView(r FrameRenderer, v *View, in, out *Slot) (*image.RGBA, error) {
	if !v.rect.Valid() {
		return nil, nil
	}
	img, err := r.RenderFrame(v.frame(in.Load(), e.Style))
	if err != nil {
		return nil, err
	}
	e.publish(v, out)
	return img, nil
}

func (e *Explorer) publish(v *View, out *Slot) {
	if v.locked || !v.rect.Valid() {
		return
	}
	p := v.ProbePlane()
	if p != out.Load() {
		Logger().Debug("probe published", slog.String("view", v.cfg.Name),
			slog.Float64("x", p.X()), slog.Float64("y", p.Y()))
	}
	out.Publish(p)
}
