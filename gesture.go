package mandel

import (
	"log/slog"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// WheelZoomFactor is the size change per wheel notch.
const WheelZoomFactor = 1.15

// GestureKind is what a press turned into.
type GestureKind int

const (
	Panning GestureKind = iota
	Probing
	Pinching
)

func (k GestureKind) String() string {
	switch k {
	case Panning:
		return "panning"
	case Probing:
		return "probing"
	case Pinching:
		return "pinching"
	}
	return "unknown"
}

// GestureSession lives from press to release.
type GestureSession struct {
	Kind GestureKind
	// Anchor is the last pointer position in client coordinates.
	Anchor mgl64.Vec2
	// PrevPinchDistance is valid when HasPrevPinch is set.
	PrevPinchDistance float64
	HasPrevPinch      bool
}

// PointerDown starts a gesture at client point p: probing when p hits the
// unlocked probe, panning otherwise.
func (v *View) PointerDown(p mgl64.Vec2) {
	if !v.rect.Valid() || !finiteVec(p) {
		return
	}
	kind := Panning
	if !v.locked && v.hitsProbe(p) {
		kind = Probing
	}
	v.gesture = &GestureSession{Kind: kind, Anchor: p}
	Logger().Debug("gesture start", slog.String("view", v.cfg.Name), slog.String("kind", kind.String()))
}

// PointerMove continues the gesture with the pointer at client point p.
// Without a gesture in progress the move is ignored.
func (v *View) PointerMove(p mgl64.Vec2) {
	g := v.gesture
	if g == nil || !v.rect.Valid() || !finiteVec(p) {
		return
	}
	switch g.Kind {
	case Panning:
		v.pan(g.Anchor, p)
		g.Anchor = p
	case Probing:
		v.probe = v.surfacePoint(p)
		g.Anchor = p
	}
}

// PointerUp ends the gesture.
func (v *View) PointerUp() { v.endGesture() }

// PointerLeave ends the gesture when the pointer leaves the surface.
func (v *View) PointerLeave() { v.endGesture() }

// TouchStart begins a touch gesture. One touch behaves like a pointer press;
// two touches start pinching.
func (v *View) TouchStart(touches []mgl64.Vec2) {
	switch {
	case len(touches) == 1:
		if v.gesture == nil {
			v.PointerDown(touches[0])
		}
	case len(touches) >= 2:
		v.beginPinch()
		v.TouchMove(touches)
	}
}

// TouchMove continues a touch gesture. Two touches pinch around their
// centroid, a single touch drags like the pointer.
func (v *View) TouchMove(touches []mgl64.Vec2) {
	switch {
	case len(touches) == 1:
		v.PointerMove(touches[0])
	case len(touches) >= 2:
		v.beginPinch()
		if v.gesture == nil {
			return
		}
		if v.gesture.Kind != Pinching {
			// a second finger while dragging the probe keeps probing
			v.PointerMove(touches[0])
			return
		}
		v.pinch(touches[0], touches[1])
	}
}

// TouchEnd ends the touch gesture and forgets the pinch distance so the next
// two-finger gesture does not jump.
func (v *View) TouchEnd() { v.endGesture() }

// Wheel zooms around client point p, one notch per call: out for positive
// deltaY, in for negative. Zero deltaY does nothing.
func (v *View) Wheel(p mgl64.Vec2, deltaY float64) {
	if !v.rect.Valid() || !finiteVec(p) || deltaY == 0 || math.IsNaN(deltaY) {
		return
	}
	factor := WheelZoomFactor
	if deltaY < 0 {
		factor = 1 / WheelZoomFactor
	}
	v.zoomAt(ToNormalized(p, v.rect), v.camera.Size*factor)
}

// beginPinch turns an idle or panning view into a pinching one.
func (v *View) beginPinch() {
	if !v.rect.Valid() {
		return
	}
	if v.gesture != nil && v.gesture.Kind != Panning {
		return
	}
	v.gesture = &GestureSession{Kind: Pinching}
	Logger().Debug("gesture start", slog.String("view", v.cfg.Name), slog.String("kind", Pinching.String()))
}

func (v *View) pinch(a, b mgl64.Vec2) {
	g := v.gesture
	if !v.rect.Valid() || !finiteVec(a) || !finiteVec(b) {
		return
	}
	dist := a.Sub(b).Len()
	if dist == 0 {
		return
	}
	centroid := a.Add(b).Mul(0.5)
	if g.HasPrevPinch {
		v.zoomAt(ToNormalized(centroid, v.rect), v.camera.Size*g.PrevPinchDistance/dist)
	}
	g.PrevPinchDistance = dist
	g.HasPrevPinch = true
	g.Anchor = centroid
}

// zoomAt resizes the camera keeping the plane point under uv fixed, then
// clamps the center into bounds.
func (v *View) zoomAt(uv mgl64.Vec2, size float64) {
	if !finite(size) {
		return
	}
	size = clampSize(size, v.cfg.MinZoom, v.cfg.MaxZoom)
	next := v.camera.zoomAbout(uv, size, v.cfg.Offset, v.rect.Aspect())
	if !finiteVec(next.Center) {
		return
	}
	v.camera = next
	v.clampCamera()
}

// pan moves the camera so the plane point under from ends up under to.
func (v *View) pan(from, to mgl64.Vec2) {
	d := v.Transform().displacement()
	before := d.ToPlane(ToNormalized(from, v.rect))
	after := d.ToPlane(ToNormalized(to, v.rect))
	center := v.camera.Center.Add(before.Sub(after))
	if !finiteVec(center) {
		return
	}
	v.camera.Center = center
	v.clampCamera()
}

// surfacePoint converts a client point into y-up surface pixels inside the
// surface.
func (v *View) surfacePoint(p mgl64.Vec2) mgl64.Vec2 {
	x := mgl64.Clamp(p.X()-v.rect.Left, 0, v.rect.Width)
	y := mgl64.Clamp(p.Y()-v.rect.Top, 0, v.rect.Height)
	return mgl64.Vec2{x, v.rect.Height - y}
}

func (v *View) hitsProbe(p mgl64.Vec2) bool {
	s := mgl64.Vec2{p.X() - v.rect.Left, v.rect.Height - (p.Y() - v.rect.Top)}
	return s.Sub(v.probe).Len() <= v.cfg.ProbeHitRadius
}

func (v *View) endGesture() {
	if v.gesture != nil {
		Logger().Debug("gesture end", slog.String("view", v.cfg.Name), slog.String("kind", v.gesture.Kind.String()))
	}
	v.gesture = nil
}
