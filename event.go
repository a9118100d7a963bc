package mandel

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// EventType names an input event.
type EventType string

const (
	EventDown       EventType = "down"
	EventMove       EventType = "move"
	EventUp         EventType = "up"
	EventLeave      EventType = "leave"
	EventWheel      EventType = "wheel"
	EventTouchStart EventType = "touchstart"
	EventTouchMove  EventType = "touchmove"
	EventTouchEnd   EventType = "touchend"
	EventLock       EventType = "lock"
	EventReset      EventType = "reset"
	EventResize     EventType = "resize"
	EventStyle      EventType = "style"
)

// Point is a client coordinate on the wire.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) vec() mgl64.Vec2 { return mgl64.Vec2{p.X, p.Y} }

// Event is an input event addressed to one view, as sent by remote hosts.
// Style events are not view specific.
type Event struct {
	Type    EventType   `json:"type"`
	View    string      `json:"view,omitempty"`
	X       float64     `json:"x,omitempty"`
	Y       float64     `json:"y,omitempty"`
	DeltaY  float64     `json:"deltaY,omitempty"`
	Touches []Point     `json:"touches,omitempty"`
	Rect    *Rect       `json:"rect,omitempty"`
	Style   *StylePatch `json:"style,omitempty"`
}

// Apply dispatches ev. Unknown views and event types are reported as errors;
// malformed coordinates are dropped by the views themselves.
func (e *Explorer) Apply(ev Event) error {
	if ev.Type == EventStyle {
		if ev.Style == nil {
			return fmt.Errorf("style event without style")
		}
		s, err := e.Style.Apply(*ev.Style)
		if err != nil {
			return fmt.Errorf("apply style: %w", err)
		}
		e.Style = s
		return nil
	}

	v := e.View(ev.View)
	if v == nil {
		return fmt.Errorf("unknown view %q", ev.View)
	}
	p := mgl64.Vec2{ev.X, ev.Y}
	switch ev.Type {
	case EventDown:
		v.PointerDown(p)
	case EventMove:
		v.PointerMove(p)
	case EventUp:
		v.PointerUp()
	case EventLeave:
		v.PointerLeave()
	case EventWheel:
		v.Wheel(p, ev.DeltaY)
	case EventTouchStart:
		v.TouchStart(touchVecs(ev.Touches))
	case EventTouchMove:
		v.TouchMove(touchVecs(ev.Touches))
	case EventTouchEnd:
		v.TouchEnd()
	case EventLock:
		v.ToggleLock()
	case EventReset:
		v.Reset()
	case EventResize:
		if ev.Rect == nil {
			return fmt.Errorf("resize event without rect")
		}
		v.Resize(*ev.Rect)
	default:
		return fmt.Errorf("unknown event type %q", ev.Type)
	}
	return nil
}

func touchVecs(ts []Point) []mgl64.Vec2 {
	out := make([]mgl64.Vec2, len(ts))
	for i, t := range ts {
		out[i] = t.vec()
	}
	return out
}
