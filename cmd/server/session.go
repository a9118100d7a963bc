package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	mandel "github.com/marben/mandel_julia"
)

// session owns the explorer state of one connected browser. Events arrive as
// JSON text messages; frames leave as binary messages made of the view index
// followed by a PNG, each pair of frames followed by a JSON status.
type session struct {
	conn     *websocket.Conn
	explorer *mandel.Explorer
	renderer mandel.FrameRenderer
	interval time.Duration

	ramp      mandel.EscapeRamp
	rampStart time.Time
	rampDone  bool
}

func newSession(conn *websocket.Conn, r mandel.FrameRenderer, interval time.Duration) *session {
	return &session{
		conn:     conn,
		explorer: mandel.NewExplorer(),
		renderer: r,
		interval: interval,
		ramp:     mandel.DefaultEscapeRamp(),
	}
}

// run serves the session until the client disconnects or ctx is done.
func (s *session) run(ctx context.Context) error {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	events := make(chan mandel.Event)
	go func() {
		for {
			var ev mandel.Event
			if err := wsjson.Read(ctx, s.conn, &ev); err != nil {
				cancel(fmt.Errorf("read event: %w", err))
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.rampStart = time.Now()
	dirty := true
	for {
		select {
		case <-ctx.Done():
			return context.Cause(ctx)
		case ev := <-events:
			if err := s.apply(ev); err != nil {
				log.Printf("session: dropping event: %v", err)
				continue
			}
			dirty = true
		case now := <-ticker.C:
			if s.advanceRamp(now) {
				dirty = true
			}
			if !dirty {
				continue
			}
			if err := s.sendFrames(ctx); err != nil {
				return err
			}
			dirty = false
		}
	}
}

func (s *session) apply(ev mandel.Event) error {
	// An explicit escape radius ends the opening animation.
	if ev.Type == mandel.EventStyle && ev.Style != nil && ev.Style.EscapeRadius != nil {
		s.rampDone = true
	}
	return s.explorer.Apply(ev)
}

// advanceRamp animates the escape radius and reports whether it changed.
func (s *session) advanceRamp(now time.Time) bool {
	if s.rampDone {
		return false
	}
	radius, done := s.ramp.At(now.Sub(s.rampStart))
	s.explorer.Style.EscapeRadius = radius
	s.rampDone = done
	return true
}

func (s *session) sendFrames(ctx context.Context) error {
	frames, err := s.explorer.Frame(s.renderer)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}

	for i, img := range []*image.RGBA{frames.Parameter, frames.Dynamics} {
		if img == nil {
			continue
		}
		var buf bytes.Buffer
		buf.WriteByte(byte(i))
		if err := png.Encode(&buf, img); err != nil {
			return fmt.Errorf("encode view %d: %w", i, err)
		}
		if err := s.conn.Write(ctx, websocket.MessageBinary, buf.Bytes()); err != nil {
			return fmt.Errorf("write view %d: %w", i, err)
		}
	}

	if err := wsjson.Write(ctx, s.conn, s.explorer.Status()); err != nil {
		return fmt.Errorf("write status: %w", err)
	}
	return nil
}

// closeStatus maps the end of a session to a websocket close status.
func closeStatus(err error) (websocket.StatusCode, string) {
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		return websocket.StatusGoingAway, "server shutting down"
	case websocket.CloseStatus(err) != -1:
		return websocket.StatusNormalClosure, ""
	default:
		return websocket.StatusInternalError, "session failed"
	}
}
