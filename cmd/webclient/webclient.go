//go:build js && wasm

// webclient.go is a WASM web client for the explorer server.
// It forwards pointer, touch and control events of the page to the server and paints the frames it pushes back.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"syscall/js"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	mandel "github.com/marben/mandel_julia"
)

// viewNames are the canvas ids, in the order the server indexes frames.
var viewNames = []string{"parameter", "dynamics"}

// main is the entry point for the WASM web client.
func main() {
	logScreenf("Starting WASM web client...")
	ctx := context.Background()

	// Step 1: Determine server address for WebSocket connection
	loc := js.Global().Get("window").Get("location")
	host := loc.Get("host").String()
	proto := "ws"
	if loc.Get("protocol").String() == "https:" {
		proto = "wss"
	}
	websocketUrl := proto + "://" + host + "/ws"

	// Step 2: Connect to server via WebSocket
	logScreenf("Connecting to explorer server at %s...", websocketUrl)
	conn, _, err := websocket.Dial(ctx, websocketUrl, nil)
	if err != nil {
		logFatalf("Failed to connect: %v", err)
	}
	conn.SetReadLimit(32 << 20)
	logScreenf("WebSocket connected.")

	// Step 3: Forward page events to the server
	events := make(chan mandel.Event, 256)
	go func() {
		for ev := range events {
			if err := wsjson.Write(ctx, conn, ev); err != nil {
				logFatalf("Failed to send %s event: %v", ev.Type, err)
			}
		}
	}()
	send := func(ev mandel.Event) {
		select {
		case events <- ev:
		default:
			logScreenf("event queue full, dropping %s", ev.Type)
		}
	}
	for _, name := range viewNames {
		bindView(name, send)
	}
	bindControls(send)
	resizeAll := func() {
		for _, name := range viewNames {
			send(resizeEvent(name))
		}
	}
	js.Global().Get("window").Call("addEventListener", "resize", js.FuncOf(func(js.Value, []js.Value) any {
		resizeAll()
		return nil
	}))
	resizeAll()

	// Step 4: Paint frames until the connection drops
	logScreenf("Starting frame loop...")
	if err := frameLoop(ctx, conn); err != nil {
		logFatalf("frameLoop: %v", err)
	}
}

// logScreenf appends a formatted message to the log element in the DOM.
func logScreenf(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)

	doc := js.Global().Get("document")
	logElem := doc.Call("getElementById", "log")
	logElem.Set("textContent", logElem.Get("textContent").String()+msg+"\n")
}

// logFatalf logs a fatal error to the log window and terminates the program.
func logFatalf(format string, a ...any) {
	logScreenf("FATAL: "+format, a...)
	log.Fatalf(format, a...)
}

// frameLoop reads server messages: binary frames go to their canvas, text
// messages carry the status shown in the captions.
func frameLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		if typ == websocket.MessageText {
			var st mandel.Status
			if err := json.Unmarshal(data, &st); err != nil {
				return fmt.Errorf("decode status: %w", err)
			}
			showStatus(st)
			continue
		}
		if len(data) < 2 || int(data[0]) >= len(viewNames) {
			logScreenf("ignoring malformed frame of %d bytes", len(data))
			continue
		}
		img, err := decodeFrame(data[1:])
		if err != nil {
			return err
		}
		drawFrame(viewNames[data[0]], img)
	}
}

// bindView forwards the mouse, wheel and touch events of a canvas and the
// clicks of its lock button.
func bindView(name string, send func(mandel.Event)) {
	doc := js.Global().Get("document")
	canvas := doc.Call("getElementById", name)

	pointer := func(typ mandel.EventType) js.Func {
		return js.FuncOf(func(_ js.Value, args []js.Value) any {
			e := args[0]
			send(mandel.Event{Type: typ, View: name, X: e.Get("clientX").Float(), Y: e.Get("clientY").Float()})
			return nil
		})
	}
	canvas.Call("addEventListener", "mousedown", pointer(mandel.EventDown))
	canvas.Call("addEventListener", "mousemove", pointer(mandel.EventMove))
	canvas.Call("addEventListener", "mouseup", pointer(mandel.EventUp))
	canvas.Call("addEventListener", "mouseleave", pointer(mandel.EventLeave))

	canvas.Call("addEventListener", "wheel", js.FuncOf(func(_ js.Value, args []js.Value) any {
		e := args[0]
		e.Call("preventDefault")
		send(mandel.Event{
			Type:   mandel.EventWheel,
			View:   name,
			X:      e.Get("clientX").Float(),
			Y:      e.Get("clientY").Float(),
			DeltaY: e.Get("deltaY").Float(),
		})
		return nil
	}), map[string]any{"passive": false})

	touch := func(typ mandel.EventType) js.Func {
		return js.FuncOf(func(_ js.Value, args []js.Value) any {
			e := args[0]
			e.Call("preventDefault")
			send(mandel.Event{Type: typ, View: name, Touches: touchPoints(e.Get("touches"))})
			return nil
		})
	}
	opts := map[string]any{"passive": false}
	canvas.Call("addEventListener", "touchstart", touch(mandel.EventTouchStart), opts)
	canvas.Call("addEventListener", "touchmove", touch(mandel.EventTouchMove), opts)
	canvas.Call("addEventListener", "touchend", touch(mandel.EventTouchEnd), opts)

	doc.Call("getElementById", name+"Lock").Call("addEventListener", "click", js.FuncOf(func(js.Value, []js.Value) any {
		send(mandel.Event{Type: mandel.EventLock, View: name})
		return nil
	}))
}

func touchPoints(list js.Value) []mandel.Point {
	n := list.Get("length").Int()
	pts := make([]mandel.Point, n)
	for i := range n {
		t := list.Call("item", i)
		pts[i] = mandel.Point{X: t.Get("clientX").Float(), Y: t.Get("clientY").Float()}
	}
	return pts
}

// resizeEvent matches the canvas backing store to its layout box and reports
// the box to the server.
func resizeEvent(name string) mandel.Event {
	canvas := js.Global().Get("document").Call("getElementById", name)
	box := canvas.Call("getBoundingClientRect")
	r := mandel.Rect{
		Left:   box.Get("left").Float(),
		Top:    box.Get("top").Float(),
		Width:  box.Get("width").Float(),
		Height: box.Get("height").Float(),
	}
	initCanvas(name, int(r.Width), int(r.Height), "#3a3a6e")
	return mandel.Event{Type: mandel.EventResize, View: name, Rect: &r}
}

// bindControls forwards the style sliders and color pickers.
func bindControls(send func(mandel.Event)) {
	doc := js.Global().Get("document")
	on := func(id string, patch func(v string) (mandel.StylePatch, error)) {
		doc.Call("getElementById", id).Call("addEventListener", "input", js.FuncOf(func(this js.Value, _ []js.Value) any {
			p, err := patch(this.Get("value").String())
			if err != nil {
				logScreenf("%s: %v", id, err)
				return nil
			}
			send(mandel.Event{Type: mandel.EventStyle, Style: &p})
			return nil
		}))
	}
	on("iterationCap", func(v string) (mandel.StylePatch, error) {
		n, err := strconv.Atoi(v)
		return mandel.StylePatch{IterationCap: &n}, err
	})
	on("escapeRadius", func(v string) (mandel.StylePatch, error) {
		r, err := strconv.ParseFloat(v, 64)
		return mandel.StylePatch{EscapeRadius: &r}, err
	})
	on("colorPeriod", func(v string) (mandel.StylePatch, error) {
		n, err := strconv.Atoi(v)
		return mandel.StylePatch{ColorPeriod: &n}, err
	})
	on("color1", func(v string) (mandel.StylePatch, error) {
		return mandel.StylePatch{Color1: v}, nil
	})
	on("color2", func(v string) (mandel.StylePatch, error) {
		return mandel.StylePatch{Color2: v}, nil
	})
}

// showStatus updates the captions and lock buttons.
func showStatus(st mandel.Status) {
	doc := js.Global().Get("document")
	for _, v := range st.Views {
		sym := "C"
		fixed, fixedSym := st.Z0, "Z0"
		if v.Name == "dynamics" {
			sym = "Z0"
			fixed, fixedSym = st.C, "C"
		}
		text := fmt.Sprintf("%s = %.8f %+.8fi\n%s = %.8f %+.8fi\nsize %.3g",
			sym, v.Probe.X, v.Probe.Y, fixedSym, fixed.X, fixed.Y, v.Size)
		doc.Call("getElementById", v.Name+"Text").Set("textContent", text)
		doc.Call("getElementById", v.Name+"Lock").Set("textContent", v.LockLabel)
	}
}
