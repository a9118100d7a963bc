//go:build js && wasm

package main

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"syscall/js"
)

// decodeFrame decodes a PNG frame into RGBA pixels.
func decodeFrame(data []byte) (*image.RGBA, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba, nil
	}
	rgba := image.NewRGBA(img.Bounds())
	draw.Draw(rgba, rgba.Rect, img, img.Bounds().Min, draw.Src)
	return rgba, nil
}

// initCanvas sizes the canvas backing store and fills it with color.
// Resizing a canvas clears it, so it is skipped when the size is unchanged.
func initCanvas(id string, width, height int, color string) {
	doc := js.Global().Get("document")
	canvas := doc.Call("getElementById", id)
	if canvas.Get("width").Int() == width && canvas.Get("height").Int() == height {
		return
	}

	canvas.Set("width", width)
	canvas.Set("height", height)

	ctx := canvas.Call("getContext", "2d")

	ctx.Set("fillStyle", color)
	ctx.Call("fillRect", 0, 0, width, height)
}

// drawFrame puts img at the top-left corner of the canvas.
func drawFrame(id string, img *image.RGBA) {
	// 1. Get the browser context
	document := js.Global().Get("document")
	canvas := document.Call("getElementById", id)
	ctx := canvas.Call("getContext", "2d")

	// 2. Prepare the pixel data
	// The length is width * height * 4 (RGBA)
	jsData := js.Global().Get("Uint8ClampedArray").New(len(img.Pix))
	js.CopyBytesToJS(jsData, img.Pix)

	// 3. Create the ImageData object
	// Note: ImageData always expects width/height of the buffer provided
	width := img.Rect.Dx()
	height := img.Rect.Dy()
	imageData := js.Global().Get("ImageData").New(jsData, width, height)

	// 4. Draw to the canvas
	ctx.Call("putImageData", imageData, 0, 0)
}
