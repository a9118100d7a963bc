// main.go is the desktop host of the linked Mandelbrot / Julia views.
// The parameter plane and the dynamics plane are shown side by side and driven by mouse, touch and keyboard.

package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	mandel "github.com/marben/mandel_julia"
)

type options struct {
	backend string
	workers int
	width   int
	height  int
	verbose bool
}

func main() {
	var o options
	flag.StringVar(&o.backend, "backend", "gpu", "renderer: gpu (Kage shader) or cpu (tile scheduler)")
	flag.IntVar(&o.workers, "workers", 0, "cpu backend render goroutines (0 = GOMAXPROCS)")
	flag.IntVar(&o.width, "width", 1600, "initial window width")
	flag.IntVar(&o.height, "height", 800, "initial window height")
	flag.BoolVar(&o.verbose, "v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}
	mandel.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := run(o); err != nil {
		log.Fatalf("FATAL: %v", err)
	}
}

func run(o options) error {
	// Step 1: Pick the backend
	var b backend
	switch o.backend {
	case "gpu":
		kb, err := newKageBackend()
		if err != nil {
			return err
		}
		b = kb
	case "cpu":
		b = newCPUBackend(o.workers)
	default:
		return fmt.Errorf("unknown backend %q", o.backend)
	}

	// Step 2: Open the window and run
	g := newGame(mandel.NewExplorer(), b)
	ebiten.SetWindowSize(o.width, o.height)
	ebiten.SetWindowTitle("Mandelbrot / Julia | drag: pan or move probe | wheel, pinch: zoom | L, K: lock | R: reset")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	if err := ebiten.RunGame(g); err != nil {
		return fmt.Errorf("run game: %w", err)
	}
	return nil
}
