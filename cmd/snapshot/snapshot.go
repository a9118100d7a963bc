// snapshot.go is a headless client for the linked Mandelbrot / Julia views.
// It sets up both views from flags, renders one frame of each on the CPU and saves them as PNG files.

package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"image"
	"image/png"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	mandel "github.com/marben/mandel_julia"
	"github.com/marben/mandel_julia/internal/hud"
	"github.com/marben/mandel_julia/render"
)

type options struct {
	width, height int
	workers       int
	verbose       bool

	landmark    string
	paramCenter string
	paramSize   float64
	dynCenter   string
	dynSize     float64
	c           string
	z0          string

	iterations int
	escape     float64
	period     int
	color1     string
	color2     string

	hud      bool
	paramOut string
	dynOut   string
	spirvOut string
}

// main is the entry point for the snapshot client.
// It runs the client logic and logs any fatal errors.
func main() {
	var o options
	flag.IntVar(&o.width, "width", 960, "width of each view in pixels")
	flag.IntVar(&o.height, "height", 1080, "height of each view in pixels")
	flag.IntVar(&o.workers, "workers", 0, "render goroutines (0 = GOMAXPROCS)")
	flag.BoolVar(&o.verbose, "v", false, "debug logging")
	flag.StringVar(&o.landmark, "landmark", "", "parameter view landmark: "+strings.Join(mandel.LandmarkNames(), ", "))
	flag.StringVar(&o.paramCenter, "param-center", "", "parameter view camera center \"x,y\"")
	flag.Float64Var(&o.paramSize, "param-size", 0, "parameter view camera size (0 = default)")
	flag.StringVar(&o.dynCenter, "dyn-center", "", "dynamics view camera center \"x,y\"")
	flag.Float64Var(&o.dynSize, "dyn-size", 0, "dynamics view camera size (0 = default)")
	flag.StringVar(&o.c, "c", "", "parameter c \"x,y\"; the parameter view recenters when c is out of sight (default: under the parameter view probe)")
	flag.StringVar(&o.z0, "z0", "", "seed z0 \"x,y\" (default 0,0)")
	flag.IntVar(&o.iterations, "iterations", mandel.DefaultStyle().IterationCap, "iteration cap")
	flag.Float64Var(&o.escape, "escape", mandel.DefaultStyle().EscapeRadius, "escape radius")
	flag.IntVar(&o.period, "period", mandel.DefaultStyle().ColorPeriod, "color period")
	flag.StringVar(&o.color1, "color1", mandel.HexColor(mandel.DefaultStyle().Color1), "first palette color")
	flag.StringVar(&o.color2, "color2", mandel.HexColor(mandel.DefaultStyle().Color2), "second palette color")
	flag.BoolVar(&o.hud, "hud", true, "draw the coordinate overlay")
	flag.StringVar(&o.paramOut, "param-out", "parameter.png", "parameter view output file")
	flag.StringVar(&o.dynOut, "dyn-out", "dynamics.png", "dynamics view output file")
	flag.StringVar(&o.spirvOut, "spirv", "", "also write the compiled GPU kernel (SPIR-V) to this file")
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

// run sets up the explorer, renders one frame and saves both views.
func run(o options) error {
	// Step 1: Build the explorer and size both views
	e, err := newExplorer(o)
	if err != nil {
		return err
	}

	// Step 2: Render one frame on the CPU
	renderer := render.NewCPUScheduler(o.workers)
	log.Printf("Rendering %dx%d views on %d workers...", o.width, o.height, renderer.Workers())
	frames, err := e.Frame(renderer)
	if err != nil {
		return fmt.Errorf("render frame: %w", err)
	}

	// Step 3: Overlay coordinates
	if o.hud {
		overlay, err := hud.New(14)
		if err != nil {
			log.Printf("falling back to the basic font: %v", err)
			overlay = hud.Basic()
		}
		overlay.Draw(frames.Parameter, image.Pt(8, 8), overlay.Lines(e, e.Parameter))
		overlay.Draw(frames.Dynamics, image.Pt(8, 8), overlay.Lines(e, e.Dynamics))
	}

	// Step 4: Save the rendered images
	if err := savePNG(o.paramOut, frames.Parameter); err != nil {
		return err
	}
	if err := savePNG(o.dynOut, frames.Dynamics); err != nil {
		return err
	}

	// Step 5: Optionally export the GPU kernel
	if o.spirvOut != "" {
		if err := saveSPIRV(o.spirvOut); err != nil {
			return err
		}
	}
	return nil
}

func newExplorer(o options) (*mandel.Explorer, error) {
	style, err := mandel.DefaultStyle().Apply(mandel.StylePatch{
		IterationCap: &o.iterations,
		EscapeRadius: &o.escape,
		ColorPeriod:  &o.period,
		Color1:       o.color1,
		Color2:       o.color2,
	})
	if err != nil {
		return nil, fmt.Errorf("style: %w", err)
	}

	e := mandel.NewExplorerWith(mandel.ParameterViewConfig(), mandel.DynamicsViewConfig(), style)
	rect := mandel.Rect{Width: float64(o.width), Height: float64(o.height)}
	e.Parameter.Resize(rect)
	e.Dynamics.Resize(rect)

	if o.landmark != "" {
		region, ok := mandel.Landmarks[o.landmark]
		if !ok {
			return nil, fmt.Errorf("unknown landmark %q", o.landmark)
		}
		e.Parameter.SetCamera(region.Camera(e.Parameter.Config().Offset, rect.Aspect()))
	}
	if err := setCamera(e.Parameter, o.paramCenter, o.paramSize); err != nil {
		return nil, fmt.Errorf("parameter camera: %w", err)
	}
	if err := setCamera(e.Dynamics, o.dynCenter, o.dynSize); err != nil {
		return nil, fmt.Errorf("dynamics camera: %w", err)
	}

	// Probes: an explicit c pins the parameter probe onto it, an explicit z0
	// moves and unlocks the dynamics probe so it seeds the parameter view.
	if o.c != "" {
		c, err := parseVec(o.c)
		if err != nil {
			return nil, fmt.Errorf("c: %w", err)
		}
		if err := pinProbe(e.Parameter, c); err != nil {
			return nil, fmt.Errorf("c: %w", err)
		}
	}
	if o.z0 != "" {
		z0, err := parseVec(o.z0)
		if err != nil {
			return nil, fmt.Errorf("z0: %w", err)
		}
		if err := pinProbe(e.Dynamics, z0); err != nil {
			return nil, fmt.Errorf("z0: %w", err)
		}
		e.Dynamics.SetLocked(false)
	}

	// The parameter view renders first, so z0 has to be published up front.
	e.Publish()
	return e, nil
}

func setCamera(v *mandel.View, center string, size float64) error {
	cam := v.Camera()
	if center != "" {
		p, err := parseVec(center)
		if err != nil {
			return err
		}
		cam.Center = p
	}
	if size > 0 {
		cam.Size = size
	}
	v.SetCamera(cam)
	return nil
}

// pinProbe puts the probe of v on the plane point p. A point outside the
// window recenters the camera on it first; one the view bounds keep out of
// sight is an error.
func pinProbe(v *mandel.View, p mgl64.Vec2) error {
	if uv := v.Transform().ToNormalized(p); uv.X() < 0 || uv.X() > 1 || uv.Y() < 0 || uv.Y() > 1 {
		cam := v.Camera()
		cam.Center = p
		v.SetCamera(cam)
	}
	v.SetProbePlane(p)
	if got := v.ProbePlane(); got.Sub(p).Len() > 1e-9*max(1, p.Len()) {
		return fmt.Errorf("%v is outside the %s view bounds", p, v.Config().Name)
	}
	return nil
}

func parseVec(s string) (mgl64.Vec2, error) {
	var x, y float64
	if _, err := fmt.Sscanf(s, "%g,%g", &x, &y); err != nil {
		return mgl64.Vec2{}, fmt.Errorf("parse %q as \"x,y\": %w", s, err)
	}
	return mgl64.Vec2{x, y}, nil
}

func savePNG(filename string, img image.Image) error {
	log.Printf("Saving rendered image to %q...", filename)
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	return f.Close()
}

func saveSPIRV(filename string) error {
	words, err := render.CompileSPIRV()
	if err != nil {
		return err
	}
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create SPIR-V file: %w", err)
	}
	defer f.Close()

	if err := binary.Write(f, binary.LittleEndian, words); err != nil {
		return fmt.Errorf("write SPIR-V: %w", err)
	}
	log.Printf("GPU kernel (%d words) saved to %q", len(words), filename)
	return f.Close()
}
