package main

import (
	"fmt"
	"image"

	"github.com/hajimehoshi/ebiten/v2"

	mandel "github.com/marben/mandel_julia"
	"github.com/marben/mandel_julia/render"
)

// backend renders one tick of both views onto their surfaces. A nil surface
// belongs to a view that has no size yet.
type backend interface {
	render(e *mandel.Explorer, surfaces [2]*ebiten.Image) error
}

// kageBackend runs the escape-time kernel as a fragment shader.
type kageBackend struct {
	shader *ebiten.Shader
}

func newKageBackend() (*kageBackend, error) {
	s, err := ebiten.NewShader(render.EscapeKage)
	if err != nil {
		return nil, fmt.Errorf("compile kage kernel: %w", err)
	}
	return &kageBackend{shader: s}, nil
}

func (b *kageBackend) render(e *mandel.Explorer, surfaces [2]*ebiten.Image) error {
	param, dyn := e.Tick()
	for i, f := range [2]mandel.Frame{param, dyn} {
		if surfaces[i] == nil || f.Width <= 0 || f.Height <= 0 {
			continue
		}
		surfaces[i].DrawRectShader(f.Width, f.Height, b.shader, &ebiten.DrawRectShaderOptions{
			Uniforms: render.KageUniforms(f),
		})
	}
	return nil
}

// cpuBackend renders on the tile scheduler and uploads the pixels. Frames
// whose inputs did not change are not rendered again.
type cpuBackend struct {
	scheduler *render.Scheduler
	last      [2]mandel.Frame
	valid     bool
}

func newCPUBackend(workers int) *cpuBackend {
	return &cpuBackend{scheduler: render.NewCPUScheduler(workers)}
}

// invalidate forces the next render, for example after surfaces were reallocated.
func (b *cpuBackend) invalidate() { b.valid = false }

func (b *cpuBackend) render(e *mandel.Explorer, surfaces [2]*ebiten.Image) error {
	key := [2]mandel.Frame{e.ViewFrame(e.Parameter), e.ViewFrame(e.Dynamics)}
	if b.valid && key == b.last {
		return nil
	}

	frames, err := e.Frame(b.scheduler)
	if err != nil {
		return err
	}
	for i, img := range [2]*image.RGBA{frames.Parameter, frames.Dynamics} {
		if surfaces[i] == nil || img == nil || img.Rect.Size() != surfaces[i].Bounds().Size() {
			continue
		}
		surfaces[i].WritePixels(img.Pix)
	}
	b.last = key
	b.valid = true
	return nil
}
