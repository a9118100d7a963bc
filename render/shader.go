package render

import (
	_ "embed"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/naga"

	mandel "github.com/marben/mandel_julia"
)

// EscapeWGSL is the kernel as a WGSL vertex + fragment program, for wgpu
// style backends. Uniforms go into binding 0 of group 0, see PackUniforms.
//
//go:embed shaders/escape.wgsl
var EscapeWGSL string

// EscapeKage is the kernel as an ebiten Kage fragment shader, see
// KageUniforms.
//
//go:embed shaders/escape.kage
var EscapeKage []byte

// UniformsSize is the byte size of the WGSL uniform block.
const UniformsSize = 96

// CompileSPIRV compiles the WGSL kernel to SPIR-V words.
func CompileSPIRV() ([]uint32, error) {
	spirvBytes, err := naga.Compile(EscapeWGSL)
	if err != nil {
		return nil, fmt.Errorf("compile escape kernel: %w", err)
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("compile escape kernel: SPIR-V size %d not a multiple of 4", len(spirvBytes))
	}

	// SPIR-V is a stream of little-endian 32-bit words
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(spirvBytes[i*4:])
	}
	return words, nil
}

// PackUniforms lays f out as the WGSL Uniforms struct (std140-like uniform
// layout: vec2 aligned to 8, vec4 to 16).
func PackUniforms(f mandel.Frame) []byte {
	b := make([]byte, UniformsSize)
	putF32 := func(off int, v float64) {
		binary.LittleEndian.PutUint32(b[off:], math.Float32bits(float32(v)))
	}
	putI32 := func(off int, v int) {
		binary.LittleEndian.PutUint32(b[off:], uint32(int32(v)))
	}
	putVec2 := func(off int, v [2]float64) {
		putF32(off, v[0])
		putF32(off+4, v[1])
	}

	putVec2(0, [2]float64{float64(f.Width), float64(f.Height)})
	putVec2(8, f.Center)
	putVec2(16, f.Offset)
	putVec2(24, f.Fixed)
	putVec2(32, f.Probe)
	putF32(40, f.Size)
	putF32(44, f.Style.EscapeRadius)
	putI32(48, f.Style.IterationCap)
	putI32(52, f.Style.ColorPeriod)
	putI32(56, int(f.Kind))
	showProbe := 0
	if f.ShowProbe {
		showProbe = 1
	}
	putI32(60, showProbe)
	for i := range 3 {
		putF32(64+4*i, float64(f.Style.Color1[i]))
		putF32(80+4*i, float64(f.Style.Color2[i]))
	}
	putF32(76, 1)
	putF32(92, 1)
	return b
}

// KageUniforms returns the uniform map of EscapeKage for f.
func KageUniforms(f mandel.Frame) map[string]any {
	showProbe := float32(0)
	if f.ShowProbe {
		showProbe = 1
	}
	return map[string]any{
		"Resolution":    []float32{float32(f.Width), float32(f.Height)},
		"Center":        []float32{float32(f.Center[0]), float32(f.Center[1])},
		"Offset":        []float32{float32(f.Offset[0]), float32(f.Offset[1])},
		"Fixed":         []float32{float32(f.Fixed[0]), float32(f.Fixed[1])},
		"Probe":         []float32{float32(f.Probe[0]), float32(f.Probe[1])},
		"Size":          float32(f.Size),
		"EscapeRadius":  float32(f.Style.EscapeRadius),
		"MaxIterations": float32(f.Style.IterationCap),
		"ColorPeriod":   float32(f.Style.ColorPeriod),
		"Kind":          float32(f.Kind),
		"ShowProbe":     showProbe,
		"Color1":        f.Style.Color1[:],
		"Color2":        f.Style.Color2[:],
	}
}
