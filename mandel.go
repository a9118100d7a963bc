// Package mandel is the interaction core of a linked Mandelbrot / Julia
// explorer: two views of the quadratic map z -> z² + c, one over the
// parameter c and one over the starting point z0, each with a pannable and
// zoomable camera and a draggable probe whose plane coordinate feeds the
// other view.
//
// The package is pure state and math. Rendering lives in the render
// package, windows and transports in cmd/.
package mandel

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// Region is a rectangle of the fractal plane.
type Region struct {
	Xmin, Xmax float64
	Ymin, Ymax float64
}

// Center returns the middle of the region.
func (r Region) Center() mgl64.Vec2 {
	return mgl64.Vec2{(r.Xmin + r.Xmax) / 2, (r.Ymin + r.Ymax) / 2}
}

// Camera returns the smallest camera that shows the whole region centered
// in a view with the given offset and aspect ratio.
func (r Region) Camera(offset mgl64.Vec2, aspect float64) Camera {
	size := math.Max(r.Ymax-r.Ymin, (r.Xmax-r.Xmin)/aspect)
	rel := Transform{Offset: offset, Size: size, Aspect: aspect}.ToPlane(mgl64.Vec2{0.5, 0.5})
	return Camera{Center: r.Center().Sub(rel), Size: size}
}

// Classic regions / landmarks in the Mandelbrot set
var (
	// Seahorse Valley – dense filaments and repeating “seahorse” curls
	SeahorseValley = Region{
		Xmin: -0.8,
		Xmax: -0.7,
		Ymin: 0.05,
		Ymax: 0.15,
	}

	// Elephant Valley – large bulb with trunk-like tendrils
	ElephantValley = Region{
		Xmin: 0.25,
		Xmax: 0.35,
		Ymin: -0.05,
		Ymax: 0.05,
	}

	// Spiral Minibrot – small Mandelbrot copy with tight spiral arms
	SpiralMinibrot = Region{
		Xmin: -0.7435,
		Xmax: -0.7420,
		Ymin: 0.1310,
		Ymax: 0.1325,
	}

	// Triple Spiral – threefold symmetric spiral structure
	TripleSpiral = Region{
		Xmin: -0.7480,
		Xmax: -0.7450,
		Ymin: 0.0950,
		Ymax: 0.0980,
	}

	// Valley of the Dragon – deep, highly detailed spiral filaments
	ValleyOfTheDragon = Region{
		Xmin: -0.7400,
		Xmax: -0.7350,
		Ymin: 0.1800,
		Ymax: 0.1850,
	}

	// Minibrot in a Mini-Spiral – self-similar Mandelbrot copy inside a spiral arm
	MinibrotInMiniSpiral = Region{
		Xmin: -1.7390,
		Xmax: -1.7375,
		Ymin: -0.0235,
		Ymax: -0.0220,
	}
)

// Landmarks indexes the classic regions by short name.
var Landmarks = map[string]Region{
	"seahorse":   SeahorseValley,
	"elephant":   ElephantValley,
	"spiral":     SpiralMinibrot,
	"triple":     TripleSpiral,
	"dragon":     ValleyOfTheDragon,
	"minispiral": MinibrotInMiniSpiral,
}

// LandmarkNames returns the landmark names in sorted order.
func LandmarkNames() []string {
	names := make([]string, 0, len(Landmarks))
	for n := range Landmarks {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
