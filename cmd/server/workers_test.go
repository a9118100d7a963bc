package main

import (
	"errors"
	"image"
	"net"
	"testing"
	"time"

	"github.com/marben/irpc"

	mandel "github.com/marben/mandel_julia"
	"github.com/marben/mandel_julia/render"
)

// poolRecorder hands added renderers to the test and reports removals.
type poolRecorder struct {
	added   chan mandel.Renderer
	removed chan struct{}
}

func (p *poolRecorder) AddRenderer(r mandel.Renderer) func() {
	p.added <- r
	return func() { close(p.removed) }
}

func TestWorkerServerPlugsWorkersIntoPool(t *testing.T) {
	pool := &poolRecorder{added: make(chan mandel.Renderer, 1), removed: make(chan struct{})}
	srv := newWorkerServer(pool)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen: %v", err)
	}
	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(l) }()
	t.Cleanup(func() {
		srv.Close()
		if err := <-serveErr; !errors.Is(err, irpc.ErrServerClosed) {
			t.Errorf("Serve() = %v, want %v", err, irpc.ErrServerClosed)
		}
	})

	conn, err := net.Dial("tcp", l.Addr().String())
	if err != nil {
		t.Fatalf("net.Dial: %v", err)
	}
	service := mandel.NewTileWorkerIrpcService(mandel.WorkerService{Renderer: render.Kernel{}})
	ep := irpc.NewEndpoint(conn, irpc.WithEndpointServices(service))

	var remote mandel.Renderer
	select {
	case remote = <-pool.added:
	case <-time.After(10 * time.Second):
		t.Fatal("worker never reached the pool")
	}

	f := mandel.Frame{Width: 32, Height: 32, Kind: mandel.ParameterPlane, Size: 2.5, Style: mandel.DefaultStyle()}
	tile := image.Rect(0, 0, 16, 16)
	img, err := remote.RenderTile(f, tile)
	if err != nil {
		t.Fatalf("RenderTile() = %v", err)
	}
	if img.Rect != tile {
		t.Errorf("tile bounds = %v, want %v", img.Rect, tile)
	}

	ep.Close()
	select {
	case <-pool.removed:
	case <-time.After(10 * time.Second):
		t.Fatal("disconnected worker was not removed")
	}
}
