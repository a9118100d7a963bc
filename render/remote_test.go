package render

import (
	"bytes"
	"errors"
	"image"
	"net"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/marben/irpc"

	mandel "github.com/marben/mandel_julia"
)

// newTileWorkerClient serves r over an in-memory irpc connection and returns
// the client end.
func newTileWorkerClient(t *testing.T, r mandel.Renderer) *mandel.TileWorkerIrpcClient {
	t.Helper()
	a, b := net.Pipe()
	service := mandel.NewTileWorkerIrpcService(mandel.WorkerService{Renderer: r})
	serviceEp := irpc.NewEndpoint(a, irpc.WithEndpointServices(service))
	clientEp := irpc.NewEndpoint(b)
	t.Cleanup(func() {
		clientEp.Close()
		<-serviceEp.Context().Done()
	})

	client, err := mandel.NewTileWorkerIrpcClient(clientEp)
	if err != nil {
		t.Fatalf("NewTileWorkerIrpcClient() = %v", err)
	}
	return client
}

func checkFrame(t *testing.T, f mandel.Frame, img *image.RGBA) {
	t.Helper()
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			if got, want := img.RGBAAt(x, y), toRGBA(Shade(f, x, y)); got != want {
				t.Fatalf("pixel (%d, %d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestTileWorkerOverIrpc(t *testing.T) {
	client := newTileWorkerClient(t, Kernel{})

	f := testFrame(mandel.DynamicsPlane, 50, 40)
	f.Fixed[0], f.Fixed[1] = -0.8, 0.156
	f.Probe[0], f.Probe[1] = 25, 20
	f.ShowProbe = true
	tile := image.Rect(16, 8, 48, 40)

	got, err := client.RenderTile(mandel.NewTileJob(f), tile)
	if err != nil {
		t.Fatalf("RenderTile() = %v", err)
	}
	want, err := Kernel{}.RenderTile(f, tile)
	if err != nil {
		t.Fatal(err)
	}
	if got.Rect != want.Rect || got.Stride != want.Stride || !bytes.Equal(got.Pix, want.Pix) {
		t.Errorf("remote tile %v differs from local tile %v", got.Rect, want.Rect)
	}

	_, err = newTileWorkerClient(t, failingRenderer{err: errors.New("out of paint")}).RenderTile(mandel.NewTileJob(f), tile)
	if err == nil || err.Error() != "out of paint" {
		t.Errorf("RenderTile() = %v, want the worker's error", err)
	}
}

func TestSchedulerWithRemoteWorker(t *testing.T) {
	var remoteTiles atomic.Int32
	client := newTileWorkerClient(t, Kernel{OnTileRender: func(image.Rectangle) { remoteTiles.Add(1) }})

	s := NewScheduler(Kernel{}, 1)
	s.tileSize = 8
	remove := s.AddRenderer(mandel.RemoteRenderer{Worker: client})
	defer remove()

	f := testFrame(mandel.ParameterPlane, 64, 48)
	img, err := s.RenderFrame(f)
	if err != nil {
		t.Fatalf("RenderFrame() = %v", err)
	}
	checkFrame(t, f, img)
	t.Logf("remote rendered %d of 48 tiles", remoteTiles.Load())
}

func TestSchedulerSurvivesFailingRemote(t *testing.T) {
	s := NewScheduler(Kernel{}, 2)
	s.tileSize = 8
	s.AddRenderer(failingRenderer{err: errors.New("connection reset")})

	f := testFrame(mandel.DynamicsPlane, 37, 23)
	img, err := s.RenderFrame(f)
	if err != nil {
		t.Fatalf("RenderFrame() = %v", err)
	}
	checkFrame(t, f, img)
}

// stuckRenderer takes one tile and never answers until released.
type stuckRenderer struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (r *stuckRenderer) RenderTile(mandel.Frame, image.Rectangle) (image.RGBA, error) {
	r.once.Do(func() { close(r.started) })
	<-r.release
	return image.RGBA{}, errors.New("released")
}

// gatedRenderer waits for gate before each tile.
type gatedRenderer struct {
	gate chan struct{}
	next mandel.Renderer
}

func (r gatedRenderer) RenderTile(f mandel.Frame, tile image.Rectangle) (image.RGBA, error) {
	<-r.gate
	return r.next.RenderTile(f, tile)
}

func TestSchedulerTakesOverStuckRemoteTile(t *testing.T) {
	stuck := &stuckRenderer{started: make(chan struct{}), release: make(chan struct{})}
	t.Cleanup(func() { close(stuck.release) })

	// the local worker starts once the remote holds a tile
	s := NewScheduler(gatedRenderer{gate: stuck.started, next: Kernel{}}, 1)
	s.tileSize = 8
	s.AddRenderer(stuck)

	f := testFrame(mandel.ParameterPlane, 24, 16)
	img, err := s.RenderFrame(f)
	if err != nil {
		t.Fatalf("RenderFrame() = %v", err)
	}
	checkFrame(t, f, img)
}

func TestRemovedRendererIsIdle(t *testing.T) {
	var calls atomic.Int32
	s := NewScheduler(Kernel{}, 2)
	remove := s.AddRenderer(countingRenderer{calls: &calls})
	remove()
	remove()

	if _, err := s.RenderFrame(testFrame(mandel.ParameterPlane, 30, 30)); err != nil {
		t.Fatalf("RenderFrame() = %v", err)
	}
	if n := calls.Load(); n != 0 {
		t.Errorf("removed renderer rendered %d tiles", n)
	}
}

type countingRenderer struct{ calls *atomic.Int32 }

func (r countingRenderer) RenderTile(f mandel.Frame, tile image.Rectangle) (image.RGBA, error) {
	r.calls.Add(1)
	return Kernel{}.RenderTile(f, tile)
}
