package render

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"log/slog"
	"maps"
	"runtime"
	"slices"
	"sync"

	mandel "github.com/marben/mandel_julia"
)

// DefaultTileSize is the edge of the square tiles a frame is split into.
const DefaultTileSize = 64

// Scheduler renders whole frames by splitting them into tiles and draining
// the tiles with a fixed number of workers, all backed by the same Renderer.
// Renderers added with AddRenderer join every frame with one extra worker
// each. RenderFrame blocks until the frame is complete.
type Scheduler struct {
	renderer mandel.Renderer
	workers  int
	tileSize int

	m          sync.Mutex
	remotes    map[int]mandel.Renderer
	nextRemote int
}

var _ mandel.FrameRenderer = (*Scheduler)(nil)

// NewScheduler returns a scheduler running workers goroutines on r. Zero or
// negative workers means GOMAXPROCS.
func NewScheduler(r mandel.Renderer, workers int) *Scheduler {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Scheduler{renderer: r, workers: workers, tileSize: DefaultTileSize}
}

// NewCPUScheduler is a scheduler over the CPU Kernel.
func NewCPUScheduler(workers int) *Scheduler {
	return NewScheduler(Kernel{}, workers)
}

// Workers returns the number of local worker goroutines per frame.
func (s *Scheduler) Workers() int { return s.workers }

// AddRenderer lets r render tiles of the following frames next to the local
// workers. Tiles held by r are taken over by local workers once nothing else
// is left, so a slow or stuck r never stalls a frame. Call remove when r goes
// away.
func (s *Scheduler) AddRenderer(r mandel.Renderer) (remove func()) {
	s.m.Lock()
	defer s.m.Unlock()

	if s.remotes == nil {
		s.remotes = make(map[int]mandel.Renderer)
	}
	id := s.nextRemote
	s.nextRemote++
	s.remotes[id] = r
	mandel.Logger().Info("renderer added", slog.Int("remotes", len(s.remotes)))

	return sync.OnceFunc(func() {
		s.m.Lock()
		defer s.m.Unlock()
		delete(s.remotes, id)
		mandel.Logger().Info("renderer removed", slog.Int("remotes", len(s.remotes)))
	})
}

func (s *Scheduler) remoteRenderers() []mandel.Renderer {
	s.m.Lock()
	defer s.m.Unlock()
	return slices.Collect(maps.Values(s.remotes))
}

// RenderFrame implements mandel.FrameRenderer.
func (s *Scheduler) RenderFrame(f mandel.Frame) (*image.RGBA, error) {
	job := newFrameJob(f, s.tileSize)
	if len(job.unstarted) == 0 {
		return job.img, nil
	}

	remotes := s.remoteRenderers()
	var wg sync.WaitGroup
	for range min(s.workers, len(job.unstarted)) {
		wg.Go(func() { job.render(s.renderer, false) })
	}
	for _, r := range remotes {
		wg.Go(func() { job.render(r, true) })
	}
	workersDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(workersDone)
	}()

	// a remote may still be busy with a tile a local worker already finished
	select {
	case <-job.done:
	case <-workersDone:
	}

	if err := job.result(); err != nil {
		return nil, err
	}
	mandel.Logger().Debug("frame rendered",
		slog.String("kind", f.Kind.String()),
		slog.Int("width", f.Width), slog.Int("height", f.Height),
		slog.Int("tiles", job.totalTiles), slog.Int("remotes", len(remotes)))
	return job.img, nil
}

// frameJob tracks the tiles of one frame. inProcess maps each started tile
// to whether a remote renderer holds it.
type frameJob struct {
	frame mandel.Frame
	img   *image.RGBA
	done  chan struct{}

	totalTiles    int
	finishedTiles int

	unstarted map[image.Rectangle]struct{}
	inProcess map[image.Rectangle]bool
	errs      []error
	m         sync.Mutex
}

func newFrameJob(f mandel.Frame, tileSize int) *frameJob {
	img := image.NewRGBA(f.Bounds())
	tiles := splitRectNoClip(img.Bounds(), tileSize, tileSize)
	unstarted := make(map[image.Rectangle]struct{}, len(tiles))
	for _, t := range tiles {
		unstarted[t] = struct{}{}
	}
	return &frameJob{
		frame:      f,
		img:        img,
		done:       make(chan struct{}),
		totalTiles: len(tiles),
		unstarted:  unstarted,
		inProcess:  make(map[image.Rectangle]bool),
	}
}

// popTile hands out an unstarted tile. Once there is none, local workers take
// over tiles still held by remotes.
func (j *frameJob) popTile(remote bool) (tile image.Rectangle, found bool) {
	j.m.Lock()
	defer j.m.Unlock()

	for tile = range j.unstarted {
		delete(j.unstarted, tile)
		j.inProcess[tile] = remote
		return tile, true
	}
	if remote {
		return image.Rectangle{}, false
	}
	for tile, held := range j.inProcess {
		if held {
			j.inProcess[tile] = false
			return tile, true
		}
	}
	return image.Rectangle{}, false
}

// tileFinished draws a tile that is still outstanding. Late copies of a tile
// taken over by a local worker are dropped.
func (j *frameJob) tileFinished(tileImg *image.RGBA) {
	j.m.Lock()
	defer j.m.Unlock()

	if _, found := j.inProcess[tileImg.Rect]; !found {
		return
	}
	draw.Draw(j.img, tileImg.Bounds(), tileImg, tileImg.Bounds().Min, draw.Src)
	delete(j.inProcess, tileImg.Rect)
	j.finishedTiles++
	if j.finishedTiles == j.totalTiles {
		close(j.done)
	}
}

// tileFailed returns the tile to the queue so another worker can take it,
// unless a local worker already took it over.
func (j *frameJob) tileFailed(tile image.Rectangle, remote bool, err error) {
	j.m.Lock()
	defer j.m.Unlock()

	j.errs = append(j.errs, fmt.Errorf("tile %s: %w", tile, err))
	if held, found := j.inProcess[tile]; !found || held != remote {
		return
	}
	delete(j.inProcess, tile)
	j.unstarted[tile] = struct{}{}
}

// render drains tiles on r. A worker whose renderer fails retires; its tile
// goes back to the queue for the others.
func (j *frameJob) render(r mandel.Renderer, remote bool) {
	for {
		tile, found := j.popTile(remote)
		if !found {
			return
		}
		tileImg, err := r.RenderTile(j.frame, tile)
		if err != nil {
			mandel.Logger().Warn("tile render failed", slog.String("tile", tile.String()),
				slog.Bool("remote", remote), slog.Any("err", err))
			j.tileFailed(tile, remote, err)
			return
		}
		j.tileFinished(&tileImg)
	}
}

// result reports an error when tiles are left over because every worker
// retired.
func (j *frameJob) result() error {
	j.m.Lock()
	defer j.m.Unlock()

	if j.finishedTiles == j.totalTiles {
		return nil
	}
	return fmt.Errorf("rendered %d of %d tiles: %w", j.finishedTiles, j.totalTiles, errors.Join(j.errs...))
}

// splitRectNoClip splits r into tiles of size tileW × tileH.
// Tiles at the right and bottom edges are smaller if r is not divisible.
func splitRectNoClip(r image.Rectangle, tileW, tileH int) []image.Rectangle {
	if tileW <= 0 || tileH <= 0 {
		panic("tile dimensions must be positive")
	}

	w := r.Dx()
	h := r.Dy()

	var tiles []image.Rectangle

	for oy := 0; oy < h; oy += tileH {
		th := min(tileH, h-oy)

		for ox := 0; ox < w; ox += tileW {
			tw := min(tileW, w-ox)

			tiles = append(tiles, image.Rect(
				r.Min.X+ox,
				r.Min.Y+oy,
				r.Min.X+ox+tw,
				r.Min.Y+oy+th,
			))
		}
	}

	return tiles
}
