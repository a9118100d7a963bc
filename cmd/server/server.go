// server.go hosts the linked Mandelbrot / Julia explorer for browsers.
// Every websocket connection gets its own explorer; frames are rendered on the server CPU, helped by any
// tile workers connected over irpc, and pushed as PNGs.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/marben/irpc"

	mandel "github.com/marben/mandel_julia"
	"github.com/marben/mandel_julia/render"
)

type options struct {
	addr       string
	workerAddr string
	staticDir  string
	fps        int
	workers    int
	verbose    bool
}

// main is the entry point for the explorer server.
func main() {
	var o options
	flag.StringVar(&o.addr, "addr", ":8080", "http listen address")
	flag.StringVar(&o.workerAddr, "worker-addr", ":8081", "tcp listen address for tile workers (empty disables)")
	flag.StringVar(&o.staticDir, "static", "./cmd/server/static", "directory with index.html, main.wasm and wasm_exec.js")
	flag.IntVar(&o.fps, "fps", 20, "maximum frames per second per session")
	flag.IntVar(&o.workers, "workers", 0, "render goroutines per frame (0 = GOMAXPROCS)")
	flag.BoolVar(&o.verbose, "v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}
	mandel.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := run(o); err != nil {
		log.Fatalf("run: %+v", err)
	}
}

func run(o options) error {
	if o.fps <= 0 {
		return fmt.Errorf("fps must be positive, got %d", o.fps)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// all sessions share one scheduler; it keeps no per-frame state
	renderer := render.NewCPUScheduler(o.workers)

	// tile workers connect over tcp and render next to the local goroutines
	if o.workerAddr != "" {
		tcpListener, err := net.Listen("tcp", o.workerAddr)
		if err != nil {
			return fmt.Errorf("net.Listen: %w", err)
		}
		workerServer := newWorkerServer(renderer)
		defer workerServer.Close()
		go func() {
			if err := workerServer.Serve(tcpListener); err != nil && !errors.Is(err, irpc.ErrServerClosed) {
				log.Printf("worker server: %v", err)
			}
		}()
		log.Printf("tcp listening for tile workers on %s", tcpListener.Addr())
	}

	// httpServer provides index.html, main.wasm along with the websocket endpoint
	websocketListener, httpServer := webServer(ctx, o.addr, o.staticDir)
	httpErr := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			httpErr <- fmt.Errorf("httpServer: %w", err)
		}
		close(httpErr)
	}()

	var sessions sync.WaitGroup
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- serve(ctx, websocketListener, renderer, time.Second/time.Duration(o.fps), &sessions)
	}()

	log.Printf("explorer server waiting for websocket connections, rendering on %d workers", renderer.Workers())
	select {
	case <-ctx.Done():
		log.Printf("shutting down")
	case err := <-httpErr:
		if err != nil {
			return err
		}
	case err := <-serveErr:
		return err
	}

	websocketListener.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	sessions.Wait()
	return nil
}

// serve accepts websockets from l until it is closed, running one session per connection.
func serve(ctx context.Context, l *WebsocketListener, r mandel.FrameRenderer, interval time.Duration, sessions *sync.WaitGroup) error {
	for {
		conn, err := l.Accept()
		if errors.Is(err, net.ErrClosed) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("accept: %w", err)
		}

		sessions.Go(func() {
			log.Printf("session: started")
			err := newSession(conn, r, interval).run(ctx)
			code, reason := closeStatus(err)
			if code == websocket.StatusInternalError {
				log.Printf("session: %v", err)
			}
			conn.Close(code, reason)
			log.Printf("session: closed (%v)", code)
		})
	}
}
