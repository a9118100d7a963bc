// worker.go is a tile worker for the explorer server.
// It connects to the server over tcp and renders tiles of the explorer frames on the local CPU until the
// connection goes away.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"log"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/marben/irpc"

	mandel "github.com/marben/mandel_julia"
	"github.com/marben/mandel_julia/render"
)

type options struct {
	addr    string
	verbose bool
}

// main is the entry point for the tile worker.
func main() {
	var o options
	flag.StringVar(&o.addr, "addr", ":8081", "tcp address of the explorer server's worker listener")
	flag.BoolVar(&o.verbose, "v", false, "log every rendered tile")
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
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("connecting to %s", o.addr)
	tcpConn, err := net.Dial("tcp", o.addr)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}

	// the server calls this service to render tiles on our CPU
	kernel := render.Kernel{OnTileRender: func(tile image.Rectangle) {
		mandel.Logger().Debug("rendering tile", slog.String("tile", tile.String()))
	}}
	tileWorkerService := mandel.NewTileWorkerIrpcService(mandel.WorkerService{Renderer: kernel})
	ep := irpc.NewEndpoint(tcpConn,
		irpc.WithEndpointServices(tileWorkerService),
		irpc.WithLocalAddress(tcpConn.LocalAddr()),
		irpc.WithRemoteAddress(tcpConn.RemoteAddr()),
	)

	log.Printf("rendering tiles for %s", ep.RemoteAddr())
	select {
	case <-ctx.Done():
		log.Printf("shutting down")
		return ep.Close()
	case <-ep.Context().Done():
		if cause := context.Cause(ep.Context()); !errors.Is(cause, irpc.ErrEndpointClosedByCounterpart) {
			return fmt.Errorf("connection: %w", cause)
		}
		log.Printf("server closed the connection")
		return nil
	}
}
