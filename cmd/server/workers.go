package main

import (
	"log"

	"github.com/marben/irpc"

	mandel "github.com/marben/mandel_julia"
)

// rendererPool takes tile renderers for as long as they stay connected.
type rendererPool interface {
	AddRenderer(r mandel.Renderer) (remove func())
}

// newWorkerServer returns an irpc server that plugs every connected worker
// into pool. Each worker must provide mandel.TileWorker.
func newWorkerServer(pool rendererPool) *irpc.Server {
	return irpc.NewServer(irpc.WithOnConnect(func(ep *irpc.Endpoint) {
		log.Printf("worker: connected from %s", ep.RemoteAddr())

		tileWorkerIrpcClient, err := mandel.NewTileWorkerIrpcClient(ep)
		if err != nil {
			log.Printf("err: new TileWorker client: %v", err)
			ep.Close()
			return
		}

		remove := pool.AddRenderer(mandel.RemoteRenderer{Worker: tileWorkerIrpcClient})
		<-ep.Context().Done()
		remove()
		log.Printf("worker: %s gone", ep.RemoteAddr())
	}))
}
