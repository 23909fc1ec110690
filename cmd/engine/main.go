package main

import (
	"context"
	"flag"

	"github.com/meridian-nav/meridian/pkg/engine"
	"github.com/meridian-nav/meridian/pkg/http"
	"github.com/meridian-nav/meridian/pkg/http/usecases"
	"github.com/meridian-nav/meridian/pkg/logger"
	"github.com/meridian-nav/meridian/pkg/spatialindex"
	"github.com/meridian-nav/meridian/pkg/util"
	"go.uber.org/zap"
)

var (
	graphFile       = flag.String("graph", "./data/meridian.graph", "serialized road graph")
	landmarkFile    = flag.String("landmarks", "", "landmark distance tables, empty disables goal direction")
	configPath      = flag.String("config", "", "directory holding config.yaml, empty uses defaults and env")
	useRateLimit    = flag.Bool("rate_limit", false, "per client rate limiting on the api")
	maxVisitedNodes = flag.Int("max_visited_nodes", 0, "abort queries after this many settled labels, 0 is unbounded")
)

func main() {
	flag.Parse()
	logger, err := logger.New()
	if err != nil {
		panic(err)
	}
	if *configPath != "" {
		if err := util.ReadConfig(*configPath); err != nil {
			panic(err)
		}
	}

	routingEngine, err := engine.NewEngine(*graphFile, *landmarkFile, logger)
	if err != nil {
		panic(err)
	}
	if *maxVisitedNodes > 0 {
		routingEngine.SetMaxVisitedNodes(*maxVisitedNodes)
	}

	rtree := spatialindex.NewRtree(routingEngine.Graph())
	rtree.Build(logger)

	api := http.NewServer(logger)

	routingService, err := usecases.NewRoutingService(logger, routingEngine, rtree)
	if err != nil {
		panic(err)
	}
	ctx, cleanup := NewContext()

	if _, err := api.Use(ctx, logger, *useRateLimit, routingService); err != nil {
		panic(err)
	}

	signal := http.GracefulShutdown()

	logger.Info("Meridian routing engine server stopped", zap.String("signal", signal.String()))
	cleanup()
}

func NewContext() (context.Context, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	cb := func() {
		cancel()
	}

	return ctx, cb
}
