package main

import (
	"flag"
	"runtime"

	"github.com/meridian-nav/meridian/pkg/costfunction"
	"github.com/meridian-nav/meridian/pkg/landmark"
	"github.com/meridian-nav/meridian/pkg/logger"
	"github.com/meridian-nav/meridian/pkg/osmparser"
	"go.uber.org/zap"
)

var (
	mapFile       = flag.String("map", "./data/map.osm.pbf", "openstreetmap pbf extract to import")
	graphFile     = flag.String("graph", "./data/meridian.graph", "output path for the serialized graph")
	landmarkFile  = flag.String("landmarks", "./data/meridian.landmarks", "output path for the landmark tables, empty skips the build")
	landmarkCount = flag.Int("landmark_count", 16, "number of landmarks to select")
	workers       = flag.Int("workers", runtime.NumCPU(), "parallel one to all searches during the landmark build")
)

func main() {
	flag.Parse()
	logger, err := logger.New()
	if err != nil {
		panic(err)
	}

	parser := osmparser.NewOSMParser(logger)
	graph, err := parser.Parse(*mapFile)
	if err != nil {
		panic(err)
	}

	if err := graph.WriteGraph(*graphFile); err != nil {
		panic(err)
	}
	logger.Info("graph written", zap.String("path", *graphFile))

	if *landmarkFile == "" {
		logger.Info("landmark build skipped")
		return
	}

	lm := landmark.NewLandmark()
	landmarks := landmark.SelectLandmarks(graph, *landmarkCount)
	weighting := costfunction.NewTimeCostFunctionForGraph(graph)
	if err := lm.BuildTables(graph, weighting, landmarks, *workers, logger); err != nil {
		panic(err)
	}
	if err := lm.WriteLandmarks(*landmarkFile); err != nil {
		panic(err)
	}
	logger.Info("landmark tables written",
		zap.String("path", *landmarkFile), zap.Int("landmarks", lm.Count()))
}
