package main

import (
	"flag"
	"strings"

	"github.com/meridian-nav/meridian/pkg/engine"
	"github.com/meridian-nav/meridian/pkg/logger"
	"github.com/meridian-nav/meridian/pkg/measurement"
	"go.uber.org/zap"
)

var (
	graphFile    = flag.String("graph", "./data/meridian.graph", "serialized road graph")
	landmarkFile = flag.String("landmarks", "", "landmark distance tables, empty disables the astarbi_lm run")
	algorithms   = flag.String("algorithms", "dijkstrabi,astarbi_lm", "comma separated search drivers to measure")
	queries      = flag.Int("queries", 1000, "measured queries per algorithm")
	warmup       = flag.Int("warmup", 100, "untimed warmup queries per algorithm")
	seed         = flag.Uint64("seed", 123, "seed for the random query pairs")
	propsFile    = flag.String("out", "measurement.properties", "properties output file")
	jsonFile     = flag.String("json", "", "optional json output file")
)

func main() {
	flag.Parse()
	logger, err := logger.New()
	if err != nil {
		panic(err)
	}

	eng, err := engine.NewEngine(*graphFile, *landmarkFile, logger)
	if err != nil {
		panic(err)
	}

	var algos []engine.Algorithm
	for _, name := range strings.Split(*algorithms, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if name == string(engine.ASTAR_LM_BI) && *landmarkFile == "" {
			logger.Warn("skipping astarbi_lm, no landmark file given")
			continue
		}
		algos = append(algos, engine.Algorithm(name))
	}

	m := measurement.New(eng, *seed, logger)
	if err := m.Run(algos, *queries, *warmup); err != nil {
		panic(err)
	}

	if err := m.Report().WriteProperties(*propsFile); err != nil {
		panic(err)
	}
	logger.Info("measurement report written", zap.String("path", *propsFile))

	if *jsonFile != "" {
		if err := m.Report().WriteJSON(*jsonFile); err != nil {
			panic(err)
		}
		logger.Info("json report written", zap.String("path", *jsonFile))
	}
}
