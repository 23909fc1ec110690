package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"sync"
	"time"

	"net/http"

	"github.com/meridian-nav/meridian/pkg/concurrent"
	da "github.com/meridian-nav/meridian/pkg/datastructure"
	"github.com/meridian-nav/meridian/pkg/engine"
	log "github.com/meridian-nav/meridian/pkg/logger"
	"golang.org/x/exp/rand"

	_ "net/http/pprof"
)

var (
	graphFile    = flag.String("graph", "./data/meridian.graph", "serialized road graph")
	landmarkFile = flag.String("landmarks", "", "landmark distance tables")
	algorithm    = flag.String("algorithm", "dijkstrabi", "search driver to evaluate")
	queryCount   = flag.Int("queries", 100000, "number of random queries")
	seed         = flag.Uint64("seed", 42, "seed for the query pairs")
	workers      = flag.Int("workers", 16, "concurrent query workers")
	outFile      = flag.String("out", "rand_queries_result.csv", "per query result csv")
)

func main() {
	flag.Parse()
	logger, err := log.New()
	if err != nil {
		panic(err)
	}

	re, err := engine.NewEngine(*graphFile, *landmarkFile, logger)
	if err != nil {
		panic(err)
	}
	algo := engine.Algorithm(*algorithm)

	type spParam struct {
		row int
		s   da.Index
		t   da.Index
	}

	rng := rand.New(rand.NewSource(*seed))
	n := re.Graph().NumberOfVertices()
	queries := make([]spParam, *queryCount)
	for i := range queries {
		queries[i] = spParam{row: i, s: da.Index(rng.Intn(n)), t: da.Index(rng.Intn(n))}
	}

	lock := sync.Mutex{}

	randfout, err := os.Create(*outFile)
	if err != nil {
		panic(err)
	}
	defer randfout.Close()
	w := bufio.NewWriter(randfout)
	defer w.Flush()

	fmt.Fprintln(w, "from to weight distance visited ms")

	go func() {
		http.ListenAndServe("localhost:6060", nil)
	}()

	calcSP := func(p spParam) any {
		before := time.Now()
		path, stats, found, err := re.Route(p.s, p.t, algo)
		duration := time.Since(before)
		if err != nil {
			panic(err)
		}

		weight, dist := -1.0, -1.0
		if found {
			weight = path.GetWeight()
			dist = path.GetDist()
		}

		lock.Lock()
		fmt.Fprintf(w, "%d %d %f %f %d %d\n",
			p.s, p.t, weight, dist, stats.Visited, duration.Milliseconds())
		lock.Unlock()

		if (p.row+1)%1000 == 0 {
			logger.Sugar().Infof("done query %v", p.row+1)
		}

		return nil
	}

	pool := concurrent.NewWorkerPool[spParam, any](*workers, len(queries))

	for _, q := range queries {
		pool.Submit(q)
	}

	pool.Close()
	pool.Start(calcSP)
	pool.Wait()

	logger.Sugar().Infof("finished %d queries with %s", len(queries), algo)
}
