package main

import (
	"fmt"
	"io"
	"math/rand"
	"slices"
	"sync"
	"time"
)

// phaseStats summarizes one load phase.
type phaseStats struct {
	name     string
	wall     time.Duration
	ops      int
	failures int
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
}

func (s phaseStats) rate() float64 {
	if s.wall <= 0 {
		return 0
	}
	return float64(s.ops) / s.wall.Seconds()
}

func (s phaseStats) write(w io.Writer) {
	fmt.Fprintf(w, "%-8s ops=%d failures=%d wall=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		s.name, s.ops, s.failures, s.wall.Round(time.Millisecond), s.rate(),
		s.p50.Round(time.Microsecond), s.p95.Round(time.Microsecond), s.p99.Round(time.Microsecond))
}

// workerResult is what one worker measured; merged after the phase ends.
type workerResult struct {
	samples  []time.Duration
	failures int
}

// runPhase hands ops jobs to concurrency workers. Each worker owns its rand
// source and sample slice, so nothing is shared on the hot path.
func runPhase(ops, concurrency int, fn func(r *rand.Rand) error) phaseStats {
	jobs := make(chan struct{}, concurrency)
	results := make([]workerResult, concurrency)

	var wg sync.WaitGroup
	start := time.Now()
	for w := 0; w < concurrency; w++ {
		w := w
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := rand.New(rand.NewSource(start.UnixNano() + int64(w)*7919))
			res := &results[w]
			for range jobs {
				t0 := time.Now()
				if err := fn(r); err != nil {
					res.failures++
				}
				res.samples = append(res.samples, time.Since(t0))
			}
		}()
	}
	for i := 0; i < ops; i++ {
		jobs <- struct{}{}
	}
	close(jobs)
	wg.Wait()

	stats := phaseStats{wall: time.Since(start)}
	var all []time.Duration
	for _, res := range results {
		all = append(all, res.samples...)
		stats.failures += res.failures
	}
	slices.Sort(all)
	stats.ops = len(all)
	stats.p50 = percentile(all, 50)
	stats.p95 = percentile(all, 95)
	stats.p99 = percentile(all, 99)
	return stats
}

// percentile reads the p-th percentile from sorted samples.
func percentile(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	p = min(max(p, 0), 100)
	return sorted[(len(sorted)-1)*p/100]
}
