package pow

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ardanlabs/notary/foundation/ledger/digest"
	"golang.org/x/sync/errgroup"
)

// defaultBatchSize is the number of contiguous nonces handed to a worker
// at a time.
const defaultBatchSize = 16 * 1024

// attemptsReport is the number of hashes between progress events.
const attemptsReport = 1_000_000

// EventHandler defines a function that is called when events occur
// during a search.
type EventHandler func(v string, args ...any)

// Config represents the configuration required to construct an Engine.
type Config struct {
	Hasher    digest.Hasher
	Workers   int
	BatchSize uint64
	EvHandler EventHandler
}

// Engine performs proof of work searches using a pool of workers. Each
// worker scans contiguous batches of nonces handed out in increasing order.
// The lowest solution wins regardless of which worker finds it first.
type Engine struct {
	hasher    digest.Hasher
	workers   int
	batchSize uint64
	evHandler EventHandler
}

// NewEngine constructs an engine for use. A zero number of workers uses
// one worker per CPU.
func NewEngine(cfg Config) *Engine {
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	hasher := cfg.Hasher
	if hasher.Name() == "" {
		hasher = digest.SHA256
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	batchSize := cfg.BatchSize
	if batchSize == 0 {
		batchSize = defaultBatchSize
	}

	return &Engine{
		hasher:    hasher,
		workers:   workers,
		batchSize: batchSize,
		evHandler: ev,
	}
}

// Hasher returns the hasher used by the engine.
func (e *Engine) Hasher() digest.Hasher {
	return e.hasher
}

// Workers returns the number of workers used per search.
func (e *Engine) Workers() int {
	return e.workers
}

// Solve searches the entire nonce space for the lowest solution.
func (e *Engine) Solve(ctx context.Context, header []byte, difficulty uint) (Solution, error) {
	return e.SolveBounded(ctx, header, difficulty, Unbounded)
}

// SolveBounded searches the nonces in [0, maxTrials) for the lowest
// solution and returns ErrPoWNotFound if there is none.
func (e *Engine) SolveBounded(ctx context.Context, header []byte, difficulty uint, maxTrials uint64) (Solution, error) {
	if err := CheckDifficulty(e.hasher, difficulty); err != nil {
		return Solution{}, err
	}

	e.evHandler("pow: Solve: MINING: started: difficulty[%d] workers[%d] trials[%d]", difficulty, e.workers, maxTrials)
	defer e.evHandler("pow: Solve: MINING: completed")

	t := time.Now()

	var sol Solution
	var found bool
	var err error

	switch {
	case e.workers == 1 || maxTrials <= e.batchSize:
		sol, found, err = scan(ctx, e.hasher, header, difficulty, 0, maxTrials, nil)
	default:
		sol, found, err = e.parallel(ctx, header, difficulty, maxTrials)
	}

	if err != nil {
		e.evHandler("pow: Solve: MINING: CANCELLED: %s", err)
		return Solution{}, err
	}

	if !found {
		e.evHandler("pow: Solve: MINING: NOT FOUND: trials[%d]", maxTrials)
		return Solution{}, fmt.Errorf("%w: trials[%d] difficulty[%d]", ErrPoWNotFound, maxTrials, difficulty)
	}

	e.evHandler("pow: Solve: MINING: SOLVED: nonce[%d] hash[%s] duration[%v]", sol.Nonce, sol.Hash, time.Since(t))

	return sol, nil
}

// parallel runs the workers. A worker keeps taking the next batch until
// the batches are exhausted or the next batch starts at or beyond the best
// solution found so far. Within a batch the worker stops once it passes
// the best solution. Every nonce below the winner is therefore hashed.
func (e *Engine) parallel(ctx context.Context, header []byte, difficulty uint, maxTrials uint64) (Solution, bool, error) {
	var mu sync.Mutex
	var best Solution
	var found bool

	passed := func(nonce uint64) bool {
		mu.Lock()
		defer mu.Unlock()
		return found && nonce >= best.Nonce
	}

	offer := func(sol Solution) {
		mu.Lock()
		defer mu.Unlock()
		if !found || sol.Nonce < best.Nonce {
			best = sol
			found = true
		}
	}

	lastBatch := (maxTrials - 1) / e.batchSize

	var nextBatch atomic.Uint64
	var attempts atomic.Uint64

	g, ctx := errgroup.WithContext(ctx)
	for range e.workers {
		g.Go(func() error {
			for {
				batch := nextBatch.Add(1) - 1
				if batch > lastBatch {
					return nil
				}

				start := batch * e.batchSize
				if passed(start) {
					return nil
				}

				end := start + e.batchSize
				if end > maxTrials || end < start {
					end = maxTrials
				}

				sol, ok, err := scan(ctx, e.hasher, header, difficulty, start, end, passed)
				if err != nil {
					return err
				}

				if ok {
					offer(sol)
				}

				n := attempts.Add(end - start)
				if n/attemptsReport != (n-(end-start))/attemptsReport {
					e.evHandler("pow: Solve: MINING: attempts[%d]", n)
				}
			}
		})
	}

	if err := g.Wait(); err != nil {
		return Solution{}, false, err
	}

	return best, found, nil
}
