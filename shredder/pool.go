package shredder

import (
	"context"
	"runtime"
	"sync"

	"github.com/alitto/pond/v2"
)

var (
	poolOnce sync.Once
	pool     pond.ResultPool[struct{}]
)

// workerPool returns the process-wide bounded worker pool used to
// parallelize shredding work (per-chunk data shreds, per-FEC-set coding,
// per-position code and Merkle shreds), sized to the host's available
// parallelism. Recovery does not use it. Built lazily so
// that packages importing shredder without ever shredding anything don't
// pay for idle goroutines.
func workerPool() pond.ResultPool[struct{}] {
	poolOnce.Do(func() {
		pool = pond.NewResultPool[struct{}](runtime.GOMAXPROCS(0))
	})
	return pool
}

// fanOut runs fn(0), fn(1), ..., fn(n-1) to completion, returning the
// first error encountered (if any). For n<=1 it runs inline rather than
// paying worker-pool dispatch overhead for a single unit of work, so a
// block with one FEC set builds that set's coding inline; the per-chunk
// and per-parity-shred work inside it still goes through the pool.
func fanOut(n int, fn func(i int) error) error {
	if n <= 1 {
		if n == 1 {
			return fn(0)
		}
		return nil
	}

	group := workerPool().NewGroupContext(context.Background())
	for i := 0; i < n; i++ {
		i := i
		group.SubmitErr(func() (struct{}, error) {
			return struct{}{}, fn(i)
		})
	}
	_, err := group.Wait()
	return err
}
