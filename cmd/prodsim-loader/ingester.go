package main

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

type ingestResult struct {
	Processed int64
	Failed    int64
	Duration  time.Duration
}

// ingest drains batches through a pool of upsert workers. The upsert callback
// receives whole batches; a failed batch counts every row in it as failed.
func ingest[T any](
	ctx context.Context,
	batches <-chan []T,
	workers int,
	upsert func(context.Context, []T) error,
	metrics *loaderMetrics,
	kind string,
) ingestResult {
	start := time.Now()

	var processed, failed atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for batch := range batches {
				batchStart := time.Now()
				if err := upsert(ctx, batch); err != nil {
					failed.Add(int64(len(batch)))
					metrics.rowsFailed.WithLabelValues(kind).Add(float64(len(batch)))
					log.Printf("upsert %s batch of %d: %v", kind, len(batch), err)
					continue
				}
				processed.Add(int64(len(batch)))
				metrics.rowsLoaded.WithLabelValues(kind).Add(float64(len(batch)))
				metrics.batchDuration.WithLabelValues(kind).Observe(time.Since(batchStart).Seconds())
			}
		}()
	}

	wg.Wait()

	return ingestResult{
		Processed: processed.Load(),
		Failed:    failed.Load(),
		Duration:  time.Since(start),
	}
}

// produce reads the parquet file into batches for the workers. The returned
// channel is closed when the file is exhausted or reading fails; a read error
// is reported through errOut after the channel closes.
func produce[R any, T any](
	cfg config,
	path string,
	convert func(R) T,
	errOut *error,
) <-chan []T {
	batches := make(chan []T, cfg.workers*2)

	go func() {
		defer close(batches)

		batch := make([]T, 0, cfg.batchSize)
		n, err := streamParquet(path, cfg.maxRows, func(row R) error {
			batch = append(batch, convert(row))
			if len(batch) >= cfg.batchSize {
				batches <- batch
				batch = make([]T, 0, cfg.batchSize)
			}
			return nil
		})
		if len(batch) > 0 {
			batches <- batch
		}
		if err != nil {
			*errOut = err
			return
		}
		log.Printf("read %d rows from %s", n, path)
	}()

	return batches
}
