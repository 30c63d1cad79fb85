package pipeline

import (
	"context"
	"log/slog"
	"sync"
)

// filePool fans matched files out to a fixed set of workers. The feed
// channel closes once every path is queued and run returns when the last
// worker has drained.
type filePool struct {
	process func(ctx context.Context, path string) FileResult
	logger  *slog.Logger
	workers int
}

func (p *filePool) run(ctx context.Context, paths []string) []FileResult {
	feed := make(chan string, len(paths))
	out := make(chan FileResult, len(paths))

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			p.logger.Info("worker started", "worker_id", workerID)
			for path := range feed {
				if ctx.Err() != nil {
					out <- FileResult{Path: path, Err: ctx.Err().Error()}
					continue
				}
				out <- p.process(ctx, path)
			}
			p.logger.Info("worker stopped", "worker_id", workerID)
		}(i + 1)
	}

	for _, path := range paths {
		feed <- path
	}
	close(feed)
	wg.Wait()
	close(out)

	results := make([]FileResult, 0, len(paths))
	for r := range out {
		results = append(results, r)
	}
	return results
}
