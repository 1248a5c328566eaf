package importer

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// SourceChecker periodically HEADs every remote import source URL and records
// whether it is still reachable. Local paths and empty URLs are skipped.
type SourceChecker struct {
	sources     *SourceDB
	logger      *slog.Logger
	interval    time.Duration
	client      *http.Client
	concurrency int
}

// NewSourceChecker creates a checker that verifies source URLs every interval.
func NewSourceChecker(sources *SourceDB, logger *slog.Logger, interval time.Duration) *SourceChecker {
	if logger == nil {
		logger = slog.Default()
	}
	return &SourceChecker{
		sources:     sources,
		logger:      logger,
		interval:    interval,
		concurrency: 4,
		client: &http.Client{
			Timeout: 30 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Start runs an immediate check then repeats every interval until ctx is cancelled.
func (c *SourceChecker) Start(ctx context.Context) {
	c.CheckAll(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.CheckAll(ctx)
		}
	}
}

// CheckAll HEADs every remote source URL and persists each result. A 2xx or
// 3xx status counts as reachable.
func (c *SourceChecker) CheckAll(ctx context.Context) {
	sources, err := c.sources.ListSources()
	if err != nil {
		c.logger.Error("source check: list sources", "error", err)
		return
	}

	var ok, failed atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for _, src := range sources {
		if !isRemote(src.SourceURL) {
			c.logger.Debug("source check skipped", "adapter", src.AdapterID, "url", src.SourceURL)
			continue
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			status, checkErr := c.checkOne(gctx, src.SourceURL)
			errMsg := ""
			if checkErr != nil {
				errMsg = checkErr.Error()
			}
			if err := c.sources.UpdateCheck(src.AdapterID, status, errMsg); err != nil {
				c.logger.Error("source check: update failed", "adapter", src.AdapterID, "error", err)
			}

			if status >= 200 && status < 400 {
				ok.Add(1)
				return nil
			}
			failed.Add(1)
			c.logger.Warn("import source unreachable",
				"adapter", src.AdapterID,
				"corpus", src.Corpus,
				"url", src.SourceURL,
				"status", status,
				"error", errMsg,
			)
			return nil
		})
	}
	g.Wait()

	if n := ok.Load() + failed.Load(); n > 0 {
		c.logger.Info("source check complete", "total", n, "ok", ok.Load(), "failed", failed.Load())
	}
}

// checkOne performs a single HEAD request and returns the HTTP status code.
// On network error, status is 0.
func (c *SourceChecker) checkOne(ctx context.Context, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("HEAD %s: %w", url, err)
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}
