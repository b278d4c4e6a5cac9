package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/bookmap/internal/common"
)

// PageFetcher loads one rendered page. jobclient.Client implements it.
type PageFetcher interface {
	PageImage(ctx context.Context, sessionID string, page int) ([]byte, error)
}

// PageResult is the outcome for one page. Err is set when the page could not be fetched.
type PageResult struct {
	Page int
	Path string
	Err  error
}

// PageFileName is the download name for a page image.
func PageFileName(page int) string {
	return fmt.Sprintf("page_%d.jpg", page)
}

// DownloadPages writes page_<n>.jpg into dir for every page, at most workers at a time.
// A page the backend cannot serve is reported in its PageResult and does not stop the rest.
// Local write failures abort the whole download.
func (s *Service) DownloadPages(ctx context.Context, fetcher PageFetcher, sessionID string, pages []int, dir string, workers int) ([]PageResult, error) {
	start := time.Now()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, common.NewAppError("OUTPUT_DIR", "cannot create output directory", err)
	}
	if workers <= 0 {
		workers = 4
	}

	var (
		mu      sync.Mutex
		results = make([]PageResult, 0, len(pages))
	)
	record := func(r PageResult) {
		mu.Lock()
		results = append(results, r)
		mu.Unlock()
	}

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)

	seen := make(map[int]struct{}, len(pages))
	for _, p := range pages {
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		page := p

		eg.Go(func() error {
			img, err := fetcher.PageImage(gctx, sessionID, page)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				s.logger.Warn("export.page.unavailable", "session_id", sessionID, "page", page, "error", err)
				record(PageResult{Page: page, Err: err})
				return nil
			}
			path := filepath.Join(dir, PageFileName(page))
			if err := os.WriteFile(path, img, 0o644); err != nil {
				return fmt.Errorf("page %d: %w", page, err)
			}
			record(PageResult{Page: page, Path: path})
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		s.logger.Error("export.pages.failed", "session_id", sessionID, "error", err)
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Page < results[j].Page })

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	s.logger.Info("export.pages.ok",
		"session_id", sessionID,
		"pages", len(results),
		"failed", failed,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return results, nil
}
