package main

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/bookmap/internal/async"
	"github.com/joseph-ayodele/bookmap/internal/console"
	"github.com/joseph-ayodele/bookmap/internal/document"
	"github.com/joseph-ayodele/bookmap/internal/ingest"
)

func newWatchCmd(a *app) *cobra.Command {
	var (
		dirs     []string
		existing bool
		debounce time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Index every PDF dropped into a directory",
		Long: `Watch one or more directories and index each PDF that appears, one file at a
time. Runs until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			format, err := parseFormat(a.cfg.Output.Format)
			if err != nil {
				return err
			}

			view := console.New(cmd.OutOrStdout(), cmd.ErrOrStderr(), a.cfg.Output.Dir, a.logger)
			s := a.newSession(ctx, view)
			defer s.close()

			handle := func(ctx context.Context, job async.Job) error {
				log := a.logger.With("path", job.Path, "req_id", job.TraceID)
				f, err := document.Open(job.Path, a.cfg.UI.MaxUploadBytes, log)
				if err != nil {
					return err
				}
				_, sid, err := s.process(ctx, f)
				if err != nil {
					return err
				}
				log.Info("watch.indexed", "session_id", sid)
				if format != "" {
					return s.download(format)
				}
				return nil
			}
			queue := async.NewWorkerQueue(handle, a.logger, async.WithProcessTimeout(10*time.Minute))

			events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
				Roots:       dirs,
				InitialScan: existing,
				Debounce:    debounce,
				SkipHidden:  true,
			}, a.logger)
			if err != nil {
				queue.Shutdown(context.Background())
				return err
			}

			for {
				select {
				case path, ok := <-events:
					if !ok {
						events = nil
						break
					}
					if err := queue.Enqueue(ctx, async.Job{Path: path, TraceID: uuid.NewString()}); err != nil {
						a.logger.Warn("watch.enqueue_failed", "path", path, "error", err)
					}
				case err, ok := <-errs:
					if !ok {
						errs = nil
						break
					}
					a.logger.Warn("watch.watcher_error", "error", err)
				}
				if events == nil && errs == nil {
					break
				}
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			queue.Shutdown(shutdownCtx)
			return nil
		},
	}

	fl := cmd.Flags()
	fl.StringSliceVar(&dirs, "dir", []string{"."}, "directory to watch (repeatable)")
	fl.BoolVar(&existing, "existing", false, "also index PDFs already in the directory")
	fl.DurationVar(&debounce, "debounce", 500*time.Millisecond, "wait this long after the last write before indexing")
	fl.String("format", "", "download each index as json, csv or xlsx")
	fl.String("out", ".", "directory for downloaded files")
	bindTo(fl, "format", "output.format")
	bindTo(fl, "out", "output.dir")
	return cmd
}
