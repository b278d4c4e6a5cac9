package main

import (
	"context"
	"fmt"

	"github.com/joseph-ayodele/bookmap/constants"
	"github.com/joseph-ayodele/bookmap/internal/common"
	"github.com/joseph-ayodele/bookmap/internal/controller"
	"github.com/joseph-ayodele/bookmap/internal/entity"
)

// errorTracker remembers the last error notice so commands can exit non-zero.
type errorTracker struct {
	controller.View
	last string
}

func (t *errorTracker) ShowNotice(kind controller.NoticeKind, message string) {
	if kind == controller.NoticeError {
		t.last = message
	}
	t.View.ShowNotice(kind, message)
}

// session runs one controller on its own loop for the lifetime of a command.
type session struct {
	loop    *controller.Loop
	ctrl    *controller.Controller
	view    *errorTracker
	settled chan controller.State
	cancel  context.CancelFunc
	done    chan struct{}
}

// newSession starts a controller loop. Requests inherit ctx, so cancelling it
// aborts them; the loop itself keeps running until close.
func (a *app) newSession(ctx context.Context, view controller.View) *session {
	loopCtx, cancel := context.WithCancel(context.Background())
	tracker := &errorTracker{View: view}
	loop := controller.NewLoop(a.logger)
	ctrl := controller.New(a.client, tracker, loop, controller.NewLoopScheduler(loop), a.logger,
		controller.WithPollInterval(a.cfg.Poll.Interval),
		controller.WithMaxUploadBytes(a.cfg.UI.MaxUploadBytes),
		controller.WithNoticeTimings(a.cfg.UI.ErrorDismiss, a.cfg.UI.SuccessDismiss, a.cfg.UI.Fade),
		controller.WithExporter(a.export),
		controller.WithBaseContext(ctx),
	)
	loop.SetPanicHandler(ctrl.HandleUnexpected)

	s := &session{
		loop:    loop,
		ctrl:    ctrl,
		view:    tracker,
		settled: make(chan controller.State, 1),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	ctrl.OnStateChange(func(prev, next controller.State) {
		// A failed upload falls back to FileSelected instead of a settled state.
		if next.Settled() || (prev == controller.StateUploading && next == controller.StateFileSelected) {
			select {
			case s.settled <- next:
			default:
			}
		}
	})
	go func() {
		defer close(s.done)
		_ = loop.Run(loopCtx)
	}()
	return s
}

// process selects f, runs it through upload and polling, and returns the index.
func (s *session) process(ctx context.Context, f *entity.UploadedFile) (entity.IndexResult, string, error) {
	select {
	case <-s.settled:
	default:
	}

	var selErr error
	s.loop.Call(func() {
		s.view.last = ""
		if selErr = s.ctrl.SelectFile(f); selErr != nil {
			return
		}
		s.ctrl.Process()
	})
	if selErr != nil {
		return entity.IndexResult{}, "", selErr
	}

	select {
	case <-ctx.Done():
		s.loop.Call(func() { s.ctrl.HandleKey(controller.KeyEvent{Key: "Escape"}) })
		return entity.IndexResult{}, "", ctx.Err()
	case st := <-s.settled:
		var (
			res entity.IndexResult
			ok  bool
			sid string
			msg string
		)
		s.loop.Call(func() {
			res, ok = s.ctrl.Results()
			sid = s.ctrl.SessionID()
			msg = s.view.last
		})
		if st != controller.StateCompleted || !ok {
			return entity.IndexResult{}, sid, common.NewAppError("PROCESS_FAILED", msg, common.ErrUnavailable)
		}
		return res, sid, nil
	}
}

// download saves the index in format and waits for the save to finish.
func (s *session) download(format constants.ExportFormat) error {
	s.loop.Call(func() {
		s.view.last = ""
		s.ctrl.DownloadIndex(format)
	})
	s.flush()
	var msg string
	s.loop.Call(func() { msg = s.view.last })
	if msg != "" {
		return common.NewAppError("DOWNLOAD_FAILED", msg, common.ErrUnavailable)
	}
	return nil
}

// flush waits for background requests and the completions they posted.
func (s *session) flush() {
	s.loop.Wait()
	s.loop.Call(func() {})
}

func (s *session) close() {
	s.loop.Call(s.ctrl.Close)
	s.cancel()
	<-s.done
	s.loop.Wait()
}

func parseFormat(raw string) (constants.ExportFormat, error) {
	if raw == "" {
		return "", nil
	}
	f, ok := constants.ParseExportFormat(raw)
	if !ok {
		return "", common.InvalidArgumentErrorf("unknown format %q (want json, csv or xlsx)", raw)
	}
	return f, nil
}

func pageSummary(ok, failed int) string {
	if failed == 0 {
		return fmt.Sprintf("Saved %d page images", ok)
	}
	return fmt.Sprintf("Saved %d page images, %d unavailable", ok, failed)
}
