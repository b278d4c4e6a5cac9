package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/bookmap/constants"
	"github.com/joseph-ayodele/bookmap/internal/common"
	"github.com/joseph-ayodele/bookmap/internal/document"
	"github.com/joseph-ayodele/bookmap/internal/entity"
	"github.com/joseph-ayodele/bookmap/internal/utils"
)

// User-facing messages.
const (
	MsgNoFile          = "Please select a file first."
	MsgProcessed       = "Document processed successfully!"
	MsgNoIndex         = "No index available for download."
	MsgPageUnavailable = "Could not load page image. The page may not be available."
	MsgUnexpected      = "An unexpected error occurred. Please try again."
)

// JobService is the network side of the controller. jobclient.Client implements it.
type JobService interface {
	Upload(ctx context.Context, file *entity.UploadedFile) (entity.Session, error)
	Status(ctx context.Context, sessionID string) (entity.JobStatus, error)
	Index(ctx context.Context, sessionID string) (entity.IndexResult, error)
	PageImage(ctx context.Context, sessionID string, page int) ([]byte, error)
	Download(ctx context.Context, sessionID string, format constants.ExportFormat) ([]byte, error)
}

// IndexExporter builds formats the backend does not serve.
type IndexExporter interface {
	ExportIndexXLSX(ctx context.Context, sessionID string, result entity.IndexResult) ([]byte, error)
}

type pageView struct {
	page int
	data []byte
}

// Controller drives one upload/poll/render cycle at a time. All exported methods
// must be called on the executor's loop goroutine.
type Controller struct {
	svc      JobService
	view     View
	exec     Executor
	sched    Scheduler
	logger   *slog.Logger
	notices  *notifier
	exporter IndexExporter
	ctx      context.Context

	pollInterval   time.Duration
	maxUploadBytes int64

	state      State
	file       *entity.UploadedFile
	sessionID  string
	processing bool
	gen        uint64
	poll       Task
	pollBusy   bool
	results    *entity.IndexResult
	viewer     *pageView
	observers  []func(prev, next State)
}

type Option func(*Controller)

func WithPollInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

func WithMaxUploadBytes(n int64) Option {
	return func(c *Controller) {
		if n > 0 {
			c.maxUploadBytes = n
		}
	}
}

// WithNoticeTimings overrides the error dismiss, success dismiss and fade delays.
func WithNoticeTimings(errorDismiss, successDismiss, fade time.Duration) Option {
	return func(c *Controller) {
		t := &c.notices.timings
		if errorDismiss > 0 {
			t.errorDismiss = errorDismiss
		}
		if successDismiss > 0 {
			t.successDismiss = successDismiss
		}
		if fade > 0 {
			t.fade = fade
		}
	}
}

func WithExporter(e IndexExporter) Option {
	return func(c *Controller) {
		c.exporter = e
	}
}

// WithBaseContext sets the parent of every request context. Cancelling it aborts in-flight calls.
func WithBaseContext(ctx context.Context) Option {
	return func(c *Controller) {
		if ctx != nil {
			c.ctx = ctx
		}
	}
}

func New(svc JobService, view View, exec Executor, sched Scheduler, logger *slog.Logger, opts ...Option) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{
		svc:            svc,
		view:           view,
		exec:           exec,
		sched:          sched,
		logger:         logger,
		ctx:            context.Background(),
		pollInterval:   time.Second,
		maxUploadBytes: constants.MaxUploadBytes,
		notices: newNotifier(view, sched, noticeTimings{
			errorDismiss:   5 * time.Second,
			successDismiss: 3 * time.Second,
			fade:           300 * time.Millisecond,
		}),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// OnStateChange registers fn to run after every state transition.
func (c *Controller) OnStateChange(fn func(prev, next State)) {
	c.observers = append(c.observers, fn)
}

func (c *Controller) State() State { return c.state }
func (c *Controller) SessionID() string { return c.sessionID }
func (c *Controller) File() *entity.UploadedFile { return c.file }
func (c *Controller) Processing() bool { return c.processing }
func (c *Controller) Polling() bool { return c.poll != nil }

// Results returns the last rendered index, or false before a run has completed.
func (c *Controller) Results() (entity.IndexResult, bool) {
	if c.results == nil {
		return entity.IndexResult{}, false
	}
	return *c.results, true
}

// SelectFile validates f and makes it the current selection. A rejected file
// leaves the previous selection and state untouched.
func (c *Controller) SelectFile(f *entity.UploadedFile) error {
	if err := document.Validate(f, c.maxUploadBytes); err != nil {
		c.reportError("controller.select.rejected", "", err)
		return err
	}
	c.file = f
	c.view.ShowFilePreview(FilePreview{
		Name:  f.Name,
		Size:  utils.FormatFileSize(f.Size),
		Pages: f.Pages,
	})
	c.logger.Info("controller.select.ok", "name", f.Name, "size", f.Size, "pages", f.Pages)
	if !c.processing {
		c.setState(StateFileSelected)
	}
	return nil
}

// ClearFile drops the selection, the session and any running poll, and hides
// the preview, progress and results.
func (c *Controller) ClearFile() {
	c.gen++
	c.stopPolling()
	c.file = nil
	c.sessionID = ""
	c.processing = false
	c.results = nil
	c.viewer = nil
	c.view.ShowUploadArea()
	c.view.HideSections()
	c.logger.Debug("controller.clear")
	c.setState(StateIdle)
}

// Process uploads the selected file and starts polling. It is a no-op while a run is in flight.
func (c *Controller) Process() {
	if c.processing {
		c.logger.Debug("controller.process.ignored", "reason", "in_flight")
		return
	}
	if c.file == nil {
		c.showError(MsgNoFile)
		return
	}

	c.processing = true
	c.gen++
	gen := c.gen
	c.stopPolling()
	c.sessionID = ""
	c.results = nil

	c.view.HideSections()
	c.view.ShowProgress()
	c.setState(StateUploading)

	file := c.file
	start := time.Now()
	c.exec.Go(func() {
		sess, err := c.svc.Upload(c.ctx, file)
		c.exec.Post(func() { c.uploaded(gen, start, sess, err) })
	})
}

func (c *Controller) uploaded(gen uint64, start time.Time, sess entity.Session, err error) {
	if gen != c.gen {
		c.logger.Debug("controller.upload.stale")
		return
	}
	if err != nil {
		c.processing = false
		c.reportError("controller.upload.error", "Upload failed: ", err, "elapsed_ms", time.Since(start).Milliseconds())
		c.view.HideSections()
		c.setState(StateFileSelected)
		return
	}
	c.sessionID = sess.ID
	c.logger.Info("controller.upload.ok", "session_id", sess.ID, "elapsed_ms", time.Since(start).Milliseconds())
	c.startPolling()
	c.setState(StateProcessing)
}

func (c *Controller) startPolling() {
	c.stopPolling()
	c.poll = c.sched.Every(c.pollInterval, c.tick)
}

func (c *Controller) stopPolling() {
	if c.poll != nil {
		c.poll.Stop()
		c.poll = nil
	}
	c.pollBusy = false
}

// tick issues one status request. A tick while the previous request is still
// outstanding is skipped.
func (c *Controller) tick() {
	if c.poll == nil || c.sessionID == "" {
		return
	}
	if c.pollBusy {
		c.logger.Debug("controller.poll.skip", "session_id", c.sessionID)
		return
	}
	c.pollBusy = true
	task, gen, sid := c.poll, c.gen, c.sessionID
	c.exec.Go(func() {
		st, err := c.svc.Status(c.ctx, sid)
		c.exec.Post(func() { c.polled(task, gen, st, err) })
	})
}

func (c *Controller) polled(task Task, gen uint64, st entity.JobStatus, err error) {
	if task != c.poll || gen != c.gen {
		return
	}
	c.pollBusy = false

	if err != nil {
		c.stopPolling()
		c.processing = false
		c.reportError("controller.poll.error", "Status check failed: ", err, "session_id", c.sessionID)
		c.view.HideSections()
		c.setState(StateErrorDisplayed)
		return
	}

	c.view.SetProgress(utils.ClampPercent(st.Percent()), st.Message)
	c.logger.Debug("controller.poll.ok", "session_id", c.sessionID, "status", st.Status, "progress", st.Progress)

	if !st.Status.IsTerminal() {
		return
	}
	c.stopPolling()
	c.processing = false

	switch st.Status {
	case constants.JobStatusCompleted:
		c.loadResults(gen)
	case constants.JobStatusError:
		c.logger.Warn("controller.job.error", "session_id", c.sessionID, "message", st.Message)
		c.showError(st.Message)
		c.view.HideSections()
		c.setState(StateErrorDisplayed)
	}
}

func (c *Controller) loadResults(gen uint64) {
	sid := c.sessionID
	c.exec.Go(func() {
		res, err := c.svc.Index(c.ctx, sid)
		c.exec.Post(func() { c.loaded(gen, res, err) })
	})
}

func (c *Controller) loaded(gen uint64, res entity.IndexResult, err error) {
	if gen != c.gen {
		return
	}
	if err != nil {
		c.reportError("controller.results.error", "Failed to load results: ", err, "session_id", c.sessionID)
		c.setState(StateErrorDisplayed)
		return
	}
	c.results = &res
	c.view.HideSections()
	c.view.ShowResults(res.Index, res.Summary())
	c.notices.show(NoticeSuccess, MsgProcessed)
	c.logger.Info("controller.results.ok", "session_id", c.sessionID, "entries", len(res.Index), "num_pages", res.NumPages)
	c.setState(StateCompleted)
}

// ViewPage opens the page overlay and loads the page image. A failure stays inside the overlay.
func (c *Controller) ViewPage(page int) {
	pv := &pageView{page: page}
	c.viewer = pv
	c.view.ShowPageViewer(page)

	sid := c.sessionID
	if sid == "" {
		c.view.ShowPageWarning(page, MsgPageUnavailable)
		return
	}
	c.exec.Go(func() {
		img, err := c.svc.PageImage(c.ctx, sid, page)
		c.exec.Post(func() {
			if c.viewer != pv {
				return
			}
			if err != nil {
				c.logger.Warn("controller.page.error", "session_id", sid, "page", page, "error", err, "class", common.ClassOf(err).String())
				c.view.ShowPageWarning(page, MsgPageUnavailable)
				return
			}
			pv.data = img
			c.view.ShowPageImage(page, img)
		})
	})
}

func (c *Controller) ClosePageViewer() {
	c.viewer = nil
	c.view.HidePageViewer()
}

// DownloadPage saves the image currently shown in the overlay. It does nothing
// until that image has loaded.
func (c *Controller) DownloadPage(page int) {
	if c.viewer == nil || c.viewer.page != page || c.viewer.data == nil {
		return
	}
	if err := c.view.SaveFile(fmt.Sprintf("page_%d.jpg", page), c.viewer.data); err != nil {
		c.reportError("controller.page.save_error", "Download failed: ", err, "page", page)
	}
}

// DownloadIndex saves the index as index_<session>.<format>. json and csv come
// from the backend, xlsx is built from the loaded results.
func (c *Controller) DownloadIndex(format constants.ExportFormat) {
	sid := c.sessionID
	if sid == "" {
		c.showError(MsgNoIndex)
		return
	}

	var fetch func() ([]byte, error)
	switch {
	case format.IsServerSide():
		fetch = func() ([]byte, error) { return c.svc.Download(c.ctx, sid, format) }
	case format == constants.ExportXLSX:
		if c.results == nil {
			c.showError(MsgNoIndex)
			return
		}
		if c.exporter == nil {
			c.showError("Download failed: xlsx export is not available")
			return
		}
		res := *c.results
		fetch = func() ([]byte, error) { return c.exporter.ExportIndexXLSX(c.ctx, sid, res) }
	default:
		c.showError(fmt.Sprintf("Download failed: unsupported format %q", string(format)))
		return
	}

	gen := c.gen
	c.exec.Go(func() {
		data, err := fetch()
		c.exec.Post(func() {
			if gen != c.gen {
				return
			}
			if err != nil {
				c.reportError("controller.download.error", "Download failed: ", err, "session_id", sid, "format", format)
				return
			}
			name := fmt.Sprintf("index_%s.%s", sid, format)
			if err := c.view.SaveFile(name, data); err != nil {
				c.reportError("controller.download.save_error", "Download failed: ", err, "file", name)
				return
			}
			c.logger.Info("controller.download.ok", "session_id", sid, "file", name, "bytes", len(data))
			c.notices.show(NoticeSuccess, "Index downloaded as "+strings.ToUpper(string(format)))
		})
	})
}

// KeyEvent is a key press routed from the front end.
type KeyEvent struct {
	Key  string
	Ctrl bool
	Meta bool
}

// HandleKey runs the keyboard shortcuts and reports whether the key was consumed.
func (c *Controller) HandleKey(ev KeyEvent) bool {
	switch {
	case (ev.Ctrl || ev.Meta) && strings.EqualFold(ev.Key, "o"):
		c.view.OpenFilePicker()
		return true
	case ev.Key == "Escape":
		c.ClearFile()
		return true
	}
	return false
}

// HandleUnexpected is the last-resort handler for failures nothing else caught.
func (c *Controller) HandleUnexpected(err error) {
	c.logger.Error("controller.unexpected", "error", err, "class", common.ClassOf(err).String())
	c.showError(MsgUnexpected)
}

// Close stops the poll and any pending notice timers.
func (c *Controller) Close() {
	c.gen++
	c.stopPolling()
	c.notices.stopAll()
}

func (c *Controller) showError(message string) {
	c.notices.show(NoticeError, message)
}

// reportError logs event with err and its class, then shows prefix followed by
// the user message for err. Validation failures log at info level.
func (c *Controller) reportError(event, prefix string, err error, attrs ...any) {
	class := common.ClassOf(err)
	attrs = append(attrs, "error", err, "class", class.String())
	if class == common.ClassValidation {
		c.logger.Info(event, attrs...)
	} else {
		c.logger.Error(event, attrs...)
	}
	c.showError(prefix + userMessage(err))
}

func (c *Controller) setState(next State) {
	prev := c.state
	if prev == next {
		return
	}
	c.state = next
	c.logger.Debug("controller.state", "from", prev.String(), "to", next.String())
	for _, fn := range c.observers {
		fn(prev, next)
	}
}

// userMessage is the text shown to the user for err. Validation failures show
// the rule's message without the field or gRPC prefix.
func userMessage(err error) string {
	if common.ClassOf(err) != common.ClassValidation {
		return err.Error()
	}
	var ve common.ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	if st, ok := status.FromError(err); ok {
		return st.Message()
	}
	return err.Error()
}
