package controller

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/bookmap/constants"
	"github.com/joseph-ayodele/bookmap/internal/entity"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// syncExec runs background work inline, so every operation completes before it returns.
type syncExec struct{}

func (syncExec) Go(fn func()) { fn() }
func (syncExec) Post(fn func()) { fn() }

// deferredExec holds background work until drain, to model calls that overlap in-flight requests.
type deferredExec struct {
	pending []func()
}

func (e *deferredExec) Go(fn func()) { e.pending = append(e.pending, fn) }
func (e *deferredExec) Post(fn func()) { fn() }

func (e *deferredExec) drain() {
	for len(e.pending) > 0 {
		fn := e.pending[0]
		e.pending = e.pending[1:]
		fn()
	}
}

type fakeTask struct {
	every   bool
	d       time.Duration
	fn      func()
	stopped bool
}

func (t *fakeTask) Stop() { t.stopped = true }

// manualScheduler fires tasks only when the test says so.
type manualScheduler struct {
	tasks []*fakeTask
}

func (s *manualScheduler) Every(d time.Duration, fn func()) Task {
	t := &fakeTask{every: true, d: d, fn: fn}
	s.tasks = append(s.tasks, t)
	return t
}

func (s *manualScheduler) After(d time.Duration, fn func()) Task {
	t := &fakeTask{d: d, fn: fn}
	s.tasks = append(s.tasks, t)
	return t
}

// tick fires every live recurring task once.
func (s *manualScheduler) tick() {
	for _, t := range append([]*fakeTask(nil), s.tasks...) {
		if t.every && !t.stopped {
			t.fn()
		}
	}
}

// fire runs the live one-shot tasks scheduled with delay d.
func (s *manualScheduler) fire(d time.Duration) {
	for _, t := range append([]*fakeTask(nil), s.tasks...) {
		if !t.every && !t.stopped && t.d == d {
			t.stopped = true
			t.fn()
		}
	}
}

func (s *manualScheduler) activePolls() int {
	n := 0
	for _, t := range s.tasks {
		if t.every && !t.stopped {
			n++
		}
	}
	return n
}

type fakeService struct {
	session   string
	uploadErr error
	uploads   int

	statuses    []entity.JobStatus
	statusErr   error
	statusCalls int

	index      entity.IndexResult
	indexErr   error
	indexCalls int

	image   []byte
	pageErr error

	download    []byte
	downloadErr error
	downloads   []constants.ExportFormat
}

func (f *fakeService) Upload(_ context.Context, _ *entity.UploadedFile) (entity.Session, error) {
	f.uploads++
	if f.uploadErr != nil {
		return entity.Session{}, f.uploadErr
	}
	return entity.Session{ID: f.session}, nil
}

func (f *fakeService) Status(_ context.Context, _ string) (entity.JobStatus, error) {
	f.statusCalls++
	if f.statusErr != nil {
		return entity.JobStatus{}, f.statusErr
	}
	i := f.statusCalls - 1
	if i >= len(f.statuses) {
		i = len(f.statuses) - 1
	}
	return f.statuses[i], nil
}

func (f *fakeService) Index(_ context.Context, _ string) (entity.IndexResult, error) {
	f.indexCalls++
	return f.index, f.indexErr
}

func (f *fakeService) PageImage(_ context.Context, _ string, _ int) ([]byte, error) {
	return f.image, f.pageErr
}

func (f *fakeService) Download(_ context.Context, _ string, format constants.ExportFormat) ([]byte, error) {
	f.downloads = append(f.downloads, format)
	return f.download, f.downloadErr
}

type notice struct {
	kind    NoticeKind
	message string
}

type progress struct {
	percent int
	message string
}

type fakeView struct {
	previewVisible  bool
	progressVisible bool
	resultsVisible  bool
	viewerOpen      bool

	preview  FilePreview
	progress []progress
	rows     []entity.IndexEntry
	summary  string
	pickers  int

	images   map[int][]byte
	warnings map[int]string
	saved    map[string][]byte
	saveErr  error

	notices []notice
	faded   []NoticeKind
	hidden  []NoticeKind
}

func newFakeView() *fakeView {
	return &fakeView{
		images:   map[int][]byte{},
		warnings: map[int]string{},
		saved:    map[string][]byte{},
	}
}

func (v *fakeView) ShowFilePreview(p FilePreview) {
	v.preview = p
	v.previewVisible = true
}

func (v *fakeView) ShowUploadArea() { v.previewVisible = false }
func (v *fakeView) OpenFilePicker() { v.pickers++ }
func (v *fakeView) ShowProgress() { v.progressVisible = true }

func (v *fakeView) SetProgress(percent int, message string) {
	v.progress = append(v.progress, progress{percent, message})
}

func (v *fakeView) ShowResults(entries []entity.IndexEntry, summary string) {
	v.rows = entries
	v.summary = summary
	v.resultsVisible = true
}

func (v *fakeView) HideSections() {
	v.progressVisible = false
	v.resultsVisible = false
}

func (v *fakeView) ShowPageViewer(int) { v.viewerOpen = true }

func (v *fakeView) ShowPageImage(page int, image []byte) { v.images[page] = image }

func (v *fakeView) ShowPageWarning(page int, message string) { v.warnings[page] = message }

func (v *fakeView) HidePageViewer() { v.viewerOpen = false }

func (v *fakeView) SaveFile(name string, data []byte) error {
	if v.saveErr != nil {
		return v.saveErr
	}
	v.saved[name] = data
	return nil
}

func (v *fakeView) ShowNotice(kind NoticeKind, message string) {
	v.notices = append(v.notices, notice{kind, message})
}

func (v *fakeView) FadeNotice(kind NoticeKind) { v.faded = append(v.faded, kind) }
func (v *fakeView) HideNotice(kind NoticeKind) { v.hidden = append(v.hidden, kind) }

func (v *fakeView) lastNotice() notice {
	if len(v.notices) == 0 {
		return notice{}
	}
	return v.notices[len(v.notices)-1]
}

func (v *fakeView) errorNotices() []string {
	var out []string
	for _, n := range v.notices {
		if n.kind == NoticeError {
			out = append(out, n.message)
		}
	}
	return out
}

type fakeExporter struct {
	data []byte
	err  error
}

func (e fakeExporter) ExportIndexXLSX(context.Context, string, entity.IndexResult) ([]byte, error) {
	return e.data, e.err
}
