package console

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"

	"github.com/joseph-ayodele/bookmap/internal/controller"
	"github.com/joseph-ayodele/bookmap/internal/entity"
	"github.com/joseph-ayodele/bookmap/internal/utils"
)

const barWidth = 30

// View renders controller output on a terminal. On a TTY the progress bar is
// redrawn in place; otherwise each change is printed on its own line.
type View struct {
	out    io.Writer
	errOut io.Writer
	dir    string
	tty    bool
	logger *slog.Logger

	progressOpen bool
	lastPercent  int
	lastMessage  string
}

type Option func(*View)

// WithTTY overrides terminal detection.
func WithTTY(tty bool) Option {
	return func(v *View) {
		v.tty = tty
	}
}

// New returns a View that writes saved files into dir.
func New(out, errOut io.Writer, dir string, logger *slog.Logger, opts ...Option) *View {
	if logger == nil {
		logger = slog.Default()
	}
	if dir == "" {
		dir = "."
	}
	v := &View{out: out, errOut: errOut, dir: dir, tty: isTerminal(out), logger: logger, lastPercent: -1}
	for _, o := range opts {
		o(v)
	}
	return v
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (v *View) ShowFilePreview(p controller.FilePreview) {
	details := p.Size
	if p.Pages > 0 {
		details += fmt.Sprintf(", %d pages", p.Pages)
	}
	fmt.Fprintf(v.out, "Selected %s (%s)\n", p.Name, details)
}

func (v *View) ShowUploadArea() {
	v.endProgressLine()
	fmt.Fprintln(v.out, "Selection cleared.")
}

func (v *View) OpenFilePicker() {
	fmt.Fprintln(v.out, "Pass the path of a PDF file to select it.")
}

func (v *View) ShowProgress() {
	v.progressOpen = true
	v.lastPercent = -1
	v.lastMessage = ""
	fmt.Fprintln(v.out, "Uploading...")
}

func (v *View) SetProgress(percent int, message string) {
	percent = utils.ClampPercent(percent)
	if !v.progressOpen {
		v.progressOpen = true
	}
	if v.tty {
		fmt.Fprintf(v.out, "\r\033[K%s %3d%% %s", bar(percent), percent, message)
	} else if percent != v.lastPercent || message != v.lastMessage {
		fmt.Fprintf(v.out, "%3d%% %s\n", percent, message)
	}
	v.lastPercent = percent
	v.lastMessage = message
}

func (v *View) ShowResults(entries []entity.IndexEntry, summary string) {
	v.endProgressLine()

	table := tablewriter.NewWriter(v.out)
	table.SetHeader([]string{"Page", "Title", "Action"})
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetColumnAlignment([]int{tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT})
	for _, e := range entries {
		table.Append([]string{strconv.Itoa(e.Page), e.Title, "View"})
	}
	table.SetFooter([]string{"", summary, ""})
	table.Render()
}

func (v *View) HideSections() {
	v.endProgressLine()
	v.progressOpen = false
}

func (v *View) ShowPageViewer(page int) {
	fmt.Fprintf(v.out, "Loading page %d...\n", page)
}

func (v *View) ShowPageImage(page int, image []byte) {
	fmt.Fprintf(v.out, "Page %d loaded (%s)\n", page, utils.FormatFileSize(int64(len(image))))
}

func (v *View) ShowPageWarning(page int, message string) {
	fmt.Fprintf(v.errOut, "Page %d: %s\n", page, message)
}

func (v *View) HidePageViewer() {}

// SaveFile writes data under the view's output directory.
func (v *View) SaveFile(name string, data []byte) error {
	if err := os.MkdirAll(v.dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(v.dir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	v.logger.Debug("console.saved", "path", path, "bytes", len(data))
	fmt.Fprintf(v.out, "Saved %s\n", path)
	return nil
}

func (v *View) ShowNotice(kind controller.NoticeKind, message string) {
	v.endProgressLine()
	if kind == controller.NoticeError {
		fmt.Fprintf(v.errOut, "Error: %s\n", message)
		return
	}
	fmt.Fprintln(v.out, message)
}

// Printed notices stay in the scrollback, so fading and hiding are no-ops.
func (v *View) FadeNotice(controller.NoticeKind) {}
func (v *View) HideNotice(controller.NoticeKind) {}

func (v *View) endProgressLine() {
	if v.tty && v.progressOpen && v.lastPercent >= 0 {
		fmt.Fprintln(v.out)
		v.lastPercent = -1
	}
}

func bar(percent int) string {
	filled := percent * barWidth / 100
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", barWidth-filled) + "]"
}
