package controller

import "github.com/joseph-ayodele/bookmap/internal/entity"

// NoticeKind separates the two transient alert slots.
type NoticeKind int

const (
	NoticeError NoticeKind = iota
	NoticeSuccess
)

func (k NoticeKind) String() string {
	if k == NoticeSuccess {
		return "success"
	}
	return "error"
}

// FilePreview is what the preview card shows for an accepted selection.
type FilePreview struct {
	Name  string
	Size  string // already formatted, e.g. "1.5 KB"
	Pages int    // 0 when unknown
}

// View is the presentation surface. Every method is called on the loop goroutine.
type View interface {
	// ShowFilePreview replaces the drop area with the preview card.
	ShowFilePreview(p FilePreview)
	// ShowUploadArea restores the drop area and hides the preview card.
	ShowUploadArea()
	OpenFilePicker()

	ShowProgress()
	SetProgress(percent int, message string)
	// ShowResults renders one row per entry plus the summary row, and reveals the download menu.
	ShowResults(entries []entity.IndexEntry, summary string)
	// HideSections hides progress, results and the download menu.
	HideSections()

	// ShowPageViewer opens the overlay for page in its loading state.
	ShowPageViewer(page int)
	ShowPageImage(page int, image []byte)
	// ShowPageWarning replaces the loading state with an inline warning.
	ShowPageWarning(page int, message string)
	HidePageViewer()

	// SaveFile hands a download to the user under name.
	SaveFile(name string, data []byte) error

	ShowNotice(kind NoticeKind, message string)
	FadeNotice(kind NoticeKind)
	HideNotice(kind NoticeKind)
}
