// Package document loads and validates the files a user selects for indexing.
package document

import (
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joseph-ayodele/bookmap/constants"
	"github.com/joseph-ayodele/bookmap/internal/common"
	"github.com/joseph-ayodele/bookmap/internal/entity"
	"github.com/joseph-ayodele/bookmap/internal/utils"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Messages shown for rejected selections.
const (
	MsgNotPDF = "Please select a PDF file."
)

var disableConfigDir sync.Once

// Open reads the file at path into an UploadedFile. The MIME type comes from the extension,
// falling back to content sniffing. Files larger than readLimit are described but not
// read, since selection will reject them anyway.
func Open(path string, readLimit int64, logger *slog.Logger) (*entity.UploadedFile, error) {
	if logger == nil {
		logger = slog.Default()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	st, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if st.IsDir() {
		return nil, common.NewAppError("NOT_A_FILE", abs+" is a directory", common.ErrInvalidInput)
	}

	f, err := os.Open(abs)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func(f *os.File) {
		if err := f.Close(); err != nil {
			logger.Warn("document.close_error", "path", abs, "error", err)
		}
	}(f)

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	head = head[:n]

	out := &entity.UploadedFile{
		Name:     filepath.Base(abs),
		Size:     st.Size(),
		MIMEType: DetectMIMEType(abs, head),
		Path:     abs,
	}

	if readLimit <= 0 || out.Size <= readLimit {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("seek %s: %w", path, err)
		}
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		out.Data = data
		out.Size = int64(len(data))
	}

	if out.MIMEType == constants.PDFMimeType {
		out.Pages = pageCount(abs, logger)
	}

	logger.Debug("document.opened",
		"path", abs,
		"size", out.Size,
		"mime_type", out.MIMEType,
		"pages", out.Pages,
	)
	return out, nil
}

// DetectMIMEType mirrors how a browser fills File.type: by extension first, then by sniffing
// head when the extension is unknown. Parameters such as charset are dropped.
func DetectMIMEType(path string, head []byte) string {
	t := mime.TypeByExtension(filepath.Ext(path))
	if t == "" && len(head) > 0 {
		t = http.DetectContentType(head)
	}
	if i := strings.IndexByte(t, ';'); i >= 0 {
		t = t[:i]
	}
	return strings.TrimSpace(t)
}

// Validate checks the MIME type, then the inclusive size limit.
// It returns the first failure as a common.ValidationError.
func Validate(f *entity.UploadedFile, maxBytes int64) error {
	if f == nil {
		return common.ValidationError{Field: "file", Message: "Please select a file first."}
	}
	if maxBytes <= 0 {
		maxBytes = constants.MaxUploadBytes
	}
	v := common.NewValidator().
		Field("type", f.MIMEType, common.Equals(constants.PDFMimeType, MsgNotPDF)).
		Field("size", f.Size, common.AtMost(maxBytes, TooLargeMessage(maxBytes)))
	return v.First()
}

// TooLargeMessage is the rejection text for files over maxBytes, e.g. "File size must be less than 50MB.".
func TooLargeMessage(maxBytes int64) string {
	return fmt.Sprintf("File size must be less than %s.", strings.ReplaceAll(utils.FormatFileSize(maxBytes), " ", ""))
}

// pageCount is informational only: a PDF pdfcpu cannot parse is still uploaded.
func pageCount(path string, logger *slog.Logger) int {
	disableConfigDir.Do(api.DisableConfigDir)
	n, err := api.PageCountFile(path)
	if err != nil {
		logger.Debug("document.page_count_failed", "path", path, "error", err)
		return 0
	}
	return n
}
