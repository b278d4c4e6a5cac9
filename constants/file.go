package constants

import "strings"

// PDFMimeType is the only content type accepted for upload.
const PDFMimeType = "application/pdf"

// MaxUploadBytes is the inclusive upload size limit (50 MiB).
const MaxUploadBytes int64 = 50 * 1024 * 1024

// UploadFormField is the multipart field name the backend reads the file from.
const UploadFormField = "file"

// ExportFormat names an index export.
type ExportFormat string

const (
	ExportJSON ExportFormat = "json" // built by the backend
	ExportCSV  ExportFormat = "csv"  // built by the backend
	ExportXLSX ExportFormat = "xlsx" // built locally from the fetched index
)

// ServerFormats are the formats served by GET /download/{session_id}/{format}.
var ServerFormats = map[ExportFormat]struct{}{
	ExportJSON: {},
	ExportCSV:  {},
}

// ParseExportFormat lowercases and trims input and reports whether it is a known format.
func ParseExportFormat(input string) (ExportFormat, bool) {
	f := ExportFormat(strings.ToLower(strings.TrimSpace(input)))
	switch f {
	case ExportJSON, ExportCSV, ExportXLSX:
		return f, true
	}
	return "", false
}

// IsServerSide reports whether the backend builds this export.
func (f ExportFormat) IsServerSide() bool {
	_, ok := ServerFormats[f]
	return ok
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
