package ingest

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/bookmap/constants"
)

// defaultExts is the discovery set: only PDFs can be uploaded.
var defaultExts = map[string]struct{}{
	"pdf": {},
}

func allowed(path string, exts map[string]struct{}) bool {
	_, ok := exts[constants.NormalizeExt(filepath.Ext(path))]
	return ok
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".")
}
