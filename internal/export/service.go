package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/bookmap/internal/entity"
	"github.com/joseph-ayodele/bookmap/internal/utils"
)

const indexSheet = "Index"

// Service produces export files from a fetched index.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// ExportIndexXLSX returns an XLSX workbook (as bytes) with one Page/Title row per entry,
// the same columns as the backend CSV.
func (s *Service) ExportIndexXLSX(ctx context.Context, sessionID string, res entity.IndexResult) ([]byte, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), indexSheet); err != nil {
		return nil, err
	}
	activeIndex, _ := f.GetSheetIndex(indexSheet)
	f.SetActiveSheet(activeIndex)

	write := func(col, row int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(indexSheet, cell, v)
	}

	write(1, 1, "Page")
	write(2, 1, "Title")

	row := 2
	for _, e := range res.Index {
		write(1, row, e.Page)
		write(2, row, utils.Truncate(e.Title, 255))
		row++
	}

	// Summary below the table
	write(1, row+1, res.Summary())

	_ = f.SetColWidth(indexSheet, "A", "A", 8)
	_ = f.SetColWidth(indexSheet, "B", "B", 64)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"session_id", sessionID,
		"rows", len(res.Index),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
