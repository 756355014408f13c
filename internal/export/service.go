package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/docparser/internal/entity"
	"github.com/joseph-ayodele/docparser/internal/repository"
)

const SheetName = "Jobs"

// Headers are the column titles of the Jobs sheet, in order.
var Headers = []string{
	"Started At",
	"Finished At",
	"Session",
	"File",
	"Format",
	"Status",
	"Document Type",
	"Text Chars",
	"Error Kind",
	"Error Message",
	"Job ID",
}

// Service renders the ingestion journal as XLSX.
type Service struct {
	jobs   repository.JobRepository
	logger *slog.Logger
}

func NewService(jobs repository.JobRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{jobs: jobs, logger: logger}
}

// Window bounds export rows by start time. Nil ends are open.
type Window struct {
	From *time.Time
	To   *time.Time
}

// DateLayout is the YYYY-MM-DD form accepted by ParseWindow.
const DateLayout = "2006-01-02"

// ParseWindow builds a Window from optional YYYY-MM-DD dates (UTC). Both ends
// are inclusive: to covers the whole day.
func ParseWindow(from, to string) (Window, error) {
	var w Window
	if fd := strings.TrimSpace(from); fd != "" {
		t, err := time.Parse(DateLayout, fd)
		if err != nil {
			return Window{}, fmt.Errorf("from date must be YYYY-MM-DD")
		}
		w.From = &t
	}
	if td := strings.TrimSpace(to); td != "" {
		t, err := time.Parse(DateLayout, td)
		if err != nil {
			return Window{}, fmt.Errorf("to date must be YYYY-MM-DD")
		}
		end := t.Add(24*time.Hour - time.Nanosecond)
		w.To = &end
	}
	if w.From != nil && w.To != nil && w.To.Before(*w.From) {
		return Window{}, fmt.Errorf("to date is before from date")
	}
	return w, nil
}

func (w Window) contains(t time.Time) bool {
	if w.From != nil && t.Before(*w.From) {
		return false
	}
	if w.To != nil && t.After(*w.To) {
		return false
	}
	return true
}

// ExportJobsXLSX returns an XLSX workbook (as bytes) with one row per attempt
// matching filter and window, newest first.
func (s *Service) ExportJobsXLSX(ctx context.Context, filter repository.JobFilter, window Window) ([]byte, error) {
	start := time.Now()

	jobs, err := s.jobs.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("export.xlsx.close_error", "error", err)
		}
	}()
	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return nil, err
	}
	activeIndex, _ := f.GetSheetIndex(SheetName)
	f.SetActiveSheet(activeIndex)

	for i, h := range Headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(SheetName, cell, h)
	}

	row := 2
	for _, j := range jobs {
		if !window.contains(j.StartedAt) {
			continue
		}
		writeRow(f, row, j)
		row++
	}

	_ = f.SetColWidth(SheetName, "A", "B", 22) // timestamps
	_ = f.SetColWidth(SheetName, "C", "C", 38) // session
	_ = f.SetColWidth(SheetName, "D", "D", 32) // file
	_ = f.SetColWidth(SheetName, "E", "H", 14)
	_ = f.SetColWidth(SheetName, "I", "I", 20)
	_ = f.SetColWidth(SheetName, "J", "J", 60) // error message
	_ = f.SetColWidth(SheetName, "K", "K", 38)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"session_id", filter.SessionID,
		"rows", row-2,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, row int, j *entity.Job) {
	write := func(col int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(SheetName, cell, v)
	}
	write(1, j.StartedAt.UTC().Format(time.RFC3339))
	if j.FinishedAt != nil {
		write(2, j.FinishedAt.UTC().Format(time.RFC3339))
	}
	write(3, j.SessionID)
	write(4, j.Filename)
	write(5, j.Format)
	write(6, string(j.Status))
	write(7, deref(j.DocType))
	write(8, j.TextChars)
	write(9, deref(j.ErrorKind))
	write(10, truncate(deref(j.ErrorMessage), 240))
	write(11, j.ID.String())
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
