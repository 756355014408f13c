package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/ledongthuc/pdf"
)

// NativePDF reads the PDF text layer in-process, one segment per page.
type NativePDF struct {
	logger *slog.Logger
}

func NewNativePDF(logger *slog.Logger) *NativePDF {
	if logger == nil {
		logger = slog.Default()
	}
	return &NativePDF{logger: logger}
}

func (n *NativePDF) Extract(ctx context.Context, path string) (Result, error) {
	start := time.Now()
	res := Result{Method: "pdf-native"}

	f, err := os.Open(path)
	if err != nil {
		return res, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return res, fmt.Errorf("stat pdf: %w", err)
	}

	reader, err := newPDFReader(f, info.Size())
	if err != nil {
		return res, fmt.Errorf("read pdf: %w", err)
	}

	numPages := reader.NumPage()
	segments := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			segments = append(segments, "")
			continue
		}
		text, err := pageText(page)
		if err != nil {
			n.logger.Warn("pdf.page.failed", "path", path, "page", i, "error", err)
			res.Warnings = append(res.Warnings, fmt.Sprintf("page %d: %v", i, err))
			segments = append(segments, "")
			continue
		}
		segments = append(segments, text)
	}

	res.Segments = segments
	res.Pages = numPages
	res.Duration = time.Since(start)
	n.logger.Debug("pdf.native.done", "path", path, "pages", numPages, "warnings", len(res.Warnings))
	return res, nil
}

// newPDFReader turns parser panics on malformed input into errors.
func newPDFReader(f *os.File, size int64) (r *pdf.Reader, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("malformed pdf: %v", p)
		}
	}()
	return pdf.NewReader(f, size)
}

func pageText(page pdf.Page) (text string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("malformed page: %v", p)
		}
	}()
	return page.GetPlainText(nil)
}
