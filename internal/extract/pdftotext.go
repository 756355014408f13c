package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Pdftotext extracts PDF text with poppler's pdftotext, one segment per page.
type Pdftotext struct {
	bin    string
	runner Runner
	logger *slog.Logger
}

func NewPdftotext(bin string, runner Runner, logger *slog.Logger) *Pdftotext {
	if logger == nil {
		logger = slog.Default()
	}
	if bin == "" {
		bin = "pdftotext"
	}
	if runner == nil {
		runner = ExecRunner{Logger: logger}
	}
	return &Pdftotext{bin: bin, runner: runner, logger: logger}
}

func (p *Pdftotext) Extract(ctx context.Context, path string) (Result, error) {
	start := time.Now()
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := p.runner.Run(ctx, p.bin, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		res := Result{Method: "pdf-text", Duration: time.Since(start)}
		if msg := strings.TrimSpace(string(errb)); msg != "" {
			res.Warnings = []string{msg}
			return res, fmt.Errorf("pdftotext: %w: %s", err, msg)
		}
		return res, fmt.Errorf("pdftotext: %w", err)
	}

	// form feed separates pages; the last page is followed by one too
	raw := strings.TrimSuffix(string(out), "\f")
	pages := strings.Split(raw, "\f")
	segments := make([]string, len(pages))
	for i, pg := range pages {
		segments[i] = Normalize(pg)
	}

	p.logger.Debug("pdftotext.done", "path", path, "pages", len(pages), "bytes", len(out))
	return Result{
		Segments: segments,
		Pages:    len(pages),
		Method:   "pdf-text",
		Duration: time.Since(start),
	}, nil
}
