package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// OCRConfig tunes the scanned-PDF extractor.
type OCRConfig struct {
	Pdftoppm    string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract   string // binary name or absolute path; if empty -> "tesseract"
	Lang        string // default "eng"
	TessdataDir string
	DPI         int // rasterization DPI, default 300
	MaxPages    int // 0 = no limit
}

// PDFOCR renders each PDF page with pdftoppm and reads it back with
// tesseract, one segment per page. It serves PDFs without a text layer.
type PDFOCR struct {
	cfg    OCRConfig
	runner Runner
	logger *slog.Logger
}

var reBoxNoise = regexp.MustCompile(`[|¦]{2,}`)

func NewPDFOCR(cfg OCRConfig, runner Runner, logger *slog.Logger) *PDFOCR {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = ExecRunner{Logger: logger}
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Lang == "" {
		cfg.Lang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	return &PDFOCR{cfg: cfg, runner: runner, logger: logger}
}

func (p *PDFOCR) Extract(ctx context.Context, path string) (Result, error) {
	start := time.Now()
	res := Result{Method: "pdf-ocr"}

	tmpDir, err := os.MkdirTemp("", "docparser-ocr-*")
	if err != nil {
		return res, err
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			p.logger.Warn("ocr.cleanup_failed", "dir", tmpDir, "error", err)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 300 -png <in.pdf> <tmp/page>
	_, errb, err := p.runner.Run(ctx, p.cfg.Pdftoppm, "-r", strconv.Itoa(p.cfg.DPI), "-png", path, prefix)
	if err != nil {
		res.Duration = time.Since(start)
		return res, fmt.Errorf("pdftoppm: %w: %s", err, strings.TrimSpace(string(errb)))
	}

	images, err := pageImages(tmpDir, filepath.Base(prefix))
	if err != nil {
		p.logger.Error("ocr.list_pages_failed", "dir", tmpDir, "error", err)
		res.Duration = time.Since(start)
		return res, err
	}
	if p.cfg.MaxPages > 0 && len(images) > p.cfg.MaxPages {
		res.Warnings = append(res.Warnings, fmt.Sprintf("only the first %d of %d pages were read", p.cfg.MaxPages, len(images)))
		images = images[:p.cfg.MaxPages]
	}
	if len(images) == 0 {
		res.Duration = time.Since(start)
		return res, fmt.Errorf("pdftoppm produced no images")
	}

	for _, img := range images {
		txt, err := p.tesseract(ctx, img)
		if err != nil {
			res.Warnings = append(res.Warnings, err.Error())
			res.Segments = append(res.Segments, "")
			continue
		}
		res.Segments = append(res.Segments, Normalize(txt))
	}
	res.Pages = len(images)
	res.Duration = time.Since(start)

	p.logger.Debug("ocr.done", "path", path, "pages", res.Pages, "warnings", len(res.Warnings))
	return res, nil
}

// pageImages lists the rendered pages, prefix-1.png, prefix-2.png and so on,
// in page order. pdftoppm zero pads the number once there are 10+ pages.
func pageImages(dir, prefix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list rendered pages: %w", err)
	}
	var images []string
	for _, e := range entries {
		name := e.Name()
		if e.Type().IsRegular() && strings.HasPrefix(name, prefix+"-") && strings.HasSuffix(name, ".png") {
			images = append(images, filepath.Join(dir, name))
		}
	}
	sort.Strings(images)
	return images, nil
}

func (p *PDFOCR) tesseract(ctx context.Context, img string) (string, error) {
	// tesseract <file> stdout -l <lang>
	args := []string{img, "stdout", "-l", p.cfg.Lang}
	if p.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", p.cfg.TessdataDir)
	}
	out, errb, err := p.runner.Run(ctx, p.cfg.Tesseract, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract %s: %w: %s", filepath.Base(img), err, strings.TrimSpace(string(errb)))
	}
	return reBoxNoise.ReplaceAllString(string(out), ""), nil
}

// Fallback tries Primary and, when it returns no text at all, Secondary.
// Errors from Primary are returned as-is; only an empty result falls through.
type Fallback struct {
	Primary   Extractor
	Secondary Extractor
	Logger    *slog.Logger
}

func (f Fallback) Extract(ctx context.Context, path string) (Result, error) {
	res, err := f.Primary.Extract(ctx, path)
	if err != nil || hasText(res.Segments) {
		return res, err
	}
	logger := f.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("extract.fallback", "path", path, "from", res.Method)
	second, err := f.Secondary.Extract(ctx, path)
	second.Warnings = append(res.Warnings, second.Warnings...)
	second.Duration += res.Duration
	return second, err
}

func hasText(segments []string) bool {
	for _, s := range segments {
		if strings.TrimSpace(s) != "" {
			return true
		}
	}
	return false
}
