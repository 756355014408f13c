package loader

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/docparser/constants"
	"github.com/joseph-ayodele/docparser/internal/common"
	"github.com/joseph-ayodele/docparser/internal/extract"
)

const UnsupportedFormatMessage = "Unsupported file format. Please upload PDF or DOCX."

// RawDocument is an uploaded file and the format inferred from its extension.
type RawDocument struct {
	Path   string
	Format constants.Format
}

// ExtractedText holds the ordered segments of a document and their join.
type ExtractedText struct {
	Segments []string
	Text     string
}

// Loader dispatches a path to the extractor registered for its format.
type Loader struct {
	extractors map[constants.Format]extract.Extractor
	logger     *slog.Logger
}

func New(extractors map[constants.Format]extract.Extractor, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	m := make(map[constants.Format]extract.Extractor, len(extractors))
	for f, e := range extractors {
		m[f] = e
	}
	return &Loader{extractors: m, logger: logger}
}

// NewFromConfig wires the default extractors. runner may be nil.
func NewFromConfig(cfg common.ExtractConfig, runner extract.Runner, logger *slog.Logger) *Loader {
	var pdfExtractor extract.Extractor
	switch cfg.PDFBackend {
	case "pdftotext":
		pdfExtractor = extract.NewPdftotext(cfg.Pdftotext, runner, logger)
	default:
		pdfExtractor = extract.NewNativePDF(logger)
	}
	if cfg.OCRFallback {
		ocr := extract.NewPDFOCR(extract.OCRConfig{
			Pdftoppm:  cfg.Pdftoppm,
			Tesseract: cfg.Tesseract,
			Lang:      cfg.OCRLang,
			MaxPages:  cfg.OCRMaxPages,
		}, runner, logger)
		pdfExtractor = extract.Fallback{Primary: pdfExtractor, Secondary: ocr, Logger: logger}
	}
	return New(map[constants.Format]extract.Extractor{
		constants.PDF:  pdfExtractor,
		constants.DOCX: extract.NewDOCX(logger),
	}, logger)
}

// Resolve infers the document format from the path's extension.
func Resolve(path string) (RawDocument, error) {
	format := constants.MapExtToFormat(filepath.Ext(path))
	if format == "" {
		return RawDocument{}, common.UnsupportedFormat(UnsupportedFormatMessage)
	}
	return RawDocument{Path: path, Format: format}, nil
}

// Load returns the document's segments in extractor order. Every failure is
// an *common.AppError of kind UNSUPPORTED_FORMAT or LOAD_FAILURE.
func (l *Loader) Load(ctx context.Context, path string) ([]string, error) {
	doc, err := Resolve(path)
	if err != nil {
		l.logger.Info("load.unsupported", "path", path, "ext", filepath.Ext(path))
		return nil, err
	}
	ex, ok := l.extractors[doc.Format]
	if !ok {
		return nil, common.LoadFailure(fmt.Errorf("no extractor registered for %s", doc.Format))
	}

	res, err := ex.Extract(ctx, doc.Path)
	if err != nil {
		l.logger.Error("load.failed", "path", path, "format", doc.Format, "error", err)
		return nil, common.LoadFailure(err)
	}
	l.logger.Info("load.ok",
		"path", path,
		"format", doc.Format,
		"method", res.Method,
		"segments", len(res.Segments),
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res.Segments, nil
}

// Assemble joins segments with newlines. No segments yields "".
func Assemble(segments []string) ExtractedText {
	return ExtractedText{Segments: segments, Text: strings.Join(segments, "\n")}
}
