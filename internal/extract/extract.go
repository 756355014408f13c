package extract

import (
	"context"
	"time"
)

// Extractor turns one file into ordered text segments (pages for PDF,
// paragraphs for DOCX).
type Extractor interface {
	Extract(ctx context.Context, path string) (Result, error)
}

type Result struct {
	Segments []string
	Pages    int
	Method   string // "pdf-native" | "pdf-text" | "docx-xml"
	Duration time.Duration
	Warnings []string
}
