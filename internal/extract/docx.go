package extract

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

const docxBodyPart = "word/document.xml"

// DOCX reads paragraph text from word/document.xml, one segment per w:p.
type DOCX struct {
	logger *slog.Logger
}

func NewDOCX(logger *slog.Logger) *DOCX {
	if logger == nil {
		logger = slog.Default()
	}
	return &DOCX{logger: logger}
}

func (d *DOCX) Extract(ctx context.Context, path string) (Result, error) {
	start := time.Now()
	res := Result{Method: "docx-xml"}

	zr, err := zip.OpenReader(path)
	if err != nil {
		return res, fmt.Errorf("open docx: %w", err)
	}
	defer zr.Close()

	var body *zip.File
	for _, f := range zr.File {
		if f.Name == docxBodyPart {
			body = f
			break
		}
	}
	if body == nil {
		return res, fmt.Errorf("open docx: missing %s", docxBodyPart)
	}

	rc, err := body.Open()
	if err != nil {
		return res, fmt.Errorf("open %s: %w", docxBodyPart, err)
	}
	defer rc.Close()

	paragraphs, err := parseDocumentXML(ctx, rc)
	if err != nil {
		return res, err
	}

	res.Segments = paragraphs
	res.Pages = 1
	res.Duration = time.Since(start)
	d.logger.Debug("docx.done", "path", path, "paragraphs", len(paragraphs))
	return res, nil
}

// parseDocumentXML walks the WordprocessingML token stream. Text lives in
// w:t elements; w:tab and w:br/w:cr inside a run become tab and newline.
// Paragraphs nest through text boxes (w:txbxContent): an inner paragraph is
// emitted when it closes and the outer one keeps collecting. mc:Fallback
// repeats the mc:Choice content and is skipped.
func parseDocumentXML(ctx context.Context, r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)
	var (
		paragraphs []string
		open       []*strings.Builder
		runDepth   int
		inText     bool
		skipDepth  int
	)
	current := func() *strings.Builder {
		if len(open) == 0 {
			return nil
		}
		return open[len(open)-1]
	}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", docxBodyPart, err)
		}
		if skipDepth > 0 {
			switch tok.(type) {
			case xml.StartElement:
				skipDepth++
			case xml.EndElement:
				skipDepth--
			}
			continue
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "Fallback":
				skipDepth = 1
			case "p":
				open = append(open, &strings.Builder{})
			case "r":
				runDepth++
			case "t":
				inText = true
			case "tab":
				// w:tab inside w:pPr/w:tabs is a tab stop, not content
				if cur := current(); cur != nil && runDepth > 0 {
					cur.WriteByte('\t')
				}
			case "br", "cr":
				if cur := current(); cur != nil && runDepth > 0 {
					cur.WriteByte('\n')
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p":
				if cur := current(); cur != nil {
					paragraphs = append(paragraphs, cur.String())
					open = open[:len(open)-1]
				}
			case "r":
				if runDepth > 0 {
					runDepth--
				}
			case "t":
				inText = false
			}
		case xml.CharData:
			if cur := current(); cur != nil && inText {
				cur.Write(t)
			}
		}
	}
	return paragraphs, nil
}
