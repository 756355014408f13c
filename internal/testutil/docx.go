// Package testutil builds small fixture documents for tests.
package testutil

import (
	"archive/zip"
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const wordNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// WriteDOCX writes a minimal .docx with one paragraph per entry and returns its path.
func WriteDOCX(t testing.TB, dir, name string, paragraphs ...string) string {
	t.Helper()
	body := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="` + wordNS + `"><w:body>`
	for _, p := range paragraphs {
		body += `<w:p><w:r><w:t xml:space="preserve">` + escape(t, p) + `</w:t></w:r></w:p>`
	}
	body += `</w:body></w:document>`
	return WriteDOCXRaw(t, dir, name, body)
}

// WriteDOCXRaw writes a .docx whose word/document.xml is documentXML verbatim.
func WriteDOCXRaw(t testing.TB, dir, name, documentXML string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	parts := map[string]string{
		"[Content_Types].xml": `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"></Types>`,
		"word/document.xml":   documentXML,
	}
	for n, content := range parts {
		w, err := zw.Create(n)
		if err != nil {
			t.Fatalf("zip create %s: %v", n, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("zip write %s: %v", n, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return path
}

// WriteFile writes arbitrary bytes and returns the path.
func WriteFile(t testing.TB, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func escape(t testing.TB, s string) string {
	t.Helper()
	var b strings.Builder
	if err := xml.EscapeText(&b, []byte(s)); err != nil {
		t.Fatalf("escape: %v", err)
	}
	return b.String()
}
