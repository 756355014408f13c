package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docparser/internal/testutil"
)

type stubRunner struct {
	stdout []byte
	stderr []byte
	err    error

	gotName string
	gotArgs []string
}

func (s *stubRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	s.gotName = name
	s.gotArgs = args
	return s.stdout, s.stderr, s.err
}

func TestPdftotext_SplitsPagesOnFormFeed(t *testing.T) {
	r := &stubRunner{stdout: []byte("INVOICE   #42\r\nTotal:\t\t$10.00  \f\n\n\n\nPage two\f")}
	p := NewPdftotext("", r, nil)

	res, err := p.Extract(context.Background(), "/tmp/invoice.pdf")
	require.NoError(t, err)

	assert.Equal(t, "pdftotext", r.gotName)
	assert.Equal(t, []string{"-layout", "-enc", "UTF-8", "-eol", "unix", "/tmp/invoice.pdf", "-"}, r.gotArgs)
	assert.Equal(t, 2, res.Pages)
	assert.Equal(t, []string{"INVOICE #42\nTotal: $10.00", "Page two"}, res.Segments)
	assert.Equal(t, "pdf-text", res.Method)
}

func TestPdftotext_RunnerFailure(t *testing.T) {
	r := &stubRunner{stderr: []byte("Syntax Error: Couldn't read xref table\n"), err: errors.New("exit status 1")}
	p := NewPdftotext("/usr/bin/pdftotext", r, nil)

	_, err := p.Extract(context.Background(), "broken.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xref table")
	assert.Equal(t, "/usr/bin/pdftotext", r.gotName)
}

func TestNativePDF_RejectsNonPDF(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteFile(t, dir, "fake.pdf", []byte("this is not a pdf"))

	_, err := NewNativePDF(nil).Extract(context.Background(), path)
	require.Error(t, err)
}

func TestNativePDF_MissingFile(t *testing.T) {
	_, err := NewNativePDF(nil).Extract(context.Background(), "/nonexistent/file.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open pdf")
}

func TestDOCX_OneSegmentPerParagraph(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteDOCX(t, dir, "contract.docx", "SERVICE AGREEMENT", "", "Between Acme & Co. and Globex")

	res, err := NewDOCX(nil).Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"SERVICE AGREEMENT", "", "Between Acme & Co. and Globex"}, res.Segments)
	assert.Equal(t, "docx-xml", res.Method)
}

func TestDOCX_RunsTabsAndBreaks(t *testing.T) {
	doc := `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
 <w:body>
  <w:p>
   <w:pPr><w:tabs><w:tab w:val="left" w:pos="720"/></w:tabs></w:pPr>
   <w:r><w:t>Amount</w:t></w:r><w:r><w:tab/><w:t>$1,200</w:t></w:r>
  </w:p>
  <w:p><w:r><w:t>Line one</w:t><w:br/><w:t>Line two</w:t></w:r></w:p>
  <w:tbl><w:tr><w:tc><w:p><w:r><w:t>cell</w:t></w:r></w:p></w:tc></w:tr></w:tbl>
 </w:body>
</w:document>`
	path := testutil.WriteDOCXRaw(t, t.TempDir(), "table.docx", doc)

	res, err := NewDOCX(nil).Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Amount\t$1,200", "Line one\nLine two", "cell"}, res.Segments)
}

func TestDOCX_TextBoxKeepsOuterParagraph(t *testing.T) {
	doc := `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"
 xmlns:mc="http://schemas.openxmlformats.org/markup-compatibility/2006"
 xmlns:wps="http://schemas.microsoft.com/office/word/2010/wordprocessingShape">
 <w:body>
  <w:p>
   <w:r><w:t>Invoice total $500 due</w:t></w:r>
   <w:r><mc:AlternateContent>
    <mc:Choice Requires="wps"><w:drawing><wps:txbx><w:txbxContent>
     <w:p><w:r><w:t>BoxText</w:t></w:r></w:p>
    </w:txbxContent></wps:txbx></w:drawing></mc:Choice>
    <mc:Fallback><w:pict><w:txbxContent>
     <w:p><w:r><w:t>BoxText</w:t></w:r></w:p>
    </w:txbxContent></w:pict></mc:Fallback>
   </mc:AlternateContent></w:r>
   <w:r><w:t xml:space="preserve"> on 2024-01-01</w:t></w:r>
  </w:p>
  <w:p><w:r><w:t>Thank you</w:t><w:tab/><w:t>Acme</w:t></w:r></w:p>
 </w:body>
</w:document>`
	path := testutil.WriteDOCXRaw(t, t.TempDir(), "invoice.docx", doc)

	res, err := NewDOCX(nil).Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"BoxText",
		"Invoice total $500 due on 2024-01-01",
		"Thank you\tAcme",
	}, res.Segments)
}

func TestDOCX_NotAZip(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "notes.docx", []byte("plain text"))

	_, err := NewDOCX(nil).Extract(context.Background(), path)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "open docx"))
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "crlf", in: "a\r\nb\rc", want: "a\nb\nc"},
		{name: "layout spaces", in: "Total    due:\t\t$5  ", want: "Total due: $5"},
		{name: "blank lines", in: "a\n\n\n\n\nb", want: "a\n\nb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

// ocrRunner fakes pdftoppm (writing page images into the requested prefix)
// and tesseract (returning text per image name).
type ocrRunner struct {
	pages  int
	text   map[string]string
	failOn string
	ppmErr error
	calls  []string
}

func (r *ocrRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	r.calls = append(r.calls, name)
	switch name {
	case "pdftoppm":
		if r.ppmErr != nil {
			return nil, []byte("I/O Error"), r.ppmErr
		}
		prefix := args[len(args)-1]
		for i := 1; i <= r.pages; i++ {
			if err := os.WriteFile(fmt.Sprintf("%s-%d.png", prefix, i), []byte("png"), 0o600); err != nil {
				return nil, nil, err
			}
		}
		return nil, nil, nil
	default:
		base := filepath.Base(args[0])
		if base == r.failOn {
			return nil, []byte("Error in pixReadStream"), errors.New("exit status 1")
		}
		return []byte(r.text[base]), nil, nil
	}
}

func TestPDFOCR_PagesInOrder(t *testing.T) {
	r := &ocrRunner{pages: 2, text: map[string]string{
		"page-1.png": "SCANNED  INVOICE ||||\n",
		"page-2.png": "Total  $12.00",
	}}
	res, err := NewPDFOCR(OCRConfig{}, r, nil).Extract(context.Background(), "scan.pdf")
	require.NoError(t, err)
	assert.Equal(t, []string{"SCANNED INVOICE", "Total $12.00"}, res.Segments)
	assert.Equal(t, 2, res.Pages)
	assert.Equal(t, "pdf-ocr", res.Method)
	assert.Equal(t, []string{"pdftoppm", "tesseract", "tesseract"}, r.calls)
}

func TestPDFOCR_PageFailureIsWarning(t *testing.T) {
	r := &ocrRunner{pages: 2, failOn: "page-1.png", text: map[string]string{"page-2.png": "ok"}}
	res, err := NewPDFOCR(OCRConfig{MaxPages: 5}, r, nil).Extract(context.Background(), "scan.pdf")
	require.NoError(t, err)
	assert.Equal(t, []string{"", "ok"}, res.Segments)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "pixReadStream")
}

func TestPDFOCR_MaxPages(t *testing.T) {
	r := &ocrRunner{pages: 3, text: map[string]string{"page-1.png": "one"}}
	res, err := NewPDFOCR(OCRConfig{MaxPages: 1}, r, nil).Extract(context.Background(), "scan.pdf")
	require.NoError(t, err)
	assert.Equal(t, []string{"one"}, res.Segments)
	assert.Len(t, res.Warnings, 1)
}

func TestPDFOCR_TempDirWithPatternCharacters(t *testing.T) {
	tmp := filepath.Join(t.TempDir(), "scans[1]*")
	require.NoError(t, os.Mkdir(tmp, 0o700))
	t.Setenv("TMPDIR", tmp)

	r := &ocrRunner{pages: 2, text: map[string]string{"page-1.png": "first", "page-2.png": "second"}}
	res, err := NewPDFOCR(OCRConfig{}, r, nil).Extract(context.Background(), "scan.pdf")
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, res.Segments)
}

func TestPageImages(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"page-02.png", "page-10.png", "page-01.png", "page-01.txt", "other-1.png"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "page-dir.png"), 0o700))

	got, err := pageImages(dir, "page")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "page-01.png"),
		filepath.Join(dir, "page-02.png"),
		filepath.Join(dir, "page-10.png"),
	}, got)

	_, err = pageImages(filepath.Join(dir, "missing"), "page")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list rendered pages")
}

func TestPDFOCR_RenderFailure(t *testing.T) {
	_, err := NewPDFOCR(OCRConfig{}, &ocrRunner{ppmErr: errors.New("exit status 1")}, nil).Extract(context.Background(), "x.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "I/O Error")

	_, err = NewPDFOCR(OCRConfig{}, &ocrRunner{}, nil).Extract(context.Background(), "x.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no images")
}

type fixedExtractor struct {
	res   Result
	err   error
	calls int
}

func (f *fixedExtractor) Extract(context.Context, string) (Result, error) {
	f.calls++
	return f.res, f.err
}

func TestFallback(t *testing.T) {
	withText := &fixedExtractor{res: Result{Segments: []string{"text"}, Method: "pdf-native"}}
	ocr := &fixedExtractor{res: Result{Segments: []string{"scanned"}, Method: "pdf-ocr"}}
	res, err := Fallback{Primary: withText, Secondary: ocr}.Extract(context.Background(), "a.pdf")
	require.NoError(t, err)
	assert.Equal(t, "pdf-native", res.Method)
	assert.Zero(t, ocr.calls)

	blank := &fixedExtractor{res: Result{Segments: []string{" ", ""}, Method: "pdf-native"}}
	res, err = Fallback{Primary: blank, Secondary: ocr}.Extract(context.Background(), "a.pdf")
	require.NoError(t, err)
	assert.Equal(t, "pdf-ocr", res.Method)
	assert.Equal(t, []string{"scanned"}, res.Segments)

	broken := &fixedExtractor{err: errors.New("malformed")}
	_, err = Fallback{Primary: broken, Secondary: ocr}.Extract(context.Background(), "a.pdf")
	assert.EqualError(t, err, "malformed")
	assert.Equal(t, 1, ocr.calls)
}
