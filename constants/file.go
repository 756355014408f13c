package constants

import "strings"

// Format is the closed set of document formats the loader can extract.
type Format string

const (
	PDF  Format = "PDF"
	DOCX Format = "DOCX"
)

// FileTypes holds the allowed values for the format column of the ingestion journal.
var FileTypes = []string{string(PDF), string(DOCX)}

// AllowedExtensions maps normalized extensions (no dot, lowercase) to their format.
var AllowedExtensions = map[string]Format{
	"pdf":  PDF,
	"docx": DOCX,
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat returns the format for an extension, or "" when unsupported.
func MapExtToFormat(ext string) Format {
	return AllowedExtensions[NormalizeExt(ext)]
}
