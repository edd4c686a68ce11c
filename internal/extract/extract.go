// Package extract defines the Extractor collaborator: given a file path it
// returns a bounded text preview, a small metadata map, and a detected
// document type. Extractor is opaque to the rest of the pipeline — the
// core compiles and runs against DefaultExtractor alone, the same way the
// pack treats an LLM backend as a single-method interface rather than a
// concrete dependency.
package extract

import (
	"bytes"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gaI-observe-online/SmartFileOrganizer/internal/types"
)

// PreviewLimit is the maximum number of bytes read into Result.Preview.
const PreviewLimit = 1024

// Result is what an Extractor returns for one file.
type Result struct {
	Preview  string
	Metadata map[string]any
	DocType  types.DocType
}

// Extractor turns a file on disk into a bounded preview and doc-type
// classification. Extract must never return an error for a failed or
// partial read — a failure yields a Result with DocType unknown and an
// empty preview, per the opaque-contract requirement that the core never
// branches on extractor failure.
type Extractor interface {
	Extract(path string) (Result, error)
}

// DefaultExtractor is the in-repo fallback: it sniffs the document type
// from the file extension (falling back to net/http.DetectContentType on
// the first bytes) and reads a bounded text preview. A real content-aware
// extractor (OCR, office-document parsing, LLM captioning) lives outside
// this module per the system's Non-goals and only needs to satisfy the
// Extractor interface.
type DefaultExtractor struct{}

// NewDefault returns a DefaultExtractor.
func NewDefault() *DefaultExtractor {
	return &DefaultExtractor{}
}

var extensionDocTypes = map[string]types.DocType{
	".pdf":  types.DocTypePDF,
	".doc":  types.DocTypeDocument,
	".docx": types.DocTypeDocument,
	".odt":  types.DocTypeDocument,
	".txt":  types.DocTypeText,
	".md":   types.DocTypeText,
	".xls":  types.DocTypeSpreadsheet,
	".xlsx": types.DocTypeSpreadsheet,
	".csv":  types.DocTypeSpreadsheet,
	".jpg":  types.DocTypeImage,
	".jpeg": types.DocTypeImage,
	".png":  types.DocTypeImage,
	".gif":  types.DocTypeImage,
	".bmp":  types.DocTypeImage,
	".svg":  types.DocTypeImage,
	".eml":  types.DocTypeEmail,
	".msg":  types.DocTypeEmail,
}

// Extract implements Extractor. It never returns a non-nil error: any
// failure to open or read the file is absorbed into an unknown-doc-type
// Result so Scanner can proceed with the rest of the batch.
func (e *DefaultExtractor) Extract(path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{DocType: types.DocTypeUnknown, Metadata: map[string]any{}}, nil
	}
	defer f.Close()

	buf := make([]byte, PreviewLimit)
	n, _ := io.ReadFull(f, buf)
	buf = buf[:n]

	docType, ok := extensionDocTypes[strings.ToLower(filepath.Ext(path))]
	if !ok {
		docType = sniffDocType(buf)
	}

	preview := ""
	if docType == types.DocTypeText || docType == types.DocTypeEmail || docType == types.DocTypeDocument {
		preview = string(bytes.ToValidUTF8(buf, nil))
	}

	return Result{
		Preview:  preview,
		Metadata: map[string]any{"bytes_read": n},
		DocType:  docType,
	}, nil
}

func sniffDocType(buf []byte) types.DocType {
	if len(buf) == 0 {
		return types.DocTypeUnknown
	}
	contentType := http.DetectContentType(buf)
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return types.DocTypeImage
	case strings.HasPrefix(contentType, "text/"):
		return types.DocTypeText
	case contentType == "application/pdf":
		return types.DocTypePDF
	default:
		return types.DocTypeUnknown
	}
}
