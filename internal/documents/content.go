package documents

import (
	"bytes"
	"log/slog"
	"mime"
	"net/http"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

const contentTypePDF = "application/pdf"

var pdfMagic = []byte("%PDF-")

// contentType resolves the media type of an upload. PDF magic bytes win
// over any declared type; otherwise a specific declared type is kept and a
// generic or missing one is sniffed.
func contentType(declared string, data []byte) string {
	if bytes.HasPrefix(data, pdfMagic) {
		return contentTypePDF
	}
	if mt, _, err := mime.ParseMediaType(declared); err == nil && mt != "application/octet-stream" {
		return mt
	}
	mt, _, _ := mime.ParseMediaType(http.DetectContentType(data))
	return mt
}

// pageCount returns the number of pages of a PDF, or nil for other types
// and for PDFs pdfcpu cannot read.
func pageCount(logger *slog.Logger, data []byte, ct string) *int {
	if ct != contentTypePDF {
		return nil
	}
	n, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		logger.Warn("pdf page count unavailable", "error", err)
		return nil
	}
	return &n
}
