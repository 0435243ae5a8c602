package provider

import (
	"context"
	"errors"
	"log"

	"configllm/internal/domain"
	"configllm/internal/port"
)

// Notices substituted when PDF text cannot be supplied.
const (
	NoticePDFUnavailable = "(PDF processing requires a PDF text extractor, which is not available.)"
	NoticePDFNoText      = "(Could not extract text from PDF.)"
	NoticePDFError       = "(Error extracting PDF content.)"
)

// PDFSection returns "Extracted PDF Content:" followed by the document text,
// capped at maxChars when maxChars > 0, or a notice when extraction is
// unavailable or fails.
func PDFSection(ctx context.Context, ex port.PDFTextExtractor, d *domain.ContentDescriptor, maxChars int) string {
	if ex == nil {
		return NoticePDFUnavailable
	}
	text, err := ex.ExtractText(ctx, d.Raw)
	switch {
	case errors.Is(err, domain.ErrNoPDFText):
		return NoticePDFNoText
	case err != nil:
		log.Printf("provider.PDFSection: extracting %s: %v", d.FileName(), err)
		return NoticePDFError
	}
	return "Extracted PDF Content:\n" + CapText(text, maxChars)
}
