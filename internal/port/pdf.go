package port

import "context"

// PDFTextExtractor extracts plain text from PDF bytes.
type PDFTextExtractor interface {
	ExtractText(ctx context.Context, data []byte) (string, error)
}
