package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"configllm/internal/content"
	"configllm/internal/domain"
	"configllm/internal/port"
)

// ErrNoText is returned when a PDF parses but yields no text.
var ErrNoText = domain.ErrNoPDFText

// Extractor pulls text from PDF pages, decoding glyphs through each font's
// encoding and ToUnicode CMap. Files the reader rejects are rewritten by
// pdfcpu and read again. It implements port.PDFTextExtractor.
type Extractor struct{}

// NewExtractor creates a PDF text extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractText returns the text of every page, each preceded by a
// "--- Page N ---" marker.
func (e *Extractor) ExtractText(ctx context.Context, data []byte) (string, error) {
	r, err := openReader(data)
	if err != nil {
		repaired, rerr := repair(data)
		if rerr != nil {
			return "", fmt.Errorf("reading pdf: %w", err)
		}
		if r, err = openReader(repaired); err != nil {
			return "", fmt.Errorf("reading repaired pdf: %w", err)
		}
	}

	var sb strings.Builder
	found := false
	for page := 1; page <= r.NumPage(); page++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, err := safePageText(r, page)
		if err != nil {
			log.Printf("pdftext.Extractor.ExtractText: page %d: %v", page, err)
		}
		text = strings.TrimSpace(text)
		fmt.Fprintf(&sb, "\n--- Page %d ---\n", page)
		if text != "" {
			found = true
			sb.WriteString(text)
			sb.WriteString("\n")
		}
	}

	if !found {
		return "", ErrNoText
	}
	return sb.String(), nil
}

// openReader opens data with the PDF reader, which panics on some malformed input.
func openReader(data []byte) (r *pdf.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r, err = nil, fmt.Errorf("malformed pdf: %v", rec)
		}
	}()
	return pdf.NewReader(bytes.NewReader(data), int64(len(data)))
}

func safePageText(r *pdf.Reader, page int) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("decoding content: %v", rec)
		}
	}()
	p := r.Page(page)
	if p.V.IsNull() {
		return "", nil
	}
	return pageText(p), nil
}

// repair reads data with relaxed validation and writes a clean copy.
func repair(data []byte) ([]byte, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	var buf bytes.Buffer
	if err := api.Optimize(bytes.NewReader(data), &buf, conf); err != nil {
		return nil, fmt.Errorf("rewriting pdf: %w", err)
	}
	return buf.Bytes(), nil
}

type cached struct {
	text string
	err  error
}

// CachingExtractor memoizes extraction results by content hash so repeated
// iterations over one PDF extract it once.
type CachingExtractor struct {
	next  port.PDFTextExtractor
	cache *lru.Cache[string, cached]
}

// NewCachingExtractor wraps next with an LRU of the given size.
func NewCachingExtractor(next port.PDFTextExtractor, size int) *CachingExtractor {
	if size <= 0 {
		size = 64
	}
	cache, _ := lru.New[string, cached](size)
	return &CachingExtractor{next: next, cache: cache}
}

// ExtractText implements port.PDFTextExtractor. Context cancellation is not cached.
func (c *CachingExtractor) ExtractText(ctx context.Context, data []byte) (string, error) {
	key := content.HashBytes(data)
	if hit, ok := c.cache.Get(key); ok {
		return hit.text, hit.err
	}
	text, err := c.next.ExtractText(ctx, data)
	if ctx.Err() == nil {
		c.cache.Add(key, cached{text: text, err: err})
	}
	return text, err
}
