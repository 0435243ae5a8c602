package content

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"configllm/internal/domain"
)

// Substitution notes embedded in place of content that cannot be used.
const (
	NoteUndecodableText = "(File contents could not be decoded as UTF-8 text.)"
	NoteUnsupported     = "(File contents could not be included due to format compatibility.)"
)

// Normalize reads the file at path and classifies it by extension.
// Text files are decoded as UTF-8 (a leading BOM is stripped); a decode failure
// yields a text descriptor with empty content and a note instead of an error.
// Only a read failure returns an error.
func Normalize(path string) (*domain.ContentDescriptor, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	kind, ok := domain.ExtensionKinds[ext]
	if !ok {
		kind = domain.ContentUnsupported
	}
	mimeType, ok := domain.ExtensionMIMETypes[ext]
	if !ok {
		mimeType = domain.DefaultMIMEType
	}

	desc := &domain.ContentDescriptor{
		Kind:       kind,
		MIMEType:   mimeType,
		SourcePath: path,
	}

	if kind == domain.ContentUnsupported {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		desc.Note = NoteUnsupported
		return desc, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if kind == domain.ContentText {
		text, ok := decodeText(data)
		if !ok {
			desc.Note = NoteUndecodableText
			return desc, nil
		}
		desc.Text = text
		return desc, nil
	}

	desc.Raw = data
	return desc, nil
}

// decodeText strips a byte-order mark (transcoding UTF-16 input that carries
// one) and validates the result as UTF-8.
func decodeText(data []byte) (string, bool) {
	out, _, err := transform.Bytes(unicode.BOMOverride(transform.Nop), data)
	if err != nil || !utf8.Valid(out) {
		return "", false
	}
	return string(out), true
}
