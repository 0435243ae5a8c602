package provider

import (
	"fmt"
	"unicode/utf8"

	"configllm/internal/domain"
)

// MaxOutputTokens is the output ceiling sent to every provider.
const MaxOutputTokens = 4000

// WithFileName appends the "File: <name>" line to a user message.
func WithFileName(user, name string) string {
	return user + "\n\nFile: " + name
}

// WithNotice appends the file name and an inline notice.
func WithNotice(user, name, notice string) string {
	return WithFileName(user, name) + "\n\n" + notice
}

// WithTextContent appends a text file's contents, or its substitution note.
func WithTextContent(user string, d *domain.ContentDescriptor) string {
	if d.Note != "" {
		return WithNotice(user, d.FileName(), d.Note)
	}
	return WithFileName(user, d.FileName()) + "\n\nFile Contents:\n" + d.Text
}

// CapText limits text to maxChars characters. When it cuts, it appends a note
// recording the original length.
func CapText(text string, maxChars int) string {
	n := utf8.RuneCountInString(text)
	if maxChars <= 0 || n <= maxChars {
		return text
	}
	r := []rune(text)
	return string(r[:maxChars]) + TruncationNote(maxChars, n)
}

// TruncationNote is appended by CapText.
func TruncationNote(shown, total int) string {
	return fmt.Sprintf("\n\n(Content truncated: showing first %d of %d characters.)", shown, total)
}
