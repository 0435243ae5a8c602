// Package email formats run summaries for the run-completion notifiers.
package email

import (
	"fmt"
	"html"
	"strings"
	"time"

	"configllm/internal/domain"
)

// Subject returns the notification subject for a finished run.
func Subject(s *domain.RunSummary) string {
	return fmt.Sprintf("ConfigLLM run %s: %s", shortID(s.RunID), s.Status)
}

// TextBody returns the plain-text notification body.
func TextBody(s *domain.RunSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", s.Message)
	fmt.Fprintf(&b, "Run: %s\n", s.RunID)
	fmt.Fprintf(&b, "Attempts: %d total, %d succeeded, %d failed\n", s.Total, s.Succeeded, s.Failed)
	fmt.Fprintf(&b, "Started: %s\n", s.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Finished: %s\n", s.FinishedAt.Format(time.RFC3339))
	if s.ErrorDetails != "" {
		fmt.Fprintf(&b, "\nErrors:\n%s\n", s.ErrorDetails)
	}
	return b.String()
}

// HTMLBody returns the HTML notification body.
func HTMLBody(s *domain.RunSummary) string {
	details := ""
	if s.ErrorDetails != "" {
		details = fmt.Sprintf(`<h3 style="color: #b91c1c;">Errors</h3>
  <pre style="white-space: pre-wrap; color: #666;">%s</pre>`, html.EscapeString(s.ErrorDetails))
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #333;">%s</h2>
  <p>Run <code>%s</code> finished with status <strong>%s</strong>.</p>
  <p>%d attempt(s): %d succeeded, %d failed.</p>
  %s
  <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
  <p style="color: #999; font-size: 12px;">Started %s, finished %s</p>
</body>
</html>`,
		html.EscapeString(s.Message), html.EscapeString(s.RunID), s.Status,
		s.Total, s.Succeeded, s.Failed, details,
		s.StartedAt.Format(time.RFC3339), s.FinishedAt.Format(time.RFC3339))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
