package prompt

import (
	"strconv"
	"strings"

	"configllm/internal/domain"
)

// Placeholders substituted into the user message template.
const (
	PlaceholderFilename  = "{filename}"
	PlaceholderMD5       = "{md5}"
	PlaceholderIteration = "{iteration}"
)

var reasoningDirectives = map[domain.ReasoningLevel]string{
	domain.ReasoningLow:    "Think step-by-step about this information.",
	domain.ReasoningMedium: "Think step-by-step carefully and provide detailed reasoning about this information.",
	domain.ReasoningHigh:   "Think step-by-step very carefully, showing your detailed reasoning process and evidence evaluation about this information.",
}

// ReasoningDirective returns the directive for level, defaulting to medium.
func ReasoningDirective(level domain.ReasoningLevel) string {
	if d, ok := reasoningDirectives[level]; ok {
		return d
	}
	return reasoningDirectives[domain.ReasoningMedium]
}

// Compose builds the system and user text for one work item. The reasoning
// directive is appended to the system prompt only when enabled. Placeholders
// other than {filename}, {md5} and {iteration} are left as written.
func Compose(systemPrompt string, settings domain.Settings, userTemplate string, item domain.WorkItem) (systemText, userText string) {
	systemText = systemPrompt
	if settings.ReasoningEnabled {
		directive := ReasoningDirective(settings.ReasoningLevel)
		if systemText == "" {
			systemText = directive
		} else {
			systemText = systemText + " " + directive
		}
	}

	r := strings.NewReplacer(
		PlaceholderFilename, item.FileName,
		PlaceholderMD5, item.ContentHash,
		PlaceholderIteration, strconv.Itoa(item.Iteration),
	)
	return systemText, r.Replace(userTemplate)
}
