package domain

// ProviderKind identifies one of the supported LLM backends.
type ProviderKind string

const (
	ProviderClaude     ProviderKind = "claude"
	ProviderOpenAI     ProviderKind = "openai"
	ProviderGemini     ProviderKind = "gemini"
	ProviderCompatible ProviderKind = "openai_compatible"
)

// ProviderKinds lists every supported provider in display order.
var ProviderKinds = []ProviderKind{
	ProviderClaude,
	ProviderOpenAI,
	ProviderGemini,
	ProviderCompatible,
}

// Valid reports whether k is one of the supported providers.
func (k ProviderKind) Valid() bool {
	switch k {
	case ProviderClaude, ProviderOpenAI, ProviderGemini, ProviderCompatible:
		return true
	}
	return false
}

// DefaultModels maps each provider to the model used when none is configured.
var DefaultModels = map[ProviderKind]string{
	ProviderClaude:     "claude-3-7-sonnet-20250219",
	ProviderOpenAI:     "gpt-4",
	ProviderGemini:     "gemini-1.5-pro-latest",
	ProviderCompatible: "deepseek-chat",
}

// DefaultBaseURLs maps each provider to its API base URL. Gemini uses the SDK default.
var DefaultBaseURLs = map[ProviderKind]string{
	ProviderClaude:     "https://api.anthropic.com",
	ProviderOpenAI:     "https://api.openai.com/v1",
	ProviderCompatible: "https://api.deepseek.com/v1",
}

// ContentKind classifies a file for request building.
type ContentKind string

const (
	ContentText        ContentKind = "text"
	ContentImage       ContentKind = "image"
	ContentPDF         ContentKind = "pdf"
	ContentUnsupported ContentKind = "unsupported"
)

// ExtensionKinds maps lower-case file extensions (without dot) to a ContentKind.
var ExtensionKinds = map[string]ContentKind{
	"png":  ContentImage,
	"jpg":  ContentImage,
	"jpeg": ContentImage,
	"gif":  ContentImage,
	"webp": ContentImage,
	"pdf":  ContentPDF,
	"txt":  ContentText,
	"md":   ContentText,
	"csv":  ContentText,
	"json": ContentText,
	"xml":  ContentText,
	"html": ContentText,
}

// ExtensionMIMETypes maps lower-case file extensions (without dot) to MIME types.
var ExtensionMIMETypes = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"webp": "image/webp",
	"pdf":  "application/pdf",
	"txt":  "text/plain",
	"md":   "text/markdown",
	"csv":  "text/csv",
	"json": "application/json",
	"xml":  "application/xml",
	"html": "text/html",
}

// DefaultMIMEType is used for extensions not listed in ExtensionMIMETypes.
const DefaultMIMEType = "application/octet-stream"

// ReasoningLevel selects the reasoning directive appended to the system prompt.
type ReasoningLevel string

const (
	ReasoningLow    ReasoningLevel = "low"
	ReasoningMedium ReasoningLevel = "medium"
	ReasoningHigh   ReasoningLevel = "high"
)

// FailureKind classifies why an attempt did not produce a normal response.
type FailureKind string

const (
	FailureConfiguration FailureKind = "configuration"
	FailureTransport     FailureKind = "transport"
	FailureHTTPStatus    FailureKind = "http_status"
	FailureRateLimited   FailureKind = "rate_limited"
	FailureEmptyResponse FailureKind = "empty_response"
	FailureSafetyBlock   FailureKind = "safety_block"
	FailureLocalIO       FailureKind = "local_io"
	FailureInternal      FailureKind = "internal"
)

// RunStatus tracks the lifecycle of an iteration run.
type RunStatus string

const (
	RunStatusIdle      RunStatus = "idle"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusCancelled RunStatus = "cancelled"
	RunStatusFailed    RunStatus = "failed"
)
