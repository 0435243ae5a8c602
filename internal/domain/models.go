package domain

import (
	"path/filepath"
	"time"
)

// Settings is the provider configuration used for a single attempt.
type Settings struct {
	Provider         ProviderKind   `json:"provider"`
	APIKey           string         `json:"-"`
	BaseURL          string         `json:"base_url,omitempty"`
	Model            string         `json:"model"`
	Temperature      float64        `json:"temperature"`
	ReasoningEnabled bool           `json:"reasoning_enabled"`
	ReasoningLevel   ReasoningLevel `json:"reasoning_level"`
	TimeoutSecs      int            `json:"timeout_secs"`
	CivicIntegrity   bool           `json:"civic_integrity"`
}

// ModelID returns the configured model or the provider default.
func (s Settings) ModelID() string {
	if s.Model != "" {
		return s.Model
	}
	return DefaultModels[s.Provider]
}

// Snapshot is everything the driver reloads at the start of an attempt.
type Snapshot struct {
	Settings        Settings
	SystemPrompt    string
	MessageTemplate string
}

// ContentDescriptor is the provider-agnostic view of one input file.
// Raw holds the file bytes for images and PDFs; Text holds decoded text for
// text files. Note carries a substitution notice when content cannot be used.
type ContentDescriptor struct {
	Kind       ContentKind
	MIMEType   string
	Raw        []byte
	Text       string
	Note       string
	SourcePath string
}

// FileName returns the base name of the source path.
func (d *ContentDescriptor) FileName() string {
	return filepath.Base(d.SourcePath)
}

// WorkItem is one (file, iteration) unit of processing.
type WorkItem struct {
	FilePath        string `json:"file_path"`
	FileName        string `json:"file_name"`
	ContentHash     string `json:"content_hash"`
	Iteration       int    `json:"iteration"`
	TotalIterations int    `json:"total_iterations"`
}

// ShortHash returns the first eight characters of the content hash.
func (w WorkItem) ShortHash() string {
	if len(w.ContentHash) <= 8 {
		return w.ContentHash
	}
	return w.ContentHash[:8]
}

// AttemptResult is the immutable outcome of one WorkItem.
type AttemptResult struct {
	ID             string        `json:"id"`
	RunID          string        `json:"run_id"`
	WorkItem       WorkItem      `json:"work_item"`
	Provider       ProviderKind  `json:"provider"`
	ModelID        string        `json:"model_id"`
	ResultText     string        `json:"result_text"`
	Succeeded      bool          `json:"succeeded"`
	FailureKind    FailureKind   `json:"failure_kind,omitempty"`
	ErrorMessage   string        `json:"error_message,omitempty"`
	RetryAfter     time.Duration `json:"-"`
	OutputFilePath string        `json:"output_file_path"`
	Timestamp      time.Time     `json:"timestamp"`
}

// Progress is reported before each step of a run.
type Progress struct {
	RunID           string  `json:"run_id"`
	FileIndex       int     `json:"file_index"`
	TotalFiles      int     `json:"total_files"`
	Iteration       int     `json:"iteration"`
	TotalIterations int     `json:"total_iterations"`
	FileName        string  `json:"file_name"`
	Percent         float64 `json:"percent"`
}

// RunSummary is delivered once when a run ends.
type RunSummary struct {
	RunID        string          `json:"run_id"`
	Status       RunStatus       `json:"status"`
	Message      string          `json:"message"`
	ErrorDetails string          `json:"error_details,omitempty"`
	Total        int             `json:"total"`
	Succeeded    int             `json:"succeeded"`
	Failed       int             `json:"failed"`
	StartedAt    time.Time       `json:"started_at"`
	FinishedAt   time.Time       `json:"finished_at"`
	Attempts     []AttemptResult `json:"attempts,omitempty"`
}
