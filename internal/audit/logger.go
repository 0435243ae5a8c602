package audit

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"configllm/internal/csvexport"
	"configllm/internal/domain"
	"configllm/internal/port"
)

// File and directory names under the output directory.
const (
	PromptsDir     = "prompts"
	MessagesDir    = "messages"
	OutputsDir     = "outputs"
	TranscriptFile = "merged_output.txt"
	SummaryFile    = "processing_log.csv"
)

const fileStampLayout = "20060102_150405"

// Separator delimits transcript blocks.
var Separator = strings.Repeat("=", 50)

// Entry is everything known about one finished attempt.
type Entry struct {
	RunID        string
	Item         domain.WorkItem
	Provider     domain.ProviderKind
	ModelID      string
	SystemText   string
	UserText     string
	ResultText   string
	Succeeded    bool
	FailureKind  domain.FailureKind
	ErrorMessage string
	RetryAfter   time.Duration
}

// Options configures a Logger. Storage and Repo are optional sinks.
type Options struct {
	OutputDir string
	Storage   port.ObjectStorage
	Bucket    string
	Prefix    string
	Repo      port.AttemptRepository
	Now       func() time.Time
}

// Logger persists attempt results: three artifact files, a transcript block
// and a summary log row, plus the optional mirror and database sinks. Every
// side effect is best-effort; failures are logged and never returned.
type Logger struct {
	outputDir string
	storage   port.ObjectStorage
	bucket    string
	prefix    string
	repo      port.AttemptRepository
	now       func() time.Time
}

// NewLogger creates a Logger writing under opts.OutputDir.
func NewLogger(opts Options) *Logger {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	l := &Logger{
		outputDir: opts.OutputDir,
		repo:      opts.Repo,
		now:       now,
	}
	if opts.Storage != nil && opts.Bucket != "" {
		l.storage = opts.Storage
		l.bucket = opts.Bucket
		l.prefix = strings.Trim(opts.Prefix, "/")
	}
	return l
}

// OutputDir returns the directory the logger writes to.
func (l *Logger) OutputDir() string { return l.outputDir }

// TranscriptPath returns the cumulative transcript file path.
func (l *Logger) TranscriptPath() string { return filepath.Join(l.outputDir, TranscriptFile) }

// SummaryPath returns the tabular summary log path.
func (l *Logger) SummaryPath() string { return filepath.Join(l.outputDir, SummaryFile) }

// Record builds the AttemptResult for e and persists it.
func (l *Logger) Record(ctx context.Context, e Entry) domain.AttemptResult {
	ts := l.now().UTC()
	result := domain.AttemptResult{
		ID:           uuid.NewString(),
		RunID:        e.RunID,
		WorkItem:     e.Item,
		Provider:     e.Provider,
		ModelID:      e.ModelID,
		ResultText:   e.ResultText,
		Succeeded:    e.Succeeded,
		FailureKind:  e.FailureKind,
		ErrorMessage: e.ErrorMessage,
		RetryAfter:   e.RetryAfter,
		Timestamp:    ts,
	}
	if !result.Succeeded && result.ErrorMessage == "" {
		result.ErrorMessage = result.ResultText
	}

	base := ArtifactBase(e.Item, ts)
	promptPath := l.writeArtifact(PromptsDir, "prompt_"+base, []byte(e.SystemText))
	messagePath := l.writeArtifact(MessagesDir, "message_"+base, []byte(e.UserText))
	outputPath := l.writeArtifact(OutputsDir, "output_"+base, outputBody(&result))
	result.OutputFilePath = outputPath

	if err := l.appendTranscript(&result); err != nil {
		log.Printf("audit.Logger.Record: writing transcript: %v", err)
	}
	if err := csvexport.AppendSummary(l.SummaryPath(), &result); err != nil {
		log.Printf("audit.Logger.Record: writing summary log: %v", err)
	}

	l.mirror(ctx, e.RunID, promptPath, messagePath, outputPath)
	if l.repo != nil {
		if err := l.repo.Create(ctx, &result); err != nil {
			log.Printf("audit.Logger.Record: saving attempt %s: %v", result.ID, err)
		}
	}
	return result
}

// ArtifactBase returns the shared part of the three artifact file names:
// <file>_<hash8>_iter<N>_<YYYYMMDD_HHMMSS>.txt
func ArtifactBase(item domain.WorkItem, ts time.Time) string {
	name := strings.NewReplacer("/", "_", "\\", "_").Replace(item.FileName)
	return fmt.Sprintf("%s_%s_iter%d_%s.txt", name, item.ShortHash(), item.Iteration, ts.Format(fileStampLayout))
}

// Header returns the metadata lines shared by the output file and the
// transcript block.
func Header(r *domain.AttemptResult) string {
	var b strings.Builder
	b.WriteString("FILE: " + r.WorkItem.FileName + "\n")
	b.WriteString("MD5: " + r.WorkItem.ContentHash + "\n")
	b.WriteString("ITERATION: " + strconv.Itoa(r.WorkItem.Iteration) + "\n")
	b.WriteString("TIMESTAMP: " + r.Timestamp.UTC().Format(csvexport.TimestampLayout) + "\n")
	b.WriteString("API_TYPE: " + string(r.Provider) + "\n")
	b.WriteString("MODEL_ID: " + r.ModelID + "\n")
	return b.String()
}

// TranscriptBlock formats one attempt for the cumulative transcript.
func TranscriptBlock(r *domain.AttemptResult) string {
	return "\n\n" + Separator + "\n" + Header(r) + Separator + "\n\n" + r.ResultText
}

func outputBody(r *domain.AttemptResult) []byte {
	var buf bytes.Buffer
	buf.WriteString(Header(r))
	buf.WriteString("STATUS: ")
	if r.Succeeded {
		buf.WriteString("succeeded\n")
	} else {
		buf.WriteString("failed\n")
	}
	buf.WriteString(Separator + "\n\n")
	buf.WriteString(r.ResultText)
	return buf.Bytes()
}

func (l *Logger) writeArtifact(dir, name string, data []byte) string {
	full := filepath.Join(l.outputDir, dir)
	if err := os.MkdirAll(full, 0o755); err != nil {
		log.Printf("audit.Logger.writeArtifact: creating %s: %v", full, err)
		return ""
	}
	p := filepath.Join(full, name)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		log.Printf("audit.Logger.writeArtifact: writing %s: %v", p, err)
		return ""
	}
	return p
}

func (l *Logger) appendTranscript(r *domain.AttemptResult) error {
	if err := os.MkdirAll(l.outputDir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(l.TranscriptPath(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(TranscriptBlock(r)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// mirror uploads the written artifacts under <prefix>/<run>/<dir>/<name>.
func (l *Logger) mirror(ctx context.Context, runID string, paths ...string) {
	if l.storage == nil {
		return
	}
	for _, p := range paths {
		if p == "" {
			continue
		}
		data, err := os.ReadFile(p)
		if err != nil {
			log.Printf("audit.Logger.mirror: reading %s: %v", p, err)
			continue
		}
		key := path.Join(l.prefix, runID, filepath.Base(filepath.Dir(p)), filepath.Base(p))
		_, err = l.storage.Upload(ctx, port.UploadInput{
			Bucket:      l.bucket,
			Key:         key,
			Body:        bytes.NewReader(data),
			ContentType: "text/plain; charset=utf-8",
			Size:        int64(len(data)),
		})
		if err != nil {
			log.Printf("audit.Logger.mirror: uploading %s: %v", key, err)
		}
	}
}
