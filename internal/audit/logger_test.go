package audit_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"configllm/internal/audit"
	"configllm/internal/csvexport"
	"configllm/internal/domain"
	"configllm/internal/port"
	"configllm/mocks"
)

var fixedNow = time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)

func entry(succeeded bool) audit.Entry {
	e := audit.Entry{
		RunID: "run-1",
		Item: domain.WorkItem{
			FilePath:        "/lib/notes.txt",
			FileName:        "notes.txt",
			ContentHash:     "0123456789abcdef0123456789abcdef",
			Iteration:       2,
			TotalIterations: 2,
		},
		Provider:   domain.ProviderOpenAI,
		ModelID:    "gpt-4",
		SystemText: "You are helpful.",
		UserText:   "Summarize notes.txt",
		ResultText: "A summary.",
		Succeeded:  succeeded,
	}
	if !succeeded {
		e.ResultText = "Error: API returned status 500: boom"
		e.FailureKind = domain.FailureHTTPStatus
	}
	return e
}

func newLogger(t *testing.T, opts audit.Options) (*audit.Logger, string) {
	t.Helper()
	dir := t.TempDir()
	opts.OutputDir = dir
	opts.Now = func() time.Time { return fixedNow }
	return audit.NewLogger(opts), dir
}

func TestLogger_Record_WritesArtifacts(t *testing.T) {
	l, dir := newLogger(t, audit.Options{})

	res := l.Record(context.Background(), entry(true))

	assert.NotEmpty(t, res.ID)
	assert.True(t, res.Succeeded)
	assert.Equal(t, fixedNow, res.Timestamp)

	base := "notes.txt_01234567_iter2_20250304_050607.txt"
	prompt, err := os.ReadFile(filepath.Join(dir, audit.PromptsDir, "prompt_"+base))
	require.NoError(t, err)
	assert.Equal(t, "You are helpful.", string(prompt))

	message, err := os.ReadFile(filepath.Join(dir, audit.MessagesDir, "message_"+base))
	require.NoError(t, err)
	assert.Equal(t, "Summarize notes.txt", string(message))

	assert.Equal(t, filepath.Join(dir, audit.OutputsDir, "output_"+base), res.OutputFilePath)
	output, err := os.ReadFile(res.OutputFilePath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(output), "FILE: notes.txt\nMD5: 0123456789abcdef0123456789abcdef\nITERATION: 2\n"))
	assert.Contains(t, string(output), "STATUS: succeeded\n")
	assert.True(t, strings.HasSuffix(string(output), "\n\nA summary."))
}

func TestLogger_Record_TranscriptBlock(t *testing.T) {
	l, _ := newLogger(t, audit.Options{})

	l.Record(context.Background(), entry(true))
	l.Record(context.Background(), entry(false))

	data, err := os.ReadFile(l.TranscriptPath())
	require.NoError(t, err)

	sep := strings.Repeat("=", 50)
	want := "\n\n" + sep + "\nFILE: notes.txt\nMD5: 0123456789abcdef0123456789abcdef\nITERATION: 2\n" +
		"TIMESTAMP: 2025-03-04 05:06:07\nAPI_TYPE: openai\nMODEL_ID: gpt-4\n" + sep + "\n\nA summary."
	assert.True(t, strings.HasPrefix(string(data), want))
	assert.Equal(t, 2, strings.Count(string(data), "FILE: notes.txt"))
	assert.True(t, strings.HasSuffix(string(data), "Error: API returned status 500: boom"))
}

func TestLogger_Record_FailureRowCarriesError(t *testing.T) {
	l, _ := newLogger(t, audit.Options{})

	res := l.Record(context.Background(), entry(false))
	assert.False(t, res.Succeeded)
	assert.Equal(t, "Error: API returned status 500: boom", res.ErrorMessage)

	header, rows, err := csvexport.ReadTable(l.SummaryPath())
	require.NoError(t, err)
	assert.Equal(t, csvexport.SummaryColumns, header)
	require.Len(t, rows, 1)
	assert.Equal(t, "notes.txt", rows[0][1])
	assert.Equal(t, "2", rows[0][3])
	assert.Equal(t, "openai", rows[0][4])
	assert.Equal(t, "Error: API returned status 500: boom", rows[0][8])
}

func TestLogger_Record_UnwritableOutputStillReturnsResult(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	l := audit.NewLogger(audit.Options{OutputDir: blocker})
	res := l.Record(context.Background(), entry(true))

	assert.True(t, res.Succeeded)
	assert.Empty(t, res.OutputFilePath)
	assert.Equal(t, "A summary.", res.ResultText)
}

func TestLogger_Record_MirrorsAndSaves(t *testing.T) {
	storage := new(mocks.MockObjectStorage)
	repo := new(mocks.MockAttemptRepo)

	var keys []string
	storage.On("Upload", mock.Anything, mock.MatchedBy(func(in port.UploadInput) bool {
		return in.Bucket == "bucket"
	})).Run(func(args mock.Arguments) {
		in := args.Get(1).(port.UploadInput)
		_, _ = io.ReadAll(in.Body)
		keys = append(keys, in.Key)
	}).Return(&port.UploadOutput{Location: "s3://bucket/x"}, nil).Times(3)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(r *domain.AttemptResult) bool {
		return r.RunID == "run-1" && r.OutputFilePath != ""
	})).Return(nil).Once()

	l, _ := newLogger(t, audit.Options{Storage: storage, Bucket: "bucket", Prefix: "/configllm/", Repo: repo})
	l.Record(context.Background(), entry(true))

	storage.AssertExpectations(t)
	repo.AssertExpectations(t)
	require.Len(t, keys, 3)
	assert.Equal(t, "configllm/run-1/prompts/prompt_notes.txt_01234567_iter2_20250304_050607.txt", keys[0])
	assert.Equal(t, "configllm/run-1/outputs/output_notes.txt_01234567_iter2_20250304_050607.txt", keys[2])
}

func TestLogger_Record_SinkErrorsAreSwallowed(t *testing.T) {
	storage := new(mocks.MockObjectStorage)
	repo := new(mocks.MockAttemptRepo)
	storage.On("Upload", mock.Anything, mock.Anything).Return(nil, errors.New("s3 down"))
	repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))

	l, _ := newLogger(t, audit.Options{Storage: storage, Bucket: "bucket", Repo: repo})
	res := l.Record(context.Background(), entry(true))

	assert.True(t, res.Succeeded)
	_, err := os.Stat(l.SummaryPath())
	assert.NoError(t, err)
}

func TestArtifactBase_PathSeparators(t *testing.T) {
	item := domain.WorkItem{FileName: "a/b.txt", ContentHash: "abc", Iteration: 1}
	assert.Equal(t, "a_b.txt_abc_iter1_20250304_050607.txt", audit.ArtifactBase(item, fixedNow))
}
