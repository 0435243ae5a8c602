package service

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"configllm/internal/audit"
	"configllm/internal/content"
	"configllm/internal/domain"
	"configllm/internal/port"
	"configllm/internal/prompt"
	"configllm/internal/provider"
)

// LockFile is created in the output directory while a run is active.
const LockFile = ".configllm.lock"

// Dispatcher sends one composed request through a provider adapter.
type Dispatcher interface {
	Dispatch(ctx context.Context, req port.ProviderRequest) provider.Result
}

// Recorder persists one finished attempt.
type Recorder interface {
	Record(ctx context.Context, e audit.Entry) domain.AttemptResult
}

// FileLister supplies the default file set for a run.
type FileLister interface {
	Paths() ([]string, error)
}

// RunRequest describes one run: every file for every iteration, file-major.
// Empty Files means the whole library.
type RunRequest struct {
	Files      []string      `json:"files"`
	Iterations int           `json:"iterations"`
	Delay      time.Duration `json:"delay"`
}

// ProgressFunc is called before every step. Returning false cancels the run.
type ProgressFunc func(p domain.Progress) bool

// DoneFunc is called exactly once when a started run ends.
type DoneFunc func(summary *domain.RunSummary)

// RunState is a point-in-time view of the service.
type RunState struct {
	Status   domain.RunStatus   `json:"status"`
	RunID    string             `json:"run_id,omitempty"`
	Progress *domain.Progress   `json:"progress,omitempty"`
	Last     *domain.RunSummary `json:"last,omitempty"`
}

// Event is published to subscribers while a run progresses.
type Event struct {
	Type     string                `json:"type"`
	Progress *domain.Progress      `json:"progress,omitempty"`
	Attempt  *domain.AttemptResult `json:"attempt,omitempty"`
	Summary  *domain.RunSummary    `json:"summary,omitempty"`
}

// Event types.
const (
	EventProgress = "progress"
	EventAttempt  = "attempt"
	EventDone     = "done"
)

// RunServiceConfig wires the collaborators of a RunService.
type RunServiceConfig struct {
	Source     port.SettingsSource
	Dispatcher Dispatcher
	Recorder   Recorder
	Files      FileLister
	Notifier   port.Notifier
	OutputDir  string
}

type activeRun struct {
	id       string
	cancel   context.CancelFunc
	lock     *flock.Flock
	progress *domain.Progress
}

// RunService is the iteration driver. It processes work items strictly
// sequentially and allows one active run per output directory, guarded
// in-process and across processes by a lock file.
type RunService struct {
	cfg RunServiceConfig

	mu     sync.Mutex
	active *activeRun
	last   *domain.RunSummary
	subs   map[chan Event]struct{}
}

// NewRunService creates a RunService.
func NewRunService(cfg RunServiceConfig) *RunService {
	return &RunService{
		cfg:  cfg,
		subs: make(map[chan Event]struct{}),
	}
}

// Start begins a run in the background and returns its ID. onDone is called
// exactly once when the run ends, whatever the outcome.
func (s *RunService) Start(ctx context.Context, req RunRequest, onProgress ProgressFunc, onDone DoneFunc) (string, error) {
	run, files, runCtx, err := s.begin(context.WithoutCancel(ctx), req)
	if err != nil {
		return "", err
	}
	go func() {
		summary := s.execute(runCtx, run, files, req, onProgress)
		if onDone != nil {
			onDone(summary)
		}
	}()
	return run.id, nil
}

// Run executes a run and blocks until it ends. Cancelling ctx cancels the
// run at the next step boundary.
func (s *RunService) Run(ctx context.Context, req RunRequest, onProgress ProgressFunc) (*domain.RunSummary, error) {
	run, files, runCtx, err := s.begin(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.execute(runCtx, run, files, req, onProgress), nil
}

// Cancel asks the active run to stop at the next step boundary.
func (s *RunService) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return domain.ErrNoActiveRun
	}
	log.Printf("service.RunService.Cancel: cancellation requested for run %s", s.active.id)
	s.active.cancel()
	return nil
}

// Status returns the current run state and the last finished summary.
func (s *RunService) Status() RunState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := RunState{Status: domain.RunStatusIdle, Last: s.last}
	if s.active != nil {
		st.Status = domain.RunStatusRunning
		st.RunID = s.active.id
		if s.active.progress != nil {
			p := *s.active.progress
			st.Progress = &p
		}
	}
	return st
}

// Subscribe registers for run events. The returned function unsubscribes.
// Events are dropped for subscribers that fall behind.
func (s *RunService) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 64)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, ch)
			s.mu.Unlock()
			close(ch)
		})
	}
}

func (s *RunService) publish(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

func (s *RunService) begin(ctx context.Context, req RunRequest) (*activeRun, []string, context.Context, error) {
	if req.Iterations < 1 {
		return nil, nil, nil, domain.ErrInvalidIterations
	}
	if req.Delay < 0 {
		return nil, nil, nil, domain.ErrInvalidDelay
	}

	files := req.Files
	if len(files) == 0 && s.cfg.Files != nil {
		paths, err := s.cfg.Files.Paths()
		if err != nil {
			return nil, nil, nil, fmt.Errorf("listing files: %w", err)
		}
		files = paths
	}
	if len(files) == 0 {
		return nil, nil, nil, domain.ErrNoFiles
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil {
		return nil, nil, nil, domain.ErrRunActive
	}

	var lock *flock.Flock
	if s.cfg.OutputDir != "" {
		lock = flock.New(filepath.Join(s.cfg.OutputDir, LockFile))
		if err := os.MkdirAll(s.cfg.OutputDir, 0o755); err != nil {
			return nil, nil, nil, fmt.Errorf("creating output directory: %w", err)
		}
		ok, err := lock.TryLock()
		if err != nil {
			return nil, nil, nil, fmt.Errorf("acquiring run lock: %w", err)
		}
		if !ok {
			return nil, nil, nil, domain.ErrRunActive
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	run := &activeRun{id: uuid.NewString(), cancel: cancel, lock: lock}
	s.active = run
	return run, files, runCtx, nil
}

func (s *RunService) finish(run *activeRun, summary *domain.RunSummary) {
	s.mu.Lock()
	run.cancel()
	if run.lock != nil {
		if err := run.lock.Unlock(); err != nil {
			log.Printf("service.RunService.finish: releasing run lock: %v", err)
		}
	}
	s.active = nil
	s.last = summary
	s.mu.Unlock()

	s.publish(Event{Type: EventDone, Summary: summary})

	if s.cfg.Notifier != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.cfg.Notifier.NotifyRunFinished(ctx, summary); err != nil {
			log.Printf("service.RunService.finish: notifying run %s: %v", summary.RunID, err)
		}
	}
}

// execute runs the loop. Cancellation is checked only at step boundaries
// and during the inter-step delay; an in-flight request always completes.
func (s *RunService) execute(ctx context.Context, run *activeRun, files []string, req RunRequest, onProgress ProgressFunc) (summary *domain.RunSummary) {
	total := len(files) * req.Iterations
	summary = &domain.RunSummary{RunID: run.id, Total: total, StartedAt: time.Now().UTC()}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("service.RunService.execute: run %s panic: %v", run.id, r)
			summary.Status = domain.RunStatusFailed
			summary.Message = fmt.Sprintf("Processing failed: %v", r)
			summary.ErrorDetails = string(debug.Stack())
		}
		summary.FinishedAt = time.Now().UTC()
		s.finish(run, summary)
	}()

	log.Printf("service.RunService.execute: run %s started (%d files x %d iterations, delay=%s)",
		run.id, len(files), req.Iterations, req.Delay)

	step := 0
	var lastRetryAfter time.Duration
	for fi, path := range files {
		name := filepath.Base(path)
		desc, readErr := content.Normalize(path)
		hash := ""
		if readErr == nil {
			hash, readErr = content.HashFile(path)
		}

		for it := 1; it <= req.Iterations; it++ {
			if step > 0 {
				wait := req.Delay
				if lastRetryAfter > wait {
					wait = lastRetryAfter
				}
				if wait > 0 {
					if err := sleepContext(ctx, wait); err != nil {
						return s.cancelled(summary, step)
					}
				}
			}

			p := domain.Progress{
				RunID:           run.id,
				FileIndex:       fi + 1,
				TotalFiles:      len(files),
				Iteration:       it,
				TotalIterations: req.Iterations,
				FileName:        name,
				Percent:         float64(step) / float64(total) * 100,
			}
			if ctx.Err() != nil || (onProgress != nil && !onProgress(p)) {
				return s.cancelled(summary, step)
			}
			s.mu.Lock()
			run.progress = &p
			s.mu.Unlock()
			s.publish(Event{Type: EventProgress, Progress: &p})

			item := domain.WorkItem{
				FilePath:        path,
				FileName:        name,
				ContentHash:     hash,
				Iteration:       it,
				TotalIterations: req.Iterations,
			}
			result := s.attempt(ctx, run.id, item, desc, readErr)
			lastRetryAfter = result.RetryAfter

			summary.Attempts = append(summary.Attempts, result)
			if result.Succeeded {
				summary.Succeeded++
			} else {
				summary.Failed++
			}
			s.publish(Event{Type: EventAttempt, Attempt: &result})
			step++
		}
	}

	return s.completed(summary)
}

// attempt reloads settings, composes the request, dispatches it and records
// the outcome. It never fails; every problem becomes a failed AttemptResult.
func (s *RunService) attempt(ctx context.Context, runID string, item domain.WorkItem, desc *domain.ContentDescriptor, readErr error) domain.AttemptResult {
	entry := audit.Entry{RunID: runID, Item: item}
	reqCtx := context.WithoutCancel(ctx)

	snap, err := s.cfg.Source.Load()
	if err != nil {
		log.Printf("service.RunService.attempt: loading settings: %v", err)
		f := provider.NewFailure(domain.FailureConfiguration, "", err, "loading settings: %v", err)
		return s.recordFailure(reqCtx, entry, f)
	}
	entry.Provider = snap.Settings.Provider
	entry.ModelID = snap.Settings.ModelID()
	entry.SystemText, entry.UserText = prompt.Compose(snap.SystemPrompt, snap.Settings, snap.MessageTemplate, item)

	if readErr != nil {
		log.Printf("service.RunService.attempt: reading %s: %v", item.FilePath, readErr)
		f := provider.NewFailure(domain.FailureLocalIO, snap.Settings.Provider, readErr, "reading %s: %v", item.FileName, readErr)
		return s.recordFailure(reqCtx, entry, f)
	}

	res := s.cfg.Dispatcher.Dispatch(reqCtx, port.ProviderRequest{
		SystemText: entry.SystemText,
		UserText:   entry.UserText,
		Content:    desc,
		Settings:   snap.Settings,
	})
	if !res.Succeeded() {
		return s.recordFailure(reqCtx, entry, res.Failure)
	}
	entry.ResultText = res.Text
	entry.Succeeded = true
	return s.cfg.Recorder.Record(reqCtx, entry)
}

func (s *RunService) recordFailure(ctx context.Context, entry audit.Entry, f *provider.Failure) domain.AttemptResult {
	entry.ResultText = f.Error()
	entry.ErrorMessage = f.Error()
	entry.FailureKind = f.Kind
	entry.RetryAfter = provider.RetryAfter(f)
	return s.cfg.Recorder.Record(ctx, entry)
}

func (s *RunService) cancelled(summary *domain.RunSummary, done int) *domain.RunSummary {
	summary.Status = domain.RunStatusCancelled
	summary.Message = fmt.Sprintf("Processing cancelled after %d of %d attempt(s).", done, summary.Total)
	summary.ErrorDetails = errorDetails(summary.Attempts)
	log.Printf("service.RunService.execute: run %s cancelled after %d of %d attempts", summary.RunID, done, summary.Total)
	return summary
}

func (s *RunService) completed(summary *domain.RunSummary) *domain.RunSummary {
	summary.Status = domain.RunStatusCompleted
	if summary.Failed == 0 {
		summary.Message = fmt.Sprintf("Processing complete: %d attempt(s) succeeded.", summary.Succeeded)
	} else {
		summary.Message = fmt.Sprintf("Processing completed with %d error(s) out of %d attempt(s).", summary.Failed, summary.Total)
		summary.ErrorDetails = errorDetails(summary.Attempts)
	}
	log.Printf("service.RunService.execute: run %s completed (%d succeeded, %d failed)", summary.RunID, summary.Succeeded, summary.Failed)
	return summary
}

func errorDetails(attempts []domain.AttemptResult) string {
	var lines []string
	for _, a := range attempts {
		if !a.Succeeded {
			lines = append(lines, fmt.Sprintf("%s (iteration %d): %s", a.WorkItem.FileName, a.WorkItem.Iteration, a.ErrorMessage))
		}
	}
	return strings.Join(lines, "\n")
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
