package provider

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime/debug"

	"configllm/internal/domain"
	"configllm/internal/port"
)

// Result is the outcome of one coordinated provider call. Text is the model
// response on success and the failure's error string otherwise.
type Result struct {
	Text     string
	Failure  *Failure
	Degraded bool
}

// Succeeded reports whether the call produced a response.
func (r Result) Succeeded() bool {
	return r.Failure == nil
}

// Coordinator runs one adapter call per attempt and, on a recoverable
// failure, the same adapter's degraded retry. It never falls over to a
// different provider.
type Coordinator struct {
	factory port.ProviderFactory
}

// NewCoordinator creates a Coordinator that builds adapters with factory.
// A nil factory uses NewProvider.
func NewCoordinator(factory port.ProviderFactory) *Coordinator {
	if factory == nil {
		factory = NewProvider
	}
	return &Coordinator{factory: factory}
}

// Dispatch builds a fresh adapter for req.Settings and invokes it.
func (c *Coordinator) Dispatch(ctx context.Context, req port.ProviderRequest) Result {
	p, err := c.factory(req.Settings)
	if err != nil {
		f := NewFailure(domain.FailureConfiguration, req.Settings.Provider, err,
			"API client for '%s' not initialized. Check API key and settings.", req.Settings.Provider)
		if errors.Is(err, domain.ErrUnknownProvider) {
			f.Message = fmt.Sprintf("unsupported API type '%s'.", req.Settings.Provider)
		}
		log.Printf("provider.Coordinator.Dispatch: building %s adapter: %v", req.Settings.Provider, err)
		return failed(f)
	}
	return c.Invoke(ctx, p, req)
}

// Invoke sends req through p. Configuration failures return without any
// network call. A panic inside the adapter becomes an internal failure.
func (c *Coordinator) Invoke(ctx context.Context, p port.Provider, req port.ProviderRequest) (res Result) {
	kind := req.Settings.Provider
	if p != nil {
		kind = p.Kind()
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("provider.Coordinator.Invoke: %s adapter panic: %v\n%s", kind, r, debug.Stack())
			res = failed(NewFailure(domain.FailureInternal, kind, nil, "unexpected %s adapter failure: %v", DisplayName(kind), r))
		}
	}()

	if p == nil || !p.Configured() {
		return failed(NotConfigured(kind))
	}

	text, err := p.Send(ctx, req)
	if err == nil {
		return Result{Text: text}
	}

	first := AsFailure(kind, err)
	if !first.Recoverable() {
		log.Printf("provider.Coordinator.Invoke: %s failed (%s): %s", kind, first.Kind, first.Message)
		return failed(first)
	}

	fb, ok := p.(port.Fallbacker)
	if !ok {
		log.Printf("provider.Coordinator.Invoke: %s failed (%s), no fallback: %s", kind, first.Kind, first.Message)
		return failed(first)
	}

	log.Printf("provider.Coordinator.Invoke: %s failed (%s), retrying degraded: %s", kind, first.Kind, first.Message)
	text, err = fb.Fallback(ctx, req, first)
	if err == nil {
		return Result{Text: text, Degraded: true}
	}
	if errors.Is(err, ErrNoFallback) {
		return failed(first)
	}

	second := AsFailure(kind, err)
	log.Printf("provider.Coordinator.Invoke: %s fallback failed (%s): %s", kind, second.Kind, second.Message)
	return failed(Composite(first, second))
}

func failed(f *Failure) Result {
	return Result{Text: f.Error(), Failure: f}
}
