package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"balwatch/internal/models"
)

// noopMetrics satisfies MetricsRecorderInterface without touching the
// global prometheus registry, which only tolerates one registration
// per process.
type noopMetrics struct{}

func (noopMetrics) RecordRun(models.RunStatus, time.Duration)  {}
func (noopMetrics) RecordFetch(string, time.Duration)          {}
func (noopMetrics) RecordCacheLookup(bool)                     {}
func (noopMetrics) RecordNotification(string)                  {}
func (noopMetrics) SetMonitorState(models.MonitorState)        {}
func (noopMetrics) SetBreakerState(models.CircuitBreakerState) {}

// fakeUpstream returns canned accounts and records call counts. When
// blockCh is set, FetchAccounts parks until the channel is closed,
// signalling entered first.
type fakeUpstream struct {
	mu       sync.Mutex
	accounts []models.Account
	err      error
	calls    int
	lastIDs  []string

	entered chan struct{}
	blockCh chan struct{}
}

func (f *fakeUpstream) FetchAccounts(ctx context.Context, accountIDs []string) ([]models.Account, error) {
	f.mu.Lock()
	f.calls++
	f.lastIDs = append([]string(nil), accountIDs...)
	entered, block := f.entered, f.blockCh
	f.mu.Unlock()

	if entered != nil {
		close(entered)
	}
	if block != nil {
		<-block
	}

	if f.err != nil {
		return nil, f.err
	}
	return f.accounts, nil
}

func (f *fakeUpstream) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// sentNotification captures one Send call.
type sentNotification struct {
	Title string
	Body  string
	Dest  models.Destination
}

// fakeNotifier records every dispatched message. err fails every call;
// failFirst fails only the first N.
type fakeNotifier struct {
	mu        sync.Mutex
	sent      []sentNotification
	err       error
	failFirst int
}

func (f *fakeNotifier) Send(ctx context.Context, title, body string, dest models.Destination) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.failFirst > 0 {
		f.failFirst--
		return errors.New("gateway unavailable")
	}
	f.sent = append(f.sent, sentNotification{Title: title, Body: body, Dest: dest})
	return nil
}

func (f *fakeNotifier) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}
