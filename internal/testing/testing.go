// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"testing"

	"github.com/johntango/milonga/internal/oracle"
)

// MockOracle is a scriptable test double for [oracle.Oracle].
//
// Each Suggest method replays the corresponding queue entry per call, or
// falls back to the Fn hook when set. An exhausted queue returns ErrExhausted
// so tests notice unexpected extra calls. Safe for concurrent calls, like
// the client it stands in for.
type MockOracle struct {
	mu sync.Mutex

	TrackResponses  []*oracle.TrackResponse
	TrackErrs       []error
	OriginResponses [][]string
	OriginErrs      []error
	ReplaceResponse *oracle.ReplacementResponse
	ReplaceErr      error

	TrackFn func(req oracle.TrackRequest) (*oracle.TrackResponse, error)

	TrackCalls   []oracle.TrackRequest
	OriginCalls  []oracle.OriginRequest
	ReplaceCalls []oracle.ReplacementRequest
}

// ErrExhausted reports a mock call with no scripted response left.
var ErrExhausted = errors.New("mock oracle: no scripted response")

func (m *MockOracle) SuggestTracks(ctx context.Context, req oracle.TrackRequest) (*oracle.TrackResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TrackCalls = append(m.TrackCalls, req)

	if m.TrackFn != nil {
		return m.TrackFn(req)
	}

	i := len(m.TrackCalls) - 1
	var err error
	if i < len(m.TrackErrs) {
		err = m.TrackErrs[i]
	}
	if i < len(m.TrackResponses) {
		return m.TrackResponses[i], err
	}
	if err != nil {
		return nil, err
	}
	return nil, ErrExhausted
}

func (m *MockOracle) SuggestOrigins(ctx context.Context, req oracle.OriginRequest) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OriginCalls = append(m.OriginCalls, req)

	i := len(m.OriginCalls) - 1
	var err error
	if i < len(m.OriginErrs) {
		err = m.OriginErrs[i]
	}
	if i < len(m.OriginResponses) {
		return m.OriginResponses[i], err
	}
	if err != nil {
		return nil, err
	}
	return nil, ErrExhausted
}

func (m *MockOracle) SuggestReplacement(ctx context.Context, req oracle.ReplacementRequest) (*oracle.ReplacementResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReplaceCalls = append(m.ReplaceCalls, req)
	return m.ReplaceResponse, m.ReplaceErr
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}
