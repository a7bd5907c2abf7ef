package mqtt

import (
	"fmt"
	"sync"

	coremqtt "github.com/kilianp07/lessonalloc/core/mqtt"
)

// Publisher mirrors the core mqtt.Publisher interface.
type Publisher = coremqtt.Publisher

// MockPublisher records notices in memory.
type MockPublisher struct {
	Notices []coremqtt.RunNotice
	Fail    bool
	mu      sync.Mutex
}

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher { return &MockPublisher{} }

// PublishRun records the notice or returns an error if configured to fail.
func (m *MockPublisher) PublishRun(n coremqtt.RunNotice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail {
		return fmt.Errorf("%w: mock", coremqtt.ErrPublish)
	}
	m.Notices = append(m.Notices, n)
	return nil
}

func (m *MockPublisher) Close() {}

// New returns a Paho publisher when a broker is configured and a no-op
// publisher otherwise.
func New(cfg Config) (Publisher, error) {
	if !cfg.Enabled() {
		return coremqtt.NopPublisher{}, nil
	}
	pc, err := NewPahoClient(cfg)
	if err != nil {
		return nil, err
	}
	return pc, nil
}
