package aquaflow

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/ghalamif/AquaFlow/internal/domain"
)

// ErrChannelSinkClosed is returned when a channel sink is written to after being closed.
var ErrChannelSinkClosed = errors.New("aquaflow: channel sink closed")

// StatusBatchSink is invoked with the statuses of each refresh round.
type StatusBatchSink func([]PipelineStatus) error

// NewCallbackSink adapts a StatusBatchSink into a full StatusSink so callers
// can plug arbitrary functions without defining structs.
func NewCallbackSink(name string, fn StatusBatchSink) StatusSink {
	if name == "" {
		name = "callback"
	}
	return &callbackSink{name: name, fn: fn}
}

// NewChannelSink exposes rounds via a channel; it returns the sink, the read-only channel,
// and a close function that the caller should invoke during shutdown.
func NewChannelSink(name string, buffer int) (StatusSink, <-chan []PipelineStatus, func()) {
	if name == "" {
		name = "channel"
	}
	if buffer < 0 {
		buffer = 0
	}
	ch := make(chan []PipelineStatus, buffer)
	s := &channelSink{
		name:   name,
		ch:     ch,
		closed: make(chan struct{}),
	}
	return s, ch, func() { s.close() }
}

type callbackSink struct {
	name string
	fn   StatusBatchSink
}

func (s *callbackSink) WriteBatch(statuses []*domain.PipelineStatus) error {
	if s.fn == nil {
		return fmt.Errorf("callback sink %q: nil handler", s.name)
	}
	if len(statuses) == 0 {
		return nil
	}
	return s.fn(copyBatch(statuses))
}

func (s *callbackSink) Name() string { return s.name }

type channelSink struct {
	name   string
	ch     chan []PipelineStatus
	closed chan struct{}
	once   sync.Once

	// sending is held by writers so ch is closed only after in-flight sends return.
	sending sync.RWMutex
}

func (s *channelSink) WriteBatch(statuses []*domain.PipelineStatus) error {
	select {
	case <-s.closed:
		return ErrChannelSinkClosed
	default:
	}

	if len(statuses) == 0 {
		return nil
	}

	batch := copyBatch(statuses)

	s.sending.RLock()
	defer s.sending.RUnlock()
	select {
	case <-s.closed:
		return ErrChannelSinkClosed
	case s.ch <- batch:
		return nil
	}
}

func (s *channelSink) Name() string { return s.name }

func (s *channelSink) close() {
	s.once.Do(func() {
		close(s.closed)
		s.sending.Lock()
		close(s.ch)
		s.sending.Unlock()
	})
}

// copyBatch detaches the batch from the state store's values.
func copyBatch(statuses []*domain.PipelineStatus) []PipelineStatus {
	out := make([]PipelineStatus, 0, len(statuses))
	for _, st := range statuses {
		if st == nil {
			continue
		}
		c := *st
		c.Segments = slices.Clone(st.Segments)
		out = append(out, c)
	}
	return out
}
