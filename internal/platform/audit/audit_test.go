// Copyright (c) 2026 ExamGate. All rights reserved.

package audit_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examgate/examgate/internal/platform/audit"
)

// captureSink records every event it receives.
type captureSink struct {
	mu     sync.Mutex
	events []audit.Event
}

func (sink *captureSink) Emit(_ context.Context, event audit.Event) {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	sink.events = append(sink.events, event)
}

func (sink *captureSink) all() []audit.Event {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	return append([]audit.Event(nil), sink.events...)
}

/*
TestDispatcher_DeliversAndDrains verifies queued events reach the sink and
Close drains the buffer.
*/
func TestDispatcher_DeliversAndDrains(t *testing.T) {
	sink := &captureSink{}
	dispatcher := audit.NewDispatcher(sink, 16)

	for i := 0; i < 10; i++ {
		dispatcher.Emit(context.Background(), audit.Event{
			Category:  audit.CategorySuspicious,
			IP:        "203.0.113.7",
			Path:      "/api/v1/exams",
			Timestamp: time.Now(),
		})
	}
	dispatcher.Close()

	events := sink.all()
	require.Len(t, events, 10)
	assert.Equal(t, audit.CategorySuspicious, events[0].Category)
	assert.Equal(t, uint64(0), dispatcher.Dropped())
}

/*
TestDispatcher_EmitAfterClose verifies emission after Close is a silent no-op.
*/
func TestDispatcher_EmitAfterClose(t *testing.T) {
	sink := &captureSink{}
	dispatcher := audit.NewDispatcher(sink, 4)
	dispatcher.Close()

	dispatcher.Emit(context.Background(), audit.Event{Category: audit.CategoryAuthFailure})
	assert.Empty(t, sink.all())
}
