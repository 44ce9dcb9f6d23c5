package tools

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func readEvents(t *testing.T, path string) []ExecutionEvent {
	t.Helper()

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	var events []ExecutionEvent
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var event ExecutionEvent
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &event))
		events = append(events, event)
	}
	require.NoError(t, scanner.Err())
	return events
}

func TestEmitterWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.log")
	emitter, err := NewEmitterForFile(path, testLogger())
	require.NoError(t, err)
	defer emitter.Close()

	emitter.Emit(ExecutionEvent{
		Status:      EventStarted,
		Tool:        "aws_pricing",
		ServiceCode: "AmazonEC2",
		Regions:     []string{"us-east-1"},
	})
	emitter.Emit(ExecutionEvent{
		Status:      EventSucceeded,
		Tool:        "aws_pricing",
		ServiceCode: "AmazonEC2",
		RecordCount: 12,
		ResultFile:  "/tmp/result.json",
	})

	events := readEvents(t, path)
	require.Len(t, events, 2)

	// Timestamp and endpoint are stamped by the emitter, not the caller.
	for _, event := range events {
		assert.Equal(t, ExecutionEventEndpoint, event.Endpoint)
		_, err := time.Parse(time.RFC3339, event.Timestamp)
		assert.NoError(t, err)
	}

	assert.Equal(t, EventStarted, events[0].Status)
	assert.Equal(t, EventSucceeded, events[1].Status)
	assert.Equal(t, 12, events[1].RecordCount)
}

func TestEmitterFailureEvent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.log")
	emitter, err := NewEmitterForFile(path, testLogger())
	require.NoError(t, err)
	defer emitter.Close()

	emitter.Emit(ExecutionEvent{
		Status:      EventFailed,
		Tool:        "aws_pricing",
		ServiceCode: "AmazonEC2",
		Error:       "invalid argument: max_records must be between 1 and 100, got 500",
	})

	events := readEvents(t, path)
	require.Len(t, events, 1)
	assert.Equal(t, EventFailed, events[0].Status)
	assert.Contains(t, events[0].Error, "max_records")
}

func TestDisabledEmitterIsNoOp(t *testing.T) {
	emitter := &ExecutionEmitter{enabled: false}

	assert.False(t, emitter.IsEnabled())
	assert.NotPanics(t, func() {
		emitter.Emit(ExecutionEvent{Status: EventStarted, Tool: "aws_pricing"})
	})
	assert.NoError(t, emitter.Close())
}

func TestEmitConcurrentWithRotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.log")
	emitter, err := NewEmitterForFile(path, testLogger())
	require.NoError(t, err)
	defer emitter.Close()

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 25 {
				emitter.Emit(ExecutionEvent{Status: EventSucceeded, Tool: "aws_pricing"})
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for range 5 {
			assert.NoError(t, emitter.rotateOldEvents())
		}
	}()
	wg.Wait()

	// Every emitted event must have landed intact despite rotations.
	events := readEvents(t, path)
	assert.Len(t, events, 100)
}

func TestRotateDropsExpiredEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.log")

	old := ExecutionEvent{
		Timestamp: time.Now().AddDate(0, 0, -(eventRetentionDays + 5)).Format(time.RFC3339),
		Endpoint:  ExecutionEventEndpoint,
		Status:    EventSucceeded,
		Tool:      "aws_pricing",
	}
	recent := ExecutionEvent{
		Timestamp: time.Now().AddDate(0, 0, -1).Format(time.RFC3339),
		Endpoint:  ExecutionEventEndpoint,
		Status:    EventSucceeded,
		Tool:      "aws_pricing",
	}

	oldLine, err := json.Marshal(old)
	require.NoError(t, err)
	recentLine, err := json.Marshal(recent)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, append(append(oldLine, '\n'), append(recentLine, '\n')...), 0600))

	emitter, err := NewEmitterForFile(path, testLogger())
	require.NoError(t, err)
	defer emitter.Close()

	require.NoError(t, emitter.rotateOldEvents())

	events := readEvents(t, path)
	require.Len(t, events, 1)
	assert.Equal(t, recent.Timestamp, events[0].Timestamp)
}

func TestRotateKeepsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.log")
	require.NoError(t, os.WriteFile(path, []byte("not json at all\n"), 0600))

	emitter, err := NewEmitterForFile(path, testLogger())
	require.NoError(t, err)
	defer emitter.Close()

	require.NoError(t, emitter.rotateOldEvents())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "not json at all\n", string(data))
}
