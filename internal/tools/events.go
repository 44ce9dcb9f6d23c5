package tools

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ExecutionEventEndpoint identifies the channel the invoking framework routes
// pricing execution telemetry through. The channel itself belongs to the
// framework; this server only emits on it.
const ExecutionEventEndpoint = "ratio::agent::aws::pricing::execution"

// Event statuses emitted over the execution channel.
const (
	EventStarted   = "started"
	EventSucceeded = "succeeded"
	EventFailed    = "failed"
)

// ExecutionEvent is one telemetry record for a pricing invocation.
type ExecutionEvent struct {
	Timestamp   string   `json:"timestamp"`
	Endpoint    string   `json:"endpoint"`
	Status      string   `json:"status"`
	Tool        string   `json:"tool"`
	ServiceCode string   `json:"service_code,omitempty"`
	Regions     []string `json:"regions,omitempty"`
	RecordCount int      `json:"record_count,omitempty"`
	ResultFile  string   `json:"result_file,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// ExecutionEmitter appends execution events to a JSONL log file. Emission is
// best-effort: a failure to write telemetry never fails the invocation.
type ExecutionEmitter struct {
	enabled  bool
	logFile  *os.File
	logger   *logrus.Logger
	mu       sync.Mutex
	filePath string
}

var (
	globalEmitter *ExecutionEmitter
	emitterOnce   sync.Once
)

// eventRetentionDays is how long emitted events are kept before rotation.
const eventRetentionDays = 60

// InitGlobalEmitter initialises the global execution event emitter. Emission
// is on by default; EXECUTION_EVENTS=false turns it off.
func InitGlobalEmitter(logger *logrus.Logger) error {
	var initErr error
	emitterOnce.Do(func() {
		if strings.EqualFold(os.Getenv("EXECUTION_EVENTS"), "false") {
			globalEmitter = &ExecutionEmitter{enabled: false, logger: logger}
			return
		}

		logFilePath := os.Getenv("EXECUTION_EVENT_LOG_PATH")
		if logFilePath == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				initErr = fmt.Errorf("failed to get home directory: %w", err)
				return
			}
			logFilePath = filepath.Join(homeDir, ".mcp-aws-pricing", "logs", "execution-events.log")
		}

		if err := os.MkdirAll(filepath.Dir(logFilePath), 0700); err != nil {
			initErr = fmt.Errorf("failed to create event log directory: %w", err)
			return
		}

		logFile, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			initErr = fmt.Errorf("failed to open execution event log: %w", err)
			return
		}

		globalEmitter = &ExecutionEmitter{
			enabled:  true,
			logFile:  logFile,
			logger:   logger,
			filePath: logFilePath,
		}

		// Rotation happens in the background so startup is not blocked.
		go func() {
			if rotateErr := globalEmitter.rotateOldEvents(); rotateErr != nil {
				logger.WithError(rotateErr).Warn("Failed to rotate old execution events")
			}
		}()

		logger.Infof("Execution event emission enabled: %s", logFilePath)
	})

	return initErr
}

// GetGlobalEmitter returns the global emitter, or a disabled one if it was
// never initialised.
func GetGlobalEmitter() *ExecutionEmitter {
	if globalEmitter == nil {
		return &ExecutionEmitter{enabled: false}
	}
	return globalEmitter
}

// NewEmitterForFile builds an emitter writing to an explicit path. Used by
// tests.
func NewEmitterForFile(path string, logger *logrus.Logger) (*ExecutionEmitter, error) {
	logFile, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, err
	}
	return &ExecutionEmitter{enabled: true, logFile: logFile, logger: logger, filePath: path}, nil
}

// Emit writes one event to the channel log, stamping timestamp and endpoint.
func (e *ExecutionEmitter) Emit(event ExecutionEvent) {
	if !e.enabled {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// The rotation goroutine nils logFile under the lock, so the nil check
	// must happen here too.
	if e.logFile == nil {
		return
	}

	event.Timestamp = time.Now().Format(time.RFC3339)
	event.Endpoint = ExecutionEventEndpoint

	jsonData, err := json.Marshal(event)
	if err != nil {
		if e.logger != nil {
			e.logger.WithError(err).Error("Failed to marshal execution event")
		}
		return
	}

	if _, err := e.logFile.Write(append(jsonData, '\n')); err != nil {
		if e.logger != nil {
			e.logger.WithError(err).Error("Failed to write execution event")
		}
		return
	}

	if err := e.logFile.Sync(); err != nil && e.logger != nil {
		e.logger.WithError(err).Error("Failed to sync execution event log")
	}
}

// IsEnabled returns whether event emission is on.
func (e *ExecutionEmitter) IsEnabled() bool {
	return e.enabled
}

// Close closes the emitter's log file.
func (e *ExecutionEmitter) Close() error {
	if !e.enabled {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.logFile == nil {
		return nil
	}
	return e.logFile.Close()
}

// rotateOldEvents drops events older than the retention window. Holds the
// mutex for the whole operation so Emit cannot write to a closed file.
func (e *ExecutionEmitter) rotateOldEvents() error {
	if !e.enabled || e.filePath == "" {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.logFile != nil {
		if err := e.logFile.Close(); err != nil {
			return fmt.Errorf("failed to close event log for rotation: %w", err)
		}
		e.logFile = nil
	}

	file, err := os.Open(e.filePath)
	if err != nil {
		return e.reopenLocked()
	}

	var kept []string
	cutoff := time.Now().AddDate(0, 0, -eventRetentionDays)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var event ExecutionEvent
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			// Keep malformed lines rather than silently dropping data.
			kept = append(kept, line)
			continue
		}

		eventTime, err := time.Parse(time.RFC3339, event.Timestamp)
		if err != nil || eventTime.After(cutoff) {
			kept = append(kept, line)
		}
	}

	scanErr := scanner.Err()
	_ = file.Close()

	if scanErr != nil {
		_ = e.reopenLocked()
		return fmt.Errorf("error reading event log during rotation: %w", scanErr)
	}

	tmpPath := e.filePath + ".tmp"
	content := ""
	if len(kept) > 0 {
		content = strings.Join(kept, "\n") + "\n"
	}
	if err := os.WriteFile(tmpPath, []byte(content), 0600); err != nil {
		_ = e.reopenLocked()
		return fmt.Errorf("failed to write rotated event log: %w", err)
	}

	if err := os.Rename(tmpPath, e.filePath); err != nil {
		_ = os.Remove(tmpPath)
		_ = e.reopenLocked()
		return fmt.Errorf("failed to replace event log during rotation: %w", err)
	}

	return e.reopenLocked()
}

// reopenLocked reopens the event log in append mode. Caller must hold e.mu.
func (e *ExecutionEmitter) reopenLocked() error {
	logFile, err := os.OpenFile(e.filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("failed to reopen event log: %w", err)
	}

	e.logFile = logFile
	return nil
}
