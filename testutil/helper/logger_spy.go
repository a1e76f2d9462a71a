package helper

import (
	"context"
	"sync"

	"github.com/kapitoshk4/library-service-api/librarystore"
)

// SpyLogRecord represents a recorded log call. Non-contextual calls record context.Background().
type SpyLogRecord struct {
	Level   string
	Message string
	Args    []any
	Context context.Context
}

// LoggerSpy captures log calls for inspection in tests.
// It implements both librarystore.Logger and librarystore.ContextualLogger.
type LoggerSpy struct {
	records     []SpyLogRecord
	mu          sync.Mutex
	recordCalls bool
}

// NewLoggerSpy creates a LoggerSpy.
func NewLoggerSpy(recordCalls bool) *LoggerSpy {
	return &LoggerSpy{recordCalls: recordCalls}
}

func (s *LoggerSpy) record(ctx context.Context, level, msg string, args []any) {
	if !s.recordCalls {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, SpyLogRecord{Level: level, Message: msg, Args: args, Context: ctx})
}

func (s *LoggerSpy) Debug(msg string, args ...any) {
	s.record(context.Background(), "debug", msg, args)
}

func (s *LoggerSpy) Info(msg string, args ...any) {
	s.record(context.Background(), "info", msg, args)
}

func (s *LoggerSpy) Warn(msg string, args ...any) {
	s.record(context.Background(), "warn", msg, args)
}

func (s *LoggerSpy) Error(msg string, args ...any) {
	s.record(context.Background(), "error", msg, args)
}

func (s *LoggerSpy) DebugContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, "debug", msg, args)
}

func (s *LoggerSpy) InfoContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, "info", msg, args)
}

func (s *LoggerSpy) WarnContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, "warn", msg, args)
}

func (s *LoggerSpy) ErrorContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, "error", msg, args)
}

// GetRecords returns a copy of all captured log records.
func (s *LoggerSpy) GetRecords() []SpyLogRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]SpyLogRecord, len(s.records))
	copy(records, s.records)

	return records
}

// HasRecord reports whether a record with the given level and message was captured.
func (s *LoggerSpy) HasRecord(level, msg string) bool {
	return s.CountRecords(level, msg) > 0
}

// CountRecords counts the records with the given level and message.
func (s *LoggerSpy) CountRecords(level, msg string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, record := range s.records {
		if record.Level == level && record.Message == msg {
			count++
		}
	}

	return count
}

var (
	_ librarystore.Logger           = (*LoggerSpy)(nil)
	_ librarystore.ContextualLogger = (*LoggerSpy)(nil)
)
