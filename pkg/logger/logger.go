// Package logger provides an asynchronous structured logger that ships
// batched JSON entries to an Elasticsearch index.
package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/google/uuid"
)

// LogLevel represents the severity level of a log entry
type LogLevel string

const (
	LevelDebug LogLevel = "DEBUG"
	LevelInfo  LogLevel = "INFO"
	LevelWarn  LogLevel = "WARN"
	LevelError LogLevel = "ERROR"
	LevelFatal LogLevel = "FATAL"
)

// LogEntry represents the complete structure of a log record
type LogEntry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"@timestamp"`
	Level     LogLevel  `json:"level"`
	Message   string    `json:"message"`

	// Application context
	Service     string `json:"service"`
	Version     string `json:"version"`
	Environment string `json:"environment"`
	Hostname    string `json:"hostname"`
	PID         int    `json:"pid"`

	ExecID string `json:"exec_id"` // Execution ID for tracing across services

	// Source code context
	Caller struct {
		File     string `json:"file"`
		Line     int    `json:"line"`
		Function string `json:"function"`
	} `json:"caller"`

	// Error context (when level is ERROR or FATAL)
	Error *ErrorContext `json:"error,omitempty"`

	// Custom fields for additional context
	Fields map[string]interface{} `json:"fields,omitempty"`
}

// ErrorContext contains error information
type ErrorContext struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Config holds the logger configuration
type Config struct {
	Service       string        // Service name
	Version       string        // Application version
	Environment   string        // Environment (dev, staging, prod)
	IndexName     string        // Elasticsearch index to write into
	FlushInterval time.Duration // How often to flush buffered entries
	BatchSize     int           // Maximum number of logs per bulk request
	BufferSize    int           // Channel buffer size
	LogLevel      LogLevel      // Minimum log level to process
	EnableCaller  bool          // Whether to capture caller information
	ExecutionID   string        // Unique ID for this process run
}

// Logger is the asynchronous Elasticsearch-backed logger instance.
type Logger struct {
	config      Config
	es          *elasticsearch.Client
	logChannel  chan LogEntry
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	hostname    string
	pid         int
	ExecutionID string
}

// NewLogger creates a new Logger writing to the given Elasticsearch client.
func NewLogger(es *elasticsearch.Client, config Config) *Logger {
	if config.IndexName == "" {
		config.IndexName = "app-logs"
	}
	if config.FlushInterval == 0 {
		config.FlushInterval = 5 * time.Second
	}
	if config.BatchSize == 0 {
		config.BatchSize = 100
	}
	if config.BufferSize == 0 {
		config.BufferSize = 1000
	}
	if config.LogLevel == "" {
		config.LogLevel = LevelInfo
	}

	hostname, _ := os.Hostname()
	ctx, cancel := context.WithCancel(context.Background())

	logger := &Logger{
		config:      config,
		es:          es,
		logChannel:  make(chan LogEntry, config.BufferSize),
		ctx:         ctx,
		cancel:      cancel,
		hostname:    hostname,
		pid:         os.Getpid(),
		ExecutionID: config.ExecutionID,
	}

	logger.wg.Add(1)
	go logger.processLogs()

	return logger
}

// processLogs batches entries and ships each batch with one bulk request.
func (l *Logger) processLogs() {
	defer l.wg.Done()

	ticker := time.NewTicker(l.config.FlushInterval)
	defer ticker.Stop()

	batch := make([]LogEntry, 0, l.config.BatchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := l.bulkIndex(batch); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to ship log batch: %v\n", err)
		}
		batch = batch[:0]
	}

	for {
		select {
		case entry := <-l.logChannel:
			batch = append(batch, entry)
			if len(batch) >= l.config.BatchSize {
				flush()
			}

		case <-ticker.C:
			flush()

		case <-l.ctx.Done():
			// Drain whatever is still queued before the final flush.
			for {
				select {
				case entry := <-l.logChannel:
					batch = append(batch, entry)
				default:
					flush()
					return
				}
			}
		}
	}
}

// bulkIndex writes one NDJSON bulk request with every entry of the batch.
func (l *Logger) bulkIndex(batch []LogEntry) error {
	var buf bytes.Buffer
	action := fmt.Sprintf(`{"index":{"_index":%q}}`, l.config.IndexName)

	for _, entry := range batch {
		doc, err := json.Marshal(entry)
		if err != nil {
			continue
		}
		buf.WriteString(action)
		buf.WriteByte('\n')
		buf.Write(doc)
		buf.WriteByte('\n')
	}

	res, err := l.es.Bulk(bytes.NewReader(buf.Bytes()))
	if err != nil {
		return err
	}
	defer func() {
		_ = res.Body.Close()
	}()

	if res.IsError() {
		return fmt.Errorf("bulk indexing failed with status: %s", res.Status())
	}
	return nil
}

// shouldLog checks if the log level should be processed
func (l *Logger) shouldLog(level LogLevel) bool {
	levels := map[LogLevel]int{
		LevelDebug: 0,
		LevelInfo:  1,
		LevelWarn:  2,
		LevelError: 3,
		LevelFatal: 4,
	}

	return levels[level] >= levels[l.config.LogLevel]
}

// createLogEntry creates a base log entry with common fields
func (l *Logger) createLogEntry(level LogLevel, message string) LogEntry {
	entry := LogEntry{
		ID:          uuid.New().String(),
		Timestamp:   time.Now().UTC(),
		Level:       level,
		Message:     message,
		Service:     l.config.Service,
		Version:     l.config.Version,
		Environment: l.config.Environment,
		Hostname:    l.hostname,
		PID:         l.pid,
		ExecID:      l.config.ExecutionID,
	}

	if l.config.EnableCaller {
		if pc, file, line, ok := runtime.Caller(3); ok {
			entry.Caller.File = file
			entry.Caller.Line = line
			if fn := runtime.FuncForPC(pc); fn != nil {
				entry.Caller.Function = fn.Name()
			}
		}
	}

	return entry
}

// log sends a log entry to the processing channel
func (l *Logger) log(entry LogEntry) {
	if !l.shouldLog(entry.Level) {
		return
	}

	select {
	case l.logChannel <- entry:
	default:
		// Channel is full, log to stderr as fallback
		fmt.Fprintf(os.Stderr, "Logger channel full, dropping log: %s\n", entry.Message)
	}
}

// Debug logs a debug message
func (l *Logger) Debug(message string, fields ...map[string]interface{}) {
	entry := l.createLogEntry(LevelDebug, message)
	if len(fields) > 0 {
		entry.Fields = fields[0]
	}
	l.log(entry)
}

// Info logs an info message
func (l *Logger) Info(message string, fields ...map[string]interface{}) {
	entry := l.createLogEntry(LevelInfo, message)
	if len(fields) > 0 {
		entry.Fields = fields[0]
	}
	l.log(entry)
}

// Warn logs a warning message
func (l *Logger) Warn(message string, fields ...map[string]interface{}) {
	entry := l.createLogEntry(LevelWarn, message)
	if len(fields) > 0 {
		entry.Fields = fields[0]
	}
	l.log(entry)
}

// Error logs an error message
func (l *Logger) Error(message string, err error, fields ...map[string]interface{}) {
	entry := l.createLogEntry(LevelError, message)
	if err != nil {
		entry.Error = &ErrorContext{
			Type:    fmt.Sprintf("%T", err),
			Message: err.Error(),
		}
	}
	if len(fields) > 0 {
		entry.Fields = fields[0]
	}
	l.log(entry)
}

// Fatal logs a fatal message
func (l *Logger) Fatal(message string, err error, fields ...map[string]interface{}) {
	entry := l.createLogEntry(LevelFatal, message)
	if err != nil {
		entry.Error = &ErrorContext{
			Type:    fmt.Sprintf("%T", err),
			Message: err.Error(),
		}
	}
	if len(fields) > 0 {
		entry.Fields = fields[0]
	}
	l.log(entry)
}

// Close gracefully shuts down the logger, flushing pending entries.
func (l *Logger) Close() error {
	l.cancel()
	l.wg.Wait()
	close(l.logChannel)
	return nil
}
