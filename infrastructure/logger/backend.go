package logger

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/jrick/logrotate/rotator"
	"github.com/pkg/errors"
)

const (
	defaultThresholdKB = 10 * 1000 // 10 MB logs by default.
	defaultMaxRolls    = 8         // keep 8 last logs by default.
)

type logWriter struct {
	io.WriteCloser
	logLevel Level
}

// Backend fans formatted log entries out to its writers. Subsystem loggers
// created from the backend send their output through a single goroutine, so
// writes from all subsystems are atomic with respect to one another.
type Backend struct {
	mutex     sync.Mutex
	writers   []logWriter
	writeChan chan logEntry
	closeWait sync.WaitGroup
	running   bool
}

type logEntry struct {
	log   []byte
	level Level
}

// NewBackend creates a new logger backend.
func NewBackend() *Backend {
	return &Backend{writeChan: make(chan logEntry)}
}

// AddLogWriter adds an io.WriteCloser the backend will write into for every
// entry at or above the given level. Must be called before Run.
func (b *Backend) AddLogWriter(writer io.WriteCloser, logLevel Level) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if b.running {
		return errors.New("cannot add log writers while the logger backend is running")
	}
	b.writers = append(b.writers, logWriter{WriteCloser: writer, logLevel: logLevel})
	return nil
}

// AddLogFile adds a rotated log file the backend will write into for every
// entry at or above the given level. The file and its directory are created
// if they don't exist.
func (b *Backend) AddLogFile(logFile string, logLevel Level) error {
	logDir, _ := filepath.Split(logFile)
	if logDir != "" {
		err := os.MkdirAll(logDir, 0700)
		if err != nil {
			return errors.Wrapf(err, "failed to create log directory %s", logDir)
		}
	}
	r, err := rotator.New(logFile, defaultThresholdKB, false, defaultMaxRolls)
	if err != nil {
		return errors.Wrapf(err, "failed to create file rotator for %s", logFile)
	}
	return b.AddLogWriter(r, logLevel)
}

// Run launches the backend's write goroutine. Should only be called once.
func (b *Backend) Run() error {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if b.running {
		return errors.New("the logger backend is already running")
	}
	b.running = true
	b.closeWait.Add(1)
	go b.writeLoop()
	return nil
}

func (b *Backend) writeLoop() {
	defer b.closeWait.Done()
	for entry := range b.writeChan {
		for _, writer := range b.writers {
			if entry.level >= writer.logLevel {
				_, _ = writer.Write(entry.log)
			}
		}
	}
}

// Close flushes all pending log entries and closes all writers, including
// finalizing log file rotators.
func (b *Backend) Close() {
	close(b.writeChan)
	b.closeWait.Wait()
	for _, writer := range b.writers {
		_ = writer.Close()
	}
}
