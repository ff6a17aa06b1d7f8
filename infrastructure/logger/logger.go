package logger

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// backendLog is the shared backend all subsystem loggers write to.
var backendLog = NewBackend()

var (
	subsystemsMutex sync.Mutex
	subsystems      = make(map[string]*Logger)
)

// RegisterSubSystem returns a logger for the given subsystem tag, creating
// it if it doesn't exist yet. Loggers start at LevelOff and stay silent
// until InitLogStdout or InitLog configures levels and starts the backend.
func RegisterSubSystem(subsystem string) *Logger {
	subsystemsMutex.Lock()
	defer subsystemsMutex.Unlock()
	log, ok := subsystems[subsystem]
	if !ok {
		log = &Logger{lvl: LevelOff, tag: subsystem, b: backendLog}
		subsystems[subsystem] = log
	}
	return log
}

// InitLog attaches stdout and the given rotated log files to the backend,
// sets all registered subsystems to the given level and starts the backend.
// errLogFile receives only warnings and above.
func InitLog(logFile, errLogFile string, level Level) error {
	err := backendLog.AddLogWriter(os.Stdout, level)
	if err != nil {
		return err
	}
	if logFile != "" {
		err = backendLog.AddLogFile(logFile, LevelTrace)
		if err != nil {
			return err
		}
	}
	if errLogFile != "" {
		err = backendLog.AddLogFile(errLogFile, LevelWarn)
		if err != nil {
			return err
		}
	}
	SetLogLevels(level)
	return backendLog.Run()
}

// SetLogLevels sets the log level for all registered subsystems.
func SetLogLevels(level Level) {
	subsystemsMutex.Lock()
	defer subsystemsMutex.Unlock()
	for _, log := range subsystems {
		log.SetLevel(level)
	}
}

// Close shuts the logging backend down, flushing any pending output.
func Close() {
	backendLog.Close()
}

// Logger writes leveled, tagged log messages for one subsystem.
type Logger struct {
	lvl Level
	tag string
	b   *Backend
}

// Level returns the current logging level
func (l *Logger) Level() Level {
	return l.lvl
}

// SetLevel changes the logging level to the passed level.
func (l *Logger) SetLevel(logLevel Level) {
	l.lvl = logLevel
}

func (l *Logger) print(lvl Level, args ...interface{}) {
	if lvl < l.lvl {
		return
	}
	l.write(lvl, fmt.Sprint(args...))
}

func (l *Logger) printf(lvl Level, format string, args ...interface{}) {
	if lvl < l.lvl {
		return
	}
	l.write(lvl, fmt.Sprintf(format, args...))
}

func (l *Logger) write(lvl Level, message string) {
	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	formatted := fmt.Sprintf("%s [%s] %s: %s\n", timestamp, lvl, l.tag, message)
	l.b.writeChan <- logEntry{log: []byte(formatted), level: lvl}
}

// Tracef formats message according to format specifier and writes to
// to log with LevelTrace.
func (l *Logger) Tracef(format string, args ...interface{}) {
	l.printf(LevelTrace, format, args...)
}

// Debugf formats message according to format specifier and writes to
// log with LevelDebug.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.printf(LevelDebug, format, args...)
}

// Infof formats message according to format specifier and writes to
// log with LevelInfo.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.printf(LevelInfo, format, args...)
}

// Warnf formats message according to format specifier and writes to
// to log with LevelWarn.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.printf(LevelWarn, format, args...)
}

// Errorf formats message according to format specifier and writes to
// to log with LevelError.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.printf(LevelError, format, args...)
}

// Criticalf formats message according to format specifier and writes to
// log with LevelCritical.
func (l *Logger) Criticalf(format string, args ...interface{}) {
	l.printf(LevelCritical, format, args...)
}

// Trace formats message using the default formats for its operands
// and writes to log with LevelTrace.
func (l *Logger) Trace(args ...interface{}) {
	l.print(LevelTrace, args...)
}

// Debug formats message using the default formats for its operands
// and writes to log with LevelDebug.
func (l *Logger) Debug(args ...interface{}) {
	l.print(LevelDebug, args...)
}

// Info formats message using the default formats for its operands
// and writes to log with LevelInfo.
func (l *Logger) Info(args ...interface{}) {
	l.print(LevelInfo, args...)
}

// Warn formats message using the default formats for its operands
// and writes to log with LevelWarn.
func (l *Logger) Warn(args ...interface{}) {
	l.print(LevelWarn, args...)
}

// Error formats message using the default formats for its operands
// and writes to log with LevelError.
func (l *Logger) Error(args ...interface{}) {
	l.print(LevelError, args...)
}

// Critical formats message using the default formats for its operands
// and writes to log with LevelCritical.
func (l *Logger) Critical(args ...interface{}) {
	l.print(LevelCritical, args...)
}
