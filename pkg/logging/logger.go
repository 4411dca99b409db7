// Package logging is the structured logger shared by every kgx package.
// Libraries accept a Logger and default to a no-op; the CLI installs a
// text logger on stderr.
package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Level orders log entries by severity.
type Level int32

const (
	// DebugLevel traces individual nodes during loads and walks.
	DebugLevel Level = iota
	InfoLevel
	// WarnLevel marks recoverable data problems such as skipped rows.
	WarnLevel
	ErrorLevel
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

func (l Level) String() string {
	if l < DebugLevel || int(l) >= len(levelNames) {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLevel reads a level name. Unknown names give InfoLevel.
func ParseLevel(s string) Level {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "WARNING" {
		return WarnLevel
	}
	for i, name := range levelNames {
		if s == name {
			return Level(i)
		}
	}
	return InfoLevel
}

// Field is one key/value pair attached to an entry.
type Field struct {
	Key   string
	Value any
}

// Logger is implemented by StreamLogger and NopLogger.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	// With returns a child logger that adds fields to every entry.
	With(fields ...Field) Logger
	SetLevel(level Level)
	GetLevel() Level
}

type encoder func(buf *bytes.Buffer, at time.Time, level Level, msg string, fields []Field)

// StreamLogger writes one line per entry to an io.Writer. Children made
// with With share the writer, its lock and the level.
type StreamLogger struct {
	out    io.Writer
	mu     *sync.Mutex
	level  *atomic.Int32
	encode encoder
	fields []Field
}

// NewJSONLogger writes one JSON object per line.
func NewJSONLogger(w io.Writer, level Level) *StreamLogger {
	return newStreamLogger(w, level, encodeJSON)
}

// NewTextLogger writes "15:04:05.000 INFO  msg key=value" lines.
func NewTextLogger(w io.Writer, level Level) *StreamLogger {
	return newStreamLogger(w, level, encodeText)
}

func newStreamLogger(w io.Writer, level Level, enc encoder) *StreamLogger {
	l := &StreamLogger{out: w, mu: &sync.Mutex{}, level: &atomic.Int32{}, encode: enc}
	l.level.Store(int32(level))
	return l
}

func (l *StreamLogger) Debug(msg string, fields ...Field) { l.write(DebugLevel, msg, fields) }
func (l *StreamLogger) Info(msg string, fields ...Field)  { l.write(InfoLevel, msg, fields) }
func (l *StreamLogger) Warn(msg string, fields ...Field)  { l.write(WarnLevel, msg, fields) }
func (l *StreamLogger) Error(msg string, fields ...Field) { l.write(ErrorLevel, msg, fields) }

func (l *StreamLogger) With(fields ...Field) Logger {
	child := *l
	child.fields = merge(l.fields, fields)
	return &child
}

func (l *StreamLogger) SetLevel(level Level) { l.level.Store(int32(level)) }

func (l *StreamLogger) GetLevel() Level { return Level(l.level.Load()) }

func (l *StreamLogger) write(level Level, msg string, fields []Field) {
	if level < l.GetLevel() {
		return
	}
	var buf bytes.Buffer
	l.encode(&buf, time.Now(), level, msg, merge(l.fields, fields))
	buf.WriteByte('\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.out.Write(buf.Bytes())
}

// merge appends extra to base. A repeated key keeps its first position
// and takes the later value.
func merge(base, extra []Field) []Field {
	out := make([]Field, 0, len(base)+len(extra))
	out = append(out, base...)
	for _, f := range extra {
		replaced := false
		for i := range out {
			if out[i].Key == f.Key {
				out[i].Value = f.Value
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, f)
		}
	}
	return out
}

func encodeJSON(buf *bytes.Buffer, at time.Time, level Level, msg string, fields []Field) {
	obj := make(map[string]any, len(fields)+3)
	for _, f := range fields {
		key := f.Key
		if key == "time" || key == "level" || key == "msg" {
			key = "field." + key
		}
		obj[key] = f.Value
	}
	obj["time"] = at.Format(time.RFC3339Nano)
	obj["level"] = level.String()
	obj["msg"] = msg

	data, err := json.Marshal(obj)
	if err != nil {
		fmt.Fprintf(buf, `{"level":"ERROR","msg":"unencodable log entry","error":%q}`, err.Error())
		return
	}
	buf.Write(data)
}

func encodeText(buf *bytes.Buffer, at time.Time, level Level, msg string, fields []Field) {
	fmt.Fprintf(buf, "%s %-5s %s", at.Format("15:04:05.000"), level, msg)
	for _, f := range fields {
		v := fmt.Sprint(f.Value)
		if v == "" || strings.ContainsAny(v, " \t\"=") {
			v = strconv.Quote(v)
		}
		fmt.Fprintf(buf, " %s=%s", f.Key, v)
	}
}

// NopLogger discards everything. Library packages default to it.
type NopLogger struct{}

func (NopLogger) Debug(string, ...Field) {}
func (NopLogger) Info(string, ...Field)  {}
func (NopLogger) Warn(string, ...Field)  {}
func (NopLogger) Error(string, ...Field) {}
func (n NopLogger) With(...Field) Logger { return n }
func (NopLogger) SetLevel(Level)         {}
func (NopLogger) GetLevel() Level        { return ErrorLevel }

func NewNopLogger() Logger { return NopLogger{} }

// OrNop returns l, or a NopLogger when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return NopLogger{}
	}
	return l
}

var (
	defaultMu     sync.Mutex
	defaultLogger Logger
)

// DefaultLogger returns the process logger: text on stderr at the level
// named by KGX_LOG_LEVEL unless SetDefaultLogger replaced it.
func DefaultLogger() Logger {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLogger == nil {
		defaultLogger = NewTextLogger(os.Stderr, ParseLevel(os.Getenv("KGX_LOG_LEVEL")))
	}
	return defaultLogger
}

func SetDefaultLogger(l Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = l
}

// Timer logs one operation with its latency when it ends.
type Timer struct {
	logger Logger
	msg    string
	start  time.Time
	fields []Field
}

// StartTimer begins timing msg. A nil logger is allowed.
func StartTimer(l Logger, msg string, fields ...Field) *Timer {
	return &Timer{logger: OrNop(l), msg: msg, start: time.Now(), fields: fields}
}

func (t *Timer) Elapsed() time.Duration { return time.Since(t.start) }

// End logs at info level with extra fields and the latency.
func (t *Timer) End(extra ...Field) {
	t.logger.Info(t.msg, append(merge(t.fields, extra), Latency(t.Elapsed()))...)
}

// EndError logs at error level with the latency and err.
func (t *Timer) EndError(err error) {
	t.logger.Error(t.msg, append(merge(t.fields, nil), Latency(t.Elapsed()), Error(err))...)
}
