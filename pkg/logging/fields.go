package logging

import "time"

func String(key, value string) Field { return Field{Key: key, Value: value} }

func Int(key string, value int) Field { return Field{Key: key, Value: value} }

func Strings(key string, values []string) Field { return Field{Key: key, Value: values} }

// Duration records d in its String form.
func Duration(key string, d time.Duration) Field { return Field{Key: key, Value: d.String()} }

// Error records err's message under "error"; nil stays nil.
func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

func Component(name string) Field { return String("component", name) }

func Operation(op string) Field { return String("operation", op) }

// NodeID names a graph node or ontology term.
func NodeID(id string) Field { return String("node_id", id) }

// Format names a serialization format such as "csv" or "nt".
func Format(name string) Field { return String("format", name) }

// Source names an input file, database or merge target.
func Source(name string) Field { return String("source", name) }

func Category(name string) Field { return String("category", name) }

func Latency(d time.Duration) Field { return Duration("latency", d) }

func Count(n int) Field { return Int("count", n) }

func Path(p string) Field { return String("path", p) }
