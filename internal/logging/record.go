// Package logging implements the hot-path log producer contract from
// spec.md §9: the calling goroutine never formats or allocates a string;
// it pushes a small tagged Record onto an SPSC queue, and a single
// consumer goroutine renders each one through zap. The only escape hatch
// is an owned formatted string, which callers should keep off hot paths.
package logging

import "time"

type Level uint8

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

type scalarKind uint8

const (
	scalarNone scalarKind = iota
	scalarInt
	scalarUint
	scalarFloat
)

// Record is the tagged log message shape: a static string, optionally
// with one scalar field, or — rarely, and never on a hot path — an
// owned formatted string.
type Record struct {
	TimestampNs int64
	Level       Level
	Msg         string
	Field       string

	kind  scalarKind
	ival  int64
	uval  uint64
	fval  float64

	Formatted string
}

func newRecord(level Level, msg string) Record {
	return Record{TimestampNs: time.Now().UnixNano(), Level: level, Msg: msg}
}

// WithInt, WithUint and WithFloat attach the record's single optional
// scalar. At most one of these should be called per record.
func (r Record) WithInt(field string, v int64) Record {
	r.kind, r.Field, r.ival = scalarInt, field, v
	return r
}

func (r Record) WithUint(field string, v uint64) Record {
	r.kind, r.Field, r.uval = scalarUint, field, v
	return r
}

func (r Record) WithFloat(field string, v float64) Record {
	r.kind, r.Field, r.fval = scalarFloat, field, v
	return r
}

// HasScalar, Int, Uint and Float let the consumer extract the attached
// scalar without a type switch on an interface{}.
func (r Record) HasScalar() bool    { return r.kind != scalarNone }
func (r Record) Int() (int64, bool)   { return r.ival, r.kind == scalarInt }
func (r Record) Uint() (uint64, bool) { return r.uval, r.kind == scalarUint }
func (r Record) Float() (float64, bool) { return r.fval, r.kind == scalarFloat }
