// Package eventlog provides concrete trace.Sink implementations: a logrus
// logger, a JSON lines file, an SQLite database and a fan-out over several
// sinks.
//
// File-backed writers buffer records in memory and only touch the disk when
// a batch fills up or on Close, so recording never stalls the event loop on
// I/O. The first write error is kept and returned by Close; later records are
// dropped.
package eventlog

import (
	"github.com/terminal-sim/terminal-sim/sim/trace"
)

// Writer is a Sink that owns an underlying resource.
type Writer interface {
	trace.Sink
	// Flush pushes buffered records to the underlying storage.
	Flush() error
	// Close flushes and releases the storage. It returns the first error
	// encountered since the writer was opened.
	Close() error
}

type multiSink []trace.Sink

// Multi returns a Sink that forwards every record to each non-nil sink, in
// the order given.
func Multi(sinks ...trace.Sink) trace.Sink {
	var out multiSink
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	if len(out) == 1 {
		return out[0]
	}
	return out
}

func (m multiSink) Record(rec trace.EventRecord) {
	for _, s := range m {
		s.Record(rec)
	}
}
