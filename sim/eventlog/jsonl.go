package eventlog

import (
	"bufio"
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"

	"github.com/terminal-sim/terminal-sim/sim/trace"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// JSONLinesWriter writes one JSON object per record to a file.
type JSONLinesWriter struct {
	path   string
	file   *os.File
	buf    *bufio.Writer
	stream *jsoniter.Stream
	err    error
	closed bool
}

// NewJSONLinesWriter creates the file at path, or terminal_trace_<id>.jsonl
// in the working directory when path is empty. An existing file is truncated.
func NewJSONLinesWriter(path string) (*JSONLinesWriter, error) {
	if path == "" {
		path = "terminal_trace_" + xid.New().String() + ".jsonl"
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating JSON lines trace: %w", err)
	}
	buf := bufio.NewWriter(f)
	w := &JSONLinesWriter{
		path:   path,
		file:   f,
		buf:    buf,
		stream: jsoniter.NewStream(json, buf, 4096),
	}
	atexit.Register(func() { _ = w.Close() })
	return w, nil
}

// Path returns the file the writer appends to.
func (w *JSONLinesWriter) Path() string { return w.path }

// Record implements trace.Sink.
func (w *JSONLinesWriter) Record(rec trace.EventRecord) {
	if w.err != nil || w.closed {
		return
	}
	w.stream.WriteVal(rec)
	w.stream.WriteRaw("\n")
	if w.stream.Error != nil {
		w.err = fmt.Errorf("encoding record %d: %w", rec.Seq, w.stream.Error)
		return
	}
	if w.stream.Buffered() >= 4096 {
		w.err = w.stream.Flush()
	}
}

// Flush implements Writer.
func (w *JSONLinesWriter) Flush() error {
	if w.err != nil || w.closed {
		return w.err
	}
	if err := w.stream.Flush(); err != nil {
		w.err = err
		return err
	}
	if err := w.buf.Flush(); err != nil {
		w.err = err
	}
	return w.err
}

// Close implements Writer. It is safe to call more than once.
func (w *JSONLinesWriter) Close() error {
	if w.closed {
		return w.err
	}
	_ = w.Flush()
	w.closed = true
	if err := w.file.Close(); err != nil && w.err == nil {
		w.err = err
	}
	return w.err
}
