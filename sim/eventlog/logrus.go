package eventlog

import (
	"github.com/sirupsen/logrus"

	"github.com/terminal-sim/terminal-sim/sim/trace"
)

// LogrusSink prints each record as "<time>: <message>" through a logrus
// logger, with the run ID, kind and vessel attached as fields.
type LogrusSink struct {
	Logger logrus.FieldLogger
	Level  logrus.Level
}

// NewLogrusSink returns a sink writing to the standard logrus logger at Info.
func NewLogrusSink() *LogrusSink {
	return &LogrusSink{Logger: logrus.StandardLogger(), Level: logrus.InfoLevel}
}

// Record implements trace.Sink.
func (s *LogrusSink) Record(rec trace.EventRecord) {
	fields := logrus.Fields{
		"run":    rec.RunID,
		"kind":   rec.Kind,
		"vessel": rec.Vessel,
	}
	if rec.Container != 0 {
		fields["container"] = rec.Container
	}
	entry := s.Logger.WithFields(fields)
	switch s.Level {
	case logrus.TraceLevel:
		entry.Tracef("%.2f: %s", rec.Time, rec.Message)
	case logrus.DebugLevel:
		entry.Debugf("%.2f: %s", rec.Time, rec.Message)
	default:
		entry.Infof("%.2f: %s", rec.Time, rec.Message)
	}
}
