package trace

// TraceLevel controls the verbosity of in-memory event tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelVessel keeps arrival, berth and departure records only.
	TraceLevelVessel TraceLevel = "vessel"
	// TraceLevelContainer keeps every record, including per-container crane and truck events.
	TraceLevelContainer TraceLevel = "container"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:      true,
	TraceLevelVessel:    true,
	TraceLevelContainer: true,
	"":                  true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// SimulationTrace collects event records during a simulation run.
// It implements Sink.
type SimulationTrace struct {
	Config  TraceConfig
	Records []EventRecord
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	return &SimulationTrace{
		Config:  config,
		Records: make([]EventRecord, 0),
	}
}

// Record appends rec if the configured level keeps it.
func (st *SimulationTrace) Record(rec EventRecord) {
	switch st.Config.Level {
	case TraceLevelContainer:
	case TraceLevelVessel:
		if rec.Container != 0 {
			return
		}
	default:
		return
	}
	st.Records = append(st.Records, rec)
}

// ForVessel returns the records of one vessel in emission order.
func (st *SimulationTrace) ForVessel(id int) []EventRecord {
	var out []EventRecord
	for _, rec := range st.Records {
		if rec.Vessel == id {
			out = append(out, rec)
		}
	}
	return out
}
