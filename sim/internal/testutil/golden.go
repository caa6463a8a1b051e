// Package testutil provides shared test infrastructure for the terminal
// simulator: the golden scenario dataset and assertion helpers used by
// sim/terminal/ tests.
package testutil

import (
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	jsoniter "github.com/json-iterator/go"
)

// GoldenDataset represents the structure of testdata/goldendataset.json.
type GoldenDataset struct {
	Tests []GoldenTestCase `json:"tests"`
}

// GoldenTestCase is one fully deterministic terminal scenario: arrivals are
// replayed from explicit gaps, so the expected figures can be derived by hand.
type GoldenTestCase struct {
	Name                string        `json:"name"`
	Berths              int           `json:"berths"`
	Cranes              int           `json:"cranes"`
	Trucks              int           `json:"trucks"`
	ContainersPerVessel int           `json:"containers_per_vessel"`
	CraneServiceTime    float64       `json:"crane_service_time"`
	TruckTripTime       float64       `json:"truck_trip_time"`
	ArrivalGaps         []float64     `json:"arrival_gaps"`
	Horizon             float64       `json:"horizon"`
	Metrics             GoldenMetrics `json:"metrics"`
}

// GoldenMetrics represents the expected outcome of a golden test case.
type GoldenMetrics struct {
	VesselsArrived   int     `json:"vessels_arrived"`
	VesselsProcessed int     `json:"vessels_processed"`
	VesselsDeparted  int     `json:"vessels_departed"`
	AverageBerthWait float64 `json:"average_berth_wait"`
	Makespan         float64 `json:"makespan"`

	// Per-vessel, in vessel ID order; only vessels that reached the stage.
	BerthTimes     []float64 `json:"berth_times"`
	DepartureTimes []float64 `json:"departure_times"`
}

// LoadGoldenDataset loads the golden dataset from the testdata directory.
// The path is resolved relative to this source file: sim/internal/testutil/ → testdata/.
func LoadGoldenDataset(t *testing.T) *GoldenDataset {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	// Navigate from sim/internal/testutil/ to repo root testdata/
	path := filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "testdata", "goldendataset.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read golden dataset: %v", err)
	}

	var dataset GoldenDataset
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(data, &dataset); err != nil {
		t.Fatalf("Failed to parse golden dataset: %v", err)
	}

	return &dataset
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
