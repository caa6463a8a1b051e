package terminal

import "fmt"

// VesselState tracks where a vessel is in its lifecycle.
type VesselState int

const (
	StateArrived VesselState = iota
	StateAwaitingBerth
	StateBerthed
	StateAwaitingCrane
	StateLifting
	StateAwaitingTruck
	StateHauling
	StateDeparted
)

func (s VesselState) String() string {
	switch s {
	case StateArrived:
		return "arrived"
	case StateAwaitingBerth:
		return "awaiting_berth"
	case StateBerthed:
		return "berthed"
	case StateAwaitingCrane:
		return "awaiting_crane"
	case StateLifting:
		return "lifting"
	case StateAwaitingTruck:
		return "awaiting_truck"
	case StateHauling:
		return "hauling"
	case StateDeparted:
		return "departed"
	default:
		return fmt.Sprintf("VesselState(%d)", int(s))
	}
}

// Vessel is one ship calling at the terminal. It is owned by its lifecycle
// process; BerthTime and DepartureTime are only meaningful once Berthed and
// Departed are set.
type Vessel struct {
	ID    int
	Name  string
	State VesselState

	ArrivalTime   float64
	BerthTime     float64
	DepartureTime float64
	Berthed       bool
	Departed      bool

	ContainersTotal     int
	ContainersRemaining int

	CraneHold float64 // Total time spent holding a crane
	TruckHold float64 // Total time spent holding a truck
	CraneWait float64 // Total time spent queued for a crane
	TruckWait float64 // Total time spent queued for a truck
}

func newVessel(id int, now float64, containers int) *Vessel {
	return &Vessel{
		ID:                  id,
		Name:                fmt.Sprintf("Vessel_%d", id),
		State:               StateArrived,
		ArrivalTime:         now,
		ContainersTotal:     containers,
		ContainersRemaining: containers,
	}
}

// BerthWait returns the time between arrival and berthing.
func (v *Vessel) BerthWait() float64 {
	if !v.Berthed {
		return 0
	}
	return v.BerthTime - v.ArrivalTime
}
