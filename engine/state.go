package engine

// State is the lifecycle position of a single turn.
//
//	Idle → TimerStarted → FanOutInFlight → AggregationInFlight → Completed
//	                  ↘               ↘                    ↘ Failed
type State int

const (
	StateIdle State = iota
	StateTimerStarted
	StateFanOutInFlight
	StateAggregationInFlight
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateTimerStarted:
		return "timer_started"
	case StateFanOutInFlight:
		return "fan_out_in_flight"
	case StateAggregationInFlight:
		return "aggregation_in_flight"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool { return s == StateCompleted || s == StateFailed }
