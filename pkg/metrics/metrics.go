package metrics

import "time"

type Metrics interface {
	// Tracking
	RecordStatusEvent(result string)
	RecordLocationEvent(result string)
	RecordLocationPublished(status string)
	RecordUseCaseExecution(useCaseName string, success bool, duration time.Duration)

	// Transport
	RecordReconnectAttempt(outcome string)
	SetConnectionState(state string)
	ObserveHTTPRequestDuration(method, path, statusCode string, duration float64)
	ObserveRESTCallDuration(operation, statusCode string, duration float64)

	// Relay
	RecordBroadcast(event string, recipients int)
	SetActiveRooms(n int)
}

// Nop discards every observation.
type Nop struct{}

func NewNop() Nop { return Nop{} }

func (Nop) RecordStatusEvent(string)                                   {}
func (Nop) RecordLocationEvent(string)                                 {}
func (Nop) RecordLocationPublished(string)                             {}
func (Nop) RecordUseCaseExecution(string, bool, time.Duration)         {}
func (Nop) RecordReconnectAttempt(string)                              {}
func (Nop) SetConnectionState(string)                                  {}
func (Nop) ObserveHTTPRequestDuration(string, string, string, float64) {}
func (Nop) ObserveRESTCallDuration(string, string, float64)            {}
func (Nop) RecordBroadcast(string, int)                                {}
func (Nop) SetActiveRooms(int)                                         {}
