package tristate

// MetricsProvider allows integration with metrics systems like Prometheus, StatsD, etc.
// Implement this interface to receive callbacks on key condition events.
// Every method receives the condition name set with Named.
type MetricsProvider interface {
	// OnStart is called when the first subscriber launches monitoring.
	OnStart(name string)

	// OnStop is called when the last subscriber is removed.
	OnStop(name string)

	// OnChange is called on every state transition.
	OnChange(name string, from, to TriState)

	// OnCallbackPanic is called when a subscriber panics during delivery.
	OnCallbackPanic(name string)

	// OnSourceFailure is called when a monitor fails to read or evaluate its source.
	// Stage is one of "watch", "unmarshal" or "pipeline".
	OnSourceFailure(name, stage string)
}

// NoOpMetricsProvider is a no-op implementation of MetricsProvider.
// Use this as an embedded type to implement only the methods you need.
type NoOpMetricsProvider struct{}

func (NoOpMetricsProvider) OnStart(_ string)                   {}
func (NoOpMetricsProvider) OnStop(_ string)                    {}
func (NoOpMetricsProvider) OnChange(_ string, _, _ TriState)   {}
func (NoOpMetricsProvider) OnCallbackPanic(_ string)           {}
func (NoOpMetricsProvider) OnSourceFailure(_ string, _ string) {}
