package tristate

import "testing"

func TestSignalNames(t *testing.T) {
	tests := []struct {
		name string
		got  string
	}{
		{"tristate.condition.started", ConditionStarted.Name()},
		{"tristate.condition.stopped", ConditionStopped.Name()},
		{"tristate.condition.changed", ConditionChanged.Name()},
		{"tristate.callback.panicked", CallbackPanicked.Name()},
		{"tristate.source.failed", SourceFailed.Name()},
		{"tristate.source.change.received", SourceChangeReceived.Name()},
	}
	for _, tt := range tests {
		if tt.got != tt.name {
			t.Errorf("expected name %q, got %q", tt.name, tt.got)
		}
	}
}
