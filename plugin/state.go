package plugin

// ActivationState is whether a plugin is currently switched on.
type ActivationState string

const (
	StateActive   ActivationState = "active"
	StateInactive ActivationState = "inactive"
)

// Valid reports whether s is a known activation state.
func (s ActivationState) Valid() bool {
	return s == StateActive || s == StateInactive
}

// IsActive returns true for StateActive.
func (s ActivationState) IsActive() bool {
	return s == StateActive
}

// Opposite returns the state a toggle would move to.
func (s ActivationState) Opposite() ActivationState {
	if s == StateActive {
		return StateInactive
	}
	return StateActive
}

func (s ActivationState) String() string {
	return string(s)
}
