package entity

// Phase is the state of the network enforcement gate. Exactly one phase is
// active at a time; only PhaseCorrect lets gated operations through.
type Phase string

const (
	// PhaseChecking means a probe of the wallet provider is in flight.
	PhaseChecking Phase = "checking"

	// PhaseProviderMissing means no wallet provider is available. Terminal
	// until a manual retry.
	PhaseProviderMissing Phase = "provider_missing"

	// PhaseCheckFailed means the provider is present but the probe errored.
	PhaseCheckFailed Phase = "check_failed"

	// PhaseWrongNetwork means the probe succeeded but the active chain is not
	// the required one.
	PhaseWrongNetwork Phase = "wrong_network"

	// PhaseSwitchingNetwork means a switch or add-then-switch request is in
	// flight.
	PhaseSwitchingNetwork Phase = "switching_network"

	// PhaseCorrect means the active chain matches the required chain.
	PhaseCorrect Phase = "correct"
)

// NetworkStatus is a snapshot of the enforcement gate. It is recreated on
// every probe; callers never mutate it.
type NetworkStatus struct {
	Phase            Phase        `json:"phase"`
	CurrentChain     *NetworkInfo `json:"currentChain,omitempty"`
	RequiredChainID  int64        `json:"requiredChainId"`
	RequiredChain    string       `json:"requiredChain"`
	ErrorMessage     string       `json:"errorMessage,omitempty"`
}
