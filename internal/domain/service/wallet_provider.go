package service

import (
	"context"
	"fmt"

	"github.com/AleksandrWhite-T/SecureMessenger/internal/domain/entity"
)

// ChainUnrecognizedCode is the provider error code meaning the requested chain
// is not configured in the wallet and must be added first (EIP-3085/3326).
const ChainUnrecognizedCode = 4902

// ProviderError is a structured error reported by the wallet provider. Switch
// and add requests surface these so callers can branch on the code.
type ProviderError struct {
	Code    int
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error %d: %s", e.Code, e.Message)
}

// WalletProvider is the capability surface of an attached wallet. Adapters
// translate these calls into whatever transport the wallet bridge speaks.
type WalletProvider interface {
	// CurrentChain probes the provider for its active chain.
	CurrentChain(ctx context.Context) (entity.NetworkInfo, error)

	// SwitchChain asks the provider to switch to the chain with the given hex
	// identifier. Returns a *ProviderError with ChainUnrecognizedCode when the
	// wallet does not know the chain.
	SwitchChain(ctx context.Context, chainIDHex string) error

	// AddChain asks the provider to add a chain using its full descriptor.
	AddChain(ctx context.Context, chain entity.Chain) error

	// SubscribeChainChanges registers a handler invoked whenever the provider
	// reports a chain change. The returned subscription must be released by
	// the caller when the gate is torn down.
	SubscribeChainChanges(ctx context.Context, handler func()) (ChainSubscription, error)
}

// ChainSubscription is a scoped handle on a chain-change event stream.
type ChainSubscription interface {
	// Release tears the subscription down. Safe to call more than once.
	Release()
}

// ProviderSource resolves the wallet provider capability. The gate never
// reads ambient global state; absence of a provider is an explicit variant.
type ProviderSource interface {
	// Provider returns the attached wallet provider, or false when none is
	// available.
	Provider() (WalletProvider, bool)
}

// StaticProviderSource is a ProviderSource over a fixed provider value. A nil
// provider models the absent variant.
type StaticProviderSource struct {
	P WalletProvider
}

func (s StaticProviderSource) Provider() (WalletProvider, bool) {
	if s.P == nil {
		return nil, false
	}
	return s.P, true
}
