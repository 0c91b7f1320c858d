package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AleksandrWhite-T/SecureMessenger/internal/config"
	"github.com/AleksandrWhite-T/SecureMessenger/internal/domain/entity"
	"github.com/AleksandrWhite-T/SecureMessenger/internal/domain/service"
	"github.com/AleksandrWhite-T/SecureMessenger/internal/pkg/apperrors"
)

const eventuallyTick = 5 * time.Millisecond

// stubProvider is a controllable service.WalletProvider.
type stubProvider struct {
	mu        sync.Mutex
	currentFn func(ctx context.Context) (entity.NetworkInfo, error)
	switchErr error

	switchCalls int32
	addCalls    int32

	handler  func()
	subErr   error
	released atomic.Bool
}

var _ service.WalletProvider = (*stubProvider)(nil)

func (p *stubProvider) CurrentChain(ctx context.Context) (entity.NetworkInfo, error) {
	p.mu.Lock()
	fn := p.currentFn
	p.mu.Unlock()
	if fn == nil {
		return entity.NetworkInfo{ChainID: 137, Name: "Polygon Mainnet"}, nil
	}
	return fn(ctx)
}

func (p *stubProvider) SwitchChain(_ context.Context, _ string) error {
	atomic.AddInt32(&p.switchCalls, 1)
	return p.switchErr
}

func (p *stubProvider) AddChain(_ context.Context, _ entity.Chain) error {
	atomic.AddInt32(&p.addCalls, 1)
	return nil
}

func (p *stubProvider) SubscribeChainChanges(_ context.Context, handler func()) (service.ChainSubscription, error) {
	if p.subErr != nil {
		return nil, p.subErr
	}
	p.mu.Lock()
	p.handler = handler
	p.mu.Unlock()
	return stubSubscription{released: &p.released}, nil
}

func (p *stubProvider) setCurrent(fn func(ctx context.Context) (entity.NetworkInfo, error)) {
	p.mu.Lock()
	p.currentFn = fn
	p.mu.Unlock()
}

func (p *stubProvider) fireChainChanged() {
	p.mu.Lock()
	handler := p.handler
	p.mu.Unlock()
	if handler != nil {
		handler()
	}
}

type stubSubscription struct {
	released *atomic.Bool
}

func (s stubSubscription) Release() { s.released.Store(true) }

func testEnforcer(p *stubProvider) *NetworkEnforcer {
	var source service.ProviderSource = service.StaticProviderSource{}
	if p != nil {
		source = service.StaticProviderSource{P: p}
	}
	cfg := config.ProviderConfig{
		ProbeTimeout: time.Second,
		EventDelay:   10 * time.Millisecond,
		SettleDelay:  10 * time.Millisecond,
	}
	return NewNetworkEnforcer(source, entity.PolygonMainnet, cfg, zap.NewNop())
}

func waitForPhase(t *testing.T, e *NetworkEnforcer, phase entity.Phase) {
	t.Helper()
	require.Eventually(t, func() bool {
		return e.Status().Phase == phase
	}, time.Second, eventuallyTick, "expected phase %s, got %s", phase, e.Status().Phase)
}

func TestNetworkEnforcer_CorrectChain(t *testing.T) {
	provider := &stubProvider{}
	e := testEnforcer(provider)
	e.Start(context.Background())
	defer e.Stop()

	waitForPhase(t, e, entity.PhaseCorrect)
	status := e.Status()
	require.NotNil(t, status.CurrentChain)
	assert.Equal(t, int64(137), status.CurrentChain.ChainID)
	assert.True(t, e.Allowed())
}

func TestNetworkEnforcer_WrongChain(t *testing.T) {
	provider := &stubProvider{}
	provider.setCurrent(func(context.Context) (entity.NetworkInfo, error) {
		return entity.NetworkInfo{ChainID: 1, Name: "Ethereum Mainnet"}, nil
	})
	e := testEnforcer(provider)
	e.Start(context.Background())
	defer e.Stop()

	waitForPhase(t, e, entity.PhaseWrongNetwork)
	status := e.Status()
	require.NotNil(t, status.CurrentChain)
	assert.Equal(t, int64(1), status.CurrentChain.ChainID)
	assert.Equal(t, "Ethereum Mainnet", status.CurrentChain.Name)
	assert.False(t, e.Allowed())
}

func TestNetworkEnforcer_ProbeFailure(t *testing.T) {
	provider := &stubProvider{}
	provider.setCurrent(func(context.Context) (entity.NetworkInfo, error) {
		return entity.NetworkInfo{}, errors.New("bridge unreachable")
	})
	e := testEnforcer(provider)
	e.Start(context.Background())
	defer e.Stop()

	waitForPhase(t, e, entity.PhaseCheckFailed)
	assert.Equal(t, "bridge unreachable", e.Status().ErrorMessage)
	assert.False(t, e.Allowed())
}

func TestNetworkEnforcer_ProviderMissing(t *testing.T) {
	e := testEnforcer(nil)
	e.Start(context.Background())
	defer e.Stop()

	waitForPhase(t, e, entity.PhaseProviderMissing)
	assert.False(t, e.Allowed())

	// Manual retry re-enters checking and lands in the same place while the
	// provider stays absent.
	e.Retry(context.Background())
	waitForPhase(t, e, entity.PhaseProviderMissing)
}

func TestNetworkEnforcer_LastProbeWins(t *testing.T) {
	started := make(chan int32, 2)
	gateA := make(chan struct{})
	gateB := make(chan struct{})
	var calls int32

	provider := &stubProvider{}
	provider.setCurrent(func(context.Context) (entity.NetworkInfo, error) {
		n := atomic.AddInt32(&calls, 1)
		started <- n
		switch n {
		case 1:
			<-gateA
			return entity.NetworkInfo{ChainID: 1, Name: "Ethereum Mainnet"}, nil
		default:
			<-gateB
			return entity.NetworkInfo{ChainID: 137, Name: "Polygon Mainnet"}, nil
		}
	})

	e := testEnforcer(provider)
	e.Refresh(context.Background()) // probe A
	<-started
	e.Refresh(context.Background()) // probe B supersedes A
	<-started

	// A completes first with the wrong chain; its result must be discarded.
	close(gateA)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, entity.PhaseChecking, e.Status().Phase,
		"superseded probe result must not be applied")

	close(gateB)
	waitForPhase(t, e, entity.PhaseCorrect)
}

func TestNetworkEnforcer_SwitchUnrecognizedChainTriggersAdd(t *testing.T) {
	provider := &stubProvider{
		switchErr: &service.ProviderError{Code: service.ChainUnrecognizedCode, Message: "unknown chain"},
	}
	e := testEnforcer(provider)

	err := e.Switch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&provider.addCalls),
		"unrecognized chain must trigger exactly one add-chain request")

	// The settle probe reads the provider's actual state afterwards.
	waitForPhase(t, e, entity.PhaseCorrect)
}

func TestNetworkEnforcer_SwitchRejected(t *testing.T) {
	provider := &stubProvider{
		switchErr: &service.ProviderError{Code: 4001, Message: "user rejected"},
	}
	e := testEnforcer(provider)

	err := e.Switch(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrSwitchRejected)
	assert.Equal(t, int32(0), atomic.LoadInt32(&provider.addCalls),
		"only the unrecognized-chain code may trigger add-chain")
	assert.Equal(t, entity.PhaseWrongNetwork, e.Status().Phase)
}

func TestNetworkEnforcer_ChainChangeEventSchedulesReprobe(t *testing.T) {
	provider := &stubProvider{}
	provider.setCurrent(func(context.Context) (entity.NetworkInfo, error) {
		return entity.NetworkInfo{ChainID: 1, Name: "Ethereum Mainnet"}, nil
	})
	e := testEnforcer(provider)
	e.Start(context.Background())
	defer e.Stop()

	waitForPhase(t, e, entity.PhaseWrongNetwork)

	// Wallet-side switch to the required chain, then the event arrives.
	provider.setCurrent(nil)
	provider.fireChainChanged()
	waitForPhase(t, e, entity.PhaseCorrect)
}

func TestNetworkEnforcer_StopReleasesSubscription(t *testing.T) {
	provider := &stubProvider{}
	e := testEnforcer(provider)
	e.Start(context.Background())
	waitForPhase(t, e, entity.PhaseCorrect)

	e.Stop()
	assert.True(t, provider.released.Load(), "teardown must release the chain-change subscription")
}
