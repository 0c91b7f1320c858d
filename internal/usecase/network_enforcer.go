package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/AleksandrWhite-T/SecureMessenger/internal/config"
	"github.com/AleksandrWhite-T/SecureMessenger/internal/domain/entity"
	"github.com/AleksandrWhite-T/SecureMessenger/internal/domain/service"
	"github.com/AleksandrWhite-T/SecureMessenger/internal/pkg/apperrors"
)

// NetworkEnforcer guarantees the application only operates while the wallet
// provider's active chain equals the required chain. It owns the phase state
// machine; all transitions go through it.
//
// Probes are asynchronous and can be triggered from three sources: startup,
// provider chain-change events, and user-initiated retries or switches. A
// monotonically increasing probe sequence makes the last probe win: a result
// arriving for a superseded probe is discarded instead of applied out of
// order.
type NetworkEnforcer struct {
	source   service.ProviderSource
	required entity.Chain
	cfg      config.ProviderConfig
	logger   *zap.Logger

	mu       sync.Mutex
	phase    entity.Phase
	current  *entity.NetworkInfo
	errMsg   string
	probeSeq uint64
	sub      service.ChainSubscription
	started  bool
}

// NewNetworkEnforcer creates an enforcer over the injected provider source.
func NewNetworkEnforcer(
	source service.ProviderSource,
	required entity.Chain,
	cfg config.ProviderConfig,
	logger *zap.Logger,
) *NetworkEnforcer {
	return &NetworkEnforcer{
		source:   source,
		required: required,
		cfg:      cfg,
		logger:   logger.Named("NetworkEnforcer"),
		phase:    entity.PhaseChecking,
	}
}

// Start runs the initial probe and acquires the chain-change subscription.
// Each provider event schedules its own delayed re-probe; rapid events are
// not coalesced, the sequence rule discards the stale results.
func (e *NetworkEnforcer) Start(ctx context.Context) {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return
	}
	e.started = true
	e.mu.Unlock()

	if provider, ok := e.source.Provider(); ok {
		sub, err := provider.SubscribeChainChanges(ctx, func() {
			time.AfterFunc(e.cfg.EventDelay, func() { e.Refresh(context.Background()) })
		})
		if err != nil {
			e.logger.Warn("Chain-change subscription unavailable", zap.Error(err))
		} else {
			e.mu.Lock()
			e.sub = sub
			e.mu.Unlock()
		}
	}

	e.Refresh(ctx)
}

// Stop releases the chain-change subscription. Called unconditionally at
// teardown regardless of the active phase.
func (e *NetworkEnforcer) Stop() {
	e.mu.Lock()
	sub := e.sub
	e.sub = nil
	e.mu.Unlock()
	if sub != nil {
		sub.Release()
	}
}

// Refresh launches an asynchronous probe of the provider's active chain and
// enters the checking phase. Completion is reported through Status.
func (e *NetworkEnforcer) Refresh(ctx context.Context) {
	e.mu.Lock()
	e.probeSeq++
	seq := e.probeSeq
	e.phase = entity.PhaseChecking
	e.mu.Unlock()

	go e.probe(ctx, seq)
}

// Retry is the user-facing manual re-check; it re-enters Checking from any
// phase.
func (e *NetworkEnforcer) Retry(ctx context.Context) {
	e.Refresh(ctx)
}

func (e *NetworkEnforcer) probe(ctx context.Context, seq uint64) {
	provider, ok := e.source.Provider()
	if !ok {
		e.apply(seq, entity.PhaseProviderMissing, nil, apperrors.ErrProviderMissing.Error())
		return
	}

	probeCtx := ctx
	var cancel context.CancelFunc
	if e.cfg.ProbeTimeout > 0 {
		probeCtx, cancel = context.WithTimeout(ctx, e.cfg.ProbeTimeout)
		defer cancel()
	}

	info, err := provider.CurrentChain(probeCtx)
	if err != nil {
		e.logger.Warn("Network probe failed", zap.Uint64("probe", seq), zap.Error(err))
		e.apply(seq, entity.PhaseCheckFailed, nil, err.Error())
		return
	}

	if info.ChainID == e.required.ChainID {
		e.apply(seq, entity.PhaseCorrect, &info, "")
	} else {
		e.logger.Info("Wrong network detected",
			zap.Int64("currentChainId", info.ChainID),
			zap.Int64("requiredChainId", e.required.ChainID))
		e.apply(seq, entity.PhaseWrongNetwork, &info, "")
	}
}

// apply installs a probe result unless a newer probe has started since.
func (e *NetworkEnforcer) apply(seq uint64, phase entity.Phase, info *entity.NetworkInfo, errMsg string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if seq != e.probeSeq {
		e.logger.Debug("Discarding stale probe result",
			zap.Uint64("probe", seq), zap.Uint64("latest", e.probeSeq))
		return
	}
	e.phase = phase
	e.current = info
	e.errMsg = errMsg
}

// Switch asks the provider to move to the required chain. An unrecognized
// chain (code 4902) triggers exactly one add-chain request with the full
// descriptor; any other failure returns to WrongNetwork with the error
// surfaced. Success is never trusted directly: after the settle delay a fresh
// probe reads the provider's actual state.
func (e *NetworkEnforcer) Switch(ctx context.Context) error {
	provider, ok := e.source.Provider()
	if !ok {
		e.setPhase(entity.PhaseProviderMissing, apperrors.ErrProviderMissing.Error())
		return apperrors.ErrProviderMissing
	}

	e.setPhase(entity.PhaseSwitchingNetwork, "")

	err := provider.SwitchChain(ctx, e.required.ChainIDHex)
	if err != nil {
		var provErr *service.ProviderError
		if errors.As(err, &provErr) && provErr.Code == service.ChainUnrecognizedCode {
			e.logger.Info("Chain unknown to wallet, requesting addition",
				zap.String("chain", e.required.Name))
			if addErr := provider.AddChain(ctx, e.required); addErr != nil {
				e.logger.Error("Add-chain request failed", zap.Error(addErr))
				e.setPhase(entity.PhaseWrongNetwork, addErr.Error())
				return fmt.Errorf("%w: %v", apperrors.ErrAddChainFailed, addErr)
			}
		} else {
			e.logger.Error("Chain switch rejected", zap.Error(err))
			e.setPhase(entity.PhaseWrongNetwork, err.Error())
			return fmt.Errorf("%w: %v", apperrors.ErrSwitchRejected, err)
		}
	}

	e.scheduleSettleProbe()
	return nil
}

// scheduleSettleProbe re-probes after the settle delay instead of trusting
// the switch call's own success signal.
func (e *NetworkEnforcer) scheduleSettleProbe() {
	delay := e.cfg.SettleDelay
	if delay <= 0 {
		e.Refresh(context.Background())
		return
	}
	time.AfterFunc(delay, func() { e.Refresh(context.Background()) })
}

func (e *NetworkEnforcer) setPhase(phase entity.Phase, errMsg string) {
	e.mu.Lock()
	e.phase = phase
	e.errMsg = errMsg
	e.mu.Unlock()
}

// Status returns a snapshot of the gate state.
func (e *NetworkEnforcer) Status() entity.NetworkStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	status := entity.NetworkStatus{
		Phase:           e.phase,
		RequiredChainID: e.required.ChainID,
		RequiredChain:   e.required.Name,
		ErrorMessage:    e.errMsg,
	}
	if e.current != nil {
		info := *e.current
		status.CurrentChain = &info
	}
	return status
}

// Allowed reports whether gated operations may proceed. True only while the
// active chain matches the required chain.
func (e *NetworkEnforcer) Allowed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase == entity.PhaseCorrect
}
