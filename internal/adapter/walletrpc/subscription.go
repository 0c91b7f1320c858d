package walletrpc

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/AleksandrWhite-T/SecureMessenger/internal/domain/service"
)

// Compile-time check
var _ service.ChainSubscription = (*chainSubscription)(nil)

// subscribePayload asks the bridge to push chain-change events on this socket.
var subscribePayload = []byte(`{"jsonrpc":"2.0","method":"eth_subscribe","params":["chainChanged"],"id":1}`)

// chainSubscription is a websocket read loop that invokes the handler on
// every pushed event. Release closes the socket, which unblocks the loop.
type chainSubscription struct {
	conn   *websocket.Conn
	logger *zap.Logger
	once   sync.Once
}

// SubscribeChainChanges dials the bridge websocket and streams chain-change
// events to the handler. Fails when no websocket endpoint is configured; the
// enforcer then falls back to manual retries only.
func (p *Provider) SubscribeChainChanges(ctx context.Context, handler func()) (service.ChainSubscription, error) {
	if p.wsURL == "" {
		return nil, fmt.Errorf("no websocket endpoint configured for chain events")
	}

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, p.wsURL, nil)
	if err != nil {
		p.logger.Debug("Chain event websocket dial failed", zap.String("url", p.wsURL), zap.Error(err))
		return nil, fmt.Errorf("chain event dial to %s failed: %w", p.wsURL, err)
	}

	if err := conn.WriteMessage(websocket.TextMessage, subscribePayload); err != nil {
		conn.Close()
		return nil, fmt.Errorf("chain event subscribe failed: %w", err)
	}

	sub := &chainSubscription{conn: conn, logger: p.logger}
	go sub.readLoop(handler)

	p.logger.Info("Subscribed to chain-change events", zap.String("url", p.wsURL))
	return sub, nil
}

func (s *chainSubscription) readLoop(handler func()) {
	// First frame is the subscription confirmation; every frame after that is
	// treated as a chain-change signal. The payload content is irrelevant:
	// the enforcer re-probes the provider rather than trusting pushed state.
	confirmed := false
	for {
		_, _, err := s.conn.ReadMessage()
		if err != nil {
			s.logger.Debug("Chain event stream closed", zap.Error(err))
			return
		}
		if !confirmed {
			confirmed = true
			continue
		}
		handler()
	}
}

// Release tears the subscription down. Safe to call more than once.
func (s *chainSubscription) Release() {
	s.once.Do(func() {
		if err := s.conn.Close(); err != nil {
			s.logger.Debug("Error closing chain event socket", zap.Error(err))
		}
	})
}
