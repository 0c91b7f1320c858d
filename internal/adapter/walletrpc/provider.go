package walletrpc

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/AleksandrWhite-T/SecureMessenger/internal/config"
	"github.com/AleksandrWhite-T/SecureMessenger/internal/domain/entity"
	"github.com/AleksandrWhite-T/SecureMessenger/internal/domain/service"
	"github.com/AleksandrWhite-T/SecureMessenger/internal/pkg/apperrors"
)

// Compile-time check
var _ service.WalletProvider = (*Provider)(nil)

// Provider speaks JSON-RPC to a wallet bridge endpoint: chain probes over
// HTTP, chain-change events over a websocket subscription.
type Provider struct {
	client *fasthttp.Client
	rpcURL string
	wsURL  string
	logger *zap.Logger
	nextID uint64
}

// NewProvider creates a wallet-bridge provider from config.
func NewProvider(cfg config.ProviderConfig, logger *zap.Logger) *Provider {
	return &Provider{
		client: &fasthttp.Client{
			ReadTimeout: 10 * time.Second,
		},
		rpcURL: cfg.RPCURL,
		wsURL:  cfg.WSURL,
		logger: logger.Named("WalletRPC"),
	}
}

// jsonRPCRequest is the wire shape of an outgoing JSON-RPC call.
type jsonRPCRequest struct {
	Jsonrpc string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      uint64        `json:"id"`
}

// jsonRPCResponse defines the basic structure for a JSON-RPC response.
type jsonRPCResponse struct {
	ID      interface{}     `json:"id"`
	Jsonrpc string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *jsonRPCError   `json:"error,omitempty"`
}

// jsonRPCError defines the structure for a JSON-RPC error.
type jsonRPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// CurrentChain probes the active chain via eth_chainId.
func (p *Provider) CurrentChain(ctx context.Context) (entity.NetworkInfo, error) {
	result, err := p.call(ctx, "eth_chainId", nil)
	if err != nil {
		return entity.NetworkInfo{}, fmt.Errorf("%w: %v", apperrors.ErrProbeFailed, err)
	}

	var hexID string
	if err := json.Unmarshal(result, &hexID); err != nil {
		return entity.NetworkInfo{}, fmt.Errorf("%w: invalid eth_chainId result: %v", apperrors.ErrProbeFailed, err)
	}

	chainID, err := parseHexChainID(hexID)
	if err != nil {
		return entity.NetworkInfo{}, fmt.Errorf("%w: %v", apperrors.ErrProbeFailed, err)
	}

	return entity.NetworkInfo{ChainID: chainID, Name: chainName(chainID)}, nil
}

// SwitchChain issues wallet_switchEthereumChain for the hex chain id.
func (p *Provider) SwitchChain(ctx context.Context, chainIDHex string) error {
	_, err := p.call(ctx, "wallet_switchEthereumChain", []interface{}{
		map[string]string{"chainId": chainIDHex},
	})
	return err
}

// addChainParams is the EIP-3085 wallet_addEthereumChain parameter object.
type addChainParams struct {
	ChainID           string          `json:"chainId"`
	ChainName         string          `json:"chainName"`
	RPCURLs           []string        `json:"rpcUrls"`
	BlockExplorerURLs []string        `json:"blockExplorerUrls"`
	NativeCurrency    entity.Currency `json:"nativeCurrency"`
}

// AddChain issues wallet_addEthereumChain with the full chain descriptor.
func (p *Provider) AddChain(ctx context.Context, chain entity.Chain) error {
	_, err := p.call(ctx, "wallet_addEthereumChain", []interface{}{
		addChainParams{
			ChainID:           chain.ChainIDHex,
			ChainName:         chain.Name,
			RPCURLs:           []string{chain.RPCURL},
			BlockExplorerURLs: []string{chain.BlockExplorerURL},
			NativeCurrency:    chain.Currency,
		},
	})
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrAddChainFailed, err)
	}
	return nil
}

// call performs one JSON-RPC round trip. A structured JSON-RPC error comes
// back as a *service.ProviderError so callers can branch on the code.
func (p *Provider) call(ctx context.Context, method string, params []interface{}) (json.RawMessage, error) {
	if params == nil {
		params = []interface{}{}
	}
	payload, err := json.Marshal(jsonRPCRequest{
		Jsonrpc: "2.0",
		Method:  method,
		Params:  params,
		ID:      atomic.AddUint64(&p.nextID, 1),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s request: %w", method, err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(p.rpcURL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(payload)

	timeout := p.client.ReadTimeout
	if deadline, ok := ctx.Deadline(); ok {
		requestTimeout := time.Until(deadline)
		if requestTimeout > 0 && (timeout <= 0 || requestTimeout < timeout) {
			timeout = requestTimeout
		}
	}

	var requestErr error
	if timeout <= 0 {
		requestErr = p.client.Do(req, resp)
	} else {
		requestErr = p.client.DoTimeout(req, resp, timeout)
	}
	if requestErr != nil {
		p.logger.Debug("Wallet RPC request failed",
			zap.String("method", method), zap.Error(requestErr))
		return nil, fmt.Errorf("rpc request %s failed: %w", method, requestErr)
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		p.logger.Debug("Wallet RPC returned non-OK status",
			zap.String("method", method), zap.Int("statusCode", resp.StatusCode()))
		return nil, fmt.Errorf("rpc %s returned status %d", method, resp.StatusCode())
	}

	var rpcResp jsonRPCResponse
	if err := json.Unmarshal(resp.Body(), &rpcResp); err != nil {
		p.logger.Debug("Wallet RPC returned invalid JSON",
			zap.String("method", method), zap.ByteString("body", resp.Body()), zap.Error(err))
		return nil, fmt.Errorf("rpc %s returned invalid JSON: %w", method, err)
	}

	if rpcResp.Error != nil {
		p.logger.Debug("Wallet RPC returned error",
			zap.String("method", method),
			zap.Int("errorCode", rpcResp.Error.Code),
			zap.String("errorMessage", rpcResp.Error.Message))
		return nil, &service.ProviderError{Code: rpcResp.Error.Code, Message: rpcResp.Error.Message}
	}

	return rpcResp.Result, nil
}

func parseHexChainID(hexID string) (int64, error) {
	trimmed := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(hexID)), "0x")
	if trimmed == "" {
		return 0, fmt.Errorf("empty chain id %q", hexID)
	}
	id, err := strconv.ParseInt(trimmed, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid chain id %q: %w", hexID, err)
	}
	return id, nil
}

// knownChainNames covers the networks users actually land on; anything else
// is reported by number only.
var knownChainNames = map[int64]string{
	1:     "Ethereum Mainnet",
	10:    "OP Mainnet",
	56:    "BNB Smart Chain",
	137:   "Polygon Mainnet",
	8453:  "Base",
	42161: "Arbitrum One",
	80002: "Polygon Amoy",
}

func chainName(chainID int64) string {
	if name, ok := knownChainNames[chainID]; ok {
		return name
	}
	return fmt.Sprintf("chain %d", chainID)
}
