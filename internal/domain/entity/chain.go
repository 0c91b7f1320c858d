package entity

import "fmt"

// Chain describes a blockchain network the messenger can be bound to.
// The descriptor carries everything a wallet needs to add the network
// (wallet_addEthereumChain parameters).
type Chain struct {
	ChainID          int64    `json:"chainId"`
	ChainIDHex       string   `json:"chainIdHex"`
	Name             string   `json:"name"`
	RPCURL           string   `json:"rpcUrl"`
	BlockExplorerURL string   `json:"blockExplorerUrl"`
	Currency         Currency `json:"nativeCurrency"`
}

// Currency defines the native currency details of a chain.
type Currency struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

// PolygonMainnet is the required chain: the messenger's smart contract is
// deployed there and all sessions are gated behind it. Never mutated at runtime.
var PolygonMainnet = Chain{
	ChainID:          137,
	ChainIDHex:       "0x89",
	Name:             "Polygon Mainnet",
	RPCURL:           "https://polygon-rpc.com",
	BlockExplorerURL: "https://polygonscan.com",
	Currency: Currency{
		Name:     "MATIC",
		Symbol:   "MATIC",
		Decimals: 18,
	},
}

// TxURL returns the block-explorer page for a transaction hash.
func (c Chain) TxURL(txHash string) string {
	return fmt.Sprintf("%s/tx/%s", c.BlockExplorerURL, txHash)
}

// NetworkInfo is the result of probing a wallet provider for its active chain.
type NetworkInfo struct {
	ChainID int64  `json:"chainId"`
	Name    string `json:"name"`
}
