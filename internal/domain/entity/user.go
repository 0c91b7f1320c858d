package entity

import "regexp"

var ethAddressRe = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)

// IsEthereumAddress reports whether a user identifier is shaped like an
// Ethereum address (0x-prefixed, 40 hex characters). Wallet-backed logins use
// the address itself as the identifier; token issuance treats both identifier
// classes the same.
func IsEthereumAddress(userID string) bool {
	return ethAddressRe.MatchString(userID)
}
