package wallet

import (
	"fmt"
	"strings"
)

// placeholderPrefix marks unresolved account addresses. The colon keeps a
// placeholder from ever parsing as a bech32m address.
const placeholderPrefix = "pending:account:"

// AddressState is the tagged resolution state of an account address:
// either a pending placeholder or a resolved ledger address. The zero
// value is an unusable empty pending state.
type AddressState struct {
	resolved bool
	value    string
}

// PendingAddress returns the placeholder state for an account index. The
// placeholder embeds the index so repeated derivations of the same account
// are recognizable in logs and output.
func PendingAddress(index uint32) AddressState {
	return AddressState{value: fmt.Sprintf("%s%d", placeholderPrefix, index)}
}

// ResolvedAddress wraps a ledger-native address in a resolved state. The
// caller validates the address before constructing this state.
func ResolvedAddress(address string) AddressState {
	return AddressState{resolved: true, value: address}
}

// Resolved reports whether the state holds a real ledger address.
func (a AddressState) Resolved() bool {
	return a.resolved
}

// String returns the placeholder or the resolved address.
func (a AddressState) String() string {
	return a.value
}

// IsPlaceholderAddress reports whether a raw string carries the
// placeholder marker. Useful at trust boundaries that receive plain
// strings rather than AddressState values.
func IsPlaceholderAddress(s string) bool {
	return strings.HasPrefix(s, placeholderPrefix)
}
