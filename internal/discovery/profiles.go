// Package discovery scans derivation schemes for accounts that already
// hold funds. It is used after restoring a mnemonic on a new machine,
// when the set of previously used accounts is unknown.
package discovery

import (
	"github.com/scriplabs/scrip/internal/wallet"
)

// Profile describes one derivation scheme to scan.
type Profile struct {
	// Name identifies the profile in results and CLI flags.
	Name string

	// Scheme is the key derivation scheme the profile scans.
	Scheme wallet.Scheme

	// Description names the wallet software known to use this scheme.
	Description string

	// Priority determines scan order (lower scans first). The highest
	// priority profile gets the extended gap limit.
	Priority int
}

// Priority constants for scan ordering.
const (
	// PriorityNative is the highest priority: the hash scheme every
	// scrip wallet uses by default.
	PriorityNative = 1

	// PriorityInterop covers wallets imported from standard BIP44
	// software.
	PriorityInterop = 2
)

// DefaultProfiles returns the profiles to scan, ordered by how likely
// each scheme is to hold the restored wallet's accounts.
func DefaultProfiles() []Profile {
	return []Profile{
		{
			Name:        string(wallet.SchemeHash),
			Scheme:      wallet.SchemeHash,
			Description: "scrip default derivation",
			Priority:    PriorityNative,
		},
		{
			Name:        string(wallet.SchemeBIP44),
			Scheme:      wallet.SchemeBIP44,
			Description: "hardware and interop wallets (SLIP-0044 path)",
			Priority:    PriorityInterop,
		},
	}
}

// ProfileByName returns a profile by its name, or nil if not found.
func ProfileByName(name string) *Profile {
	for _, profile := range DefaultProfiles() {
		if profile.Name == name {
			return &profile
		}
	}
	return nil
}

// SortByPriority returns profiles sorted by priority (ascending).
func SortByPriority(profiles []Profile) []Profile {
	result := make([]Profile, len(profiles))
	copy(result, profiles)

	// Insertion sort: the slice is small and stability matters.
	for i := 1; i < len(result); i++ {
		key := result[i]
		j := i - 1
		for j >= 0 && result[j].Priority > key.Priority {
			result[j+1] = result[j]
			j--
		}
		result[j+1] = key
	}

	return result
}
