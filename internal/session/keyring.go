package session

import "github.com/zalando/go-keyring"

// OSKeyring backs the Keyring interface with the platform keychain.
type OSKeyring struct{}

// NewOSKeyring returns the platform keychain wrapper.
func NewOSKeyring() *OSKeyring {
	return &OSKeyring{}
}

// Set stores a secret in the OS keychain.
func (k *OSKeyring) Set(service, user, password string) error {
	return keyring.Set(service, user, password)
}

// Get retrieves a secret from the OS keychain.
func (k *OSKeyring) Get(service, user string) (string, error) {
	return keyring.Get(service, user)
}

// Delete removes a secret from the OS keychain.
func (k *OSKeyring) Delete(service, user string) error {
	return keyring.Delete(service, user)
}
