package cache

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/scriplabs/scrip/internal/ledger"
	"github.com/scriplabs/scrip/internal/metrics"
)

// Deriver wraps an address deriver with a persistent cache. A hit is
// served without touching the network; a miss falls through to the
// wrapped deriver and the result is recorded for next time.
type Deriver struct {
	inner   ledger.AddressDeriver
	cache   *AddressCache
	storage *FileStorage
}

// Compile-time interface check.
var _ ledger.AddressDeriver = (*Deriver)(nil)

// NewDeriver builds a caching deriver persisted through storage. The
// cache file is loaded up front; a corrupt file is quarantined and the
// deriver starts with an empty cache. Entries unused past DefaultMaxAge
// are dropped on load.
func NewDeriver(inner ledger.AddressDeriver, storage *FileStorage) *Deriver {
	c, err := storage.Load()
	if err != nil {
		log.WithError(err).Warn("address cache unreadable, starting fresh")
	}
	if pruned := c.Prune(DefaultMaxAge); pruned > 0 {
		log.WithField("entries", pruned).Debug("pruned aged address cache entries")
	}
	return &Deriver{inner: inner, cache: c, storage: storage}
}

// DeriveAddress returns the cached address for the key when present,
// otherwise asks the wrapped deriver and records the result. Cached
// values are revalidated so an edited cache file cannot inject a
// malformed address.
func (d *Deriver) DeriveAddress(ctx context.Context, publicKey []byte, network ledger.Network) (string, error) {
	if entry, ok := d.cache.Get(network, publicKey); ok {
		if ledger.ValidateAddress(network, entry.Address) == nil {
			metrics.Global.RecordCacheLookup(true)
			return entry.Address, nil
		}
		log.WithField("network", network).Warn("dropping invalid cached address")
		d.cache.Delete(network, publicKey)
	}
	metrics.Global.RecordCacheLookup(false)

	address, err := d.inner.DeriveAddress(ctx, publicKey, network)
	if err != nil {
		return "", err
	}

	d.cache.Set(network, publicKey, address)
	if err := d.storage.Save(d.cache); err != nil {
		log.WithError(err).Debug("persisting address cache failed")
	}
	return address, nil
}

// Size returns the number of cached derivations.
func (d *Deriver) Size() int {
	return d.cache.Size()
}
