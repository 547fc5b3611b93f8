// Package redisstore keeps cross-process reconciliation state in Redis: the
// last applied fingerprint per order and a per-order lock.
package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jcmexdev/pos-reconciler/internal/pkg/cache"
	"github.com/jcmexdev/pos-reconciler/internal/reconciler"
)

var _ reconciler.FingerprintStore = (*FingerprintStore)(nil)

const fingerprintOp = "fingerprint"

// FingerprintStore remembers the last applied fingerprint per order so a
// redelivered save is skipped by any replica.
type FingerprintStore struct {
	cache cache.Cache
	ttl   time.Duration
}

// NewFingerprintStore expires entries after ttl; zero keeps them forever.
func NewFingerprintStore(c cache.Cache, ttl time.Duration) *FingerprintStore {
	return &FingerprintStore{cache: c, ttl: ttl}
}

func (s *FingerprintStore) Last(ctx context.Context, orderID string) (string, error) {
	fp, err := s.cache.Get(ctx, s.cache.GenerateKey(fingerprintOp, orderID))
	if err != nil {
		return "", fmt.Errorf("redisstore: last fingerprint of %q: %w", orderID, err)
	}
	return fp, nil
}

func (s *FingerprintStore) Record(ctx context.Context, orderID, fingerprint string) error {
	if err := s.cache.Set(ctx, s.cache.GenerateKey(fingerprintOp, orderID), fingerprint, s.ttl); err != nil {
		return fmt.Errorf("redisstore: record fingerprint of %q: %w", orderID, err)
	}
	return nil
}

// Forget drops the stored fingerprint of an order.
func (s *FingerprintStore) Forget(ctx context.Context, orderID string) error {
	if err := s.cache.Delete(ctx, s.cache.GenerateKey(fingerprintOp, orderID)); err != nil {
		return fmt.Errorf("redisstore: forget fingerprint of %q: %w", orderID, err)
	}
	return nil
}
