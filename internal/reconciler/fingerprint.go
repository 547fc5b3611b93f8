package reconciler

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"sync"

	"github.com/jcmexdev/pos-reconciler/internal/pkg/quantity"
)

// Fingerprint hashes an aggregated deduction set for an order. Entries are
// sorted and quantities fixed to four decimals so equal sets always produce
// the same value. The baseline the deltas were computed against is part of
// the hash: a redelivered save against an unchanged baseline collides, a
// later save that happens to add the same amounts does not.
func Fingerprint(orderID string, baseline map[string]float64, agg []Aggregated) string {
	lines := make([]string, 0, len(agg))
	for _, a := range agg {
		lines = append(lines, a.Name+"|"+quantity.Format(a.Quantity, quantity.AggregatePlaces)+"|"+string(a.Unit))
	}
	sort.Strings(lines)

	base := make([]string, 0, len(baseline))
	for id, q := range baseline {
		if q == 0 {
			continue
		}
		base = append(base, id+"="+quantity.Format(q, quantity.AggregatePlaces))
	}
	sort.Strings(base)

	h := sha256.New()
	h.Write([]byte(orderID))
	h.Write([]byte{'\n'})
	h.Write([]byte(strings.Join(base, ",")))
	h.Write([]byte{'\n'})
	h.Write([]byte(strings.Join(lines, "\n")))
	return hex.EncodeToString(h.Sum(nil))
}

var _ FingerprintStore = (*MemoryFingerprints)(nil)

// MemoryFingerprints is a process-local FingerprintStore. Entries are lost on
// restart.
type MemoryFingerprints struct {
	mu   sync.RWMutex
	last map[string]string
}

func NewMemoryFingerprints() *MemoryFingerprints {
	return &MemoryFingerprints{last: make(map[string]string)}
}

func (m *MemoryFingerprints) Last(_ context.Context, orderID string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.last[orderID], nil
}

func (m *MemoryFingerprints) Record(_ context.Context, orderID, fingerprint string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last[orderID] = fingerprint
	return nil
}

func (m *MemoryFingerprints) Forget(_ context.Context, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.last, orderID)
	return nil
}
