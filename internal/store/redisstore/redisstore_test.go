package redisstore

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bsm/redislock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/pos-reconciler/internal/pkg/cache"
)

type fakeCache struct {
	values map[string]string
	ttls   map[string]time.Duration
	err    error
}

var _ cache.Cache = (*fakeCache)(nil)

func newFakeCache() *fakeCache {
	return &fakeCache{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	if f.err != nil {
		return f.err
	}
	f.values[key] = fmt.Sprint(value)
	f.ttls[key] = ttl
	return nil
}

func (f *fakeCache) Get(_ context.Context, key string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.values[key], nil
}

func (f *fakeCache) Delete(_ context.Context, key string) error {
	if f.err != nil {
		return f.err
	}
	delete(f.values, key)
	return nil
}

func (f *fakeCache) GenerateKey(operation, key string) string {
	return "test:" + operation + ":" + key
}

func TestFingerprintStore(t *testing.T) {
	ctx := context.Background()
	c := newFakeCache()
	s := NewFingerprintStore(c, time.Hour)

	last, err := s.Last(ctx, "O1")
	require.NoError(t, err)
	assert.Empty(t, last)

	require.NoError(t, s.Record(ctx, "O1", "abc"))
	last, err = s.Last(ctx, "O1")
	require.NoError(t, err)
	assert.Equal(t, "abc", last)
	assert.Equal(t, time.Hour, c.ttls["test:fingerprint:O1"])

	require.NoError(t, s.Forget(ctx, "O1"))
	last, err = s.Last(ctx, "O1")
	require.NoError(t, err)
	assert.Empty(t, last)
}

func TestFingerprintStore_Errors(t *testing.T) {
	c := newFakeCache()
	c.err = errors.New("connection refused")
	s := NewFingerprintStore(c, 0)

	_, err := s.Last(context.Background(), "O1")
	assert.ErrorContains(t, err, "connection refused")
	assert.Error(t, s.Record(context.Background(), "O1", "abc"))
	assert.ErrorContains(t, s.Forget(context.Background(), "O1"), "forget fingerprint")
}

type fakeObtainer struct {
	key string
	ttl time.Duration
	err error
}

func (f *fakeObtainer) Obtain(_ context.Context, key string, ttl time.Duration, _ *redislock.Options) (*redislock.Lock, error) {
	f.key, f.ttl = key, ttl
	return nil, f.err
}

func TestOrderLocker_Busy(t *testing.T) {
	ob := &fakeObtainer{err: redislock.ErrNotObtained}
	l := NewOrderLocker(ob, "pos", 10*time.Second, 10*time.Millisecond, 3)

	unlock, err := l.Lock(context.Background(), "O1")

	assert.Nil(t, unlock)
	assert.ErrorIs(t, err, ErrLockBusy)
	assert.Equal(t, "pos:lock:order:O1", ob.key)
	assert.Equal(t, 10*time.Second, ob.ttl)
}

func TestOrderLocker_BackendError(t *testing.T) {
	backend := errors.New("i/o timeout")
	l := NewOrderLocker(&fakeObtainer{err: backend}, "pos", time.Second, time.Millisecond, 1)

	_, err := l.Lock(context.Background(), "O1")

	assert.ErrorIs(t, err, backend)
	assert.NotErrorIs(t, err, ErrLockBusy)
}
