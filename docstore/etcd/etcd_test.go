package etcd_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/etcd/api/v3/mvccpb"
	clientv3 "go.etcd.io/etcd/client/v3"

	signedjson "github.com/tarantool/go-signedjson"
	"github.com/tarantool/go-signedjson/algorithm"
	"github.com/tarantool/go-signedjson/docstore/etcd"
)

// fakeKV is an in-memory implementation of the etcd.KV interface
// used for testing purposes.
type fakeKV struct {
	mu     sync.Mutex
	values map[string][]byte

	putErr error
	getErr error
}

func newFakeKV() *fakeKV {
	return &fakeKV{
		values: make(map[string][]byte),
	}
}

func (f *fakeKV) Put(
	_ context.Context, key, val string, _ ...clientv3.OpOption,
) (*clientv3.PutResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.putErr != nil {
		return nil, f.putErr
	}

	f.values[key] = []byte(val)

	return &clientv3.PutResponse{}, nil
}

func (f *fakeKV) Get(
	_ context.Context, key string, _ ...clientv3.OpOption,
) (*clientv3.GetResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getErr != nil {
		return nil, f.getErr
	}

	value, ok := f.values[key]
	if !ok {
		return &clientv3.GetResponse{}, nil
	}

	return &clientv3.GetResponse{
		Kvs: []*mvccpb.KeyValue{{
			Key:   []byte(key),
			Value: value,
		}},
	}, nil
}

func generateKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	return privateKey
}

func TestStore_PutGet(t *testing.T) {
	t.Parallel()

	kv := newFakeKV()
	store := etcd.New(kv, etcd.WithPrefix("/configs"))

	privateKey := generateKey(t)
	body := []byte(`{"feature":"on"}`)

	err := store.Put(t.Context(), "app", body, []signedjson.SignRequest{
		{Algorithm: algorithm.PS256, PublicKey: "app-key", Key: privateKey},
	})
	require.NoError(t, err)

	assert.Contains(t, kv.values, "/configs/app")

	doc, err := store.Get(t.Context(), "app", []signedjson.VerifyRequest{
		{Algorithm: algorithm.PS256, Key: &privateKey.PublicKey},
	})
	require.NoError(t, err)

	assert.Equal(t, body, doc.Body, "the stored body must come back byte-identical")
	require.Len(t, doc.Matches, 1)
	assert.Equal(t, "app-key", doc.Matches[0].PublicKey)
}

func TestStore_GetNotFound(t *testing.T) {
	t.Parallel()

	store := etcd.New(newFakeKV())

	privateKey := generateKey(t)

	_, err := store.Get(t.Context(), "missing", []signedjson.VerifyRequest{
		{Algorithm: algorithm.PS256, Key: &privateKey.PublicKey},
	})
	require.ErrorIs(t, err, etcd.ErrNotFound)
}

func TestStore_GetVerified(t *testing.T) {
	t.Parallel()

	kv := newFakeKV()
	store := etcd.New(kv)

	privateKey := generateKey(t)
	other := generateKey(t)
	body := []byte(`{"feature":"on"}`)

	err := store.Put(t.Context(), "app", body, []signedjson.SignRequest{
		{Algorithm: algorithm.PS256, PublicKey: "app-key", Key: privateKey},
	})
	require.NoError(t, err)

	doc, err := store.GetVerified(t.Context(), "app", []signedjson.VerifyRequest{
		{Algorithm: algorithm.PS256, Key: &privateKey.PublicKey},
	})
	require.NoError(t, err)
	assert.Equal(t, body, doc.Body)

	// A wrong key still fetches via Get, but GetVerified refuses.
	doc, err = store.Get(t.Context(), "app", []signedjson.VerifyRequest{
		{Algorithm: algorithm.PS256, Key: &other.PublicKey},
	})
	require.NoError(t, err)
	assert.Empty(t, doc.Matches)

	_, err = store.GetVerified(t.Context(), "app", []signedjson.VerifyRequest{
		{Algorithm: algorithm.PS256, Key: &other.PublicKey},
	})
	require.ErrorIs(t, err, etcd.ErrNotVerified)
}

func TestStore_GetTamperedDocument(t *testing.T) {
	t.Parallel()

	kv := newFakeKV()
	store := etcd.New(kv)

	privateKey := generateKey(t)

	err := store.Put(t.Context(), "app", []byte(`{"feature":"on"}`), []signedjson.SignRequest{
		{Algorithm: algorithm.PS256, PublicKey: "app-key", Key: privateKey},
	})
	require.NoError(t, err)

	// Tamper the stored bytes behind the store's back.
	kv.values["/signed/app"] = append(kv.values["/signed/app"], '!')

	_, err = store.GetVerified(t.Context(), "app", []signedjson.VerifyRequest{
		{Algorithm: algorithm.PS256, Key: &privateKey.PublicKey},
	})
	require.ErrorIs(t, err, etcd.ErrNotVerified)
}

func TestStore_StorageErrors(t *testing.T) {
	t.Parallel()

	kv := newFakeKV()
	kv.putErr = assert.AnError
	kv.getErr = assert.AnError

	store := etcd.New(kv)

	privateKey := generateKey(t)

	err := store.Put(t.Context(), "app", []byte("{}"), []signedjson.SignRequest{
		{Algorithm: algorithm.PS256, PublicKey: "k", Key: privateKey},
	})
	require.ErrorContains(t, err, "failed to store document")

	_, err = store.Get(t.Context(), "app", []signedjson.VerifyRequest{
		{Algorithm: algorithm.PS256, Key: &privateKey.PublicKey},
	})
	require.ErrorContains(t, err, "failed to fetch document")
}

func TestStore_PutSignFailure(t *testing.T) {
	t.Parallel()

	kv := newFakeKV()
	store := etcd.New(kv)

	err := store.Put(t.Context(), "app", []byte("{}"), nil)
	require.ErrorIs(t, err, signedjson.ErrNoRequests)
	assert.Empty(t, kv.values, "nothing may be stored on a signing failure")
}
