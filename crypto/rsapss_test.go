package crypto_test

import (
	"crypto/rand"
	"crypto/rsa"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarantool/go-signedjson/crypto"
)

func generateKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	return privateKey
}

func TestRSAPSS_SignVerify(t *testing.T) {
	t.Parallel()

	constructors := []struct {
		name      string
		construct func(*rsa.PrivateKey, *rsa.PublicKey) crypto.RSAPSS
	}{
		{"PS256", crypto.NewRSAPSS256},
		{"PS384", crypto.NewRSAPSS384},
		{"PS512", crypto.NewRSAPSS512},
	}

	for _, test := range constructors {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			privateKey := generateKey(t)
			rsapss := test.construct(privateKey, &privateKey.PublicKey)

			assert.Equal(t, test.name, rsapss.Name())

			signature, err := rsapss.Sign(strings.NewReader("abc"))
			require.NoError(t, err, "Sign must be successful")
			require.NotNil(t, signature, "signature must be returned")

			err = rsapss.Verify(strings.NewReader("abc"), signature)
			require.NoError(t, err, "Verify must be successful")

			err = rsapss.Verify(strings.NewReader("abd"), signature)
			require.ErrorContains(t, err, "failed to verify")
		})
	}
}

func TestRSAPSS_OnlyPrivateKey(t *testing.T) {
	t.Parallel()

	privateKey := generateKey(t)
	rsapss := crypto.NewRSAPSS256(privateKey, nil)

	signature, err := rsapss.Sign(strings.NewReader("abc"))
	require.NoError(t, err, "Sign must be successful")
	require.NotNil(t, signature)

	err = rsapss.Verify(strings.NewReader("abc"), signature)
	require.ErrorIs(t, err, crypto.ErrNoPublicKey)
}

func TestRSAPSS_OnlyPublicKey(t *testing.T) {
	t.Parallel()

	privateKey := generateKey(t)
	rsapss := crypto.NewRSAPSS256(nil, &privateKey.PublicKey)

	signature, err := rsapss.Sign(strings.NewReader("abc"))
	require.ErrorIs(t, err, crypto.ErrNoPrivateKey)
	require.Nil(t, signature, "signature must be nil")
}

type failingReader struct{}

func (failingReader) Read(_ []byte) (int, error) {
	return 0, io.ErrClosedPipe
}

func TestRSAPSS_MessageReadFailure(t *testing.T) {
	t.Parallel()

	privateKey := generateKey(t)
	rsapss := crypto.NewRSAPSS256(privateKey, &privateKey.PublicKey)

	_, err := rsapss.Sign(failingReader{})
	require.ErrorContains(t, err, "failed to get hash")

	err = rsapss.Verify(failingReader{}, []byte("sig"))
	require.ErrorContains(t, err, "failed to get hash")
}
