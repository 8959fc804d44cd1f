package signer

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestSignAndVerify(t *testing.T) {
	s := New("secret")
	id := uuid.NewString()

	token, err := s.Sign(id)
	require.NoError(t, err)

	value, err := s.Verify(token)
	require.NoError(t, err)
	require.Equal(t, id, value)
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	s := New("secret")
	token, err := s.Sign("abc")
	require.NoError(t, err)

	_, err = s.Verify("abd" + token[3:])
	require.Error(t, err)

	_, err = New("other").Verify(token)
	require.Error(t, err)

	_, err = s.Verify("no-signature")
	require.Error(t, err)
}

func TestSignRequiresSecretAndValue(t *testing.T) {
	_, err := New("").Sign("abc")
	require.Error(t, err)

	_, err = New("secret").Sign("")
	require.Error(t, err)

	_, err = New("secret").Sign("a.b")
	require.Error(t, err)
}
