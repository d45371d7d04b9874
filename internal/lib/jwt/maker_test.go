package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaker_MintAndRedeem(t *testing.T) {
	maker := NewMaker("test-secret")

	token, err := maker.Mint("user-uid-1", "test@example.com", PurposeSession, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := maker.Redeem(token, PurposeSession)
	require.NoError(t, err)
	assert.Equal(t, "user-uid-1", claims.UserUID)
	assert.Equal(t, "test@example.com", claims.Email)
	assert.Equal(t, PurposeSession, claims.Purpose)
}

func TestMaker_Redeem_PurposeLocked(t *testing.T) {
	maker := NewMaker("test-secret")

	tests := []struct {
		name        string
		mintPurpose string
		wantPurpose string
	}{
		{
			name:        "session token at reset check",
			mintPurpose: PurposeSession,
			wantPurpose: PurposePasswordReset,
		},
		{
			name:        "reset token at session check",
			mintPurpose: PurposePasswordReset,
			wantPurpose: PurposeSession,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := maker.Mint("user-uid-1", "test@example.com", tt.mintPurpose, time.Hour)
			require.NoError(t, err)

			claims, err := maker.Redeem(token, tt.wantPurpose)
			assert.Nil(t, claims)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestMaker_Redeem_Expired(t *testing.T) {
	maker := NewMaker("test-secret")

	token, err := maker.Mint("user-uid-1", "test@example.com", PurposeSession, -time.Minute)
	require.NoError(t, err)

	_, err = maker.Redeem(token, PurposeSession)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestMaker_Redeem_WrongKeyAndGarbage(t *testing.T) {
	maker := NewMaker("test-secret")
	other := NewMaker("other-secret")

	token, err := other.Mint("user-uid-1", "test@example.com", PurposeSession, time.Hour)
	require.NoError(t, err)

	_, err = maker.Redeem(token, PurposeSession)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = maker.Redeem("not-a-token", PurposeSession)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
