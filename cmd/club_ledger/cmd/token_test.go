package cmd

import (
	"testing"
	"time"

	"github.com/SscSPs/club_ledger/internal/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueToken_RoundTrip(t *testing.T) {
	now := time.Now()
	signed, err := issueToken("secret-for-tests", "club-ledger", "riverside", "treasurer", true, time.Hour, now)
	require.NoError(t, err)

	claims := &middleware.LedgerClaims{}
	_, err = jwt.ParseWithClaims(signed, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("secret-for-tests"), nil
	}, jwt.WithIssuer("club-ledger"))
	require.NoError(t, err)

	assert.Equal(t, "riverside", claims.ClubID)
	assert.Equal(t, "treasurer", claims.Subject)
	assert.True(t, claims.CanOverrideClosed)
	assert.WithinDuration(t, now.Add(time.Hour), claims.ExpiresAt.Time, time.Second)
}
