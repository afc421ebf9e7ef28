package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func signToken(t *testing.T, subject, role string, exp time.Time) string {
	t.Helper()
	claims := Claims{
		Email: subject + "@sangihetrip.id",
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: subject,
		},
	}
	if !exp.IsZero() {
		claims.ExpiresAt = jwt.NewNumericDate(exp)
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("not-checked"))
	require.NoError(t, err)
	return token
}

type recordingNavigator struct {
	targets []string
}

func (n *recordingNavigator) Navigate(target string) {
	n.targets = append(n.targets, target)
}
