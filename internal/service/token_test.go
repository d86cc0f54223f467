package service

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/teamtime/clockwork/internal/model"
)

func newTestTokenService() *TokenService {
	return NewTokenService("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
}

func testUser(id uint, role string) *model.User {
	u := &model.User{Email: "kevin@example.com", Role: role}
	u.ID = id
	return u
}

func TestAccessTokenRoundTrip(t *testing.T) {
	s := newTestTokenService()

	token, err := s.GenerateAccessToken(testUser(5, "manager"))
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	claims, err := s.VerifyAccessToken(token)
	if err != nil {
		t.Fatalf("VerifyAccessToken() error = %v", err)
	}
	if claims.UserID != 5 || claims.Email != "kevin@example.com" || claims.Role != "manager" {
		t.Errorf("unexpected claims %+v", claims)
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != 15*time.Minute {
		t.Errorf("access lifetime = %v, want 15m", got)
	}
}

func TestRefreshTokenCarriesFamilyAndJTI(t *testing.T) {
	s := newTestTokenService()

	token, jti, err := s.GenerateRefreshToken(testUser(5, "employee"), "family-1")
	if err != nil {
		t.Fatalf("GenerateRefreshToken() error = %v", err)
	}

	claims, err := s.VerifyRefreshToken(token)
	if err != nil {
		t.Fatalf("VerifyRefreshToken() error = %v", err)
	}
	if claims.UserID != 5 || claims.Family != "family-1" || claims.ID != jti {
		t.Errorf("unexpected claims %+v (jti %s)", claims, jti)
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != 7*24*time.Hour {
		t.Errorf("refresh lifetime = %v, want 168h", got)
	}

	_, jti2, _ := s.GenerateRefreshToken(testUser(5, "employee"), "family-1")
	if jti2 == jti {
		t.Error("jti must be unique per token")
	}
}

func TestSecretsAreIndependent(t *testing.T) {
	s := newTestTokenService()

	access, _ := s.GenerateAccessToken(testUser(1, "admin"))
	refresh, _, _ := s.GenerateRefreshToken(testUser(1, "admin"), "f")

	if _, err := s.VerifyRefreshToken(access); err == nil {
		t.Error("access token accepted as refresh token")
	}
	if _, err := s.VerifyAccessToken(refresh); err == nil {
		t.Error("refresh token accepted as access token")
	}
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	s := newTestTokenService()

	expired := newTestTokenService()
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	expiredToken, _ := expired.GenerateAccessToken(testUser(1, "admin"))

	valid, _ := s.GenerateAccessToken(testUser(1, "admin"))
	parts := strings.Split(valid, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	none := jwt.NewWithClaims(jwt.SigningMethodNone, AccessClaims{UserID: 1})
	noneToken, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)

	foreign := NewTokenService("other", "other-refresh", time.Minute, time.Hour)
	foreignToken, _ := foreign.GenerateAccessToken(testUser(1, "admin"))

	tests := map[string]string{
		"expired":        expiredToken,
		"tampered":       tampered,
		"alg none":       noneToken,
		"foreign secret": foreignToken,
		"garbage":        "not.a.token",
		"empty":          "",
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := s.VerifyAccessToken(token); err == nil {
				t.Error("expected verification failure")
			}
		})
	}
}
