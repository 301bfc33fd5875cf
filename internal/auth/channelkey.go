package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// ChannelKey signs handle for the push channel. The backend checks the key
// carried by init frames with VerifyChannelKey. An empty secret disables
// signing.
func ChannelKey(secret, handle string) (string, error) {
	if secret == "" {
		return "", nil
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: handle})
	key, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign channel key: %w", err)
	}
	return key, nil
}

// VerifyChannelKey reports whether key was issued for handle under secret.
func VerifyChannelKey(secret, handle, key string) bool {
	if secret == "" {
		return true
	}
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(key, &claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	return err == nil && claims.Subject == handle
}

// ChannelKey returns the push channel key of handle.
func (s *Service) ChannelKey(handle string) (string, error) {
	return ChannelKey(s.ChannelSecret, handle)
}
