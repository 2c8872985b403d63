package auth

import (
	"crypto/rsa"
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"
)

// KeyPair holds the RSA key material for token signing and verification.
// Private is nil on verify-only nodes; Public is always set.
type KeyPair struct {
	Private *rsa.PrivateKey
	Public  *rsa.PublicKey
}

// LoadKeys reads PEM-encoded RSA keys from the configured file paths. An
// empty public key path returns (nil, nil): the auth subsystem runs disabled
// rather than failing startup, so constrained environments can boot without
// key material. The private key path may be empty for verify-only processes.
func LoadKeys(privatePath, publicPath string) (*KeyPair, error) {
	if publicPath == "" {
		return nil, nil
	}

	publicPEM, err := os.ReadFile(publicPath)
	if err != nil {
		return nil, fmt.Errorf("auth: read public key: %w", err)
	}
	public, err := jwt.ParseRSAPublicKeyFromPEM(publicPEM)
	if err != nil {
		return nil, fmt.Errorf("auth: parse public key: %w", err)
	}

	pair := &KeyPair{Public: public}

	if privatePath != "" {
		privatePEM, err := os.ReadFile(privatePath)
		if err != nil {
			return nil, fmt.Errorf("auth: read private key: %w", err)
		}
		private, err := jwt.ParseRSAPrivateKeyFromPEM(privatePEM)
		if err != nil {
			return nil, fmt.Errorf("auth: parse private key: %w", err)
		}
		pair.Private = private
	}

	return pair, nil
}

// CanVerify reports whether access tokens can be validated.
func (k *KeyPair) CanVerify() bool {
	return k != nil && k.Public != nil
}

// CanSign reports whether new tokens can be issued.
func (k *KeyPair) CanSign() bool {
	return k != nil && k.Private != nil
}
