// internal/pkg/jwt/loader.go
package jwt

import (
	"errors"
	"fmt"
	"time"
)

// Config names the PEM key pair and the claims every dashboard token carries.
type Config struct {
	PrivPath string
	PubPath  string
	Issuer   string
	Audience string
	TTL      time.Duration
	KID      string
}

func (c Config) validate() error {
	switch {
	case c.PrivPath == "" || c.PubPath == "":
		return errors.New("jwt key paths are required")
	case c.Issuer == "" || c.Audience == "":
		return errors.New("jwt issuer and audience are required")
	case c.TTL <= 0:
		return fmt.Errorf("jwt ttl must be positive, got %s", c.TTL)
	}
	return nil
}

// Manager bundles the signer and verifier built from one key pair.
type Manager struct {
	Generator *Generator
	Verifier  *Verifier
}

// LoadAndBuild reads the key pair named by cfg and refuses a public key that
// does not belong to the private key, since every token it signs would then
// fail verification.
func LoadAndBuild(cfg Config) (*Manager, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	priv, err := LoadRSAPrivateKeyFromPEM(cfg.PrivPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load private key from %s: %w", cfg.PrivPath, err)
	}
	pub, err := LoadRSAPublicKeyFromPEM(cfg.PubPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load public key from %s: %w", cfg.PubPath, err)
	}
	if !priv.PublicKey.Equal(pub) {
		return nil, fmt.Errorf("public key %s does not match private key %s", cfg.PubPath, cfg.PrivPath)
	}

	return &Manager{
		Generator: NewGenerator(priv, cfg.Issuer, cfg.Audience, cfg.KID, cfg.TTL),
		Verifier:  NewVerifier(pub, cfg.Issuer, cfg.Audience),
	}, nil
}
