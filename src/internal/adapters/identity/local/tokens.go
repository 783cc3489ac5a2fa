package local

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"aidanwoods.dev/go-paseto"
)

const (
	tokenIssuer   = "nteezflix-identity"
	tokenAudience = "nteezflix-client"

	keyBytes = 32
)

type claims struct {
	UserID    string
	Email     string
	ExpiresAt time.Time
}

// tokenService issues and verifies PASETO v4.local session tokens.
type tokenService struct {
	key paseto.V4SymmetricKey
	ttl time.Duration
}

func newTokenService(key []byte, ttl time.Duration) (*tokenService, error) {
	k, err := paseto.V4SymmetricKeyFromBytes(key)
	if err != nil {
		return nil, fmt.Errorf("session key: %w", err)
	}
	return &tokenService{key: k, ttl: ttl}, nil
}

func (s *tokenService) issue(userID, email string, now time.Time) (string, time.Time) {
	exp := now.Add(s.ttl)

	token := paseto.NewToken()
	token.SetIssuer(tokenIssuer)
	token.SetAudience(tokenAudience)
	token.SetSubject(userID)
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(exp)
	token.SetString("email", email)

	return token.V4Encrypt(s.key, nil), exp
}

func (s *tokenService) verify(raw string, now time.Time) (*claims, error) {
	parser := paseto.NewParserWithoutExpiryCheck()
	parser.AddRule(paseto.ForAudience(tokenAudience))
	parser.AddRule(paseto.IssuedBy(tokenIssuer))
	parser.AddRule(paseto.ValidAt(now))

	token, err := parser.ParseV4Local(s.key, raw, nil)
	if err != nil {
		return nil, err
	}

	sub, err := token.GetSubject()
	if err != nil {
		return nil, err
	}
	email, err := token.GetString("email")
	if err != nil {
		return nil, err
	}
	exp, err := token.GetExpiration()
	if err != nil {
		return nil, err
	}
	return &claims{UserID: sub, Email: email, ExpiresAt: exp}, nil
}

// LoadOrCreateKey reads the hex encoded session key at path, generating
// and saving a new one when the file does not exist.
func LoadOrCreateKey(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		key, err := hex.DecodeString(strings.TrimSpace(string(data)))
		if err != nil {
			return nil, fmt.Errorf("session key %s is not hex: %w", path, err)
		}
		if len(key) != keyBytes {
			return nil, fmt.Errorf("session key %s must be %d bytes, got %d", path, keyBytes, len(key))
		}
		return key, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read session key: %w", err)
	}

	key := make([]byte, keyBytes)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate session key: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create key directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(hex.EncodeToString(key)), 0o600); err != nil {
		return nil, fmt.Errorf("save session key: %w", err)
	}
	return key, nil
}
