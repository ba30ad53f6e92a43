package auth

import (
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"
	json "github.com/goccy/go-json"

	"github.com/listenupapp/library-server/internal/domain"
	"github.com/listenupapp/library-server/internal/id"
)

const (
	tokenIssuer   = "library-server"
	tokenAudience = "library-client"
)

// TokenService handles PASETO token generation and verification.
type TokenService struct {
	symmetricKey paseto.V4SymmetricKey
	duration     time.Duration
}

// NewTokenService creates a token service. A zero duration issues tokens
// without an expiry claim.
func NewTokenService(key []byte, duration time.Duration) (*TokenService, error) {
	if len(key) != keyLength {
		return nil, fmt.Errorf("PASETO v4 key must be exactly %d bytes, got %d", keyLength, len(key))
	}

	symmetricKey, err := paseto.V4SymmetricKeyFromBytes(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create PASETO symmetric key: %w", err)
	}

	return &TokenService{
		symmetricKey: symmetricKey,
		duration:     duration,
	}, nil
}

// Generate creates a PASETO v4.local token carrying the user's identity.
func (s *TokenService) Generate(user *domain.User) (string, error) {
	now := time.Now()

	token := paseto.NewToken()
	token.SetIssuer(tokenIssuer)
	token.SetSubject(user.ID)
	token.SetAudience(tokenAudience)
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	if s.duration > 0 {
		token.SetExpiration(now.Add(s.duration))
	}

	tokenID, err := id.Generate(id.PrefixToken)
	if err != nil {
		return "", fmt.Errorf("generate token ID: %w", err)
	}
	token.SetJti(tokenID)

	token.SetString("username", user.Username)
	token.SetString("user_id", user.ID)
	token.SetString("favorite_genre", user.FavoriteGenre)

	return token.V4Encrypt(s.symmetricKey, nil), nil
}

// Verify decrypts and validates a token, returning its claims.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	var parser paseto.Parser
	if s.duration > 0 {
		parser = paseto.NewParser()
	} else {
		parser = paseto.NewParserWithoutExpiryCheck()
	}

	parser.AddRule(paseto.ForAudience(tokenAudience))
	parser.AddRule(paseto.IssuedBy(tokenIssuer))
	parser.AddRule(paseto.NotBeforeNbf())

	token, err := parser.ParseV4Local(s.symmetricKey, tokenString, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	var claims Claims
	if err := json.Unmarshal(token.ClaimsJSON(), &claims); err != nil {
		return nil, fmt.Errorf("parse claims: %w", err)
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("invalid token: missing user_id")
	}

	return &claims, nil
}

// Duration returns the configured token lifetime; zero means no expiry.
func (s *TokenService) Duration() time.Duration {
	return s.duration
}
