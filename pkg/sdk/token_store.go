package sdk

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Profile is the cached identity stored next to the session token.
// It is advisory display data and is never consulted for authorization.
type Profile struct {
	ID       int    `json:"id,omitempty"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
}

// TokenClaims holds the claims this client reads from a session token.
// Only ExpiresAt is required; Subject and Roles are optional.
type TokenClaims struct {
	Subject   string
	Roles     []string
	ExpiresAt time.Time
}

// TokenStore persists the bearer token and the cached profile in durable storage.
type TokenStore struct {
	durable storageWriter
	now     func() time.Time
	logger  *slog.Logger
}

func newTokenStore(durable storageWriter, now func() time.Time, logger *slog.Logger) *TokenStore {
	return &TokenStore{durable: durable, now: now, logger: logger}
}

// Save writes token and, when non-nil, profile. The token is treated as an
// opaque string; no format validation happens here.
func (s *TokenStore) Save(token string, profile *Profile) error {
	if err := s.durable.set(TokenKey, token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	if profile == nil {
		return nil
	}
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	if err := s.durable.set(ProfileKey, string(data)); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// Read returns the stored token. Storage failures are logged and reported as absent.
func (s *TokenStore) Read() (string, bool) {
	token, ok, err := s.durable.get(TokenKey)
	if err != nil {
		s.logger.Warn("failed to read token", "error", err)
		return "", false
	}
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

// Profile returns the cached profile. A malformed entry is reported as absent.
func (s *TokenStore) Profile() (*Profile, bool) {
	raw, ok, err := s.durable.get(ProfileKey)
	if err != nil {
		s.logger.Warn("failed to read profile", "error", err)
		return nil, false
	}
	if !ok || raw == "" {
		return nil, false
	}
	var p Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		s.logger.Debug("ignoring malformed cached profile", "error", err)
		return nil, false
	}
	return &p, true
}

// IsValid reports whether token carries an exp claim in the future.
// It never panics; anything it cannot decode is invalid.
func (s *TokenStore) IsValid(token string) bool {
	claims, err := ParseTokenClaims(token)
	if err != nil {
		return false
	}
	return claims.ExpiresAt.After(s.now())
}

// Clear removes the token and the cached profile.
func (s *TokenStore) Clear() error {
	if err := s.durable.remove(TokenKey); err != nil {
		return fmt.Errorf("failed to remove token: %w", err)
	}
	if err := s.durable.remove(ProfileKey); err != nil {
		return fmt.Errorf("failed to remove profile: %w", err)
	}
	return nil
}

// ParseTokenClaims decodes the payload segment of token without verifying
// its signature. The payload must be base64 JSON with a numeric exp claim.
func ParseTokenClaims(token string) (TokenClaims, error) {
	parts := strings.Split(token, ".")
	if len(parts) < 2 || parts[1] == "" {
		return TokenClaims{}, fmt.Errorf("%w: missing payload segment", ErrInvalidToken)
	}

	payload, err := decodeSegment(parts[1])
	if err != nil {
		return TokenClaims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims := jwt.MapClaims{}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return TokenClaims{}, fmt.Errorf("%w: payload is not JSON: %v", ErrInvalidToken, err)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return TokenClaims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if exp == nil {
		return TokenClaims{}, fmt.Errorf("%w: missing exp claim", ErrInvalidToken)
	}

	out := TokenClaims{ExpiresAt: exp.Time}
	if sub, err := claims.GetSubject(); err == nil {
		out.Subject = sub
	}
	out.Roles = rolesClaim(claims["roles"])
	return out, nil
}

var segmentParser = jwt.NewParser(jwt.WithPaddingAllowed())

// decodeSegment accepts base64url (the token format) and falls back to the
// standard alphabet, which is what browsers' atob understands.
func decodeSegment(seg string) ([]byte, error) {
	if b, err := segmentParser.DecodeSegment(seg); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(seg, "="))
}

func rolesClaim(v any) []string {
	switch roles := v.(type) {
	case string:
		if roles == "" {
			return nil
		}
		return []string{roles}
	case []any:
		out := make([]string, 0, len(roles))
		for _, r := range roles {
			if s, ok := r.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
