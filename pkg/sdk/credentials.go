package sdk

import "time"

// Credentials is the {token, user} payload returned by local login and
// registration.
type Credentials struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// ExpiresAt returns the token's exp claim.
func (c *Credentials) ExpiresAt() (time.Time, error) {
	claims, err := ParseTokenClaims(c.Token)
	if err != nil {
		return time.Time{}, err
	}
	return claims.ExpiresAt, nil
}

func (c *Credentials) IsExpired() bool {
	exp, err := c.ExpiresAt()
	return err != nil || !time.Now().Before(exp)
}
