// Package session implements the stateless cookie session: a signed token
// that carries the full identity context instead of referencing server-side
// state. There is no revocation list; logout only clears cookies. That is a
// deliberate tradeoff (no store round-trip per request) and the codec is the
// single boundary where a revocation check could be added later.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"mentorly/api/internal/models"
)

var (
	// ErrMalformedPayload covers anything that cannot be parsed or verified.
	ErrMalformedPayload = errors.New("malformed session payload")
	// ErrExpired is an otherwise valid token past its lifetime window.
	ErrExpired = errors.New("session expired")
	// ErrMissingField is a parseable payload lacking identity id or email.
	ErrMissingField = errors.New("session payload missing required field")
)

// Payload is the decoded session state. If a token decodes, the payload is
// trusted as-is for the lifetime window; no live store check happens.
type Payload struct {
	IdentityID  string
	DisplayName string
	Email       string
	Role        models.Role
	Attributes  models.RoleAttributes
	IssuedAt    time.Time
}

type claims struct {
	DisplayName      string `json:"name,omitempty"`
	Email            string `json:"email"`
	Role             string `json:"role,omitempty"`
	Year             int    `json:"year,omitempty"`
	College          string `json:"college,omitempty"`
	ApprovalStatus   string `json:"approval,omitempty"`
	ProfileCompleted bool   `json:"profileDone,omitempty"`
	jwt.RegisteredClaims
}

// Codec signs and verifies session payloads. Pure string-in/string-out;
// cookie I/O belongs to the caller.
type Codec struct {
	secret []byte
	ttl    time.Duration
}

func NewCodec(secret string, ttl time.Duration) *Codec {
	return &Codec{secret: []byte(secret), ttl: ttl}
}

// Encode serializes the payload into a signed token. A zero IssuedAt means
// now; expiry is always IssuedAt plus the configured lifetime.
func (c *Codec) Encode(p Payload) (string, error) {
	issuedAt := p.IssuedAt
	if issuedAt.IsZero() {
		issuedAt = time.Now()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		DisplayName:      p.DisplayName,
		Email:            p.Email,
		Role:             string(p.Role),
		Year:             p.Attributes.Year,
		College:          p.Attributes.College,
		ApprovalStatus:   string(p.Attributes.ApprovalStatus),
		ProfileCompleted: p.Attributes.ProfileCompleted,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.IdentityID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(c.ttl)),
		},
	})

	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Decode parses and verifies a raw token. Any parse or signature failure is
// ErrMalformedPayload; a verified payload without identity id or email is
// ErrMissingField. Decode never panics on garbage input.
func (c *Codec) Decode(raw string) (Payload, error) {
	token, err := jwt.ParseWithClaims(raw, &claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Payload{}, ErrExpired
		}
		return Payload{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	cl, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return Payload{}, ErrMalformedPayload
	}
	if cl.Subject == "" || cl.Email == "" {
		return Payload{}, ErrMissingField
	}

	p := Payload{
		IdentityID:  cl.Subject,
		DisplayName: cl.DisplayName,
		Email:       cl.Email,
		Role:        models.Role(cl.Role),
		Attributes: models.RoleAttributes{
			Year:             cl.Year,
			College:          cl.College,
			ApprovalStatus:   models.ApprovalStatus(cl.ApprovalStatus),
			ProfileCompleted: cl.ProfileCompleted,
		},
	}
	if cl.IssuedAt != nil {
		p.IssuedAt = cl.IssuedAt.Time
	}
	return p, nil
}
