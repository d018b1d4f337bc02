package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/tgrieger/inkwell/internal/domain"
)

var (
	// ErrExpired is returned for a well-signed token past its expiry.
	// Expiry is only tolerated inside the refresh flow.
	ErrExpired = errors.New("token expired")
	// ErrInvalid covers malformed tokens, bad signatures and unsupported
	// signing methods. Always fatal.
	ErrInvalid = errors.New("invalid token")
)

// Claims is the claim set embedded in every token: subject (user id),
// email and role, plus the registered iat/exp pair.
type Claims struct {
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// Principal converts token claims back into a request principal.
// Note the claims may be stale relative to the credential store; callers
// that need current role/email must resolve the subject themselves.
func (c *Claims) Principal() (domain.Principal, error) {
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("%w: subject is not a user id", ErrInvalid)
	}
	return domain.Principal{
		UserID: id,
		Email:  c.Email,
		Role:   c.Role,
	}, nil
}

// Signer creates and parses signed tokens. It isolates all signing and
// encoding concerns from the session orchestration in the service layer.
type Signer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewSigner(secret string, accessTTL, refreshTTL time.Duration) *Signer {
	return &Signer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// IssueAccess creates a short-lived access token for the principal
func (s *Signer) IssueAccess(p domain.Principal) (string, error) {
	return s.issue(p, s.accessTTL)
}

// IssueRefresh creates a long-lived refresh token for the principal
func (s *Signer) IssueRefresh(p domain.Principal) (string, error) {
	return s.issue(p, s.refreshTTL)
}

// RefreshTTL is the lifetime of refresh tokens; the session store uses it
// as the per-key TTL so abandoned sessions self-expire.
func (s *Signer) RefreshTTL() time.Duration {
	return s.refreshTTL
}

func (s *Signer) issue(p domain.Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Email: p.Email,
		Role:  p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			// jti makes every issued token unique even when two are
			// minted for the same principal within the same second
			ID:        uuid.NewString(),
			Subject:   p.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Parse verifies the token signature and returns its claims.
//
// When allowExpired is true an expired-but-well-signed token still yields
// its claims: the refresh flow needs the payload to look up who is
// refreshing, and the signature has been verified before the expiry check
// runs. Any structural or signature failure is fatal regardless.
func (s *Signer) Parse(tokenString string, allowExpired bool) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			if allowExpired {
				return claims, nil
			}
			return nil, ErrExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalid
	}

	return claims, nil
}
