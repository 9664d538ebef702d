package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleStaff  Role = "staff"
	RoleViewer Role = "viewer"
)

func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleAdmin, RoleStaff, RoleViewer:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role: %q", s)
	}
}

var roleRank = map[Role]int{RoleViewer: 1, RoleStaff: 2, RoleAdmin: 3}

// AtLeast reports whether r grants everything min grants.
func (r Role) AtLeast(min Role) bool {
	return roleRank[r] >= roleRank[min] && roleRank[r] > 0
}

type Claims struct {
	jwt.RegisteredClaims

	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// Session is the verified caller. It is passed explicitly through request contexts;
// nothing in the service keeps a global "current user".
type Session struct {
	UserID    string
	Email     string
	Role      Role
	ExpiresAt time.Time
}

// Actor is the string written into audit rows.
func (s Session) Actor() string {
	if s.Email != "" {
		return s.Email
	}
	return s.UserID
}

// Verify checks an HS256 dashboard token issued by the identity provider.
// issuer is optional; when set the token's iss must match.
func Verify(tokenString, secret, issuer string, now time.Time) (*Session, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("missing token")
	}
	if secret == "" {
		return nil, fmt.Errorf("missing session secret")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	parser := jwt.NewParser(opts...)

	claims := &Claims{}
	tok, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	if strings.TrimSpace(claims.Subject) == "" {
		return nil, fmt.Errorf("missing subject in token")
	}
	role, err := ParseRole(claims.Role)
	if err != nil {
		// Tokens without a role claim are read-only.
		if strings.TrimSpace(claims.Role) != "" {
			return nil, err
		}
		role = RoleViewer
	}

	return &Session{
		UserID:    claims.Subject,
		Email:     claims.Email,
		Role:      role,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Sign issues a token with the same claim layout. Used by dev tooling and tests.
func Sign(s Session, secret, issuer string, issuedAt time.Time) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.UserID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
		},
		Email: s.Email,
		Role:  string(s.Role),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
