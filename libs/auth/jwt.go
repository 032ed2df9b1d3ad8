package auth

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims identify the caller and the tenant they act for. An empty BranchIDs
// list means the caller is not restricted to particular branches.
type Claims struct {
	TenantID    string   `json:"tenant_id"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions,omitempty"`
	BranchIDs   []string `json:"branch_ids,omitempty"`
	jwt.RegisteredClaims
}

// HasPermission reports whether the caller holds perm directly or through a role
// that implies every permission.
func (c *Claims) HasPermission(perm string) bool {
	if c.HasRole("owner", "admin") {
		return true
	}
	return slices.Contains(c.Permissions, perm)
}

func (c *Claims) HasRole(roles ...string) bool {
	return slices.Contains(roles, c.Role)
}

func (c *Claims) CanAccessBranch(branchID string) bool {
	return len(c.BranchIDs) == 0 || slices.Contains(c.BranchIDs, branchID)
}

func (c *Claims) TenantWide() bool {
	return len(c.BranchIDs) == 0
}

func SignHS256(claims Claims, secret string) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func ParseAndVerifyHS256(token, secret string) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(30*time.Second),
	)
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	if claims.Subject == "" || claims.TenantID == "" {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

type ctxKey struct{}

func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, ctxKey{}, claims)
}

func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(ctxKey{}).(*Claims)
	return c, ok && c != nil
}
