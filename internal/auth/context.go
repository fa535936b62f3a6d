// Package auth carries the acting family member through request contexts and
// answers which actions that member may take.
package auth

import (
	"context"

	"github.com/dukerupert/fantastictask/internal/model"
)

type contextKey struct{}

// AuthContext identifies the member on whose behalf an operation runs.
type AuthContext struct {
	MemberID int64
	FamilyID int64
	Role     model.Role
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

// MemberID returns the acting member, or 0 outside a request.
func MemberID(ctx context.Context) int64 {
	ac, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return ac.MemberID
}
