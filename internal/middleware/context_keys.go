package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
)

const (
	actorKey    = contextKey("actor")
	clubIDKey   = contextKey("clubID")
	overrideKey = contextKey("overrideClosedPeriod")
)

// Principal is the authenticated caller of a request.
type Principal struct {
	Actor  string
	ClubID string
	// CanOverrideClosed is the caller's authority to post into closed periods.
	CanOverrideClosed bool
}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	ctx = context.WithValue(ctx, actorKey, p.Actor)
	ctx = context.WithValue(ctx, clubIDKey, p.ClubID)
	return context.WithValue(ctx, overrideKey, p.CanOverrideClosed)
}

// GetPrincipalFromContext retrieves the authenticated caller from the request context.
// It returns false when the auth middleware did not run.
func GetPrincipalFromContext(c *gin.Context) (Principal, bool) {
	ctx := c.Request.Context()
	actor, ok := ctx.Value(actorKey).(string)
	if !ok || actor == "" {
		return Principal{}, false
	}
	clubID, ok := ctx.Value(clubIDKey).(string)
	if !ok || clubID == "" {
		return Principal{}, false
	}
	override, _ := ctx.Value(overrideKey).(bool)
	return Principal{Actor: actor, ClubID: clubID, CanOverrideClosed: override}, true
}
