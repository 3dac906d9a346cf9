package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/Alp4ka/gotable"
)

// HeaderUser is read by HeaderSubject.
const HeaderUser = "X-User"

// HeaderSubject identifies the requester by the X-User header.
func HeaderSubject(r *http.Request) string {
	return r.Header.Get(HeaderUser)
}

// Guard combines Tokens and Permissions into a gotable.Authorizer and
// gotable.TokenIssuer.
type Guard struct {
	Tokens      *Tokens
	Permissions *Permissions
	// Subject extracts the requester, HeaderSubject when nil.
	Subject func(*http.Request) string
	Logger  *slog.Logger
}

var (
	_ gotable.Authorizer  = (*Guard)(nil)
	_ gotable.TokenIssuer = (*Guard)(nil)
)

func (g *Guard) VerifyToken(ctx context.Context, token, action string) bool {
	if g.Tokens == nil {
		return false
	}

	if _, err := g.Tokens.Verify(token, action); err != nil {
		g.logger().DebugContext(ctx, "token rejected", "action", action, "error", err)
		return false
	}

	return true
}

func (g *Guard) Can(r *http.Request, permission string) bool {
	if g.Permissions == nil {
		return false
	}

	subject := g.subject(r)
	allowed, err := g.Permissions.Can(subject, permission)
	if err != nil {
		g.logger().ErrorContext(r.Context(), "cannot check permission", "subject", subject, "permission", permission, "error", err)
		return false
	}

	return allowed
}

func (g *Guard) IssueToken(r *http.Request, action string) (string, error) {
	if g.Tokens == nil {
		return "", ErrNoSecret
	}

	return g.Tokens.Issue(g.subject(r), action)
}

func (g *Guard) subject(r *http.Request) string {
	if g.Subject != nil {
		return g.Subject(r)
	}

	return HeaderSubject(r)
}

func (g *Guard) logger() *slog.Logger {
	if g.Logger == nil {
		return slog.Default()
	}

	return g.Logger
}
