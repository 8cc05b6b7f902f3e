package verifier

import (
	"context"
	"net"
)

// MXResolver performs MX record lookups. The concrete implementation is the
// system resolver; tests substitute a stub to control answers and count
// calls.
type MXResolver interface {
	LookupMX(ctx context.Context, domain string) ([]*net.MX, error)
}

// netResolver adapts net.Resolver to MXResolver.
type netResolver struct {
	resolver *net.Resolver
}

// NewNetResolver returns an MXResolver backed by the system DNS resolver.
func NewNetResolver() MXResolver {
	return &netResolver{resolver: net.DefaultResolver}
}

func (r *netResolver) LookupMX(ctx context.Context, domain string) ([]*net.MX, error) {
	return r.resolver.LookupMX(ctx, domain)
}
