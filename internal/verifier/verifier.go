// Package verifier implements the email scoring pipeline: syntax check,
// MX lookup, disposable-domain check, role-address check, weighted score.
package verifier

import (
	"context"
	"math"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/verimail/verimail/internal/metrics"
)

// Scoring weights and threshold. Fixed constants of the design, not
// configurable at call time.
const (
	weightSyntax        = 0.4
	weightMX            = 0.3
	weightNotDisposable = 0.2
	weightNotRole       = 0.1

	validThreshold = 0.5
)

// Result messages.
const (
	msgComplete      = "Validation complete"
	msgInvalidSyntax = "Invalid email syntax"
)

// Result is the outcome of scoring a single email address.
type Result struct {
	Email         string  `json:"email"`
	IsValid       bool    `json:"is_valid"`
	SyntaxValid   bool    `json:"syntax_valid"`
	MXValid       bool    `json:"mx_valid"`
	IsDisposable  bool    `json:"is_disposable"`
	IsRoleAddress bool    `json:"is_role_address"`
	Score         float64 `json:"score"`
	Message       string  `json:"message"`
}

// Verifier scores email addresses. All lookup structures are built once at
// construction and never mutated, so a single Verifier is safe for
// concurrent use.
type Verifier struct {
	resolver   MXResolver
	mxCache    *gocache.Cache
	dnsTimeout time.Duration
	disposable map[string]struct{}
	roles      map[string]struct{}
	metrics    metrics.Recorder
}

// Options configures a Verifier.
type Options struct {
	// Resolver performs MX lookups. Defaults to the system resolver.
	Resolver MXResolver
	// DNSTimeout bounds a single MX lookup.
	DNSTimeout time.Duration
	// MXCacheTTL controls per-domain memoization of MX results.
	MXCacheTTL time.Duration
	// DisposableDomains is the set of known disposable-email domains,
	// lower-cased.
	DisposableDomains map[string]struct{}
	// RoleAddresses is the set of generic role local parts, lower-cased.
	RoleAddresses []string
	// Metrics receives instrumentation events. Defaults to a no-op recorder.
	Metrics metrics.Recorder
}

// New creates a Verifier.
func New(opts Options) *Verifier {
	if opts.Resolver == nil {
		opts.Resolver = NewNetResolver()
	}
	if opts.DNSTimeout <= 0 {
		opts.DNSTimeout = 3 * time.Second
	}
	if opts.MXCacheTTL <= 0 {
		opts.MXCacheTTL = 5 * time.Minute
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewNoop()
	}

	return &Verifier{
		resolver:   opts.Resolver,
		mxCache:    gocache.New(opts.MXCacheTTL, 2*opts.MXCacheTTL),
		dnsTimeout: opts.DNSTimeout,
		disposable: opts.DisposableDomains,
		roles:      NewRoleSet(opts.RoleAddresses),
		metrics:    opts.Metrics,
	}
}

// Score runs the scoring pipeline for an email address. It never fails:
// resolution errors degrade to mx_valid=false. A syntax failure
// short-circuits the domain-level checks entirely.
func (v *Verifier) Score(ctx context.Context, email string) Result {
	result := Result{Email: email}

	result.SyntaxValid = ValidateSyntax(email)
	if !result.SyntaxValid {
		result.Message = msgInvalidSyntax
		return result
	}

	domain := Domain(email)
	result.MXValid = v.hasMX(ctx, domain)
	result.IsDisposable = v.isDisposable(domain)
	result.IsRoleAddress = v.isRole(LocalPart(email))

	score := weightSyntax
	if result.MXValid {
		score += weightMX
	}
	if !result.IsDisposable {
		score += weightNotDisposable
	}
	if !result.IsRoleAddress {
		score += weightNotRole
	}

	// Threshold uses the unrounded value; the reported score is rounded
	// to 2 decimal digits.
	result.IsValid = score >= validThreshold
	result.Score = math.Round(score*100) / 100
	result.Message = msgComplete

	return result
}

// hasMX reports whether the domain has at least one MX record, memoizing
// the answer per domain for the cache TTL.
func (v *Verifier) hasMX(ctx context.Context, domain string) bool {
	if cached, ok := v.mxCache.Get(domain); ok {
		v.metrics.IncMXCacheHit()
		return cached.(bool)
	}
	v.metrics.IncMXCacheMiss()

	lookupCtx, cancel := context.WithTimeout(ctx, v.dnsTimeout)
	defer cancel()

	records, err := v.resolver.LookupMX(lookupCtx, domain)
	has := err == nil && len(records) > 0

	v.mxCache.Set(domain, has, gocache.DefaultExpiration)
	return has
}

func (v *Verifier) isDisposable(domain string) bool {
	_, ok := v.disposable[domain]
	return ok
}

func (v *Verifier) isRole(local string) bool {
	_, ok := v.roles[local]
	return ok
}
