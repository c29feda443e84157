package emailcheck

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/seralp/mailcast/internal/domain"
	"golang.org/x/sync/errgroup"
)

const (
	defaultProbeTimeout   = 5 * time.Second
	defaultConcurrency    = 8
	maxExchangesPerDomain = 3
)

// MaxBatchSize caps one validation request, mirroring the contact-list cap.
const MaxBatchSize = domain.MaxListEmails

// Resolver is the DNS port. The default implementation delegates to the OS
// resolver through net.Resolver.
type Resolver interface {
	LookupMX(ctx context.Context, domain string) ([]*net.MX, error)
	LookupHost(ctx context.Context, host string) ([]string, error)
}

type netResolver struct {
	resolver *net.Resolver
}

func (r netResolver) LookupMX(ctx context.Context, domain string) ([]*net.MX, error) {
	return r.resolver.LookupMX(ctx, domain)
}

func (r netResolver) LookupHost(ctx context.Context, host string) ([]string, error) {
	return r.resolver.LookupHost(ctx, host)
}

// Result reports one address's syntax and liveness checks.
type Result struct {
	Email       string `json:"email"`
	IsValid     bool   `json:"isValid"`
	HasMXRecord bool   `json:"hasMxRecord"`
	IsReachable bool   `json:"isReachable"`
	Error       string `json:"error,omitempty"`
}

// Checker probes email addresses for syntax validity, MX presence, and MX
// host resolvability.
type Checker struct {
	resolver    Resolver
	timeout     time.Duration
	concurrency int
}

func NewChecker() *Checker {
	return NewCheckerWithResolver(netResolver{resolver: net.DefaultResolver})
}

func NewCheckerWithResolver(resolver Resolver) *Checker {
	return &Checker{
		resolver:    resolver,
		timeout:     defaultProbeTimeout,
		concurrency: defaultConcurrency,
	}
}

// CheckAll probes every address with bounded concurrency. Results keep the
// input order. Probe failures land in the per-address Error field; CheckAll
// itself only fails on a canceled context.
func (c *Checker) CheckAll(ctx context.Context, emails []string) ([]Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(emails) > MaxBatchSize {
		return nil, fmt.Errorf("%w: maximum %d emails allowed per request (got %d)", domain.ErrValidation, MaxBatchSize, len(emails))
	}

	results := make([]Result, len(emails))

	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, email := range emails {
		i, email := i, email
		g.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			results[i] = c.check(groupCtx, email)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *Checker) check(ctx context.Context, email string) Result {
	result := Result{Email: email}

	if !domain.ValidAddress(email) {
		result.Error = "invalid email format"
		return result
	}
	result.IsValid = true

	addressDomain := domain.AddressDomain(email)
	if addressDomain == "" {
		result.Error = "no domain found"
		return result
	}

	probeCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	mxRecords, err := c.resolver.LookupMX(probeCtx, addressDomain)
	if err != nil {
		result.Error = fmt.Sprintf("MX lookup failed: %v", err)
		return result
	}
	if len(mxRecords) == 0 {
		result.Error = "no MX records found"
		return result
	}
	result.HasMXRecord = true

	exchanges := mxRecords
	if len(exchanges) > maxExchangesPerDomain {
		exchanges = exchanges[:maxExchangesPerDomain]
	}
	for _, mx := range exchanges {
		if _, err := c.resolver.LookupHost(probeCtx, mx.Host); err == nil {
			result.IsReachable = true
			break
		}
	}
	if !result.IsReachable {
		result.Error = "MX servers not reachable"
	}

	return result
}
