package emailcheck

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
)

type fakeResolver struct {
	mx    map[string][]*net.MX
	mxErr map[string]error
	hosts map[string]bool
}

func (f *fakeResolver) LookupMX(ctx context.Context, domain string) ([]*net.MX, error) {
	if err, ok := f.mxErr[domain]; ok {
		return nil, err
	}
	return f.mx[domain], nil
}

func (f *fakeResolver) LookupHost(ctx context.Context, host string) ([]string, error) {
	if f.hosts[host] {
		return []string{"192.0.2.1"}, nil
	}
	return nil, errors.New("no such host")
}

func TestCheckerCheckAll(t *testing.T) {
	t.Parallel()

	resolver := &fakeResolver{
		mx: map[string][]*net.MX{
			"good.com":  {{Host: "mx1.good.com", Pref: 10}},
			"nomx.com":  {},
			"noip.com":  {{Host: "mx1.noip.com", Pref: 10}},
		},
		mxErr: map[string]error{
			"dnsfail.com": errors.New("servfail"),
		},
		hosts: map[string]bool{"mx1.good.com": true},
	}

	checker := NewCheckerWithResolver(resolver)

	emails := []string{
		"user@good.com",
		"not-an-email",
		"user@nomx.com",
		"user@noip.com",
		"user@dnsfail.com",
	}

	results, err := checker.CheckAll(context.Background(), emails)
	if err != nil {
		t.Fatalf("CheckAll() error = %v", err)
	}
	if len(results) != len(emails) {
		t.Fatalf("results = %d, want %d", len(results), len(emails))
	}

	for i, r := range results {
		if r.Email != emails[i] {
			t.Fatalf("results[%d].Email = %q, want %q (order must be preserved)", i, r.Email, emails[i])
		}
	}

	good := results[0]
	if !good.IsValid || !good.HasMXRecord || !good.IsReachable || good.Error != "" {
		t.Fatalf("good.com result = %+v, want fully valid", good)
	}

	invalid := results[1]
	if invalid.IsValid || invalid.Error == "" {
		t.Fatalf("invalid syntax result = %+v, want invalid with error", invalid)
	}

	noMX := results[2]
	if !noMX.IsValid || noMX.HasMXRecord || noMX.Error == "" {
		t.Fatalf("nomx.com result = %+v, want valid syntax without MX", noMX)
	}

	unreachable := results[3]
	if !unreachable.HasMXRecord || unreachable.IsReachable {
		t.Fatalf("noip.com result = %+v, want MX present but unreachable", unreachable)
	}

	dnsFail := results[4]
	if dnsFail.HasMXRecord || dnsFail.Error == "" {
		t.Fatalf("dnsfail.com result = %+v, want lookup error", dnsFail)
	}
}

func TestCheckerCheckAllBatchLimit(t *testing.T) {
	t.Parallel()

	checker := NewCheckerWithResolver(&fakeResolver{})

	emails := make([]string, MaxBatchSize+1)
	for i := range emails {
		emails[i] = fmt.Sprintf("user%d@example.com", i)
	}

	if _, err := checker.CheckAll(context.Background(), emails); err == nil {
		t.Fatal("expected error for oversized batch")
	}
}

func TestCheckerCheckAllCanceledContext(t *testing.T) {
	t.Parallel()

	checker := NewCheckerWithResolver(&fakeResolver{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := checker.CheckAll(ctx, []string{"a@x.com"}); err == nil {
		t.Fatal("expected error for canceled context")
	}
}
