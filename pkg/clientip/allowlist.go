package clientip

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"
)

// PaystackWebhookIPs are the addresses Paystack delivers webhooks from.
var PaystackWebhookIPs = []string{"52.31.139.75", "52.49.173.169", "52.214.14.220"}

var ErrInvalidAllowlistEntry = errors.New("invalid allowlist entry")

// Allowlist matches addresses against single IPs and CIDR prefixes.
// The zero value allows nothing.
type Allowlist struct {
	prefixes []netip.Prefix
}

// NewAllowlist parses entries such as "52.31.139.75" or "10.0.0.0/8".
func NewAllowlist(entries ...string) (*Allowlist, error) {
	a := &Allowlist{}
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if strings.Contains(e, "/") {
			p, err := netip.ParsePrefix(e)
			if err != nil {
				return nil, fmt.Errorf("%w: %q: %w", ErrInvalidAllowlistEntry, e, err)
			}
			a.prefixes = append(a.prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(e)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrInvalidAllowlistEntry, e, err)
		}
		addr = addr.Unmap()
		a.prefixes = append(a.prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return a, nil
}

// Contains reports whether ip is covered by any entry.
func (a *Allowlist) Contains(ip string) bool {
	if a == nil {
		return false
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range a.prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// Len returns the number of entries.
func (a *Allowlist) Len() int {
	if a == nil {
		return 0
	}
	return len(a.prefixes)
}
