package ddnsync

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"time"

	"github.com/miekg/dns"
)

// DNSSource asks a resolver which reflects the client address back as an A record,
// like dig does, but without needing dig installed.
type DNSSource struct {
	Name    string        // defaults to myip.opendns.com
	Server  string        // host:port, defaults to resolver1.opendns.com:53
	Timeout time.Duration // defaults to 5s
}

func (DNSSource) String() string { return "dns" }

// Lookup implements ddnsync.Source.
func (s DNSSource) Lookup(ctx context.Context) (netip.Addr, error) {
	name, server, timeout := s.Name, s.Server, s.Timeout
	if name == "" {
		name = "myip.opendns.com"
	}
	if server == "" {
		server = "resolver1.opendns.com:53"
	}
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(name), dns.TypeA)
	c := &dns.Client{Timeout: timeout}
	r, _, err := c.ExchangeContext(ctx, m, server)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("dns query to %s failed: %w", server, err)
	}
	if r.Rcode != dns.RcodeSuccess {
		return netip.Addr{}, fmt.Errorf("dns query to %s returned %s", server, dns.RcodeToString[r.Rcode])
	}
	for _, rr := range r.Answer {
		a, ok := rr.(*dns.A)
		if !ok {
			continue
		}
		addr, ok := netip.AddrFromSlice(a.A.To4())
		if ok {
			return addr, nil
		}
	}
	return netip.Addr{}, errors.New("dns response contained no A records")
}
