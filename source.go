package ddnsync

import (
	"context"
	"fmt"
	"net/netip"
	"strings"

	"github.com/go-logr/logr"
)

// DefaultSource returns a chain which tries dig against OpenDNS first and falls back to ipify over https.
func DefaultSource() *ChainSource {
	return Chain(DigSource{}, WebSource(DefaultWebURL))
}

// Chain constructs a Source which tries each source in order and returns the first address found.
//
// If every source fails then the returned error is a *ResolutionError carrying each source's error.
func Chain(sources ...Source) *ChainSource {
	return &ChainSource{sources: sources, logger: logr.Discard()}
}

// ChainSource is an ordered fallback of sources.
type ChainSource struct {
	sources []Source
	logger  logr.Logger
}

func (c *ChainSource) SetLogger(logger logr.Logger) { c.logger = logger }

// Lookup implements ddnsync.Source.
func (c *ChainSource) Lookup(ctx context.Context) (netip.Addr, error) {
	var errs []error
	for i, s := range c.sources {
		addr, err := s.Lookup(ctx)
		if err != nil {
			c.logger.V(1).Info("IP source failed, trying next", "source", sourceName(s), "index", i, "error", err.Error())
			errs = append(errs, fmt.Errorf("%s: %w", sourceName(s), err))
			continue
		}
		c.logger.V(1).Info("got public IP", "source", sourceName(s), "ip", addr.String())
		return addr, nil
	}
	return netip.Addr{}, &ResolutionError{Errs: errs}
}

func sourceName(s Source) string {
	if n, ok := s.(fmt.Stringer); ok {
		return n.String()
	}
	return fmt.Sprintf("%T", s)
}

// parseIPv4 parses the first line of s as an IPv4 address.
func parseIPv4(s string) (netip.Addr, error) {
	line, _, _ := strings.Cut(s, "\n")
	addr, err := netip.ParseAddr(strings.TrimSpace(line))
	if err != nil {
		return netip.Addr{}, fmt.Errorf("error parsing IP address: %w", err)
	}
	if !addr.Is4() {
		return netip.Addr{}, fmt.Errorf("%s is not an IPv4 address", addr)
	}
	return addr, nil
}
