package ddnsync

import (
	"context"
	"fmt"
	"net/netip"
)

// FromString constructs a source which always returns addr.
func FromString(addr string) (Source, error) {
	a, err := parseIPv4(addr)
	if err != nil {
		return nil, fmt.Errorf("unable to parse IP: %w", err)
	}
	return staticSource(a), nil
}

type staticSource netip.Addr

func (s staticSource) Lookup(context.Context) (netip.Addr, error) {
	return netip.Addr(s), nil
}

func (s staticSource) String() string { return "static" }
