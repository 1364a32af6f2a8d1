package ddnsync

import (
	"context"
	"fmt"
	"net"
	"net/netip"
)

// InterfaceSource constructs a source that returns the first global unicast IPv4 address
// reported by the named interface.
// It is only useful on hosts where the public address is assigned directly to an interface.
func InterfaceSource(iface string) Source {
	return interfaceSource{name: iface}
}

type interfaceSource struct {
	name string
}

func (s interfaceSource) String() string { return "interface " + s.name }

func (s interfaceSource) Lookup(ctx context.Context) (netip.Addr, error) {
	iface, err := net.InterfaceByName(s.name)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("error getting interface %s by name: %w", s.name, err)
	}
	addrs, err := iface.Addrs()
	if err != nil {
		return netip.Addr{}, fmt.Errorf("error looking up addresses for interface %s: %w", s.name, err)
	}
	// addr: ip+net:192.168.86.253/24
	// addr: ip+net:fe80::2cc9:801b:3551:9a43/64
	for _, a := range addrs {
		p, err := netip.ParsePrefix(a.String())
		if err != nil {
			continue
		}
		ip := p.Addr()
		if ip.Is4() && ip.IsGlobalUnicast() && !ip.IsPrivate() {
			return ip, nil
		}
	}
	return netip.Addr{}, fmt.Errorf("interface %s has no public IPv4 address", s.name)
}
