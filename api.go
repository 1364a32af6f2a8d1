package ddnsync

import (
	"context"
	"net/netip"
)

// Source looks up the public IPv4 address of this machine.
type Source interface {
	Lookup(context.Context) (netip.Addr, error)
}

// SourceFunc adapts an ordinary function to a Source.
type SourceFunc func(context.Context) (netip.Addr, error)

func (f SourceFunc) Lookup(ctx context.Context) (netip.Addr, error) { return f(ctx) }

// Provider is the set of DNS provider operations a Reconciler needs.
type Provider interface {
	// GetZone returns the first zone named name.
	// It returns a *ZoneNotFoundError when there is none.
	GetZone(ctx context.Context, name string) (Zone, error)
	// ListRecords returns the A records named name. The result may be empty.
	ListRecords(ctx context.Context, zoneID string, name string) ([]Record, error)
	CreateRecord(ctx context.Context, zoneID string, name string, addr netip.Addr, ttl int) (Record, error)
	UpdateRecord(ctx context.Context, zoneID string, recordID string, name string, addr netip.Addr, ttl int) (Record, error)
}

// ZoneFinder is implemented by providers which can work out the zone for a record name
// when none is configured.
type ZoneFinder interface {
	FindZone(ctx context.Context, record string) (Zone, error)
}

// Cache remembers the last address that was synced for a record.
// Its answers are only a hint for skipping work.
type Cache interface {
	IsSame(netip.Addr) bool
	Write(netip.Addr) error
}

// Zone is a provider's administrative grouping of records under a domain.
type Zone struct {
	ID   string
	Name string
}

// Record is a DNS record as reported by a Provider.
type Record struct {
	ID      string
	Name    string
	Type    string
	Content string
	TTL     int
}
