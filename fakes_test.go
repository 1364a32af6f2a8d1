package ddnsync_test

import (
	"context"
	"errors"
	"net/netip"

	"github.com/Travis-Britz/ddnsync"
)

type createCall struct {
	ZoneID, Name string
	Addr         netip.Addr
	TTL          int
}

type updateCall struct {
	ZoneID, RecordID, Name string
	Addr                   netip.Addr
	TTL                    int
}

// fakeProvider is an in-memory ddnsync.Provider that records mutating calls.
type fakeProvider struct {
	zones     []ddnsync.Zone
	records   []ddnsync.Record
	createErr error
	updateErr error

	zoneLookups int
	creates     []createCall
	updates     []updateCall
}

func (p *fakeProvider) GetZone(ctx context.Context, name string) (ddnsync.Zone, error) {
	p.zoneLookups++
	for _, z := range p.zones {
		if z.Name == name {
			return z, nil
		}
	}
	return ddnsync.Zone{}, &ddnsync.ZoneNotFoundError{Zone: name}
}

func (p *fakeProvider) ListRecords(ctx context.Context, zoneID string, name string) ([]ddnsync.Record, error) {
	var out []ddnsync.Record
	for _, r := range p.records {
		if r.Name == name {
			out = append(out, r)
		}
	}
	return out, nil
}

func (p *fakeProvider) CreateRecord(ctx context.Context, zoneID string, name string, addr netip.Addr, ttl int) (ddnsync.Record, error) {
	p.creates = append(p.creates, createCall{zoneID, name, addr, ttl})
	if p.createErr != nil {
		return ddnsync.Record{}, p.createErr
	}
	return ddnsync.Record{ID: "new", Name: name, Type: "A", Content: addr.String(), TTL: ttl}, nil
}

func (p *fakeProvider) UpdateRecord(ctx context.Context, zoneID string, recordID string, name string, addr netip.Addr, ttl int) (ddnsync.Record, error) {
	p.updates = append(p.updates, updateCall{zoneID, recordID, name, addr, ttl})
	if p.updateErr != nil {
		return ddnsync.Record{}, p.updateErr
	}
	return ddnsync.Record{ID: recordID, Name: name, Type: "A", Content: addr.String(), TTL: ttl}, nil
}

func (p *fakeProvider) mutations() int { return len(p.creates) + len(p.updates) }

func exampleProvider(records ...ddnsync.Record) *fakeProvider {
	return &fakeProvider{
		zones:   []ddnsync.Zone{{ID: "zone-1", Name: "example.com"}},
		records: records,
	}
}

// memCache is a ddnsync.Cache which counts writes.
type memCache struct {
	addr   netip.Addr
	writes int
}

func (c *memCache) IsSame(a netip.Addr) bool { return c.addr.IsValid() && c.addr == a }
func (c *memCache) Write(a netip.Addr) error {
	c.writes++
	c.addr = a
	return nil
}

func staticSource(addr string) ddnsync.Source {
	return ddnsync.SourceFunc(func(context.Context) (netip.Addr, error) {
		return netip.MustParseAddr(addr), nil
	})
}

func failingSource(msg string) ddnsync.Source {
	return ddnsync.SourceFunc(func(context.Context) (netip.Addr, error) {
		return netip.Addr{}, errors.New(msg)
	})
}
