package ddnsync

import (
	"context"
	"fmt"
	"net/netip"

	"github.com/go-logr/logr"
)

// DefaultTTL is the time-to-live, in seconds, given to created and updated records.
const DefaultTTL = 120

// Action is the outcome of a reconciliation.
type Action int

const (
	NoOp Action = iota
	Created
	Updated
)

func (a Action) String() string {
	switch a {
	case NoOp:
		return "no-op"
	case Created:
		return "created"
	case Updated:
		return "updated"
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// Reconciler compares the desired address with the provider's record
// and issues at most one create or update.
type Reconciler struct {
	Provider Provider
	TTL      int // DefaultTTL when zero
	Logger   logr.Logger // the zero Logger discards
}

// Reconcile makes the A record named record in zone point at addr.
//
// Only the first record the provider returns is considered;
// any others with the same name are left alone.
// Create and update failures are returned as *ProviderOperationError and are not retried.
func (r *Reconciler) Reconcile(ctx context.Context, zone, record string, addr netip.Addr) (Action, error) {
	log := r.Logger
	ttl := r.TTL
	if ttl == 0 {
		ttl = DefaultTTL
	}

	z, err := r.Provider.GetZone(ctx, zone)
	if err != nil {
		return NoOp, fmt.Errorf("unable to get zone %s: %w", zone, err)
	}
	log.V(1).Info("got zone", "zone", z.Name, "id", z.ID)

	records, err := r.Provider.ListRecords(ctx, z.ID, record)
	if err != nil {
		return NoOp, fmt.Errorf("unable to list records for %s: %w", record, err)
	}
	log.V(1).Info("found existing records", "record", record, "count", len(records))

	if len(records) == 0 {
		log.Info("record doesn't exist, creating it", "record", record, "ip", addr.String())
		if _, err := r.Provider.CreateRecord(ctx, z.ID, record, addr, ttl); err != nil {
			return NoOp, &ProviderOperationError{Op: "create", Record: record, Err: err}
		}
		return Created, nil
	}
	if len(records) > 1 {
		log.V(1).Info("multiple A records found, only the first is managed", "record", record, "count", len(records))
	}

	existing := records[0]
	if existing.Content == addr.String() {
		log.Info("nothing needs to be done", "record", record, "ip", existing.Content)
		return NoOp, nil
	}

	log.Info("record content doesn't match, updating it", "record", record, "old", existing.Content, "new", addr.String())
	if _, err := r.Provider.UpdateRecord(ctx, z.ID, existing.ID, record, addr, ttl); err != nil {
		return NoOp, &ProviderOperationError{Op: "update", Record: record, Err: err}
	}
	return Updated, nil
}
