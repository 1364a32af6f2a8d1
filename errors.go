package ddnsync

import (
	"fmt"
	"strings"
)

// ResolutionError is returned when no Source could determine the public address.
type ResolutionError struct {
	Errs []error
}

func (e *ResolutionError) Error() string {
	if len(e.Errs) == 0 {
		return "unable to resolve public IP: no sources configured"
	}
	msgs := make([]string, 0, len(e.Errs))
	for _, err := range e.Errs {
		msgs = append(msgs, err.Error())
	}
	return "unable to resolve public IP: " + strings.Join(msgs, "; ")
}

func (e *ResolutionError) Unwrap() []error { return e.Errs }

// ZoneNotFoundError is returned when the provider has no zone with the configured name.
type ZoneNotFoundError struct {
	Zone string
}

func (e *ZoneNotFoundError) Error() string {
	return fmt.Sprintf("unable to find a zone matching %q", e.Zone)
}

// ProviderOperationError is returned when the provider rejects a create or update.
type ProviderOperationError struct {
	Op     string // "create" or "update"
	Record string
	Err    error
}

func (e *ProviderOperationError) Error() string {
	return fmt.Sprintf("failed to %s DNS record %s: %s", e.Op, e.Record, e.Err)
}

func (e *ProviderOperationError) Unwrap() error { return e.Err }
