package ddnsync

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"os/exec"
)

var defaultDigArgs = []string{"+short", "myip.opendns.com", "@resolver1.opendns.com"}

// DigSource looks up the public address by running dig against OpenDNS's "myip" name.
//
// The lookup fails when the process exits with a non-zero status,
// or when its first line of output is not an IPv4 address.
// dig exits zero for an empty answer, so the output check is what catches that case.
type DigSource struct {
	Path string   // defaults to "dig" from $PATH
	Args []string // defaults to +short myip.opendns.com @resolver1.opendns.com
}

// Lookup implements ddnsync.Source.
func (d DigSource) Lookup(ctx context.Context) (netip.Addr, error) {
	path, args := d.Path, d.Args
	if path == "" {
		path = "dig"
	}
	if args == nil {
		args = defaultDigArgs
	}

	out, err := exec.CommandContext(ctx, path, args...).Output()
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			return netip.Addr{}, fmt.Errorf("%s exited with status %d", path, ee.ExitCode())
		}
		return netip.Addr{}, fmt.Errorf("error running %s: %w", path, err)
	}
	addr, err := parseIPv4(string(out))
	if err != nil {
		return netip.Addr{}, fmt.Errorf("unexpected output from %s: %w", path, err)
	}
	return addr, nil
}

func (DigSource) String() string { return "dig" }
