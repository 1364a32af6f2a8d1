package ddnsync_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"os/exec"
	"testing"

	"github.com/Travis-Britz/ddnsync"
)

func TestChainReturnsFirstSuccess(t *testing.T) {
	var calls int
	counting := ddnsync.SourceFunc(func(context.Context) (netip.Addr, error) {
		calls++
		return netip.MustParseAddr("9.9.9.9"), nil
	})
	c := ddnsync.Chain(failingSource("dig exited with status 1"), staticSource("5.6.7.8"), counting)

	addr, err := c.Lookup(context.Background())
	if err != nil {
		t.Fatalf("Lookup failed: %s", err)
	}
	if expected := netip.MustParseAddr("5.6.7.8"); addr != expected {
		t.Fatalf("Expected %s; got %s", expected, addr)
	}
	if calls != 0 {
		t.Fatalf("Expected later sources not to be tried; got %d calls", calls)
	}
}

func TestChainAllFail(t *testing.T) {
	first, second := errors.New("first"), errors.New("second")
	c := ddnsync.Chain(
		ddnsync.SourceFunc(func(context.Context) (netip.Addr, error) { return netip.Addr{}, first }),
		ddnsync.SourceFunc(func(context.Context) (netip.Addr, error) { return netip.Addr{}, second }),
	)
	_, err := c.Lookup(context.Background())
	var rerr *ddnsync.ResolutionError
	if !errors.As(err, &rerr) {
		t.Fatalf("Expected *ResolutionError; got %v", err)
	}
	if !errors.Is(err, first) || !errors.Is(err, second) {
		t.Fatalf("Expected both errors to be wrapped; got %v", err)
	}
}

func TestEmptyChain(t *testing.T) {
	_, err := ddnsync.Chain().Lookup(context.Background())
	var rerr *ddnsync.ResolutionError
	if !errors.As(err, &rerr) {
		t.Fatalf("Expected *ResolutionError; got %v", err)
	}
}

func TestWebSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "192.0.2.1\n")
	}))
	defer srv.Close()

	addr, err := ddnsync.WebSource(srv.URL).Lookup(context.Background())
	if err != nil {
		t.Fatalf("Request failed: %s", err)
	}
	if expected := netip.MustParseAddr("192.0.2.1"); addr != expected {
		t.Fatalf("Expected %s; got %s", expected, addr)
	}
}

func TestWebSourceFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusServiceUnavailable, "1.2.3.4"},
		{"not found", http.StatusNotFound, ""},
		{"invalid body", http.StatusOK, "invalid ip"},
		{"ipv6", http.StatusOK, "2001:db8::1"},
		{"empty body", http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			if _, err := ddnsync.WebSource(srv.URL).Lookup(context.Background()); err == nil {
				t.Fatalf("Expected an error; got err == nil")
			}
		})
	}
}

func TestWebSourceUsesHTTPClient(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if r.Header.Get("Cache-Control") != "no-cache" {
			t.Errorf("Expected Cache-Control: no-cache; got %q", r.Header.Get("Cache-Control"))
		}
		io.WriteString(w, "192.0.2.1")
	}))
	defer srv.Close()

	ws := ddnsync.WebSource(srv.URL)
	ws.SetHTTPClient(srv.Client())
	if _, err := ws.Lookup(context.Background()); err != nil {
		t.Fatalf("Lookup failed: %s", err)
	}
	if hits != 1 {
		t.Fatalf("Expected 1 hit; got %d", hits)
	}
}

func TestDigSource(t *testing.T) {
	for _, bin := range []string{"echo", "false"} {
		if _, err := exec.LookPath(bin); err != nil {
			t.Skipf("%s not available: %s", bin, err)
		}
	}

	tests := []struct {
		name    string
		src     ddnsync.DigSource
		want    string
		wantErr bool
	}{
		{"success", ddnsync.DigSource{Path: "echo", Args: []string{"203.0.113.7"}}, "203.0.113.7", false},
		{"non-zero exit", ddnsync.DigSource{Path: "false", Args: []string{}}, "", true},
		{"empty answer", ddnsync.DigSource{Path: "echo", Args: []string{""}}, "", true},
		{"garbage", ddnsync.DigSource{Path: "echo", Args: []string{";; connection timed out"}}, "", true},
		{"missing binary", ddnsync.DigSource{Path: "/nonexistent/dig"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, err := tt.src.Lookup(context.Background())
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Expected an error; got %s", addr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Lookup failed: %s", err)
			}
			if addr.String() != tt.want {
				t.Fatalf("Expected %s; got %s", tt.want, addr)
			}
		})
	}
}

func TestFromString(t *testing.T) {
	s, err := ddnsync.FromString("198.51.100.4")
	if err != nil {
		t.Fatalf("FromString failed: %s", err)
	}
	addr, err := s.Lookup(context.Background())
	if err != nil || addr != netip.MustParseAddr("198.51.100.4") {
		t.Fatalf("Expected 198.51.100.4; got %s (%v)", addr, err)
	}

	for _, bad := range []string{"", "not an ip", "2001:db8::1"} {
		if _, err := ddnsync.FromString(bad); err == nil {
			t.Errorf("FromString(%q): expected an error", bad)
		}
	}
}

func TestInterfaceSource(t *testing.T) {
	if _, err := ddnsync.InterfaceSource("does-not-exist0").Lookup(context.Background()); err == nil {
		t.Fatalf("Expected an error for a missing interface; got err == nil")
	}
	// loopback never carries a public address
	if _, err := ddnsync.InterfaceSource("lo").Lookup(context.Background()); err == nil {
		t.Fatalf("Expected an error for the loopback interface; got err == nil")
	}
}
