package ddnsync

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/cloudflare/cloudflare-go"
	"github.com/go-logr/logr"
)

// New constructs a Client which keeps the A record named record up to date.
//
// A provider must be registered with UsingCloudflare, UsingCloudflareHeaders, or UsingProvider.
// By default the address is resolved with DefaultSource,
// the zone is looked up from the record name when the provider supports it,
// and the last synced address is cached in a file under os.TempDir.
func New(record string, options ...Option) (*Client, error) {
	if record == "" {
		return nil, errors.New("ddnsync.New: record cannot be empty")
	}
	if !strings.Contains(record, ".") {
		return nil, errors.New("ddnsync.New: record must have at least one dot")
	}
	c := &Client{
		Source: DefaultSource(),
		record: record,
		ttl:    DefaultTTL,
		logger: logr.Discard(),
	}
	for i, opt := range options {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("ddnsync.New: option %d returned an error: %s", i, err)
		}
	}

	if c.Provider == nil {
		return nil, errors.New("ddnsync.New: no DNS provider was registered and there is no default option - use ddnsync.UsingCloudflare or similar")
	}
	if c.zone == "" {
		if _, ok := c.Provider.(ZoneFinder); !ok {
			return nil, errors.New("ddnsync.New: no zone was given and the provider cannot look one up - use ddnsync.InZone")
		}
	}
	if c.Cache == nil {
		c.Cache = NewFileCache("", record)
	}

	// this lets us propagate the logger to dependencies that use one if WithLogger was called before all of the dependencies were registered
	c.propagateLogger()
	return c, nil
}

// Option configures a Client in New.
type Option func(*Client) error

// InZone sets the name of the zone which holds the record.
func InZone(zone string) Option {
	return func(c *Client) error {
		c.zone = zone
		return nil
	}
}

// UsingCloudflare registers Cloudflare as the DNS provider, authenticating with an API token.
func UsingCloudflare(token string) Option {
	return func(c *Client) (err error) {
		if c.Provider, err = newCloudflareProvider(CloudflareAuth{Token: token}); err != nil {
			return fmt.Errorf("ddnsync.UsingCloudflare: error creating cloudflare DNS provider: %w", err)
		}
		return nil
	}
}

// UsingCloudflareHeaders registers Cloudflare as the DNS provider,
// taking credentials from raw request headers (see CloudflareAuthFromHeaders).
// A non-empty baseURL replaces the default API endpoint.
func UsingCloudflareHeaders(baseURL string, headers map[string]string) Option {
	return func(c *Client) (err error) {
		auth, extra, err := CloudflareAuthFromHeaders(headers)
		if err != nil {
			return fmt.Errorf("ddnsync.UsingCloudflareHeaders: %w", err)
		}
		var opts []cloudflare.Option
		if baseURL != "" {
			opts = append(opts, cloudflare.BaseURL(strings.TrimSuffix(baseURL, "/")))
		}
		if len(extra) > 0 {
			opts = append(opts, cloudflare.Headers(extra))
		}
		if c.Provider, err = newCloudflareProvider(auth, opts...); err != nil {
			return fmt.Errorf("ddnsync.UsingCloudflareHeaders: error creating cloudflare DNS provider: %w", err)
		}
		return nil
	}
}

// UsingProvider registers any Provider implementation.
func UsingProvider(p Provider) Option {
	return func(c *Client) error {
		if p == nil {
			return errors.New("provider cannot be nil")
		}
		c.Provider = p
		return nil
	}
}

// UsingSource sets the sources used to find the public address.
// More than one source is tried in order, as with Chain.
func UsingSource(sources ...Source) Option {
	return func(c *Client) error {
		switch len(sources) {
		case 0:
			c.Source = DefaultSource()
		case 1:
			c.Source = sources[0]
		default:
			c.Source = Chain(sources...)
		}
		return nil
	}
}

// UsingCache replaces the default file cache. Use NopCache to disable caching.
func UsingCache(cache Cache) Option {
	return func(c *Client) error {
		if cache == nil {
			cache = NopCache{}
		}
		c.Cache = cache
		return nil
	}
}

// WithTTL sets the TTL in seconds for created and updated records.
// Cloudflare treats 1 as "automatic".
func WithTTL(ttl int) Option {
	return func(c *Client) error {
		if ttl < 1 {
			return fmt.Errorf("invalid TTL %d", ttl)
		}
		c.ttl = ttl
		return nil
	}
}

// WithLogger sets the logger for the client and passes it on to the provider and sources.
// Without it, log messages are discarded.
func WithLogger(logger logr.Logger) Option {
	return func(c *Client) error {
		c.logger = logger
		return nil
	}
}

// UsingHTTPClient sets the http.Client used by the provider and by web sources.
func UsingHTTPClient(httpclient *http.Client) Option {
	return func(c *Client) error {
		if httpclient == nil {
			httpclient = http.DefaultClient
		}
		c.httpClient = httpclient
		return nil
	}
}

func (c *Client) propagateLogger() {
	type setLogger interface {
		SetLogger(logr.Logger)
	}
	type setHTTPClient interface {
		SetHTTPClient(*http.Client)
	}

	if p, ok := c.Provider.(setLogger); ok {
		p.SetLogger(c.logger.WithName("provider"))
	}
	if s, ok := c.Source.(setLogger); ok {
		s.SetLogger(c.logger.WithName("source"))
	}
	if c.httpClient == nil {
		return
	}
	if p, ok := c.Provider.(setHTTPClient); ok {
		p.SetHTTPClient(c.httpClient)
	}
	if s, ok := c.Source.(setHTTPClient); ok {
		s.SetHTTPClient(c.httpClient)
	}
	if ch, ok := c.Source.(*ChainSource); ok {
		for _, s := range ch.sources {
			if s, ok := s.(setHTTPClient); ok {
				s.SetHTTPClient(c.httpClient)
			}
		}
	}
}

// Client syncs one A record. Construct it with New.
type Client struct {
	Source
	Provider
	Cache
	logger     logr.Logger
	httpClient *http.Client
	record     string
	zone       string
	ttl        int
}

// Result describes what a run did.
type Result struct {
	Addr    netip.Addr
	Skipped bool // the cache showed the address was already synced
	Action  Action
}

func (r Result) String() string {
	if r.Skipped {
		return fmt.Sprintf("%s unchanged (cached)", r.Addr)
	}
	return fmt.Sprintf("%s %s", r.Addr, r.Action)
}

// Record is the name of the managed record.
func (c *Client) Record() string { return c.record }

// Run performs one sync.
//
// The cache is written after the record was created, updated or found to be current.
// It is never written when any step fails, so the next run tries again.
func (c *Client) Run(ctx context.Context) (Result, error) {
	addr, err := c.Lookup(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("error getting public IP: %w", err)
	}
	c.logger.V(1).Info("got public IP", "ip", addr.String())

	if c.IsSame(addr) {
		c.logger.Info("IP is still the same", "record", c.record, "ip", addr.String())
		return Result{Addr: addr, Skipped: true}, nil
	}

	if c.zone == "" {
		z, err := c.Provider.(ZoneFinder).FindZone(ctx, c.record)
		if err != nil {
			return Result{}, fmt.Errorf("unable to find zone for %s: %w", c.record, err)
		}
		c.logger.V(1).Info("found zone for record", "record", c.record, "zone", z.Name)
		c.zone = z.Name
	}

	r := &Reconciler{Provider: c.Provider, TTL: c.ttl, Logger: c.logger.WithName("reconciler")}
	action, err := r.Reconcile(ctx, c.zone, c.record, addr)
	if err != nil {
		return Result{}, fmt.Errorf("error updating %s: %w", c.record, err)
	}

	if err := c.Write(addr); err != nil {
		c.logger.Error(err, "unable to write cache", "record", c.record)
	}
	return Result{Addr: addr, Action: action}, nil
}

// RunDaemon runs client immediately and then every interval, blocking until ctx is done.
// Runs never overlap. Errors are logged and the loop continues.
// The interval is at least one minute.
func RunDaemon(ctx context.Context, client *Client, interval time.Duration, logger logr.Logger) {
	if interval < 1*time.Minute {
		interval = 1 * time.Minute
	}
	if logger.GetSink() == nil {
		logger = client.logger
	}
	run := func() {
		if res, err := client.Run(ctx); err != nil {
			logger.Error(err, "sync failed", "record", client.record)
		} else {
			logger.V(1).Info("sync finished", "record", client.record, "result", res.String())
		}
	}

	run()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			run()
		}
	}
}
