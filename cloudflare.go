package ddnsync

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/netip"
	"strings"

	"github.com/cloudflare/cloudflare-go"
	"github.com/go-logr/logr"
)

// CloudflareAuth holds the credentials for the Cloudflare API.
// Either Token, or Key and Email, must be set.
type CloudflareAuth struct {
	Token string
	Key   string
	Email string
}

// CloudflareAuthFromHeaders extracts credentials from raw API request headers,
// e.g. "X-Auth-Key" and "X-Auth-Email", or "Authorization: Bearer <token>".
// Headers which are not credentials are returned separately so they can still be sent.
// Only the Bearer scheme is accepted for Authorization.
func CloudflareAuthFromHeaders(headers map[string]string) (auth CloudflareAuth, extra http.Header, err error) {
	extra = http.Header{}
	for k, v := range headers {
		switch http.CanonicalHeaderKey(k) {
		case "Authorization":
			scheme, token, _ := strings.Cut(strings.TrimSpace(v), " ")
			if !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				return CloudflareAuth{}, nil, errors.New("unsupported Authorization header: expected \"Bearer <token>\"")
			}
			auth.Token = strings.TrimSpace(token)
		case "X-Auth-Key":
			auth.Key = v
		case "X-Auth-Email":
			auth.Email = v
		case "Content-Type":
		default:
			extra.Set(k, v)
		}
	}
	return auth, extra, nil
}

func newCloudflareProvider(auth CloudflareAuth, opts ...cloudflare.Option) (cf *cloudflareProvider, err error) {
	// The reconciler never retries; a failed call waits for the next scheduled run.
	opts = append([]cloudflare.Option{cloudflare.UsingRetryPolicy(0, 0, 0)}, opts...)

	cf = new(cloudflareProvider)
	switch {
	case auth.Token != "":
		cf.api, err = cloudflare.NewWithAPIToken(auth.Token, opts...)
	case auth.Key != "" && auth.Email != "":
		cf.api, err = cloudflare.New(auth.Key, auth.Email, opts...)
	default:
		return nil, errors.New("no cloudflare credentials: an API token, or an API key and email, are required")
	}
	if err != nil {
		return nil, fmt.Errorf("error creating cloudflare api client: %w", err)
	}
	cf.logger = logr.Discard()
	cf.comment = "managed by ddnsync"
	return cf, nil
}

// cloudflareProvider implements ddnsync.Provider.
type cloudflareProvider struct {
	api     *cloudflare.API
	logger  logr.Logger
	comment string // optional comment to attach to each new DNS entry
}

func (cf *cloudflareProvider) SetLogger(logger logr.Logger) { cf.logger = logger }

func (cf *cloudflareProvider) SetHTTPClient(c *http.Client) {
	// HTTPClient never returns an error.
	_ = cloudflare.HTTPClient(c)(cf.api)
}

// GetZone returns the first zone with the given name.
// Cloudflare does not allow two zones with one name in an account, so the rest are ignored.
func (cf *cloudflareProvider) GetZone(ctx context.Context, name string) (Zone, error) {
	zones, err := cf.api.ListZones(ctx, name)
	if err != nil {
		return Zone{}, fmt.Errorf("error listing zones: %w", err)
	}
	cf.logger.V(1).Info("listed zones", "name", name, "count", len(zones))
	if len(zones) == 0 {
		return Zone{}, &ZoneNotFoundError{Zone: name}
	}
	return Zone{ID: zones[0].ID, Name: zones[0].Name}, nil
}

// FindZone finds the most specific zone in the account which contains record.
func (cf *cloudflareProvider) FindZone(ctx context.Context, record string) (Zone, error) {
	zones, err := cf.api.ListZones(ctx)
	if err != nil {
		return Zone{}, fmt.Errorf("error listing zones: %w", err)
	}

	var best Zone
	for _, z := range zones {
		if (record == z.Name || strings.HasSuffix(record, "."+z.Name)) && len(z.Name) > len(best.Name) {
			best = Zone{ID: z.ID, Name: z.Name}
		}
	}
	if best.ID == "" {
		return Zone{}, &ZoneNotFoundError{Zone: record}
	}
	return best, nil
}

func (cf *cloudflareProvider) ListRecords(ctx context.Context, zoneID string, name string) ([]Record, error) {
	records, _, err := cf.api.ListDNSRecords(ctx, cloudflare.ZoneIdentifier(zoneID), cloudflare.ListDNSRecordsParams{
		Type: "A",
		Name: name,
	})
	if err != nil {
		return nil, fmt.Errorf("error listing DNS records: %w", err)
	}
	cf.logger.V(1).Info("listed DNS records", "zone", zoneID, "name", name, "records", records)

	out := make([]Record, 0, len(records))
	for _, r := range records {
		out = append(out, fromCloudflare(r))
	}
	return out, nil
}

func (cf *cloudflareProvider) CreateRecord(ctx context.Context, zoneID string, name string, addr netip.Addr, ttl int) (Record, error) {
	rec, err := cf.api.CreateDNSRecord(ctx, cloudflare.ZoneIdentifier(zoneID), cloudflare.CreateDNSRecordParams{
		Type:    "A",
		Name:    name,
		Content: addr.String(),
		ZoneID:  zoneID,
		TTL:     ttl,
		Comment: cf.comment,
	})
	if err != nil {
		return Record{}, fmt.Errorf("error creating DNS record: %w", err)
	}
	cf.logger.V(1).Info("successfully added record", "record", rec)
	return fromCloudflare(rec), nil
}

func (cf *cloudflareProvider) UpdateRecord(ctx context.Context, zoneID string, recordID string, name string, addr netip.Addr, ttl int) (Record, error) {
	rec, err := cf.api.UpdateDNSRecord(ctx, cloudflare.ZoneIdentifier(zoneID), cloudflare.UpdateDNSRecordParams{
		ID:      recordID,
		Type:    "A",
		Name:    name,
		Content: addr.String(),
		TTL:     ttl,
	})
	if err != nil {
		return Record{}, fmt.Errorf("error updating DNS record %s: %w", recordID, err)
	}
	cf.logger.V(1).Info("successfully updated record", "id", recordID, "content", addr.String())
	if rec.ID == "" {
		return Record{ID: recordID, Name: name, Type: "A", Content: addr.String(), TTL: ttl}, nil
	}
	return fromCloudflare(rec), nil
}

// VerifyCloudflareToken checks that token is an active Cloudflare API token.
func VerifyCloudflareToken(ctx context.Context, token string, opts ...cloudflare.Option) error {
	api, err := cloudflare.NewWithAPIToken(token, opts...)
	if err != nil {
		return fmt.Errorf("error creating api client: %w", err)
	}
	result, err := api.VerifyAPIToken(ctx)
	if err != nil {
		return fmt.Errorf("unable to verify api token: %w", err)
	}
	if result.Status != "active" {
		return fmt.Errorf("expected api token status to be \"active\"; got \"%s\"", result.Status)
	}
	return nil
}

func fromCloudflare(r cloudflare.DNSRecord) Record {
	return Record{
		ID:      r.ID,
		Name:    r.Name,
		Type:    r.Type,
		Content: r.Content,
		TTL:     r.TTL,
	}
}
