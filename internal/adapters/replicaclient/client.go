// Package replicaclient implements ports.ReplicaClient against the
// PowerDNS Authoritative HTTP API v1 using joeig/go-powerdns.
package replicaclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/joeig/go-powerdns/v3"

	"github.com/poyrazK/netbox-pdns-sync/internal/core/domain"
)

const (
	defaultMaxAttempts   = 3
	defaultBaseDelay     = time.Second
	defaultMaxDelay      = 60 * time.Second
	defaultBackoffFactor = 2.0
	defaultCallTimeout   = 10 * time.Second
)

// Client wraps the PowerDNS API client with the retry and error-mapping
// behavior required of every replica client call.
type Client struct {
	pdns     *powerdns.Client
	serverID string
	logger   *slog.Logger
}

// New constructs a Client. baseURL and apiKey are PowerDNS connection
// parameters; serverID defaults to "localhost" upstream.
func New(baseURL, apiKey, serverID string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	httpClient := &http.Client{Timeout: defaultCallTimeout}
	pdnsClient := powerdns.New(baseURL, serverID, powerdns.WithAPIKey(apiKey), powerdns.WithHTTPClient(httpClient))
	return &Client{pdns: pdnsClient, serverID: serverID, logger: logger}
}

func (c *Client) policy(op string) retryPolicy {
	return retryPolicy{
		maxAttempts:   defaultMaxAttempts,
		baseDelay:     defaultBaseDelay,
		maxDelay:      defaultMaxDelay,
		backoffFactor: defaultBackoffFactor,
		logger:        c.logger,
		opName:        op,
	}
}

func retryTransientOrServerError(err error) bool {
	var pdnsErr *powerdns.Error
	if errors.As(err, &pdnsErr) {
		return pdnsErr.StatusCode >= 500
	}
	// Non-powerdns errors at this layer are transport failures (timeouts,
	// connection refused, DNS resolution failures): always retriable.
	return true
}

func classifyError(op, zoneName string, err error) error {
	var pdnsErr *powerdns.Error
	if errors.As(err, &pdnsErr) {
		switch {
		case pdnsErr.StatusCode == http.StatusNotFound:
			return fmt.Errorf("%s %s: %w", op, zoneName, domain.ErrReplicaNotFound)
		case pdnsErr.StatusCode == http.StatusConflict:
			return fmt.Errorf("%s %s: %w", op, zoneName, domain.ErrReplicaConflict)
		case pdnsErr.StatusCode >= 500:
			return fmt.Errorf("%s %s: %w", op, zoneName, domain.ErrReplicaUnavailable)
		default:
			return fmt.Errorf("%s %s: %s: %w", op, zoneName, pdnsErr.Message, domain.ErrReplicaRejected)
		}
	}
	return fmt.Errorf("%s %s: %w", op, zoneName, domain.ErrReplicaUnavailable)
}

// ListZones implements ports.ReplicaClient.
func (c *Client) ListZones(ctx context.Context) ([]domain.Zone, error) {
	var result []powerdns.Zone
	err := c.policy("list_zones").Do(ctx, retryTransientOrServerError, func(ctx context.Context) error {
		zones, err := c.pdns.Zones.List(ctx)
		if err != nil {
			return err
		}
		result = zones
		return nil
	})
	if err != nil {
		return nil, classifyError("list_zones", "", err)
	}

	out := make([]domain.Zone, 0, len(result))
	for _, z := range result {
		out = append(out, convertZoneSummary(z))
	}
	return out, nil
}

// GetZone implements ports.ReplicaClient.
func (c *Client) GetZone(ctx context.Context, zoneName string) (*domain.Zone, error) {
	name := domain.NormalizeZoneName(zoneName)
	var result *powerdns.Zone
	err := c.policy("get_zone").Do(ctx, retryTransientOrServerError, func(ctx context.Context) error {
		z, err := c.pdns.Zones.Get(ctx, name)
		if err != nil {
			return err
		}
		result = z
		return nil
	})
	if err != nil {
		return nil, classifyError("get_zone", name, err)
	}

	zone := convertZone(*result)
	return &zone, nil
}

// CreateZone implements ports.ReplicaClient, tolerating HTTP 409: a
// conflicting create is logged and treated as success.
func (c *Client) CreateZone(ctx context.Context, zone domain.Zone) error {
	pz := buildPowerDNSZone(zone)
	err := c.policy("create_zone").Do(ctx, retryTransientOrServerError, func(ctx context.Context) error {
		_, err := c.pdns.Zones.Add(ctx, &pz)
		return err
	})
	if err == nil {
		return nil
	}

	var pdnsErr *powerdns.Error
	if errors.As(err, &pdnsErr) && pdnsErr.StatusCode == http.StatusConflict {
		c.logger.Warn("create_zone conflict, treating as success", "zone", zone.Name)
		return nil
	}
	return classifyError("create_zone", zone.Name, err)
}

// PatchRRSets implements ports.ReplicaClient.
func (c *Client) PatchRRSets(ctx context.Context, zoneName string, changes []domain.RRSetChange) error {
	name := domain.NormalizeZoneName(zoneName)
	for _, change := range changes {
		change := change
		rrType := powerdns.RRType(change.Type)
		op := "patch_zone_rrset_replace"
		if change.Change == domain.ChangeDelete {
			op = "patch_zone_rrset_delete"
		}
		err := c.policy(op).Do(ctx, retryTransientOrServerError, func(ctx context.Context) error {
			if change.Change == domain.ChangeDelete {
				return c.pdns.Records.Delete(ctx, name, change.Name, rrType)
			}
			contents := make([]string, 0, len(change.Records))
			for _, r := range change.Records {
				contents = append(contents, r.Content)
			}
			return c.pdns.Records.Change(ctx, name, change.Name, rrType, change.TTL, contents)
		})
		if err != nil {
			return classifyError(op, name, err)
		}
	}
	return nil
}

// DeleteZone implements ports.ReplicaClient.
func (c *Client) DeleteZone(ctx context.Context, zoneName string) error {
	name := domain.NormalizeZoneName(zoneName)
	err := c.policy("delete_zone").Do(ctx, retryTransientOrServerError, func(ctx context.Context) error {
		return c.pdns.Zones.Delete(ctx, name)
	})
	if err != nil {
		return classifyError("delete_zone", name, err)
	}
	return nil
}

func convertZoneSummary(z powerdns.Zone) domain.Zone {
	zone := domain.Zone{Name: stringVal(z.Name)}
	if z.Kind != nil {
		zone.Kind = domain.ZoneKind(*z.Kind)
	}
	return zone
}

func convertZone(z powerdns.Zone) domain.Zone {
	zone := convertZoneSummary(z)
	if z.Nameservers != nil {
		zone.Nameservers = z.Nameservers
	}
	if z.SOAEditAPI != nil {
		zone.SOAEditAPI = *z.SOAEditAPI
	}
	for _, rrset := range z.RRsets {
		zone.RRSets = append(zone.RRSets, convertRRSet(rrset))
	}
	return zone
}

func convertRRSet(rr powerdns.RRset) domain.RecordSet {
	rs := domain.RecordSet{Name: stringVal(rr.Name)}
	if rr.Type != nil {
		rs.Type = string(*rr.Type)
	}
	if rr.TTL != nil {
		rs.TTL = *rr.TTL
	}
	for _, rec := range rr.Records {
		disabled := false
		if rec.Disabled != nil {
			disabled = *rec.Disabled
		}
		rs.Records = append(rs.Records, domain.Record{Content: stringVal(rec.Content), Disabled: disabled})
	}
	return rs
}

func buildPowerDNSZone(zone domain.Zone) powerdns.Zone {
	name := domain.NormalizeZoneName(zone.Name)
	kind := powerdns.ZoneKind(zone.Kind)
	pz := powerdns.Zone{
		Name:        &name,
		Kind:        &kind,
		Nameservers: zone.Nameservers,
		SOAEditAPI:  &zone.SOAEditAPI,
	}
	for _, rs := range zone.RRSets {
		pz.RRsets = append(pz.RRsets, buildPowerDNSRRSet(rs))
	}
	return pz
}

func buildPowerDNSRRSet(rs domain.RecordSet) powerdns.RRset {
	name := rs.Name
	rrType := powerdns.RRType(rs.Type)
	ttl := rs.TTL
	changeType := powerdns.ChangeTypeReplace
	out := powerdns.RRset{Name: &name, Type: &rrType, TTL: &ttl, ChangeType: &changeType}
	for _, r := range rs.Records {
		content := r.Content
		disabled := r.Disabled
		out.Records = append(out.Records, powerdns.Record{Content: &content, Disabled: &disabled})
	}
	return out
}

func stringVal(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
