// Package sourceclient implements ports.SourceClient against the
// DNS-plugin-extended IPAM inventory system.
package sourceclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/poyrazK/netbox-pdns-sync/internal/core/domain"
)

const defaultTimeout = 10 * time.Second

// Client is a read-only HTTP+JSON client for the inventory's DNS plugin
// endpoints. It performs no caching between calls: every call is a fresh
// read against the inventory API.
type Client struct {
	baseURL      string
	token        string
	nameserverID int
	httpClient   *http.Client
	logger       *slog.Logger
}

// New constructs a Client. nameserverID is this engine's configured
// nameserver identity (NB_NS_ID), used to filter owned zones.
func New(baseURL, token string, nameserverID int, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:      baseURL,
		token:        token,
		nameserverID: nameserverID,
		httpClient:   &http.Client{Timeout: defaultTimeout},
		logger:       logger,
	}
}

type zoneListResponse struct {
	Results []zoneSummary `json:"results"`
	Next    *string       `json:"next"`
}

type zoneSummary struct {
	Name        string `json:"name"`
	NameserverID int   `json:"nameserver_id"`
}

type recordSetResponse struct {
	Results []recordSetPayload `json:"results"`
	Next    *string            `json:"next"`
}

type recordSetPayload struct {
	Name    string         `json:"name"`
	Type    string         `json:"type"`
	TTL     uint32         `json:"ttl"`
	Records []recordValue  `json:"records"`
}

type recordValue struct {
	Content  string `json:"content"`
	Disabled bool   `json:"disabled"`
}

type nameserverPayload struct {
	Name string `json:"name"`
}

// GetNameserverFQDN resolves the FQDN of the configured nameserver identity,
// used by the reconciler and orchestrator as the replica-side ownership
// marker: a replica zone is managed by this engine iff this FQDN appears in
// its nameservers list.
func (c *Client) GetNameserverFQDN(ctx context.Context) (string, error) {
	path := fmt.Sprintf("/api/plugins/netbox-dns/nameservers/%d/", c.nameserverID)
	var ns nameserverPayload
	if err := c.getJSON(ctx, path, &ns); err != nil {
		return "", fmt.Errorf("resolve nameserver %d: %w", c.nameserverID, err)
	}
	if ns.Name == "" {
		return "", fmt.Errorf("nameserver %d: empty name: %w", c.nameserverID, domain.ErrSourceUnavailable)
	}
	return ns.Name, nil
}

// ListOwnedZones implements ports.SourceClient: returns every zone whose
// owning nameserver matches the configured identity, consuming pagination
// fully before returning.
func (c *Client) ListOwnedZones(ctx context.Context) ([]domain.Zone, error) {
	path := fmt.Sprintf("/api/plugins/netbox-dns/zones/?nameserver_id=%d&limit=1000", c.nameserverID)

	var zones []domain.Zone
	for path != "" {
		var page zoneListResponse
		if err := c.getJSON(ctx, path, &page); err != nil {
			return nil, err
		}
		for _, z := range page.Results {
			zones = append(zones, domain.Zone{
				Name:      domain.UnqualifyZoneName(z.Name),
				OwnerNSID: strconv.Itoa(z.NameserverID),
			})
		}
		path = relativePath(c.baseURL, page.Next)
	}
	return zones, nil
}

// GetZoneRecords implements ports.SourceClient.
func (c *Client) GetZoneRecords(ctx context.Context, zoneName string) ([]domain.RecordSet, error) {
	name := domain.UnqualifyZoneName(zoneName)
	path := fmt.Sprintf("/api/plugins/netbox-dns/records/?zone=%s&limit=1000", url.QueryEscape(name))

	var rrsets []domain.RecordSet
	for path != "" {
		var page recordSetResponse
		if err := c.getJSON(ctx, path, &page); err != nil {
			return nil, err
		}
		for _, rs := range page.Results {
			records := make([]domain.Record, 0, len(rs.Records))
			for _, r := range rs.Records {
				records = append(records, domain.Record{Content: r.Content, Disabled: r.Disabled})
			}
			rrsets = append(rrsets, domain.RecordSet{
				Name:    domain.QualifyRecordName(rs.Name, name),
				Type:    domain.NormalizeRRType(rs.Type),
				TTL:     rs.TTL,
				Records: records,
			})
		}
		path = relativePath(c.baseURL, page.Next)
	}

	if len(rrsets) == 0 {
		// The inventory API returns an empty result set rather than a 404
		// for a zone that no longer exists. A zone-scoped query returning
		// zero records is treated as the zone having vanished between the
		// owning list and this fetch, rather than as a legitimately empty
		// zone.
		return nil, fmt.Errorf("zone %s: %w", zoneName, domain.ErrSourceNotFound)
	}
	return rrsets, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request %s: %w", path, err)
	}
	req.Header.Set("Authorization", "Token "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", path, domain.ErrSourceUnavailable)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%s: %w", path, domain.ErrSourceAuth)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %w", path, domain.ErrSourceNotFound)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%s: status %d: %w", path, resp.StatusCode, domain.ErrSourceUnavailable)
	case resp.StatusCode >= 400:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s: status %d: %s: %w", path, resp.StatusCode, bytes.TrimSpace(body), domain.ErrSourceUnavailable)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// relativePath extracts the path+query of an absolute "next" pagination
// URL, or returns "" when there is no further page.
func relativePath(baseURL string, next *string) string {
	if next == nil || *next == "" {
		return ""
	}
	u, err := url.Parse(*next)
	if err != nil {
		return ""
	}
	if u.RawQuery != "" {
		return u.Path + "?" + u.RawQuery
	}
	return u.Path
}
