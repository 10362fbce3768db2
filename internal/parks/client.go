// Package parks implements the client for the upstream reservation system:
// the daily-availability feed and the campground/site metadata lookups.
package parks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"campwatch/internal/config"
	"campwatch/internal/httpclient"
	"campwatch/internal/models"
	"campwatch/internal/store"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// The upstream API rejects requests without a browser-looking User-Agent.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Client talks to the reservation system. Metadata lookups are cached; the
// availability feed is always fetched live.
type Client struct {
	settingsManager *config.SystemSettingsManager
	clientManager   *httpclient.HTTPClientManager
	cache           store.Store
}

// NewClient creates a reservation system client.
func NewClient(
	settingsManager *config.SystemSettingsManager,
	clientManager *httpclient.HTTPClientManager,
	cache store.Store,
) *Client {
	return &Client{
		settingsManager: settingsManager,
		clientManager:   clientManager,
		cache:           cache,
	}
}

// FetchDailyAvailability issues one bounded-window availability query for a map
// and returns per-site daily codes indexed from the window start. Any non-200
// response, transport error, or unparseable body is a fetch failure.
func (c *Client) FetchDailyAvailability(ctx context.Context, mapID int64, windowStart, windowEnd time.Time) (map[string][]int, error) {
	settings := c.settingsManager.GetSettings()

	query := url.Values{}
	query.Set("mapId", strconv.FormatInt(mapID, 10))
	query.Set("startDate", windowStart.Format(models.DateLayout))
	query.Set("endDate", windowEnd.Format(models.DateLayout))
	query.Set("getDailyAvailability", "true")

	body, err := c.get(ctx, settings.ParksBaseURL+"/api/availability/map?"+query.Encode())
	if err != nil {
		return nil, err
	}

	availabilities := gjson.GetBytes(body, "resourceAvailabilities")
	if !availabilities.IsObject() {
		return nil, fmt.Errorf("availability response missing resourceAvailabilities")
	}

	result := make(map[string][]int)
	availabilities.ForEach(func(siteID, days gjson.Result) bool {
		codes := make([]int, 0, len(days.Array()))
		for _, day := range days.Array() {
			code := -1
			if avail := day.Get("availability"); avail.Exists() {
				code = int(avail.Int())
			}
			codes = append(codes, code)
		}
		result[siteID.String()] = codes
		return true
	})
	return result, nil
}

// CampgroundName resolves a campground's display name, best effort. It tries
// the direct resource-location endpoint first, then falls back to scanning the
// full listing. An empty string means the name could not be resolved.
func (c *Client) CampgroundName(ctx context.Context, campgroundID int64) string {
	cacheKey := "campground_name:" + strconv.FormatInt(campgroundID, 10)
	if cached, err := c.cache.Get(cacheKey); err == nil {
		return string(cached)
	}

	settings := c.settingsManager.GetSettings()
	name := ""

	if body, err := c.get(ctx, fmt.Sprintf("%s/api/resourcelocation/%d", settings.ParksBaseURL, campgroundID)); err == nil {
		name = gjson.GetBytes(body, "localizedValues.0.fullName").String()
	}

	if name == "" {
		if body, err := c.get(ctx, settings.ParksBaseURL+"/api/resourcelocation"); err == nil {
			for _, loc := range gjson.ParseBytes(body).Array() {
				if loc.Get("resourceLocationId").Int() != campgroundID {
					continue
				}
				name = loc.Get("localizedValues.0.fullName").String()
				if name == "" {
					name = loc.Get("shortName").String()
				}
				break
			}
		}
	}

	if name == "" {
		logrus.WithField("campground_id", campgroundID).Debug("Failed to resolve campground name")
		return ""
	}

	ttl := time.Duration(settings.MetadataCacheMinutes) * time.Minute
	if err := c.cache.Set(cacheKey, []byte(name), ttl); err != nil {
		logrus.WithError(err).Debug("Failed to cache campground name")
	}
	return name
}

// SiteNames resolves the site-ID-to-name mapping for a campground, best effort.
// A nil or partial map is acceptable; callers fall back to raw identifiers.
func (c *Client) SiteNames(ctx context.Context, campgroundID int64) map[string]string {
	cacheKey := "site_names:" + strconv.FormatInt(campgroundID, 10)
	if cached, err := c.cache.Get(cacheKey); err == nil {
		var names map[string]string
		if err := json.Unmarshal(cached, &names); err == nil {
			return names
		}
	}

	settings := c.settingsManager.GetSettings()
	body, err := c.get(ctx, fmt.Sprintf("%s/api/resourcelocation/resources?resourceLocationId=%d", settings.ParksBaseURL, campgroundID))
	if err != nil {
		logrus.WithError(err).WithField("campground_id", campgroundID).Warn("Failed to fetch site names")
		return nil
	}

	names := make(map[string]string)
	parsed := gjson.ParseBytes(body)
	if parsed.IsObject() {
		// Keyed by resource ID
		parsed.ForEach(func(siteID, site gjson.Result) bool {
			if name := site.Get("localizedValues.0.name").String(); name != "" {
				names[siteID.String()] = name
			}
			return true
		})
	} else if parsed.IsArray() {
		for _, site := range parsed.Array() {
			id := site.Get("resourceId")
			name := site.Get("localizedValues.0.name").String()
			if id.Exists() && name != "" {
				names[id.String()] = name
			}
		}
	}

	if len(names) > 0 {
		if encoded, err := json.Marshal(names); err == nil {
			ttl := time.Duration(settings.MetadataCacheMinutes) * time.Minute
			if err := c.cache.Set(cacheKey, encoded, ttl); err != nil {
				logrus.WithError(err).Debug("Failed to cache site names")
			}
		}
	}
	return names
}

// get performs a GET against the upstream with the shared pooled client.
func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	settings := c.settingsManager.GetSettings()
	timeout := time.Duration(settings.ScanTimeoutSeconds) * time.Second

	client := c.clientManager.GetClient(&httpclient.Config{
		ConnectTimeout:        10 * time.Second,
		RequestTimeout:        timeout,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   10,
		ResponseHeaderTimeout: timeout,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}

// BookingLink builds the canonical deep link into the reservation flow for a finding.
func BookingLink(baseURL string, campgroundID, mapID int64, f models.Finding) string {
	return fmt.Sprintf(
		"%s/create-booking/results?resourceLocationId=%d&mapId=%d&startDate=%s&endDate=%s&nights=%d&bookingCategoryId=0&equipmentId=-32768&subEquipmentId=-32768",
		baseURL, campgroundID, mapID,
		f.Start.Format(models.DateLayout), f.End().Format(models.DateLayout), f.Nights,
	)
}
