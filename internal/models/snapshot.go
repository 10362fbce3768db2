package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the wire format for all calendar dates.
const DateLayout = "2006-01-02"

// Finding is a maximal run of consecutive available nights on a single site
// that meets an alert's minimum-nights threshold.
type Finding struct {
	Start  time.Time
	Nights int
}

// End returns the checkout date, the day after the last available night.
func (f Finding) End() time.Time {
	return f.Start.AddDate(0, 0, f.Nights)
}

// Key returns the persisted string form "YYYY-MM-DD:nights".
func (f Finding) Key() string {
	return f.Start.Format(DateLayout) + ":" + strconv.Itoa(f.Nights)
}

// ParseFindingKey parses the persisted "YYYY-MM-DD:nights" form.
func ParseFindingKey(key string) (Finding, error) {
	datePart, nightsPart, ok := strings.Cut(key, ":")
	if !ok {
		return Finding{}, fmt.Errorf("malformed finding key %q", key)
	}
	start, err := time.Parse(DateLayout, datePart)
	if err != nil {
		return Finding{}, fmt.Errorf("malformed finding date in %q: %w", key, err)
	}
	nights, err := strconv.Atoi(nightsPart)
	if err != nil || nights < 1 {
		return Finding{}, fmt.Errorf("malformed night count in %q", key)
	}
	return Finding{Start: start, Nights: nights}, nil
}

// SiteFinding pairs a finding with the site it was observed on.
type SiteFinding struct {
	SiteID  string
	Finding Finding
}

// Snapshot maps a site ID to the findings observed on it during one scan.
// It is the diff baseline persisted on the alert between scans.
type Snapshot map[string][]Finding

// Contains reports whether the snapshot holds the exact finding on the given site.
func (s Snapshot) Contains(siteID string, f Finding) bool {
	for _, prev := range s[siteID] {
		if prev.Start.Equal(f.Start) && prev.Nights == f.Nights {
			return true
		}
	}
	return false
}

// Add appends a finding to a site, ignoring duplicates within the snapshot.
func (s Snapshot) Add(siteID string, f Finding) {
	if s.Contains(siteID, f) {
		return
	}
	s[siteID] = append(s[siteID], f)
}

// Encode serializes the snapshot to its persisted JSON form:
// a map of site ID to sorted "YYYY-MM-DD:nights" keys.
func (s Snapshot) Encode() ([]byte, error) {
	out := make(map[string][]string, len(s))
	for siteID, findings := range s {
		keys := make([]string, 0, len(findings))
		for _, f := range findings {
			keys = append(keys, f.Key())
		}
		sort.Strings(keys)
		out[siteID] = keys
	}
	return json.Marshal(out)
}

// DecodeSnapshot parses the persisted JSON form. Callers treat any error as
// "no previous state"; a corrupt snapshot degrades to first-scan suppression
// instead of failing the alert.
func DecodeSnapshot(raw []byte) (Snapshot, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty snapshot")
	}
	var encoded map[string][]string
	if err := json.Unmarshal(raw, &encoded); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	snapshot := make(Snapshot, len(encoded))
	for siteID, keys := range encoded {
		findings := make([]Finding, 0, len(keys))
		for _, key := range keys {
			f, err := ParseFindingKey(key)
			if err != nil {
				return nil, err
			}
			findings = append(findings, f)
		}
		snapshot[siteID] = findings
	}
	return snapshot, nil
}
