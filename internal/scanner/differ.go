package scanner

import (
	"sort"

	"campwatch/internal/models"
)

// Diff returns the findings in current that are genuinely new relative to
// previous: present verbatim in neither the previous set nor explainable as a
// sliding-window artifact. Output is ordered by site ID, then start date, for
// deterministic dispatch.
func Diff(current, previous models.Snapshot) []models.SiteFinding {
	var fresh []models.SiteFinding

	siteIDs := make([]string, 0, len(current))
	for siteID := range current {
		siteIDs = append(siteIDs, siteID)
	}
	sort.Strings(siteIDs)

	for _, siteID := range siteIDs {
		prevFindings := previous[siteID]
		for _, f := range current[siteID] {
			if previous.Contains(siteID, f) {
				continue
			}
			if isSlidingArtifact(f, prevFindings) {
				continue
			}
			fresh = append(fresh, models.SiteFinding{SiteID: siteID, Finding: f})
		}
	}

	sort.SliceStable(fresh, func(i, j int) bool {
		if fresh[i].SiteID != fresh[j].SiteID {
			return fresh[i].SiteID < fresh[j].SiteID
		}
		return fresh[i].Finding.Start.Before(fresh[j].Finding.Start)
	})
	return fresh
}

// isSlidingArtifact reports whether curr is a re-observation of a previously
// seen stretch whose left edge was clipped by the scan window advancing one
// day: same end date, start shifted forward by exactly one day.
func isSlidingArtifact(curr models.Finding, prevFindings []models.Finding) bool {
	for _, prev := range prevFindings {
		if curr.Start.Equal(prev.Start.AddDate(0, 0, 1)) && curr.End().Equal(prev.End()) {
			return true
		}
	}
	return false
}
