package matching

import (
	"fmt"
	"sort"
	"strings"

	"supportmatch/internal/models"
)

// Rank scores the candidates, drops those without tag overlap, those listed in
// exclude and those at or below the minimum score, then orders by score
// descending with service id as tie-breaker and keeps the top K.
func (s *Scorer) Rank(report *models.Report, candidates []*models.SupportService, exclude map[string]bool) []Result {
	results := make([]Result, 0, len(candidates))
	seen := make(map[string]bool, len(candidates))

	for _, service := range candidates {
		if service == nil || seen[service.ID] || exclude[service.ID] {
			continue
		}
		seen[service.ID] = true

		result := s.Score(report, service)
		if result.Breakdown.TagOverlap == 0 {
			continue
		}
		if result.Score <= s.config.MinScore {
			continue
		}
		results = append(results, result)
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Service.ID < results[j].Service.ID
	})

	if len(results) > s.config.TopK {
		results = results[:s.config.TopK]
	}
	return results
}

// Describe renders the explanation stored on a match.
func Describe(report *models.Report, result Result) string {
	parts := []string{
		fmt.Sprintf("Covers %d of %d required services (%s)",
			len(result.MatchedTags), len(NormalizeTags(report.RequiredServices)), strings.Join(result.MatchedTags, ", ")),
	}

	if d := result.Breakdown.DistanceKM; d != nil {
		if result.Service.CoverageAreaRadius > 0 {
			parts = append(parts, fmt.Sprintf("%.1f km away, coverage radius %.0f km", *d, result.Service.CoverageAreaRadius))
		} else {
			parts = append(parts, fmt.Sprintf("%.1f km away", *d))
		}
	} else {
		parts = append(parts, "location not compared")
	}

	if result.Service.Availability.IsHighAvailability() {
		parts = append(parts, "available 24/7")
	}

	return strings.Join(parts, "; ")
}
