package customers

import (
	"sort"
	"strings"
	"time"

	"github.com/fourthcoffee/fc-commerce/internal/models"
)

// MaxRecommendations is how many recommendations the customer page shows.
const MaxRecommendations = 6

// UndatedLabel heads the group of recommendations without a date.
const UndatedLabel = "Undated recommendations"

// RecommendationGroup is the recommendations generated on one day.
type RecommendationGroup struct {
	Date            *time.Time              `json:"date,omitempty"`
	Label           string                  `json:"label"`
	Recommendations []models.Recommendation `json:"recommendations"`
}

// GroupRecommendations keeps the newest max recommendations (ties broken
// by score) and groups them by calendar day, newest day first and undated
// last.
func GroupRecommendations(recs []models.Recommendation, max int) []RecommendationGroup {
	if len(recs) == 0 {
		return []RecommendationGroup{}
	}
	if max <= 0 {
		max = MaxRecommendations
	}

	sorted := append([]models.Recommendation{}, recs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		ti, tj := generatedAt(sorted[i]), generatedAt(sorted[j])
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return sorted[i].Score > sorted[j].Score
	})
	if len(sorted) > max {
		sorted = sorted[:max]
	}

	var groups []RecommendationGroup
	var undated *RecommendationGroup
	byDay := map[string]int{}

	for _, rec := range sorted {
		if rec.GeneratedAt == nil {
			if undated == nil {
				undated = &RecommendationGroup{Label: UndatedLabel}
			}
			undated.Recommendations = append(undated.Recommendations, rec)
			continue
		}
		t := *rec.GeneratedAt
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
		key := day.Format(time.DateOnly)
		i, ok := byDay[key]
		if !ok {
			i = len(groups)
			byDay[key] = i
			groups = append(groups, RecommendationGroup{
				Date:  &day,
				Label: day.Format("January 02, 2006"),
			})
		}
		groups[i].Recommendations = append(groups[i].Recommendations, rec)
	}

	// Sorted input already yields days in descending order.
	if undated != nil {
		groups = append(groups, *undated)
	}
	return groups
}

func generatedAt(r models.Recommendation) time.Time {
	if r.GeneratedAt == nil {
		return time.Time{}
	}
	return *r.GeneratedAt
}

// FirstName returns the first word of a customer's name.
func FirstName(c *models.Customer) string {
	if c == nil {
		return ""
	}
	if fields := strings.Fields(c.Name); len(fields) > 0 {
		return fields[0]
	}
	return c.Name
}
