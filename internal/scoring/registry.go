package scoring

import "strings"

// Dimension is the sub-score bucket a factor contributes to.
type Dimension string

const (
	DimensionEngagement  Dimension = "engagement"
	DimensionBehavior    Dimension = "behavior"
	DimensionDemographic Dimension = "demographic"
)

// factorRegistry maps known factor names to the dimension they score.
// Factor names arrive from the scoring pipeline in snake_case; names not
// registered here fall back to the behavior dimension.
var factorRegistry = map[string]Dimension{
	// Engagement: how actively the lead interacts with us.
	"email_opens":        DimensionEngagement,
	"email_clicks":       DimensionEngagement,
	"website_visits":     DimensionEngagement,
	"content_downloads":  DimensionEngagement,
	"webinar_attendance": DimensionEngagement,
	"portal_logins":      DimensionEngagement,

	// Behavior: buying signals and sales-cycle actions.
	"demo_requested":    DimensionBehavior,
	"quote_requested":   DimensionBehavior,
	"pricing_viewed":    DimensionBehavior,
	"response_time":     DimensionBehavior,
	"past_purchases":    DimensionBehavior,
	"support_tickets":   DimensionBehavior,
	"renewal_history":   DimensionBehavior,
	"meeting_attendance": DimensionBehavior,

	// Demographic: firmographic fit.
	"company_size":   DimensionDemographic,
	"industry_fit":   DimensionDemographic,
	"job_title":      DimensionDemographic,
	"annual_revenue": DimensionDemographic,
	"region_fit":     DimensionDemographic,
	"dealer_tier":    DimensionDemographic,
}

// DimensionOf returns the sub-score dimension for a factor name.
// Matching is case-insensitive and tolerates spaces in place of underscores.
func DimensionOf(name string) Dimension {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.ReplaceAll(key, " ", "_")
	if d, ok := factorRegistry[key]; ok {
		return d
	}
	return DimensionBehavior
}
