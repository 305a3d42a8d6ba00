package domain

// College is a canonical institution record. Read-only from this service's
// perspective; used as the lookup target for matching OAuth-reported
// institution names and known email domains.
type College struct {
	CollegeID string `json:"id" dynamodbav:"college_id"`
	Name      string `json:"name" dynamodbav:"name"`
}
