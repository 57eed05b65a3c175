package entity

import (
	"context"
	"strings"
)

// Exchange is one completed network request/response pair observed on a page.
// Body is fetched lazily so that unmatched exchanges cost nothing.
type Exchange struct {
	RequestID    string
	URL          string
	Status       int
	MIMEType     string
	ResourceType string
	Body         func(ctx context.Context) ([]byte, error)
}

// MatchCriterion recognizes the exchange carrying the result payload.
type MatchCriterion struct {
	URLContains string
}

func (c MatchCriterion) Matches(ex Exchange) bool {
	if c.URLContains == "" {
		return false
	}
	return strings.Contains(ex.URL, c.URLContains) && ex.Status >= 200 && ex.Status < 300
}
