// Package lookup resolves free-text queries and IDs against the dataset
// store: customer resolution, open-ticket listing, and escalation rule
// retrieval.
//
// Misses are ordinary values, not panics: every operation returns a typed
// [*NotFoundError] carrying the original query and, where useful, a
// suggestion or the list of valid values. All methods are safe for
// concurrent use — the service is read-only after construction.
package lookup

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/antzucaro/matchr"

	"github.com/mkessler-dev/supportctx/internal/dataset"
)

// suggestionThreshold is the minimum Jaro-Winkler similarity between a
// failed query and a company name for the name to be offered as a
// "did you mean" suggestion.
const suggestionThreshold = 0.70

// NotFoundKind identifies what a [NotFoundError] failed to resolve.
type NotFoundKind string

const (
	KindCustomerQuery NotFoundKind = "customer_query"
	KindCustomerID    NotFoundKind = "customer_id"
	KindTier          NotFoundKind = "tier"
)

// NotFoundError reports a failed lookup. It is recovered locally by the
// tool layer and surfaced as a structured payload, never as a crash.
type NotFoundError struct {
	Kind NotFoundKind

	// Query is the original input that failed to resolve.
	Query string

	// Suggestion is the closest company name by Jaro-Winkler similarity,
	// set only for customer-query misses above the threshold.
	Suggestion string

	// ValidValues lists the acceptable inputs, set for tier misses.
	ValidValues []string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	switch e.Kind {
	case KindCustomerQuery:
		return fmt.Sprintf("no customer found matching %q", e.Query)
	case KindCustomerID:
		return fmt.Sprintf("no customer with id %q", e.Query)
	case KindTier:
		return fmt.Sprintf("no escalation rule for tier %q; valid tiers: %s",
			e.Query, strings.Join(e.ValidValues, ", "))
	default:
		return fmt.Sprintf("not found: %q", e.Query)
	}
}

// OpenTicket pairs a ticket with its derived age in whole days.
type OpenTicket struct {
	dataset.Ticket

	// AgeInDays is the ceiling of the elapsed time since creation in days:
	// a ticket created exactly now is 0, anything up to 24 hours old is 1.
	AgeInDays int `json:"ageInDays"`
}

// Service answers lookups against an immutable dataset store.
type Service struct {
	store *dataset.Store

	// now is the clock used for ticket ages; overridable in tests.
	now func() time.Time
}

// Option configures a [Service].
type Option func(*Service)

// WithClock overrides the clock used to compute ticket ages.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New returns a Service reading from store.
func New(store *dataset.Store, opts ...Option) *Service {
	s := &Service{store: store, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// FindCustomer resolves query to a customer record. A query matches when it
// equals a customer ID case-insensitively, or is a case-insensitive
// substring of the company name. The record collection is scanned in stored
// order and the first match wins; there is no ranking.
func (s *Service) FindCustomer(query string) (dataset.Customer, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	for _, c := range s.store.Customers() {
		if strings.ToLower(c.ID) == q || strings.Contains(strings.ToLower(c.Company), q) {
			return c, nil
		}
	}
	return dataset.Customer{}, &NotFoundError{
		Kind:       KindCustomerQuery,
		Query:      query,
		Suggestion: s.suggestCompany(query),
	}
}

// OpenTickets returns the customer with the given ID together with its
// open tickets (status open, pending or in_progress) in stored order. A
// customer with zero qualifying tickets yields an empty, non-nil slice.
func (s *Service) OpenTickets(customerID string) (dataset.Customer, []OpenTicket, error) {
	c, ok := s.store.CustomerByID(customerID)
	if !ok {
		return dataset.Customer{}, nil, &NotFoundError{Kind: KindCustomerID, Query: customerID}
	}

	now := s.now()
	open := []OpenTicket{}
	for _, t := range s.store.TicketsFor(customerID) {
		if !t.Status.IsOpen() {
			continue
		}
		open = append(open, OpenTicket{Ticket: t, AgeInDays: ageInDays(now, t.CreatedAt)})
	}
	return c, open, nil
}

// EscalationRule returns the rule for the given tier. An unknown tier
// yields a typed not-found listing the valid tier keys.
func (s *Service) EscalationRule(tier dataset.Tier) (dataset.EscalationRule, error) {
	r, ok := s.store.RuleFor(tier)
	if !ok {
		valid := make([]string, len(dataset.Tiers))
		for i, t := range dataset.Tiers {
			valid[i] = string(t)
		}
		return dataset.EscalationRule{}, &NotFoundError{
			Kind:        KindTier,
			Query:       string(tier),
			ValidValues: valid,
		}
	}
	return r, nil
}

// suggestCompany returns the company name most similar to query, or the
// empty string when nothing clears the threshold. Comparison is
// case-insensitive Jaro-Winkler over full company names.
func (s *Service) suggestCompany(query string) string {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return ""
	}

	best := ""
	bestScore := suggestionThreshold
	for _, c := range s.store.Customers() {
		score := matchr.JaroWinkler(q, strings.ToLower(c.Company), false)
		if score > bestScore {
			best = c.Company
			bestScore = score
		}
	}
	return best
}

// ageInDays computes the ceiling of the elapsed time between created and
// now in days. Clock skew (created in the future) clamps to 0.
func ageInDays(now, created time.Time) int {
	elapsed := now.Sub(created)
	if elapsed <= 0 {
		return 0
	}
	return int(math.Ceil(elapsed.Hours() / 24))
}
