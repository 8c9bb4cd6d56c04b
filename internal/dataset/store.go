package dataset

import (
	"errors"
	"fmt"
	"log/slog"
)

// Snapshot is the raw record sets as produced by a source. It is validated
// and frozen into a [Store] by [NewStore].
type Snapshot struct {
	Customers       []Customer       `yaml:"customers"`
	Tickets         []Ticket         `yaml:"tickets"`
	EscalationRules []EscalationRule `yaml:"escalation_rules"`
}

// Counts summarises the size of each record set.
type Counts struct {
	Customers       int
	Tickets         int
	EscalationRules int
}

// Store holds the validated dataset for the process lifetime. It is
// read-only after construction and safe for concurrent use without locking.
type Store struct {
	customers []Customer
	tickets   []Ticket
	rules     map[Tier]EscalationRule

	byID map[string]int // customer ID (as stored) -> index into customers
}

// NewStore validates snap and freezes it into a Store. Validation failures
// are joined into a single error; a store is never built from a partially
// valid snapshot.
func NewStore(snap Snapshot) (*Store, error) {
	if err := validate(snap); err != nil {
		return nil, err
	}

	s := &Store{
		customers: snap.Customers,
		tickets:   snap.Tickets,
		rules:     make(map[Tier]EscalationRule, len(snap.EscalationRules)),
		byID:      make(map[string]int, len(snap.Customers)),
	}
	for i, c := range snap.Customers {
		s.byID[c.ID] = i
	}
	for _, r := range snap.EscalationRules {
		s.rules[r.Tier] = r
	}
	return s, nil
}

// Customers returns all customer records in stored order. The returned
// slice is shared and must not be mutated.
func (s *Store) Customers() []Customer {
	return s.customers
}

// CustomerByID returns the customer with the exact (case-sensitive) ID.
func (s *Store) CustomerByID(id string) (Customer, bool) {
	i, ok := s.byID[id]
	if !ok {
		return Customer{}, false
	}
	return s.customers[i], true
}

// TicketsFor returns all tickets owned by the given customer ID in stored
// order, regardless of status.
func (s *Store) TicketsFor(customerID string) []Ticket {
	var out []Ticket
	for _, t := range s.tickets {
		if t.CustomerID == customerID {
			out = append(out, t)
		}
	}
	return out
}

// RuleFor returns the escalation rule for the given tier. Unknown tiers
// report false rather than an error; callers decide how to surface that.
func (s *Store) RuleFor(tier Tier) (EscalationRule, bool) {
	r, ok := s.rules[tier]
	return r, ok
}

// Counts reports the record-set sizes, for startup logging and gauges.
func (s *Store) Counts() Counts {
	return Counts{
		Customers:       len(s.customers),
		Tickets:         len(s.tickets),
		EscalationRules: len(s.rules),
	}
}

// validate checks snapshot-wide integrity. The rules mirror what the
// lookup and guidance layers assume at request time.
func validate(snap Snapshot) error {
	var errs []error

	customerIDs := make(map[string]struct{}, len(snap.Customers))
	for i, c := range snap.Customers {
		prefix := fmt.Sprintf("customers[%d]", i)
		if c.ID == "" {
			errs = append(errs, fmt.Errorf("%s.id is required", prefix))
		} else if _, dup := customerIDs[c.ID]; dup {
			errs = append(errs, fmt.Errorf("%s.id %q is a duplicate", prefix, c.ID))
		} else {
			customerIDs[c.ID] = struct{}{}
		}
		if c.Company == "" {
			errs = append(errs, fmt.Errorf("%s.company is required", prefix))
		}
		if !c.Tier.IsValid() {
			errs = append(errs, fmt.Errorf("%s.tier %q is invalid; valid tiers: %v", prefix, c.Tier, Tiers))
		}
		for _, f := range c.Flags {
			if !f.IsValid() {
				errs = append(errs, fmt.Errorf("%s has unknown flag %q", prefix, f))
			}
		}
		primaries := 0
		for _, ct := range c.Contacts {
			if ct.Primary {
				primaries++
			}
		}
		if primaries > 1 {
			errs = append(errs, fmt.Errorf("%s has %d primary contacts; at most one is allowed", prefix, primaries))
		}
	}

	ticketIDs := make(map[string]struct{}, len(snap.Tickets))
	for i, t := range snap.Tickets {
		prefix := fmt.Sprintf("tickets[%d]", i)
		if t.ID == "" {
			errs = append(errs, fmt.Errorf("%s.id is required", prefix))
		} else if _, dup := ticketIDs[t.ID]; dup {
			errs = append(errs, fmt.Errorf("%s.id %q is a duplicate", prefix, t.ID))
		} else {
			ticketIDs[t.ID] = struct{}{}
		}
		if _, ok := customerIDs[t.CustomerID]; !ok {
			errs = append(errs, fmt.Errorf("%s.customer_id %q does not match any customer", prefix, t.CustomerID))
		}
		if !t.Status.IsValid() {
			errs = append(errs, fmt.Errorf("%s.status %q is invalid", prefix, t.Status))
		}
	}

	seenRules := make(map[Tier]struct{}, len(snap.EscalationRules))
	for i, r := range snap.EscalationRules {
		prefix := fmt.Sprintf("escalation_rules[%d]", i)
		if !r.Tier.IsValid() {
			errs = append(errs, fmt.Errorf("%s.tier %q is invalid; valid tiers: %v", prefix, r.Tier, Tiers))
			continue
		}
		if _, dup := seenRules[r.Tier]; dup {
			errs = append(errs, fmt.Errorf("%s duplicates the rule for tier %q", prefix, r.Tier))
		}
		seenRules[r.Tier] = struct{}{}
		if r.MaxResponseTime == "" {
			errs = append(errs, fmt.Errorf("%s.max_response_time is required", prefix))
		}
		if r.EscalateTo == "" {
			errs = append(errs, fmt.Errorf("%s.escalate_to is required", prefix))
		}
	}
	// A missing rule is survivable at request time (guidance falls back to
	// defaults, escalation requests fault per-request), so it only warns.
	for _, tier := range Tiers {
		if _, ok := seenRules[tier]; !ok {
			slog.Warn("escalation rule missing for tier", "tier", tier)
		}
	}

	return errors.Join(errs...)
}
