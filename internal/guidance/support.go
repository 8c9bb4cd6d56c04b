// Package guidance derives prioritized, tiered support guidance and
// response templates from customer records.
//
// The engine is deliberately declarative: support guidance is an ordered
// table of independent predicate→messages rules evaluated in a fixed
// order, with non-exclusive conditions. Every operation is a pure function
// of its inputs and the immutable dataset store.
package guidance

import (
	"fmt"
	"strings"

	"github.com/mkessler-dev/supportctx/internal/dataset"
)

// Priority levels reported in support guidance.
const (
	PriorityHigh     = "HIGH"
	PriorityStandard = "STANDARD"
)

// defaultResponseTarget is used when the customer's tier has no escalation
// rule in the table.
const defaultResponseTarget = "24 hours"

// SupportGuidance is the derived handling summary for a customer account.
type SupportGuidance struct {
	Guidance           []string               `json:"guidance"`
	PriorityLevel      string                 `json:"priorityLevel"`
	ResponseTimeTarget string                 `json:"responseTimeTarget"`
	AccountManager     string                 `json:"accountManager,omitempty"`
	APIUsageStatus     dataset.APIUsageStatus `json:"apiUsageStatus"`
}

// supportRule is one entry in the guidance rule table: when applies holds
// for a customer, its messages are appended to the guidance list.
type supportRule struct {
	applies  func(dataset.Customer) bool
	messages func(dataset.Customer) []string
}

// supportRules is evaluated top to bottom. Conditions are independent and
// non-exclusive; order is part of the contract (tier directives always
// precede flag-based ones).
var supportRules = []supportRule{
	{
		applies: func(c dataset.Customer) bool { return c.Tier == dataset.TierEnterprisePlus },
		messages: func(dataset.Customer) []string {
			return []string{
				"White-glove service required - treat as a strategic account",
				"CC the account manager on all communications",
				"Provide proactive status updates every 2 hours until resolution",
			}
		},
	},
	{
		applies: func(c dataset.Customer) bool { return c.Tier == dataset.TierEnterprise },
		messages: func(dataset.Customer) []string {
			return []string{
				"Prioritize this customer and personalize every response",
				"Loop in the account manager for visibility",
			}
		},
	},
	{
		applies: func(c dataset.Customer) bool { return c.HasFlag(dataset.FlagHighValue) },
		messages: func(dataset.Customer) []string {
			return []string{"High-value account - handle with extra care"}
		},
	},
	{
		applies: func(c dataset.Customer) bool { return c.HasFlag(dataset.FlagApproachingRenewal) },
		messages: func(dataset.Customer) []string {
			return []string{"Renewal approaching - ensure an excellent support experience"}
		},
	},
	{
		applies: func(c dataset.Customer) bool { return c.HasFlag(dataset.FlagExpansionOpportunity) },
		messages: func(dataset.Customer) []string {
			return []string{"Expansion opportunity - note upsell potential in interactions"}
		},
	},
	{
		applies: func(c dataset.Customer) bool { return c.HasFlag(dataset.FlagComplianceSensitive) },
		messages: func(dataset.Customer) []string {
			return []string{"Compliance-sensitive account - document all interactions thoroughly"}
		},
	},
	{
		applies: func(c dataset.Customer) bool { return c.APIUsage.Utilization() >= 90 },
		messages: func(c dataset.Customer) []string {
			return []string{fmt.Sprintf(
				"API usage at %.1f%% of monthly limit - proactively discuss an upgrade",
				c.APIUsage.Utilization(),
			)}
		},
	},
	{
		applies: func(c dataset.Customer) bool { return len(c.KnownIssues) > 0 },
		messages: func(c dataset.Customer) []string {
			return []string{"Known issues on file: " + strings.Join(c.KnownIssues, "; ")}
		},
	},
}

// Engine derives guidance from customer records and the escalation rule
// table. It is read-only after construction and safe for concurrent use.
type Engine struct {
	store *dataset.Store
}

// NewEngine returns an Engine reading escalation rules from store.
func NewEngine(store *dataset.Store) *Engine {
	return &Engine{store: store}
}

// DeriveSupportGuidance evaluates the guidance rule table against c and
// assembles the handling summary.
//
// PriorityLevel is HIGH for any tier containing the substring "Enterprise"
// (so both Enterprise and Enterprise Plus qualify). ResponseTimeTarget
// comes from the tier's escalation rule, defaulting to "24 hours" when no
// rule exists.
func (e *Engine) DeriveSupportGuidance(c dataset.Customer) SupportGuidance {
	g := SupportGuidance{
		Guidance:           []string{},
		PriorityLevel:      PriorityStandard,
		ResponseTimeTarget: defaultResponseTarget,
		AccountManager:     c.AccountManager,
		APIUsageStatus:     c.APIUsage.Status(),
	}

	for _, rule := range supportRules {
		if rule.applies(c) {
			g.Guidance = append(g.Guidance, rule.messages(c)...)
		}
	}

	if strings.Contains(string(c.Tier), "Enterprise") {
		g.PriorityLevel = PriorityHigh
	}
	if rule, ok := e.store.RuleFor(c.Tier); ok {
		g.ResponseTimeTarget = rule.MaxResponseTime
	}

	return g
}

// TierGuidance derives short handling directives for a tier from its
// escalation rule, used by the escalation-rule tool.
func TierGuidance(rule dataset.EscalationRule) []string {
	g := []string{
		fmt.Sprintf("Respond to %s tier customers within %s", rule.Tier, rule.MaxResponseTime),
		fmt.Sprintf("Escalate to the %s when an issue cannot be resolved directly", rule.EscalateTo),
	}
	if rule.AutoEscalateAfter != "" {
		g = append(g, fmt.Sprintf("Unresolved issues auto-escalate after %s", rule.AutoEscalateAfter))
	}
	return g
}
