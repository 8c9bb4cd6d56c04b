package guidance

import (
	"fmt"
	"strings"

	"github.com/mkessler-dev/supportctx/internal/dataset"
)

// ResponseGuidance is the per-issue-type response package: tone directives,
// a ready-to-adapt template, supporting context lines, and the escalation
// path for the customer's tier (nil when the tier has no rule, except for
// the escalation issue type where its absence is a precondition fault).
type ResponseGuidance struct {
	Tone              []string                `json:"toneGuidance"`
	Template          string                  `json:"responseTemplate"`
	AdditionalContext []string                `json:"additionalContext"`
	EscalationPath    *dataset.EscalationRule `json:"escalationPath,omitempty"`
}

// PreconditionError reports a data-integrity fault: an operation that by
// design assumes a complete escalation rule table found a tier without a
// rule. It is distinct from an ordinary not-found so callers can surface
// it as a fault rather than a miss. Startup validation warns about
// incomplete rule tables, so in practice this only fires on bad data.
type PreconditionError struct {
	Tier dataset.Tier
}

// Error implements the error interface.
func (e *PreconditionError) Error() string {
	return fmt.Sprintf("escalation requested but no escalation rule exists for tier %q (data integrity fault)", e.Tier)
}

// Tone line pairs by customer class.
var (
	enterpriseTone = []string{
		"Use a consultative, partnership-oriented tone",
		"Reference their specific use case and offer a direct line for follow-up",
	}
	standardTone = []string{
		"Keep the tone friendly and approachable",
		"Provide clear step-by-step instructions",
	}
	escalationTone = []string{
		"Acknowledge the customer's frustration directly",
		"Commit to a concrete resolution timeline",
		"Take personal ownership of the issue through resolution",
	}
)

// DeriveResponseGuidance builds the response package for c and the given
// issue type. Unrecognised issue types fall through to the generic
// template; enum membership is enforced at the tool boundary.
//
// The escalation issue type requires a rule for the customer's tier; a
// missing rule returns a [*PreconditionError] and fails only this request.
func (e *Engine) DeriveResponseGuidance(c dataset.Customer, issueType dataset.IssueType) (ResponseGuidance, error) {
	g := ResponseGuidance{
		Tone:              toneFor(c.Tier),
		AdditionalContext: []string{},
	}

	rule, hasRule := e.store.RuleFor(c.Tier)
	if hasRule {
		g.EscalationPath = &rule
	}

	switch issueType {
	case dataset.IssueBilling:
		g.Template = billingTemplate(c)
		g.AdditionalContext = append(g.AdditionalContext,
			fmt.Sprintf("Contract value: $%.2f", c.ContractValue),
			"Renewal date: "+c.RenewalDate,
		)

	case dataset.IssueAPI, dataset.IssueTechnical:
		g.Template = technicalTemplate(c)
		g.AdditionalContext = append(g.AdditionalContext,
			fmt.Sprintf("API utilization: %.1f%% of monthly limit", c.APIUsage.Utilization()),
			"Products in use: "+strings.Join(c.Products, ", "),
		)
		if len(c.KnownIssues) > 0 {
			g.AdditionalContext = append(g.AdditionalContext,
				"Known issues: "+strings.Join(c.KnownIssues, "; "))
		}

	case dataset.IssueEscalation:
		if !hasRule {
			return ResponseGuidance{}, &PreconditionError{Tier: c.Tier}
		}
		g.Template = escalationTemplate(c, rule)
		g.Tone = append(g.Tone, escalationTone...)
		g.AdditionalContext = append(g.AdditionalContext,
			"Escalation target: "+rule.EscalateTo,
			"Auto-escalates after: "+rule.AutoEscalateAfter,
		)

	default:
		// account, feature_request, and anything unrecognised.
		g.Template = genericTemplate(c)
	}

	return g, nil
}

// toneFor returns the two fixed tone lines for the customer class. Any
// tier containing "Enterprise" gets the consultative pair.
func toneFor(tier dataset.Tier) []string {
	if strings.Contains(string(tier), "Enterprise") {
		return append([]string(nil), enterpriseTone...)
	}
	return append([]string(nil), standardTone...)
}

// greetingName resolves the primary contact's name, substituting the
// literal "there" when the account has no primary contact.
func greetingName(c dataset.Customer) string {
	if ct, ok := c.PrimaryContact(); ok {
		return ct.Name
	}
	return "there"
}

func billingTemplate(c dataset.Customer) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", greetingName(c))
	fmt.Fprintf(&b, "Thank you for reaching out about billing for your %s subscription (%s).\n",
		c.Company, strings.Join(c.Products, ", "))
	fmt.Fprintf(&b, "I can confirm your current contract value is $%.2f.\n\n", c.ContractValue)
	b.WriteString("I'm looking into the details now and will follow up with a full breakdown shortly.\n")
	return b.String()
}

func technicalTemplate(c dataset.Customer) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", greetingName(c))
	fmt.Fprintf(&b, "Thanks for the report. I've pulled up your account for %s (%s).\n",
		c.Company, strings.Join(c.Products, ", "))
	fmt.Fprintf(&b, "Your API usage currently sits at %.1f%% of the monthly limit.\n", c.APIUsage.Utilization())
	if len(c.KnownIssues) > 0 {
		fmt.Fprintf(&b, "We are aware of the following on your account: %s.\n", strings.Join(c.KnownIssues, "; "))
	}
	b.WriteString("\nI'm investigating and will report back with findings and next steps.\n")
	return b.String()
}

func escalationTemplate(c dataset.Customer, rule dataset.EscalationRule) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", greetingName(c))
	b.WriteString("I understand this issue has not been resolved to your satisfaction, and I'm sorry for the trouble it has caused.\n")
	fmt.Fprintf(&b, "I am escalating this now to our %s, who will own it until it is fully resolved.\n", rule.EscalateTo)
	fmt.Fprintf(&b, "You can expect a direct response within %s.\n", rule.MaxResponseTime)
	return b.String()
}

func genericTemplate(c dataset.Customer) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", greetingName(c))
	fmt.Fprintf(&b, "Thank you for contacting support about your %s account.\n", c.Company)
	b.WriteString("I've reviewed your request and will follow up with details shortly.\n")
	return b.String()
}
