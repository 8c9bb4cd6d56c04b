// Package dataset defines the customer-support record types and the
// immutable in-memory store supportctx serves from.
//
// The dataset is loaded exactly once at process start from a static source
// (a YAML document or a PostgreSQL database), validated as a whole, and
// never mutated afterwards. All store reads are safe for unsynchronised
// concurrent use.
package dataset

import (
	"math"
	"time"
)

// Tier classifies a customer account by service level, ordered by
// increasing service priority.
type Tier string

const (
	TierStandard       Tier = "Standard"
	TierGrowth         Tier = "Growth"
	TierEnterprise     Tier = "Enterprise"
	TierEnterprisePlus Tier = "Enterprise Plus"
)

// Tiers lists all known tiers in ascending service priority. The slice is
// treated as read-only.
var Tiers = []Tier{TierStandard, TierGrowth, TierEnterprise, TierEnterprisePlus}

// IsValid reports whether t is a recognised tier.
func (t Tier) IsValid() bool {
	switch t {
	case TierStandard, TierGrowth, TierEnterprise, TierEnterprisePlus:
		return true
	}
	return false
}

// Flag annotates a customer account with a business-relevant condition.
type Flag string

const (
	FlagHighValue            Flag = "HIGH_VALUE"
	FlagApproachingRenewal   Flag = "APPROACHING_RENEWAL"
	FlagExpansionOpportunity Flag = "EXPANSION_OPPORTUNITY"
	FlagComplianceSensitive  Flag = "COMPLIANCE_SENSITIVE"
	FlagStrategicAccount     Flag = "STRATEGIC_ACCOUNT"
)

// IsValid reports whether f is part of the known flag vocabulary.
func (f Flag) IsValid() bool {
	switch f {
	case FlagHighValue, FlagApproachingRenewal, FlagExpansionOpportunity,
		FlagComplianceSensitive, FlagStrategicAccount:
		return true
	}
	return false
}

// IssueType categorises a support request. It drives which response
// template and context fields the guidance engine produces.
type IssueType string

const (
	IssueBilling        IssueType = "billing"
	IssueTechnical      IssueType = "technical"
	IssueAPI            IssueType = "api"
	IssueAccount        IssueType = "account"
	IssueFeatureRequest IssueType = "feature_request"
	IssueEscalation     IssueType = "escalation"
)

// IssueTypes lists all recognised issue types. The slice is treated as
// read-only.
var IssueTypes = []IssueType{
	IssueBilling, IssueTechnical, IssueAPI,
	IssueAccount, IssueFeatureRequest, IssueEscalation,
}

// IsValid reports whether it is a recognised issue type.
func (it IssueType) IsValid() bool {
	switch it {
	case IssueBilling, IssueTechnical, IssueAPI,
		IssueAccount, IssueFeatureRequest, IssueEscalation:
		return true
	}
	return false
}

// TicketStatus is the lifecycle state of a support ticket.
type TicketStatus string

const (
	StatusOpen       TicketStatus = "open"
	StatusPending    TicketStatus = "pending"
	StatusInProgress TicketStatus = "in_progress"
	StatusResolved   TicketStatus = "resolved"
	StatusClosed     TicketStatus = "closed"
)

// IsValid reports whether s is a recognised ticket status.
func (s TicketStatus) IsValid() bool {
	switch s {
	case StatusOpen, StatusPending, StatusInProgress, StatusResolved, StatusClosed:
		return true
	}
	return false
}

// IsOpen reports whether a ticket in this status counts as open for
// reporting. Only open, pending and in_progress qualify.
func (s TicketStatus) IsOpen() bool {
	switch s {
	case StatusOpen, StatusPending, StatusInProgress:
		return true
	}
	return false
}

// APIUsageStatus is the derived tri-state classification of a customer's
// API consumption.
type APIUsageStatus string

const (
	UsageApproachingLimit APIUsageStatus = "APPROACHING_LIMIT"
	UsageHealthy          APIUsageStatus = "HEALTHY"
	UsageUnderutilized    APIUsageStatus = "UNDERUTILIZED"
)

// APIUsage holds a customer's monthly API consumption figures.
//
// Source documents may carry a precomputed utilization percentage; it is
// accepted during decoding for compatibility but never read back. The
// percentage is always derived from MonthlyTokens and MonthlyLimit.
type APIUsage struct {
	MonthlyTokens int64 `yaml:"monthly_tokens" json:"monthlyTokens"`
	MonthlyLimit  int64 `yaml:"monthly_limit" json:"monthlyLimit"`
}

// Utilization returns the consumption percentage, rounded to one decimal
// place. A non-positive limit yields 0.
func (u APIUsage) Utilization() float64 {
	if u.MonthlyLimit <= 0 {
		return 0
	}
	pct := float64(u.MonthlyTokens) / float64(u.MonthlyLimit) * 100
	return math.Round(pct*10) / 10
}

// Status classifies the utilization: APPROACHING_LIMIT at 90% or above,
// HEALTHY at 75% or above, UNDERUTILIZED otherwise.
func (u APIUsage) Status() APIUsageStatus {
	switch pct := u.Utilization(); {
	case pct >= 90:
		return UsageApproachingLimit
	case pct >= 75:
		return UsageHealthy
	default:
		return UsageUnderutilized
	}
}

// Contact is a named person on a customer account. At most one contact per
// customer may carry the Primary flag.
type Contact struct {
	Name    string `yaml:"name" json:"name"`
	Role    string `yaml:"role" json:"role"`
	Email   string `yaml:"email" json:"email"`
	Primary bool   `yaml:"primary,omitempty" json:"primary,omitempty"`
}

// SupportHistory aggregates a customer's past support interactions.
type SupportHistory struct {
	TotalTickets       int     `yaml:"total_tickets" json:"totalTickets"`
	AvgResolutionHours float64 `yaml:"avg_resolution_hours" json:"avgResolutionHours"`
	SatisfactionScore  float64 `yaml:"satisfaction_score" json:"satisfactionScore"`
}

// Customer is a single account record.
type Customer struct {
	ID             string         `yaml:"id" json:"id"`
	Company        string         `yaml:"company" json:"company"`
	Tier           Tier           `yaml:"tier" json:"tier"`
	AccountManager string         `yaml:"account_manager,omitempty" json:"accountManager,omitempty"`
	ContractValue  float64        `yaml:"contract_value" json:"contractValue"`
	RenewalDate    string         `yaml:"renewal_date" json:"renewalDate"`
	Products       []string       `yaml:"products" json:"products"`
	APIUsage       APIUsage       `yaml:"api_usage" json:"apiUsage"`
	KnownIssues    []string       `yaml:"known_issues,omitempty" json:"knownIssues,omitempty"`
	SupportHistory SupportHistory `yaml:"support_history" json:"supportHistory"`
	Contacts       []Contact      `yaml:"contacts,omitempty" json:"contacts,omitempty"`
	Flags          []Flag         `yaml:"flags,omitempty" json:"flags,omitempty"`
}

// PrimaryContact returns the contact flagged primary, or false when the
// account has none.
func (c Customer) PrimaryContact() (Contact, bool) {
	for _, ct := range c.Contacts {
		if ct.Primary {
			return ct, true
		}
	}
	return Contact{}, false
}

// HasFlag reports whether the account carries the given flag.
func (c Customer) HasFlag(f Flag) bool {
	for _, have := range c.Flags {
		if have == f {
			return true
		}
	}
	return false
}

// Ticket is a single support ticket record. Many tickets may reference one
// customer.
type Ticket struct {
	ID          string       `yaml:"id" json:"id"`
	CustomerID  string       `yaml:"customer_id" json:"customerId"`
	Subject     string       `yaml:"subject" json:"subject"`
	Status      TicketStatus `yaml:"status" json:"status"`
	Priority    string       `yaml:"priority" json:"priority"`
	CreatedAt   time.Time    `yaml:"created_at" json:"createdAt"`
	UpdatedAt   time.Time    `yaml:"updated_at" json:"updatedAt"`
	Assignee    string       `yaml:"assignee,omitempty" json:"assignee,omitempty"`
	Description string       `yaml:"description,omitempty" json:"description,omitempty"`
	Tags        []string     `yaml:"tags,omitempty" json:"tags,omitempty"`
}

// EscalationRule is the per-tier SLA policy.
type EscalationRule struct {
	Tier              Tier   `yaml:"tier" json:"tier"`
	MaxResponseTime   string `yaml:"max_response_time" json:"maxResponseTime"`
	EscalateTo        string `yaml:"escalate_to" json:"escalateTo"`
	AutoEscalateAfter string `yaml:"auto_escalate_after" json:"autoEscalateAfter"`
}
