package server

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mkessler-dev/supportctx/internal/dataset"
	"github.com/mkessler-dev/supportctx/internal/guidance"
	"github.com/mkessler-dev/supportctx/internal/lookup"
	"github.com/mkessler-dev/supportctx/internal/observe"
)

// Tool call outcome labels used in metrics.
const (
	statusOK       = "ok"
	statusNotFound = "not_found"
	statusFault    = "fault"
)

// LookupCustomerArgs defines input for lookup_customer.
type LookupCustomerArgs struct {
	Query string `json:"query" jsonschema:"Customer ID (e.g. CUST-001) or any part of the company name. Matching is case-insensitive."`
}

// CustomerMatch is the lookup_customer output.
type CustomerMatch struct {
	Found           bool                      `json:"found"`
	Customer        *dataset.Customer         `json:"customer,omitempty"`
	SupportGuidance *guidance.SupportGuidance `json:"supportGuidance,omitempty"`
	Message         string                    `json:"message,omitempty"`
	Suggestion      string                    `json:"suggestion,omitempty"`
}

func (s *Server) handleLookupCustomer(ctx context.Context, req *mcp.CallToolRequest, args LookupCustomerArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	if strings.TrimSpace(args.Query) == "" {
		return nil, nil, fmt.Errorf("query is required")
	}

	c, err := s.lookup.FindCustomer(args.Query)
	if err != nil {
		var nf *lookup.NotFoundError
		if !errors.As(err, &nf) {
			return nil, nil, err
		}
		s.metrics.RecordLookupMiss(ctx, string(nf.Kind))
		s.metrics.RecordToolCall(ctx, "lookup_customer", statusNotFound, time.Since(start))

		out := CustomerMatch{
			Found:   false,
			Message: fmt.Sprintf("No customer found matching %q", args.Query),
		}
		if nf.Suggestion != "" {
			out.Suggestion = fmt.Sprintf("Did you mean %q?", nf.Suggestion)
		}
		return nil, out, nil
	}

	g := s.engine.DeriveSupportGuidance(c)
	s.metrics.RecordToolCall(ctx, "lookup_customer", statusOK, time.Since(start))
	observe.Logger(ctx).Debug("customer resolved", "query", args.Query, "customer_id", c.ID)

	return nil, CustomerMatch{Found: true, Customer: &c, SupportGuidance: &g}, nil
}

// OpenTicketsArgs defines input for get_open_tickets.
type OpenTicketsArgs struct {
	CustomerID string `json:"customerId" jsonschema:"The exact customer ID, e.g. CUST-001."`
}

// OpenTicketsResult is the get_open_tickets output.
type OpenTicketsResult struct {
	CustomerID      string                  `json:"customerId"`
	Company         string                  `json:"company"`
	Tier            dataset.Tier            `json:"tier"`
	OpenTicketCount int                     `json:"openTicketCount"`
	Tickets         []lookup.OpenTicket     `json:"tickets"`
	EscalationRule  *dataset.EscalationRule `json:"escalationRule,omitempty"`
}

// NotFoundResult is the shared miss payload for ID-based tools.
type NotFoundResult struct {
	Found   bool   `json:"found"`
	Message string `json:"message"`
}

func (s *Server) handleOpenTickets(ctx context.Context, req *mcp.CallToolRequest, args OpenTicketsArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	if strings.TrimSpace(args.CustomerID) == "" {
		return nil, nil, fmt.Errorf("customerId is required")
	}

	c, tickets, err := s.lookup.OpenTickets(args.CustomerID)
	if err != nil {
		var nf *lookup.NotFoundError
		if !errors.As(err, &nf) {
			return nil, nil, err
		}
		s.metrics.RecordLookupMiss(ctx, string(nf.Kind))
		s.metrics.RecordToolCall(ctx, "get_open_tickets", statusNotFound, time.Since(start))
		return nil, NotFoundResult{
			Message: fmt.Sprintf("No customer with ID %q", args.CustomerID),
		}, nil
	}

	out := OpenTicketsResult{
		CustomerID:      c.ID,
		Company:         c.Company,
		Tier:            c.Tier,
		OpenTicketCount: len(tickets),
		Tickets:         tickets,
	}
	if rule, ok := s.store.RuleFor(c.Tier); ok {
		out.EscalationRule = &rule
	}

	s.metrics.RecordToolCall(ctx, "get_open_tickets", statusOK, time.Since(start))
	return nil, out, nil
}

// ResponseGuidanceArgs defines input for get_response_guidance.
type ResponseGuidanceArgs struct {
	CustomerID string `json:"customerId" jsonschema:"The exact customer ID, e.g. CUST-001."`
	IssueType  string `json:"issueType" jsonschema:"The support issue category. One of: billing, technical, api, account, feature_request, escalation."`
}

// FaultResult reports a data-integrity fault for a single request.
type FaultResult struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func (s *Server) handleResponseGuidance(ctx context.Context, req *mcp.CallToolRequest, args ResponseGuidanceArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	if strings.TrimSpace(args.CustomerID) == "" {
		return nil, nil, fmt.Errorf("customerId is required")
	}
	issueType := dataset.IssueType(args.IssueType)
	if !issueType.IsValid() {
		return nil, nil, fmt.Errorf("issueType %q is invalid; valid values: %s",
			args.IssueType, joinIssueTypes())
	}

	c, ok := s.store.CustomerByID(args.CustomerID)
	if !ok {
		s.metrics.RecordLookupMiss(ctx, string(lookup.KindCustomerID))
		s.metrics.RecordToolCall(ctx, "get_response_guidance", statusNotFound, time.Since(start))
		return nil, NotFoundResult{
			Message: fmt.Sprintf("No customer with ID %q", args.CustomerID),
		}, nil
	}

	g, err := s.engine.DeriveResponseGuidance(c, issueType)
	if err != nil {
		var pf *guidance.PreconditionError
		if !errors.As(err, &pf) {
			return nil, nil, err
		}
		s.metrics.RecordToolCall(ctx, "get_response_guidance", statusFault, time.Since(start))
		observe.Logger(ctx).Error("escalation rule missing for tier",
			"customer_id", c.ID, "tier", pf.Tier)
		return nil, FaultResult{
			Error: pf.Error(),
			Kind:  "precondition_violation",
		}, nil
	}

	s.metrics.RecordToolCall(ctx, "get_response_guidance", statusOK, time.Since(start))
	return nil, g, nil
}

// EscalationRulesArgs defines input for check_escalation_rules.
type EscalationRulesArgs struct {
	Tier string `json:"tier" jsonschema:"The customer tier. One of: Standard, Growth, Enterprise, Enterprise Plus."`
}

// EscalationRulesResult is the check_escalation_rules output.
type EscalationRulesResult struct {
	Tier            dataset.Tier           `json:"tier"`
	EscalationRules dataset.EscalationRule `json:"escalationRules"`
	Guidance        []string               `json:"guidance"`
}

// InvalidTierResult reports an unrecognised tier together with the valid keys.
type InvalidTierResult struct {
	Error      string   `json:"error"`
	ValidTiers []string `json:"validTiers"`
}

func (s *Server) handleEscalationRules(ctx context.Context, req *mcp.CallToolRequest, args EscalationRulesArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	rule, err := s.lookup.EscalationRule(dataset.Tier(args.Tier))
	if err != nil {
		var nf *lookup.NotFoundError
		if !errors.As(err, &nf) {
			return nil, nil, err
		}
		s.metrics.RecordLookupMiss(ctx, string(nf.Kind))
		s.metrics.RecordToolCall(ctx, "check_escalation_rules", statusNotFound, time.Since(start))
		return nil, InvalidTierResult{
			Error:      fmt.Sprintf("No escalation rules found for tier %q", args.Tier),
			ValidTiers: nf.ValidValues,
		}, nil
	}

	out := EscalationRulesResult{
		Tier:            rule.Tier,
		EscalationRules: rule,
		Guidance:        guidance.TierGuidance(rule),
	}
	s.metrics.RecordToolCall(ctx, "check_escalation_rules", statusOK, time.Since(start))
	return nil, out, nil
}

func joinIssueTypes() string {
	names := make([]string, len(dataset.IssueTypes))
	for i, it := range dataset.IssueTypes {
		names[i] = string(it)
	}
	return strings.Join(names, ", ")
}
