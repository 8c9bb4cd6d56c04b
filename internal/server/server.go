// Package server exposes the customer support dataset as MCP tools.
//
// Four tools are registered: lookup_customer, get_open_tickets,
// get_response_guidance, and check_escalation_rules. Every tool is a pure
// read over the immutable dataset store, so concurrent invocations need no
// coordination. Misses are returned as structured result payloads rather
// than protocol errors so that the calling agent can read and act on them;
// protocol errors are reserved for malformed input.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mkessler-dev/supportctx/internal/dataset"
	"github.com/mkessler-dev/supportctx/internal/guidance"
	"github.com/mkessler-dev/supportctx/internal/lookup"
	"github.com/mkessler-dev/supportctx/internal/observe"
)

// Server wraps the MCP server with the dataset-backed services.
type Server struct {
	store   *dataset.Store
	lookup  *lookup.Service
	engine  *guidance.Engine
	metrics *observe.Metrics
	server  *mcp.Server
}

// Option configures a [Server].
type Option func(*options)

type options struct {
	metrics *observe.Metrics
	clock   func() time.Time
}

// WithMetrics overrides the metrics instance (defaults to
// [observe.DefaultMetrics]).
func WithMetrics(m *observe.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithClock overrides the clock used for ticket ages.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.clock = now }
}

// New creates the supportctx MCP server over the given store and registers
// all tools.
func New(store *dataset.Store, version string, opts ...Option) *Server {
	o := &options{clock: time.Now}
	for _, opt := range opts {
		opt(o)
	}
	if o.metrics == nil {
		o.metrics = observe.DefaultMetrics()
	}

	s := &Server{
		store:   store,
		lookup:  lookup.New(store, lookup.WithClock(o.clock)),
		engine:  guidance.NewEngine(store),
		metrics: o.metrics,
	}

	s.server = mcp.NewServer(&mcp.Implementation{
		Name:    "supportctx",
		Version: version,
	}, nil)
	s.registerTools()

	return s
}

// Run serves a single MCP client on stdio until ctx is cancelled or the
// client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// HTTPHandler returns an [http.Handler] serving the MCP streamable HTTP
// transport, for mounting on a listener when the transport is
// "streamable-http".
func (s *Server) HTTPHandler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil)
}

// registerTools adds all supportctx tools to the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name: "lookup_customer",
		Description: "Look up a customer by ID (e.g. CUST-001) or company name and get their " +
			"account record with derived support guidance: handling directives, priority level, " +
			"response time target, and API usage status. Company matching is case-insensitive " +
			"and accepts partial names. START HERE when handling any support request so you know " +
			"the customer's tier and how to treat them.",
	}, s.handleLookupCustomer)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "get_open_tickets",
		Description: "List a customer's open support tickets (status open, pending, or in_progress) " +
			"with each ticket's age in days, plus the escalation rule for the customer's tier. " +
			"Requires the exact customer ID; use lookup_customer first if you only have a company name.",
	}, s.handleOpenTickets)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "get_response_guidance",
		Description: "Get tone guidance, a ready-to-adapt response template, and supporting context " +
			"for replying to a customer about a specific issue type (billing, technical, api, " +
			"account, feature_request, or escalation). The template is personalized with the " +
			"customer's primary contact, products, and account details.",
	}, s.handleResponseGuidance)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "check_escalation_rules",
		Description: "Get the escalation policy for a customer tier (Standard, Growth, Enterprise, " +
			"or Enterprise Plus): maximum response time, who to escalate to, and when unresolved " +
			"issues auto-escalate, with short handling directives.",
	}, s.handleEscalationRules)
}
