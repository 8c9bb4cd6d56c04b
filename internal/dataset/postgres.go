package dataset

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Schema is the SQL DDL for the dataset tables. Execute it via [Migrate] or
// apply it manually during deployment. Structured sub-fields are stored as
// JSONB; the dataset remains read-only from supportctx's point of view.
const Schema = `
CREATE TABLE IF NOT EXISTS customers (
    id               TEXT PRIMARY KEY,
    company          TEXT NOT NULL,
    tier             TEXT NOT NULL,
    account_manager  TEXT NOT NULL DEFAULT '',
    contract_value   DOUBLE PRECISION NOT NULL DEFAULT 0,
    renewal_date     TEXT NOT NULL DEFAULT '',
    products         JSONB NOT NULL DEFAULT '[]',
    api_usage        JSONB NOT NULL DEFAULT '{}',
    known_issues     JSONB NOT NULL DEFAULT '[]',
    support_history  JSONB NOT NULL DEFAULT '{}',
    contacts         JSONB NOT NULL DEFAULT '[]',
    flags            JSONB NOT NULL DEFAULT '[]'
);
CREATE TABLE IF NOT EXISTS tickets (
    id           TEXT PRIMARY KEY,
    customer_id  TEXT NOT NULL REFERENCES customers(id),
    subject      TEXT NOT NULL,
    status       TEXT NOT NULL,
    priority     TEXT NOT NULL DEFAULT '',
    created_at   TIMESTAMPTZ NOT NULL,
    updated_at   TIMESTAMPTZ NOT NULL,
    assignee     TEXT NOT NULL DEFAULT '',
    description  TEXT NOT NULL DEFAULT '',
    tags         JSONB NOT NULL DEFAULT '[]'
);
CREATE INDEX IF NOT EXISTS idx_tickets_customer ON tickets(customer_id);
CREATE TABLE IF NOT EXISTS escalation_rules (
    tier                TEXT PRIMARY KEY,
    max_response_time   TEXT NOT NULL,
    escalate_to         TEXT NOT NULL,
    auto_escalate_after TEXT NOT NULL DEFAULT ''
);
`

// DB is the database interface used by the Postgres source. Both
// *pgxpool.Pool and *pgx.Conn satisfy it.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Migrate executes the [Schema] DDL, creating the dataset tables if they do
// not already exist.
func Migrate(ctx context.Context, db DB) error {
	if _, err := db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("dataset: migrate: %w", err)
	}
	return nil
}

// LoadPostgres reads the full dataset from the database in a single pass.
// It is called once at startup; supportctx issues no further queries after
// the snapshot is taken.
func LoadPostgres(ctx context.Context, db DB) (Snapshot, error) {
	var snap Snapshot
	var err error

	if snap.Customers, err = loadCustomers(ctx, db); err != nil {
		return Snapshot{}, err
	}
	if snap.Tickets, err = loadTickets(ctx, db); err != nil {
		return Snapshot{}, err
	}
	if snap.EscalationRules, err = loadRules(ctx, db); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

func loadCustomers(ctx context.Context, db DB) ([]Customer, error) {
	const query = `
		SELECT id, company, tier, account_manager, contract_value, renewal_date,
		       products, api_usage, known_issues, support_history, contacts, flags
		FROM customers
		ORDER BY id`

	rows, err := db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("dataset: query customers: %w", err)
	}
	defer rows.Close()

	var out []Customer
	for rows.Next() {
		var c Customer
		var productsJSON, usageJSON, issuesJSON, historyJSON, contactsJSON, flagsJSON []byte
		if err := rows.Scan(
			&c.ID, &c.Company, &c.Tier, &c.AccountManager, &c.ContractValue, &c.RenewalDate,
			&productsJSON, &usageJSON, &issuesJSON, &historyJSON, &contactsJSON, &flagsJSON,
		); err != nil {
			return nil, fmt.Errorf("dataset: scan customer: %w", err)
		}
		if err := unmarshalCustomerFields(&c, productsJSON, usageJSON, issuesJSON, historyJSON, contactsJSON, flagsJSON); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dataset: read customers: %w", err)
	}
	return out, nil
}

func loadTickets(ctx context.Context, db DB) ([]Ticket, error) {
	const query = `
		SELECT id, customer_id, subject, status, priority,
		       created_at, updated_at, assignee, description, tags
		FROM tickets
		ORDER BY created_at, id`

	rows, err := db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("dataset: query tickets: %w", err)
	}
	defer rows.Close()

	var out []Ticket
	for rows.Next() {
		var t Ticket
		var tagsJSON []byte
		if err := rows.Scan(
			&t.ID, &t.CustomerID, &t.Subject, &t.Status, &t.Priority,
			&t.CreatedAt, &t.UpdatedAt, &t.Assignee, &t.Description, &tagsJSON,
		); err != nil {
			return nil, fmt.Errorf("dataset: scan ticket: %w", err)
		}
		if err := json.Unmarshal(tagsJSON, &t.Tags); err != nil {
			return nil, fmt.Errorf("dataset: unmarshal ticket tags: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dataset: read tickets: %w", err)
	}
	return out, nil
}

func loadRules(ctx context.Context, db DB) ([]EscalationRule, error) {
	const query = `
		SELECT tier, max_response_time, escalate_to, auto_escalate_after
		FROM escalation_rules
		ORDER BY tier`

	rows, err := db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("dataset: query escalation rules: %w", err)
	}
	defer rows.Close()

	var out []EscalationRule
	for rows.Next() {
		var r EscalationRule
		if err := rows.Scan(&r.Tier, &r.MaxResponseTime, &r.EscalateTo, &r.AutoEscalateAfter); err != nil {
			return nil, fmt.Errorf("dataset: scan escalation rule: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dataset: read escalation rules: %w", err)
	}
	return out, nil
}

// unmarshalCustomerFields deserialises the JSONB columns into the
// corresponding [Customer] fields.
func unmarshalCustomerFields(c *Customer, products, usage, issues, history, contacts, flags []byte) error {
	if err := json.Unmarshal(products, &c.Products); err != nil {
		return fmt.Errorf("dataset: unmarshal products: %w", err)
	}
	if err := json.Unmarshal(usage, &c.APIUsage); err != nil {
		return fmt.Errorf("dataset: unmarshal api_usage: %w", err)
	}
	if err := json.Unmarshal(issues, &c.KnownIssues); err != nil {
		return fmt.Errorf("dataset: unmarshal known_issues: %w", err)
	}
	if err := json.Unmarshal(history, &c.SupportHistory); err != nil {
		return fmt.Errorf("dataset: unmarshal support_history: %w", err)
	}
	if err := json.Unmarshal(contacts, &c.Contacts); err != nil {
		return fmt.Errorf("dataset: unmarshal contacts: %w", err)
	}
	if err := json.Unmarshal(flags, &c.Flags); err != nil {
		return fmt.Errorf("dataset: unmarshal flags: %w", err)
	}
	return nil
}
