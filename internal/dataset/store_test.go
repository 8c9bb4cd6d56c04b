package dataset_test

import (
	"strings"
	"testing"

	"github.com/mkessler-dev/supportctx/internal/dataset"
)

func validRules() []dataset.EscalationRule {
	return []dataset.EscalationRule{
		{Tier: dataset.TierStandard, MaxResponseTime: "24 hours", EscalateTo: "Support Queue", AutoEscalateAfter: "48 hours"},
		{Tier: dataset.TierGrowth, MaxResponseTime: "4 hours", EscalateTo: "Support Team Lead", AutoEscalateAfter: "24 hours"},
		{Tier: dataset.TierEnterprise, MaxResponseTime: "1 hour", EscalateTo: "Senior Support Manager", AutoEscalateAfter: "4 hours"},
		{Tier: dataset.TierEnterprisePlus, MaxResponseTime: "30 minutes", EscalateTo: "VP of Customer Success", AutoEscalateAfter: "2 hours"},
	}
}

func TestNewStore_ValidSnapshot(t *testing.T) {
	t.Parallel()
	store, err := dataset.NewStore(dataset.Snapshot{
		Customers: []dataset.Customer{
			{ID: "CUST-001", Company: "Acme Corporation", Tier: dataset.TierEnterprise},
			{ID: "CUST-002", Company: "Globex Industries", Tier: dataset.TierStandard},
		},
		Tickets: []dataset.Ticket{
			{ID: "TICK-1001", CustomerID: "CUST-001", Subject: "Rate limits", Status: dataset.StatusOpen},
		},
		EscalationRules: validRules(),
	})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	counts := store.Counts()
	if counts.Customers != 2 || counts.Tickets != 1 || counts.EscalationRules != 4 {
		t.Errorf("counts = %+v", counts)
	}

	c, ok := store.CustomerByID("CUST-002")
	if !ok || c.Company != "Globex Industries" {
		t.Errorf("CustomerByID = %+v, %v", c, ok)
	}
	if _, ok := store.CustomerByID("cust-002"); ok {
		t.Error("CustomerByID should be case-sensitive")
	}

	rule, ok := store.RuleFor(dataset.TierEnterprisePlus)
	if !ok || rule.EscalateTo != "VP of Customer Success" {
		t.Errorf("RuleFor = %+v, %v", rule, ok)
	}
	if _, ok := store.RuleFor("Platinum"); ok {
		t.Error("RuleFor should miss unknown tiers")
	}
}

func TestNewStore_ValidationFailures(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		snap    dataset.Snapshot
		wantErr string
	}{
		{
			name: "missing customer id",
			snap: dataset.Snapshot{
				Customers:       []dataset.Customer{{Company: "Acme Corporation", Tier: dataset.TierEnterprise}},
				EscalationRules: validRules(),
			},
			wantErr: "id is required",
		},
		{
			name: "duplicate customer id",
			snap: dataset.Snapshot{
				Customers: []dataset.Customer{
					{ID: "CUST-001", Company: "Acme Corporation", Tier: dataset.TierEnterprise},
					{ID: "CUST-001", Company: "Acme Corp GmbH", Tier: dataset.TierGrowth},
				},
				EscalationRules: validRules(),
			},
			wantErr: "duplicate",
		},
		{
			name: "invalid tier",
			snap: dataset.Snapshot{
				Customers:       []dataset.Customer{{ID: "CUST-001", Company: "Acme Corporation", Tier: "Platinum"}},
				EscalationRules: validRules(),
			},
			wantErr: "tier",
		},
		{
			name: "unknown flag",
			snap: dataset.Snapshot{
				Customers: []dataset.Customer{
					{ID: "CUST-001", Company: "Acme Corporation", Tier: dataset.TierEnterprise, Flags: []dataset.Flag{"VIP"}},
				},
				EscalationRules: validRules(),
			},
			wantErr: "unknown flag",
		},
		{
			name: "two primary contacts",
			snap: dataset.Snapshot{
				Customers: []dataset.Customer{
					{ID: "CUST-001", Company: "Acme Corporation", Tier: dataset.TierEnterprise, Contacts: []dataset.Contact{
						{Name: "A", Primary: true},
						{Name: "B", Primary: true},
					}},
				},
				EscalationRules: validRules(),
			},
			wantErr: "primary contacts",
		},
		{
			name: "ticket references unknown customer",
			snap: dataset.Snapshot{
				Customers: []dataset.Customer{{ID: "CUST-001", Company: "Acme Corporation", Tier: dataset.TierEnterprise}},
				Tickets: []dataset.Ticket{
					{ID: "TICK-1001", CustomerID: "CUST-404", Subject: "x", Status: dataset.StatusOpen},
				},
				EscalationRules: validRules(),
			},
			wantErr: "does not match any customer",
		},
		{
			name: "duplicate rule for tier",
			snap: dataset.Snapshot{
				Customers: []dataset.Customer{{ID: "CUST-001", Company: "Acme Corporation", Tier: dataset.TierEnterprise}},
				EscalationRules: append(validRules(),
					dataset.EscalationRule{Tier: dataset.TierGrowth, MaxResponseTime: "2 hours", EscalateTo: "Someone"}),
			},
			wantErr: "duplicates the rule",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := dataset.NewStore(tc.snap)
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error = %v, want it to contain %q", err, tc.wantErr)
			}
		})
	}
}

func TestNewStore_MissingRuleIsTolerated(t *testing.T) {
	t.Parallel()
	store, err := dataset.NewStore(dataset.Snapshot{
		Customers:       []dataset.Customer{{ID: "CUST-001", Company: "Acme Corporation", Tier: dataset.TierEnterprise}},
		EscalationRules: validRules()[:2],
	})
	if err != nil {
		t.Fatalf("an incomplete rule table must not fail startup: %v", err)
	}
	if _, ok := store.RuleFor(dataset.TierEnterprise); ok {
		t.Error("RuleFor should miss the absent tier")
	}
}

func TestTicketsFor_PreservesStoredOrder(t *testing.T) {
	t.Parallel()
	store, err := dataset.NewStore(dataset.Snapshot{
		Customers: []dataset.Customer{
			{ID: "CUST-001", Company: "Acme Corporation", Tier: dataset.TierEnterprise},
			{ID: "CUST-002", Company: "Globex Industries", Tier: dataset.TierStandard},
		},
		Tickets: []dataset.Ticket{
			{ID: "TICK-3", CustomerID: "CUST-001", Subject: "c", Status: dataset.StatusClosed},
			{ID: "TICK-1", CustomerID: "CUST-002", Subject: "a", Status: dataset.StatusOpen},
			{ID: "TICK-2", CustomerID: "CUST-001", Subject: "b", Status: dataset.StatusOpen},
		},
		EscalationRules: validRules(),
	})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	got := store.TicketsFor("CUST-001")
	if len(got) != 2 || got[0].ID != "TICK-3" || got[1].ID != "TICK-2" {
		t.Errorf("TicketsFor order = %v", got)
	}
}
