package dataset

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// yamlDocument is the top-level shape of a supportctx dataset file.
//
// Example:
//
//	customers:
//	  - id: CUST-001
//	    company: "Acme Corporation"
//	    tier: Enterprise
//	tickets:
//	  - id: TICK-1001
//	    customer_id: CUST-001
//	    status: open
//	escalation_rules:
//	  - tier: Enterprise
//	    max_response_time: "1 hour"
//
// Customer records may carry a utilization_percent field from older
// exports; it is decoded and discarded (utilization is always derived).
type yamlDocument struct {
	Customers       []yamlCustomer   `yaml:"customers"`
	Tickets         []Ticket         `yaml:"tickets"`
	EscalationRules []EscalationRule `yaml:"escalation_rules"`
}

// yamlCustomer wraps Customer to tolerate the legacy precomputed
// utilization field without it leaking into the domain type.
type yamlCustomer struct {
	Customer           `yaml:",inline"`
	UtilizationPercent float64 `yaml:"utilization_percent,omitempty"`
}

// LoadFile reads and parses a dataset YAML file from disk. A missing or
// malformed file is an error; callers treat it as fatal at startup.
func LoadFile(path string) (Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("dataset: open %q: %w", path, err)
	}
	defer f.Close()

	snap, err := LoadFromReader(f)
	if err != nil {
		return Snapshot{}, fmt.Errorf("dataset: parse %q: %w", path, err)
	}
	return snap, nil
}

// LoadFromReader parses dataset YAML from r. Unknown keys are rejected to
// catch typos in hand-maintained datasets.
func LoadFromReader(r io.Reader) (Snapshot, error) {
	var doc yamlDocument
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return Snapshot{}, fmt.Errorf("dataset: decode yaml: %w", err)
	}

	snap := Snapshot{
		Tickets:         doc.Tickets,
		EscalationRules: doc.EscalationRules,
	}
	snap.Customers = make([]Customer, len(doc.Customers))
	for i, c := range doc.Customers {
		snap.Customers[i] = c.Customer
	}
	return snap, nil
}
