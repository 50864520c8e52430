// Package seed serves the embedded reference dataset with simulated
// network latency.
package seed

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/ticktraq/field-service/internal/domain"
)

//go:embed dataset.yaml
var datasetYAML []byte

// Dataset is the decoded reference data. Callers get their own copy
// from every accessor.
type Dataset struct {
	sections map[string]json.RawMessage
}

// Parse decodes a YAML dataset. Sections are kept as JSON so every read
// decodes a fresh value through the domain types' JSON codecs.
func Parse(data []byte) (*Dataset, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse dataset: %w", err)
	}
	ds := &Dataset{sections: make(map[string]json.RawMessage, len(doc))}
	for name, section := range doc {
		raw, err := json.Marshal(section)
		if err != nil {
			return nil, fmt.Errorf("encode section %s: %w", name, err)
		}
		ds.sections[name] = raw
	}

	// Decode everything once so a malformed dataset fails here.
	if _, err := ds.Tickets(); err != nil {
		return nil, err
	}
	if _, err := ds.Inventory(); err != nil {
		return nil, err
	}
	if _, err := ds.Logs(); err != nil {
		return nil, err
	}
	if _, err := ds.Overview(); err != nil {
		return nil, err
	}
	if _, err := ds.Sites(); err != nil {
		return nil, err
	}
	if _, err := ds.User(); err != nil {
		return nil, err
	}
	return ds, nil
}

// Default returns the embedded dataset.
func Default() *Dataset {
	ds, err := Parse(datasetYAML)
	if err != nil {
		panic(err)
	}
	return ds
}

// Inventory groups the inventory reference collections.
type Inventory struct {
	Catalog  []domain.InventoryCatalogItem `json:"catalog"`
	Requests []domain.InventoryRequest     `json:"requests"`
	Received []domain.InventoryReleaseItem `json:"received"`
	Returns  []domain.InventoryReturn      `json:"returns"`
}

func (d *Dataset) decode(section string, out any) error {
	raw, ok := d.sections[section]
	if !ok {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode section %s: %w", section, err)
	}
	return nil
}

// Tickets returns the reference tickets.
func (d *Dataset) Tickets() ([]domain.Ticket, error) {
	var tickets []domain.Ticket
	err := d.decode("tickets", &tickets)
	return tickets, err
}

// Inventory returns the reference inventory collections.
func (d *Dataset) Inventory() (Inventory, error) {
	var inv Inventory
	err := d.decode("inventory", &inv)
	return inv, err
}

// Logs returns the reference daily logs.
func (d *Dataset) Logs() ([]domain.DailyLog, error) {
	var logs []domain.DailyLog
	err := d.decode("logs", &logs)
	return logs, err
}

// Overview returns the timesheet header figures.
func (d *Dataset) Overview() (domain.LogOverview, error) {
	var overview domain.LogOverview
	err := d.decode("overview", &overview)
	return overview, err
}

// Sites returns the site picklist.
func (d *Dataset) Sites() ([]domain.Site, error) {
	var sites []domain.Site
	err := d.decode("sites", &sites)
	return sites, err
}

// User returns the demo account.
func (d *Dataset) User() (domain.User, error) {
	var user domain.User
	err := d.decode("user", &user)
	return user, err
}
