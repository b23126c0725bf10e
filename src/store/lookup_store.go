// backend/src/store/lookup_store.go
package store

import (
	"database/sql"
	"fmt"

	"github.com/username/finentry/backend/src/logger"
	"github.com/username/finentry/backend/src/models"
)

// Lookup identifies one of the four lookup tables.
type Lookup string

const (
	MovementTypes  Lookup = "movement_types"
	Categories     Lookup = "categories"
	PaymentMethods Lookup = "payment_methods"
	ProductTypes   Lookup = "product_types"
)

// Seed vocabularies. Inserted once when a lookup table is empty and never
// touched again by the application.
var lookupSeeds = map[Lookup][]string{
	MovementTypes: {"Expense", "Income"},
	Categories: {
		"Restaurant",
		"Rent",
		"Transport",
		"Salary",
		"Given",
		"Monthly Subscription",
		"Travel",
		"Supermarket",
		"Health",
		"Entertainment",
		"Education",
		"Gift",
		"Hobbies",
		"Other",
	},
	PaymentMethods: {"Card", "Cash", "Transfer", "Revolut", "MBWay"},
	ProductTypes:   {"ETF", "Stock", "Crypto", "Bond", "CFD", "Other"},
}

// seedOrder keeps startup logging deterministic.
var seedOrder = []Lookup{MovementTypes, Categories, PaymentMethods, ProductTypes}

// SeedLookups populates every empty lookup table with its fixed vocabulary.
// Each check-and-insert pair runs in its own transaction. Tables that already
// hold rows are left untouched, so the routine is idempotent across restarts.
func SeedLookups(db *sql.DB) error {
	for _, table := range seedOrder {
		seeded, err := seedTable(db, table, lookupSeeds[table])
		if err != nil {
			return fmt.Errorf("seeding %s: %w", table, err)
		}
		if seeded {
			logger.L.Info("Seeded lookup table", "table", string(table), "rows", len(lookupSeeds[table]))
		}
	}
	return nil
}

func seedTable(db *sql.DB, table Lookup, names []string) (bool, error) {
	tx, err := db.Begin()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRow("SELECT COUNT(*) FROM " + string(table)).Scan(&count); err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	for _, name := range names {
		if _, err := tx.Exec("INSERT INTO "+string(table)+" (name) VALUES (?)", name); err != nil {
			return false, err
		}
	}
	return true, tx.Commit()
}

// Vocabulary is one lookup table read into memory for a single interaction
// cycle: the ordered display choices plus a name-to-id index for resolving
// foreign keys on submit.
type Vocabulary struct {
	choices []models.Choice
	byName  map[string]int64
}

// ChoiceProvider yields the ordered (display name, identifier) pairs of a
// lookup table. Vocabularies are reloaded on every cycle, never cached.
type ChoiceProvider interface {
	Choices() []models.Choice
}

func (v *Vocabulary) Choices() []models.Choice { return v.choices }

// Names returns the display names in table order.
func (v *Vocabulary) Names() []string {
	names := make([]string, len(v.choices))
	for i, c := range v.choices {
		names[i] = c.Name
	}
	return names
}

// IDByName resolves a display name to its row id.
func (v *Vocabulary) IDByName(name string) (int64, bool) {
	id, ok := v.byName[name]
	return id, ok
}

// Len reports the number of entries in the vocabulary.
func (v *Vocabulary) Len() int { return len(v.choices) }

// LoadVocabulary reads a lookup table, ordered by id so the form always shows
// choices in seed order.
func LoadVocabulary(db *sql.DB, table Lookup) (*Vocabulary, error) {
	rows, err := db.Query("SELECT id, name FROM " + string(table) + " ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", table, err)
	}
	defer rows.Close()

	v := &Vocabulary{byName: make(map[string]int64)}
	for rows.Next() {
		var c models.Choice
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", table, err)
		}
		v.choices = append(v.choices, c)
		v.byName[c.Name] = c.ID
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s: %w", table, err)
	}
	return v, nil
}
