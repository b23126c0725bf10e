// backend/src/store/entry_store.go
package store

import (
	"database/sql"
	"fmt"

	"github.com/username/finentry/backend/src/models"
)

// InsertTransaction persists one expense/income row inside its own
// transaction. On success the row id is written back into tx.
func InsertTransaction(db *sql.DB, tx *models.Transaction) error {
	dbTx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin insert transaction: %w", err)
	}
	defer dbTx.Rollback()

	res, err := dbTx.Exec(`
		INSERT INTO transactions
			(transaction_date, movement_type_id, amount, currency, category_id, payment_method_id, source, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.TransactionDate, tx.MovementTypeID, tx.Amount, tx.Currency,
		tx.CategoryID, tx.PaymentMethodID, tx.Source, tx.Notes,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert transaction id: %w", err)
	}
	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction insert: %w", err)
	}
	tx.ID = id
	return nil
}

// InsertInvestment persists one investment purchase row inside its own
// transaction. TotalValue is stored as given; it is fixed at insert time and
// never re-derived.
func InsertInvestment(db *sql.DB, inv *models.Investment) error {
	dbTx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin insert investment: %w", err)
	}
	defer dbTx.Rollback()

	res, err := dbTx.Exec(`
		INSERT INTO investments
			(investment_date, ticker, product_type_id, unit_price, quantity, total_value, currency, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.InvestmentDate, inv.Ticker, inv.ProductTypeID,
		inv.UnitPrice, inv.Quantity, inv.TotalValue, inv.Currency, inv.Notes,
	)
	if err != nil {
		return fmt.Errorf("insert investment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert investment id: %w", err)
	}
	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("commit investment insert: %w", err)
	}
	inv.ID = id
	return nil
}

// CountRows reports the number of rows in a table. Used by startup logging
// and tests.
func CountRows(db *sql.DB, table string) (int, error) {
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting %s: %w", table, err)
	}
	return n, nil
}
