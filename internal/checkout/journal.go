package checkout

import (
	"database/sql"

	"localfund/internal/db"
)

// DBJournal journals attempts in the local SQLite database.
type DBJournal struct {
	DB *sql.DB
}

// Start records a new attempt.
func (j DBJournal) Start(a db.CheckoutAttempt) error {
	return db.InsertCheckoutAttempt(j.DB, a)
}

// Finish moves an attempt to status.
func (j DBJournal) Finish(merchantUID, status, impUID, errMsg string) error {
	return db.UpdateCheckoutAttempt(j.DB, merchantUID, status, impUID, errMsg)
}
