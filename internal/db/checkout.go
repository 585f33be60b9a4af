package db

import (
	"database/sql"
	"errors"
	"fmt"
)

// Checkout attempt statuses.
const (
	AttemptStarted    = "started"
	AttemptPaid       = "paid"
	AttemptRecorded   = "recorded"
	AttemptUnrecorded = "unrecorded"
	AttemptFailed     = "failed"
)

// ErrDuplicateAttempt is returned when a merchant uid was already journaled.
var ErrDuplicateAttempt = errors.New("checkout attempt already exists")

// CheckoutAttempt is one journaled payment attempt.
type CheckoutAttempt struct {
	MerchantUID string
	Kind        string // funding, forone, specialty
	TargetID    int64
	TargetName  string
	MemberID    string
	Amount      int64
	Method      string
	Status      string
	ImpUID      string
	Error       string
	CreatedAt   string
	UpdatedAt   string
}

// InsertCheckoutAttempt journals a new attempt before the provider is invoked.
func InsertCheckoutAttempt(db *sql.DB, a CheckoutAttempt) error {
	query := `
		INSERT INTO checkout_attempts (merchant_uid, kind, target_id, target_name, member_id, amount, method, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(merchant_uid) DO NOTHING
	`

	status := a.Status
	if status == "" {
		status = AttemptStarted
	}

	res, err := db.Exec(query, a.MerchantUID, a.Kind, a.TargetID, a.TargetName, a.MemberID, a.Amount, a.Method, status)
	if err != nil {
		return fmt.Errorf("failed to insert checkout attempt: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrDuplicateAttempt
	}
	return nil
}

// UpdateCheckoutAttempt moves an attempt to a new status.
func UpdateCheckoutAttempt(db *sql.DB, merchantUID, status, impUID, errMsg string) error {
	query := `
		UPDATE checkout_attempts
		SET status = ?,
		    imp_uid = COALESCE(NULLIF(?, ''), imp_uid),
		    error = NULLIF(?, ''),
		    updated_at = strftime('%Y-%m-%dT%H:%M:%fZ','now')
		WHERE merchant_uid = ?
	`

	res, err := db.Exec(query, status, impUID, errMsg, merchantUID)
	if err != nil {
		return fmt.Errorf("failed to update checkout attempt: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("failed to update checkout attempt: %w", sql.ErrNoRows)
	}
	return nil
}

// GetCheckoutAttempt retrieves a single attempt.
func GetCheckoutAttempt(db *sql.DB, merchantUID string) (CheckoutAttempt, error) {
	query := `
		SELECT merchant_uid, kind, target_id, COALESCE(target_name, ''), COALESCE(member_id, ''), amount, method, status,
		       COALESCE(imp_uid, ''), COALESCE(error, ''), created_at, updated_at
		FROM checkout_attempts
		WHERE merchant_uid = ?
	`

	var a CheckoutAttempt
	err := db.QueryRow(query, merchantUID).Scan(
		&a.MerchantUID, &a.Kind, &a.TargetID, &a.TargetName, &a.MemberID, &a.Amount, &a.Method, &a.Status,
		&a.ImpUID, &a.Error, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return CheckoutAttempt{}, fmt.Errorf("failed to get checkout attempt: %w", err)
	}
	return a, nil
}

// ListUnrecordedAttempts returns payments that succeeded but were never persisted,
// newest first. These are what support needs when a member reports a missing funding.
func ListUnrecordedAttempts(db *sql.DB) ([]CheckoutAttempt, error) {
	query := `
		SELECT merchant_uid, kind, target_id, COALESCE(target_name, ''), COALESCE(member_id, ''), amount, method, status,
		       COALESCE(imp_uid, ''), COALESCE(error, ''), created_at, updated_at
		FROM checkout_attempts
		WHERE status = ?
		ORDER BY created_at DESC
	`

	rows, err := db.Query(query, AttemptUnrecorded)
	if err != nil {
		return nil, fmt.Errorf("failed to list unrecorded attempts: %w", err)
	}
	defer rows.Close()

	var results []CheckoutAttempt
	for rows.Next() {
		var a CheckoutAttempt
		if err := rows.Scan(
			&a.MerchantUID, &a.Kind, &a.TargetID, &a.TargetName, &a.MemberID, &a.Amount, &a.Method, &a.Status,
			&a.ImpUID, &a.Error, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan checkout attempt: %w", err)
		}
		results = append(results, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating checkout attempts: %w", err)
	}

	return results, nil
}
