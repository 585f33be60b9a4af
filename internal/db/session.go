package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"localfund/internal/model"
)

// SessionRow is the persisted login state.
type SessionRow struct {
	AccessToken string
	Member      model.Member
	UpdatedAt   time.Time
}

// GetSession returns the stored session, or false when logged out.
func GetSession(db *sql.DB) (SessionRow, bool, error) {
	query := `
		SELECT access_token, email, COALESCE(nickname, ''), COALESCE(social_type, ''), COALESCE(roles, ''), updated_at
		FROM session
		WHERE id = 1
	`

	var s SessionRow
	var roles, updatedAt string
	err := db.QueryRow(query).Scan(&s.AccessToken, &s.Member.Email, &s.Member.Nickname, &s.Member.SocialType, &roles, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return SessionRow{}, false, nil
	}
	if err != nil {
		return SessionRow{}, false, fmt.Errorf("failed to get session: %w", err)
	}

	if roles != "" {
		s.Member.RoleNames = strings.Split(roles, ",")
	}
	s.UpdatedAt, _ = time.Parse("2006-01-02T15:04:05.000Z", updatedAt)

	return s, true, nil
}

// PutSession replaces the stored session.
func PutSession(db *sql.DB, s SessionRow) error {
	query := `
		INSERT INTO session (id, access_token, email, nickname, social_type, roles, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, strftime('%Y-%m-%dT%H:%M:%fZ','now'))
		ON CONFLICT(id) DO UPDATE SET
			access_token = excluded.access_token,
			email        = excluded.email,
			nickname     = excluded.nickname,
			social_type  = excluded.social_type,
			roles        = excluded.roles,
			updated_at   = excluded.updated_at
	`

	_, err := db.Exec(query, s.AccessToken, s.Member.Email, s.Member.Nickname, s.Member.SocialType, strings.Join(s.Member.RoleNames, ","))
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// DeleteSession removes the stored session.
func DeleteSession(db *sql.DB) error {
	if _, err := db.Exec(`DELETE FROM session`); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// GetSelectedLocation returns the selected address, or false when none is set.
func GetSelectedLocation(db *sql.DB) (model.SelectedLocation, bool, error) {
	query := `
		SELECT COALESCE(location_id, 0), address, lat, lng, selected_at
		FROM selected_location
		WHERE id = 1
	`

	var l model.SelectedLocation
	var selectedAt string
	err := db.QueryRow(query).Scan(&l.LocationID, &l.Address, &l.Lat, &l.Lng, &selectedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.SelectedLocation{}, false, nil
	}
	if err != nil {
		return model.SelectedLocation{}, false, fmt.Errorf("failed to get selected location: %w", err)
	}
	l.SelectedAt, _ = time.Parse(time.RFC3339Nano, selectedAt)

	return l, true, nil
}

// PutSelectedLocation replaces the selected address.
func PutSelectedLocation(db *sql.DB, l model.SelectedLocation) error {
	query := `
		INSERT INTO selected_location (id, location_id, address, lat, lng, selected_at)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			location_id = excluded.location_id,
			address     = excluded.address,
			lat         = excluded.lat,
			lng         = excluded.lng,
			selected_at = excluded.selected_at
	`

	var locationID interface{}
	if l.LocationID > 0 {
		locationID = l.LocationID
	}
	if l.SelectedAt.IsZero() {
		l.SelectedAt = time.Now()
	}

	_, err := db.Exec(query, locationID, l.Address, l.Lat, l.Lng, l.SelectedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to save selected location: %w", err)
	}
	return nil
}

// DeleteSelectedLocation clears the selected address.
func DeleteSelectedLocation(db *sql.DB) error {
	if _, err := db.Exec(`DELETE FROM selected_location`); err != nil {
		return fmt.Errorf("failed to delete selected location: %w", err)
	}
	return nil
}
