package repositories

import (
	"context"
	"strings"
	"time"

	intdb "musafir/internal/db"
	"musafir/internal/domain/models"
)

// LinkRepository stores group_links: one row per (registration, member email).
type LinkRepository struct{}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// Conflicts finds emails already actively linked to a different registration on the trip.
func (r LinkRepository) Conflicts(ctx context.Context, q intdb.Querier, tripID, registrationID int64, emails []string) ([]models.LinkConflict, error) {
	out := []models.LinkConflict{}
	if len(emails) == 0 {
		return out, nil
	}
	args := []any{tripID, registrationID}
	for _, e := range emails {
		args = append(args, e)
	}
	rows, err := q.QueryContext(ctx, `
		SELECT email, MIN(registration_id)
		FROM group_links
		WHERE trip_id=? AND active=1 AND registration_id<>?
		  AND email IN (`+placeholders(len(emails))+`)
		GROUP BY email
		ORDER BY email ASC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var c models.LinkConflict
		if err := rows.Scan(&c.Email, &c.ConflictRegistrationID); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Replace drops every link of the registration and writes emails as the new set.
func (r LinkRepository) Replace(ctx context.Context, q intdb.Querier, tripID, registrationID int64, emails []string) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM group_links WHERE registration_id=?`, registrationID); err != nil {
		return err
	}
	for _, e := range emails {
		if _, err := q.ExecContext(ctx, `
			INSERT INTO group_links (trip_id, registration_id, email, active, created_at)
			VALUES (?, ?, ?, 1, ?)`, tripID, registrationID, e, time.Now().UTC()); err != nil {
			return err
		}
	}
	return nil
}

// ActiveEmails lists the active member emails of a registration.
func (r LinkRepository) ActiveEmails(ctx context.Context, q intdb.Querier, registrationID int64) ([]string, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT email FROM group_links
		WHERE registration_id=? AND active=1
		ORDER BY id ASC`, registrationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var e string
		if err := rows.Scan(&e); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r LinkRepository) Deactivate(ctx context.Context, q intdb.Querier, registrationID int64) error {
	_, err := q.ExecContext(ctx, `UPDATE group_links SET active=0 WHERE registration_id=?`, registrationID)
	return err
}

// CountRegistered counts how many of emails hold a live registration on the trip.
func (r LinkRepository) CountRegistered(ctx context.Context, q intdb.Querier, tripID int64, emails []string) (int, error) {
	if len(emails) == 0 {
		return 0, nil
	}
	args := []any{tripID}
	for _, e := range emails {
		args = append(args, e)
	}
	var n int
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT email) FROM registrations
		WHERE trip_id=? AND cancelled_at IS NULL
		  AND email IN (`+placeholders(len(emails))+`)`, args...).Scan(&n)
	return n, err
}
