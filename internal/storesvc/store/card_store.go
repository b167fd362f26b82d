package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amankwa/attendance-services/internal/storesvc/models"
)

type CardStore struct {
	db *pgxpool.Pool
}

func NewCardStore(db *pgxpool.Pool) *CardStore {
	return &CardStore{db: db}
}

// FindByUID returns the card linked to the uid, nil when unlinked.
func (r *CardStore) FindByUID(ctx context.Context, uidHex string) (*models.RFIDCard, error) {
	row := r.db.QueryRow(ctx, `
        SELECT id, student_id, uid_hex
        FROM rfid_cards
        WHERE lower(uid_hex) = lower($1)
    `, uidHex)

	c := &models.RFIDCard{}
	err := row.Scan(&c.ID, &c.StudentID, &c.UIDHex)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not load card %s: %w", uidHex, err)
	}

	return c, nil
}

func (r *CardStore) Link(ctx context.Context, studentID int64, uidHex string) (*models.RFIDCard, error) {
	c := &models.RFIDCard{StudentID: studentID, UIDHex: uidHex}

	query := `
        INSERT INTO rfid_cards (student_id, uid_hex)
        VALUES ($1, $2)
        RETURNING id;
    `

	err := r.db.QueryRow(ctx, query, studentID, uidHex).Scan(&c.ID)
	if err != nil {
		return nil, fmt.Errorf("could not link card: %w", err)
	}

	return c, nil
}
