package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amankwa/attendance-services/internal/storesvc/models"
)

type ScanStore struct {
	db *pgxpool.Pool
}

func NewScanStore(db *pgxpool.Pool) *ScanStore {
	return &ScanStore{db: db}
}

func (r *ScanStore) Insert(ctx context.Context, uidHex string) (*models.CardScan, error) {
	s := &models.CardScan{UIDHex: uidHex}

	query := `
        INSERT INTO card_scans (uid_hex, scanned_at)
        VALUES ($1, now())
        RETURNING id, scanned_at;
    `

	err := r.db.QueryRow(ctx, query, uidHex).Scan(&s.ID, &s.ScannedAt)
	if err != nil {
		return nil, fmt.Errorf("could not record card scan: %w", err)
	}

	return s, nil
}

// TakeLatest consumes the most recent pending scan, nil when none is
// waiting.
func (r *ScanStore) TakeLatest(ctx context.Context) (*models.CardScan, error) {
	row := r.db.QueryRow(ctx, `
        DELETE FROM card_scans
        WHERE id = (
            SELECT id FROM card_scans
            ORDER BY scanned_at DESC
            LIMIT 1
        )
        RETURNING id, uid_hex, scanned_at;
    `)

	s := &models.CardScan{}
	err := row.Scan(&s.ID, &s.UIDHex, &s.ScannedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not take card scan: %w", err)
	}

	return s, nil
}
