package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/amankwa/attendance-services/internal/storesvc/models"
)

var (
	ErrUIDLinked   = errors.New("UID already linked")
	ErrUIDRequired = errors.New("uid_hex required")
)

type CardStore interface {
	FindByUID(ctx context.Context, uidHex string) (*models.RFIDCard, error)
	Link(ctx context.Context, studentID int64, uidHex string) (*models.RFIDCard, error)
}

type ScanStore interface {
	Insert(ctx context.Context, uidHex string) (*models.CardScan, error)
	TakeLatest(ctx context.Context) (*models.CardScan, error)
}

// CardService manages card-to-student links and raw scan reports.
type CardService struct {
	cards CardStore
	scans ScanStore
}

func NewCardService(cards CardStore, scans ScanStore) *CardService {
	return &CardService{cards: cards, scans: scans}
}

func (s *CardService) Link(ctx context.Context, studentID int64, uidHex string) (*models.RFIDCard, error) {
	uidHex = strings.TrimSpace(uidHex)
	if uidHex == "" {
		return nil, ErrUIDRequired
	}

	existing, err := s.cards.FindByUID(ctx, uidHex)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s", ErrUIDLinked, uidHex)
	}

	return s.cards.Link(ctx, studentID, uidHex)
}

// ReportScan stores a raw card read from the device until an operator
// consumes it with begin-attendance.
func (s *CardService) ReportScan(ctx context.Context, uidHex string) (*models.CardScan, error) {
	uidHex = strings.TrimSpace(uidHex)
	if uidHex == "" {
		return nil, ErrUIDRequired
	}

	return s.scans.Insert(ctx, uidHex)
}
