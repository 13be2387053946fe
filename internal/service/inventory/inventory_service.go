// Package inventory implements the warehouse inventory ledger.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/agrichain-os/agrichain/internal/domain/models"
	"github.com/agrichain-os/agrichain/internal/repository"
)

// ErrInvalidQuantity rejects zero or negative quantities before they reach
// the store.
var ErrInvalidQuantity = errors.New("quantity must be positive")

// Service exposes the inventory ledger operations.
type Service struct {
	store  repository.InventoryStore
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires a new inventory ledger instance.
func NewService(store repository.InventoryStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger, now: time.Now}
}

// Credit adds quantity to a commodity's stock, creating the entry on first
// harvest. The upsert is atomic at the store level.
func (s *Service) Credit(ctx context.Context, commodity string, quantity float64) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if err := s.store.CreditInventory(ctx, commodity, quantity, s.now().UTC()); err != nil {
		return fmt.Errorf("credit %s: %w", commodity, err)
	}
	s.logger.Info("inventory credited",
		zap.String("commodity", commodity), zap.Float64("quantity", quantity))
	return nil
}

// Debit removes quantity from a commodity's stock. Debits that would drive
// the balance negative fail with repository.ErrInsufficientStock and leave
// the entry untouched.
func (s *Service) Debit(ctx context.Context, commodity string, quantity float64) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if err := s.store.DebitInventory(ctx, commodity, quantity, s.now().UTC()); err != nil {
		return fmt.Errorf("debit %s: %w", commodity, err)
	}
	s.logger.Info("inventory debited",
		zap.String("commodity", commodity), zap.Float64("quantity", quantity))
	return nil
}

// ListAvailable returns every entry with stock on hand.
func (s *Service) ListAvailable(ctx context.Context) ([]models.InventoryEntry, error) {
	return s.store.ListAvailableInventory(ctx)
}
