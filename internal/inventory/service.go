package inventory

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	errors "github.com/frahmantamala/optical-pos/internal"
	"github.com/frahmantamala/optical-pos/internal/core/common/validation"
	"github.com/frahmantamala/optical-pos/internal/core/events"
	"github.com/frahmantamala/optical-pos/internal/core/storage"
	"github.com/frahmantamala/optical-pos/internal/core/tx"
	"github.com/frahmantamala/optical-pos/pkg/logger"
)

// Repository is the write side of the ledger. Every method honours the
// transaction carried by ctx.
type Repository interface {
	Create(ctx context.Context, item *Item) error
	GetByID(ctx context.Context, id int64) (*Item, error)
	GetBySKU(ctx context.Context, sku string) (*Item, error)
	// GetForUpdate reads the item and holds a row lock until the transaction ends
	// on dialects that support it.
	GetForUpdate(ctx context.Context, id int64) (*Item, error)
	// CompareAndSetQuantity writes after only if the row still holds before at
	// version, and bumps the version. It returns ErrConcurrentUpdate otherwise.
	CompareAndSetQuantity(ctx context.Context, id int64, before, after int, version int64) error
	AppendMutation(ctx context.Context, mutation *StockMutation) error
	SetActive(ctx context.Context, id int64, active bool) error
}

// HistoryReader serves the reporting queries.
type HistoryReader interface {
	History(ctx context.Context, itemID int64, limit int) ([]*StockMutation, error)
	LowStock(ctx context.Context, threshold, limit int) ([]*Item, error)
}

type Service struct {
	repo      Repository
	history   HistoryReader
	txm       tx.Manager
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo Repository, history HistoryReader, txm tx.Manager, publisher events.Publisher, logger *slog.Logger) *Service {
	if publisher == nil {
		publisher = events.Nop()
	}
	return &Service{
		repo:      repo,
		history:   history,
		txm:       txm,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// log prefers the logger carried by ctx, which holds the operator fields.
func (s *Service) log(ctx context.Context) *slog.Logger {
	return logger.FromOr(ctx, s.logger)
}

type mutationRequest struct {
	itemID        int64
	delta         int
	reason        string
	actor         *int64
	referenceType *string
	referenceID   *int64
	// validate runs once the item is known to exist.
	validate func() *errors.AppError
}

// AdjustStock applies a signed delta and records it. It is the only path,
// together with ReceiveStock, that changes quantity on hand. An unknown item
// is reported before a zero delta or a blank reason.
func (s *Service) AdjustStock(ctx context.Context, itemID int64, delta int, reason string, actor *int64) (int, error) {
	mutation, err := s.mutate(ctx, mutationRequest{
		itemID: itemID,
		delta:  delta,
		reason: reason,
		actor:  actor,
		validate: func() *errors.AppError {
			return validation.ValidateStockAdjustment(delta, reason)
		},
	})
	if err != nil {
		return 0, err
	}
	return mutation.QuantityAfter, nil
}

// ReceiveStock books a purchase order receipt. Called inside the receiving
// engine's transaction it joins that transaction and leaves publishing to it.
func (s *Service) ReceiveStock(ctx context.Context, receipt StockReceipt) (*StockMutation, error) {
	if err := validation.ValidateReceiptQuantity(receipt.Quantity); err != nil {
		return nil, err
	}

	refType := ReferencePurchaseOrderLine
	refID := receipt.LineID
	return s.mutate(ctx, mutationRequest{
		itemID:        receipt.ItemID,
		delta:         receipt.Quantity,
		reason:        receipt.Reason(),
		actor:         receipt.Actor,
		referenceType: &refType,
		referenceID:   &refID,
	})
}

func (s *Service) mutate(ctx context.Context, req mutationRequest) (*StockMutation, error) {
	outermost := !tx.InTransaction(ctx)

	var mutation *StockMutation
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		item, err := s.repo.GetForUpdate(ctx, req.itemID)
		if err != nil {
			return err
		}
		if req.validate != nil {
			if verr := req.validate(); verr != nil {
				return verr
			}
		}

		before := item.QuantityOnHand
		if req.delta > 0 && before > math.MaxInt-req.delta {
			return errors.NewValidationError(
				fmt.Sprintf("%s has %d on hand; adding %d would overflow", item.Name, before, req.delta),
				errors.ErrCodeInvalidQuantity,
			)
		}
		after := before + req.delta
		if after < 0 {
			return insufficientStock(item, req.delta)
		}

		if err := s.repo.CompareAndSetQuantity(ctx, item.ID, before, after, item.Version); err != nil {
			return err
		}

		mutation = &StockMutation{
			InventoryItemID: item.ID,
			ItemName:        item.Name,
			QuantityDelta:   req.delta,
			QuantityBefore:  before,
			QuantityAfter:   after,
			Reason:          req.reason,
			ActorOperatorID: req.actor,
			ReferenceType:   req.referenceType,
			ReferenceID:     req.referenceID,
			CreatedAt:       s.now(),
		}
		return s.repo.AppendMutation(ctx, mutation)
	})
	if err != nil {
		classified := s.classify(err, req.itemID)
		s.log(ctx).Warn("stock mutation failed",
			"item_id", req.itemID,
			"delta", req.delta,
			"reason", req.reason,
			"error", classified)
		return nil, classified
	}

	s.log(ctx).Info("stock mutated",
		"item_id", mutation.InventoryItemID,
		"delta", mutation.QuantityDelta,
		"before", mutation.QuantityBefore,
		"after", mutation.QuantityAfter)

	if outermost {
		s.PublishMutation(ctx, mutation)
	}
	return mutation, nil
}

// PublishMutation announces a committed mutation. Callers that ran the
// mutation inside their own transaction call it after their commit.
func (s *Service) PublishMutation(ctx context.Context, m *StockMutation) {
	event := events.NewStockMutatedEvent(m.InventoryItemID, m.QuantityDelta, m.QuantityBefore, m.QuantityAfter, m.Reason)
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log(ctx).Warn("failed to publish stock event", "error", err, "item_id", m.InventoryItemID)
	}
}

func (s *Service) CreateItem(ctx context.Context, dto CreateItemDTO, actor *int64) (*Item, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	item := &Item{
		ProductID:      dto.ProductID,
		SKU:            dto.SKU,
		Name:           dto.Name,
		Attributes:     dto.Attributes,
		QuantityOnHand: dto.InitialQuantity,
		SellingPrice:   dto.SellingPrice,
		IsActive:       true,
		IsProtected:    dto.IsProtected,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, item); err != nil {
			return err
		}
		if item.QuantityOnHand == 0 {
			return nil
		}
		refType := ReferenceInitialStock
		return s.repo.AppendMutation(ctx, &StockMutation{
			InventoryItemID: item.ID,
			ItemName:        item.Name,
			QuantityDelta:   item.QuantityOnHand,
			QuantityBefore:  0,
			QuantityAfter:   item.QuantityOnHand,
			Reason:          InitialStockReason,
			ActorOperatorID: actor,
			ReferenceType:   &refType,
			CreatedAt:       now,
		})
	})
	if err != nil {
		if stderrors.Is(err, ErrDuplicateSKU) {
			return nil, errors.NewConflictError("sku already exists", errors.ErrCodeDuplicateSKU)
		}
		s.log(ctx).Error("failed to create inventory item", "error", err, "sku", dto.SKU)
		return nil, errors.AsServiceError("failed to create inventory item", err)
	}

	s.log(ctx).Info("inventory item created", "item_id", item.ID, "sku", item.SKU, "quantity", item.QuantityOnHand)
	return item, nil
}

func (s *Service) GetItem(ctx context.Context, itemID int64) (*Item, error) {
	item, err := s.repo.GetByID(ctx, itemID)
	if err != nil {
		return nil, s.classify(err, itemID)
	}
	return item, nil
}

func (s *Service) GetItemBySKU(ctx context.Context, sku string) (*Item, error) {
	item, err := s.repo.GetBySKU(ctx, sku)
	if err != nil {
		if stderrors.Is(err, ErrNotFound) {
			return nil, errors.NewNotFoundError(fmt.Sprintf("inventory item %s not found", sku), errors.ErrCodeItemNotFound)
		}
		return nil, errors.AsServiceError("failed to load inventory item", err)
	}
	return item, nil
}

// DeactivateItem hides an item from sale. Protected items cannot be deactivated.
func (s *Service) DeactivateItem(ctx context.Context, itemID int64) error {
	item, err := s.GetItem(ctx, itemID)
	if err != nil {
		return err
	}
	if item.IsProtected {
		s.log(ctx).Warn("deactivation of protected item refused", "item_id", itemID)
		return errors.NewValidationError("item is protected and cannot be deactivated", errors.ErrCodeProtectedItem)
	}
	if err := s.repo.SetActive(ctx, itemID, false); err != nil {
		return s.classify(err, itemID)
	}
	s.log(ctx).Info("inventory item deactivated", "item_id", itemID)
	return nil
}

func (s *Service) History(ctx context.Context, itemID int64, limit int) ([]*StockMutation, error) {
	if _, err := s.GetItem(ctx, itemID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	mutations, err := s.history.History(ctx, itemID, limit)
	if err != nil {
		s.log(ctx).Error("failed to read stock history", "error", err, "item_id", itemID)
		return nil, errors.NewServiceError("failed to read stock history", err)
	}
	return mutations, nil
}

// LowStock lists active items at or below threshold.
func (s *Service) LowStock(ctx context.Context, threshold int) ([]*Item, error) {
	if threshold < 0 {
		return nil, errors.NewValidationFieldError("threshold", "threshold must not be negative", errors.ErrCodeInvalidQuantity)
	}
	items, err := s.history.LowStock(ctx, threshold, 200)
	if err != nil {
		s.log(ctx).Error("failed to read low stock", "error", err, "threshold", threshold)
		return nil, errors.NewServiceError("failed to read low stock", err)
	}
	return items, nil
}

func (s *Service) classify(err error, itemID int64) error {
	switch {
	case stderrors.Is(err, ErrNotFound):
		return errors.NewNotFoundError(fmt.Sprintf("inventory item %d not found", itemID), errors.ErrCodeItemNotFound)
	case storage.IsCheckViolation(err):
		return errors.NewValidationError("quantity on hand cannot go below zero", errors.ErrCodeInsufficientStock)
	case stderrors.Is(err, ErrConcurrentUpdate):
		return errors.NewServiceError("inventory item was changed concurrently; reload and retry", err).
			WithCode(errors.ErrCodeConcurrentUpdate)
	default:
		return errors.AsServiceError("stock storage failed", err)
	}
}

func insufficientStock(item *Item, delta int) error {
	return errors.NewValidationError(
		fmt.Sprintf("%s has %d on hand; cannot apply %d", item.Name, item.QuantityOnHand, delta),
		errors.ErrCodeInsufficientStock,
	)
}
