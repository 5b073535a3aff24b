package purchaseorder

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	errors "github.com/frahmantamala/optical-pos/internal"
	"github.com/frahmantamala/optical-pos/internal/core/common/validation"
	"github.com/frahmantamala/optical-pos/internal/core/events"
	"github.com/frahmantamala/optical-pos/internal/core/storage"
	"github.com/frahmantamala/optical-pos/internal/core/tx"
	"github.com/frahmantamala/optical-pos/internal/inventory"
	"github.com/frahmantamala/optical-pos/pkg/logger"
)

// Repository persists orders and lines. Every method honours the transaction
// carried by ctx.
type Repository interface {
	// Create stores the header and its lines and fills in their ids.
	Create(ctx context.Context, order *PurchaseOrder) error
	// GetByID returns the order with its lines ordered by line number.
	GetByID(ctx context.Context, id int64) (*PurchaseOrder, error)
	// GetForUpdate returns the header only and locks it where the dialect allows.
	GetForUpdate(ctx context.Context, id int64) (*PurchaseOrder, error)
	// GetLineForUpdate returns ErrLineNotFound unless lineID belongs to orderID.
	GetLineForUpdate(ctx context.Context, orderID, lineID int64) (*Line, error)
	ListLines(ctx context.Context, orderID int64) ([]*Line, error)
	List(ctx context.Context, status string, limit int) ([]*PurchaseOrder, error)
	// UpdateLineReceipt writes received only if the line still holds
	// previousReceived, otherwise ErrConcurrentUpdate.
	UpdateLineReceipt(ctx context.Context, lineID int64, previousReceived, received int, price decimal.Decimal) error
	// UpdateStatus moves the order from one status to another, otherwise
	// ErrConcurrentUpdate.
	UpdateStatus(ctx context.Context, orderID int64, from, to string) error
}

// StockLedger is the part of the inventory service the engine drives.
type StockLedger interface {
	GetItem(ctx context.Context, itemID int64) (*inventory.Item, error)
	ReceiveStock(ctx context.Context, receipt inventory.StockReceipt) (*inventory.StockMutation, error)
	PublishMutation(ctx context.Context, m *inventory.StockMutation)
}

// Actor identifies who is acting; *session.Session satisfies it.
type Actor interface {
	OperatorID() *int64
}

type Service struct {
	repo      Repository
	ledger    StockLedger
	txm       tx.Manager
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo Repository, ledger StockLedger, txm tx.Manager, publisher events.Publisher, logger *slog.Logger) *Service {
	if publisher == nil {
		publisher = events.Nop()
	}
	return &Service{
		repo:      repo,
		ledger:    ledger,
		txm:       txm,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Service) log(ctx context.Context) *slog.Logger {
	return logger.FromOr(ctx, s.logger)
}

// ReceiveStockForItem books quantityNow units of one order line. The stock
// increase, the line update and the status change commit together or not at all.
func (s *Service) ReceiveStockForItem(ctx context.Context, sess Actor, lineID, orderID int64, quantityNow int, unitPrice decimal.Decimal) (*ReceiptResult, error) {
	if err := validation.ValidateReceiptQuantity(quantityNow); err != nil {
		return nil, err
	}
	if unitPrice.IsNegative() {
		return nil, errors.NewValidationFieldError("unit_price", "unit_price must not be negative", errors.ErrCodeInvalidAmount)
	}

	var actor *int64
	if sess != nil {
		actor = sess.OperatorID()
	}

	outermost := !tx.InTransaction(ctx)
	var (
		result   *ReceiptResult
		mutation *inventory.StockMutation
	)
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		order, err := s.repo.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		line, err := s.repo.GetLineForUpdate(ctx, orderID, lineID)
		if err != nil {
			return err
		}
		if !order.IsReceivable() {
			return errors.NewStockReceivingError(
				fmt.Sprintf("purchase order %d is %s and cannot receive stock", orderID, order.Status),
				errors.ErrCodeOrderNotReceivable,
			)
		}
		if quantityNow > line.Remaining() {
			return overReceipt(line, quantityNow)
		}
		newReceived := line.QuantityReceived + quantityNow

		mutation, err = s.ledger.ReceiveStock(ctx, inventory.StockReceipt{
			ItemID:   line.InventoryItemID,
			OrderID:  orderID,
			LineID:   lineID,
			Quantity: quantityNow,
			Actor:    actor,
		})
		if err != nil {
			return err
		}

		if err := s.repo.UpdateLineReceipt(ctx, lineID, line.QuantityReceived, newReceived, unitPrice); err != nil {
			return err
		}
		line.QuantityReceived = newReceived
		line.LastPurchasePrice = decimal.NewNullDecimal(unitPrice)

		lines, err := s.repo.ListLines(ctx, orderID)
		if err != nil {
			return err
		}
		status := ComputeStatus(lines, order.Status)
		if status != order.Status {
			if err := s.repo.UpdateStatus(ctx, orderID, order.Status, status); err != nil {
				return err
			}
		}

		result = &ReceiptResult{
			Line:              line,
			OrderStatus:       status,
			NewQuantityOnHand: mutation.QuantityAfter,
		}
		return nil
	})
	if err != nil {
		classified := s.classify(err, orderID, lineID)
		s.log(ctx).Warn("stock receipt failed",
			"order_id", orderID,
			"line_id", lineID,
			"quantity", quantityNow,
			"error", classified)
		return nil, classified
	}

	s.log(ctx).Info("stock received",
		"order_id", orderID,
		"line_id", lineID,
		"quantity", quantityNow,
		"received", result.Line.QuantityReceived,
		"ordered", result.Line.QuantityOrdered,
		"order_status", result.OrderStatus)

	if outermost {
		s.ledger.PublishMutation(ctx, mutation)
		s.publish(ctx, events.NewPurchaseOrderReceivedEvent(orderID, lineID, quantityNow, result.OrderStatus))
	}
	return result, nil
}

// CreateNewPurchaseOrder stores a pending order with its lines, stamped with
// the session operator.
func (s *Service) CreateNewPurchaseOrder(ctx context.Context, sess Actor, dto CreatePurchaseOrderDTO) (*PurchaseOrder, error) {
	var creator *int64
	if sess != nil {
		creator = sess.OperatorID()
	}
	if creator == nil {
		s.log(ctx).Warn("purchase order creation without operator")
		return nil, errors.NewPurchaseOrderError("an operator must be logged in to create a purchase order", errors.ErrCodeOperatorRequired)
	}

	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	order := &PurchaseOrder{
		OrderDate: now,
		Supplier:  dto.Supplier,
		Status:    StatusPending,
		CreatedBy: *creator,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if dto.OrderDate != nil {
		order.OrderDate = *dto.OrderDate
	}
	for i, l := range dto.Lines {
		order.Lines = append(order.Lines, &Line{
			InventoryItemID: l.InventoryItemID,
			LineNo:          i + 1,
			QuantityOrdered: l.QuantityOrdered,
			UnitPrice:       l.UnitPrice,
			UpdatedAt:       now,
		})
	}

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		for _, line := range order.Lines {
			if _, err := s.ledger.GetItem(ctx, line.InventoryItemID); err != nil {
				return err
			}
		}
		return s.repo.Create(ctx, order)
	})
	if err != nil {
		if _, ok := errors.IsAppError(err); !ok {
			s.log(ctx).Error("failed to create purchase order", "error", err, "supplier", order.Supplier)
		}
		return nil, errors.AsServiceError("failed to create purchase order", err)
	}

	s.log(ctx).Info("purchase order created", "order_id", order.ID, "lines", len(order.Lines), "created_by", order.CreatedBy)
	s.publish(ctx, events.NewPurchaseOrderEvent(events.EventTypePurchaseOrderCreated, order.ID, order.CreatedBy, order.Status))
	return order, nil
}

// CancelPurchaseOrder cancels a pending order that has not received anything.
func (s *Service) CancelPurchaseOrder(ctx context.Context, sess Actor, orderID int64) (*PurchaseOrder, error) {
	var actor *int64
	if sess != nil {
		actor = sess.OperatorID()
	}
	if actor == nil {
		return nil, errors.NewPurchaseOrderError("an operator must be logged in to cancel a purchase order", errors.ErrCodeOperatorRequired)
	}

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		order, err := s.repo.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		lines, err := s.repo.ListLines(ctx, orderID)
		if err != nil {
			return err
		}
		order.Lines = lines
		if order.Status != StatusPending || order.HasReceipts() {
			return errors.NewPurchaseOrderError(
				fmt.Sprintf("purchase order %d is %s and cannot be cancelled", orderID, order.Status),
				errors.ErrCodeOrderNotCancellable,
			)
		}
		return s.repo.UpdateStatus(ctx, orderID, StatusPending, StatusCancelled)
	})
	if err != nil {
		return nil, s.classify(err, orderID, 0)
	}

	s.log(ctx).Info("purchase order cancelled", "order_id", orderID, "operator_id", *actor)
	s.publish(ctx, events.NewPurchaseOrderEvent(events.EventTypePurchaseOrderCancelled, orderID, *actor, StatusCancelled))
	return s.GetPurchaseOrder(ctx, orderID)
}

func (s *Service) GetPurchaseOrder(ctx context.Context, orderID int64) (*PurchaseOrder, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, s.classify(err, orderID, 0)
	}
	return order, nil
}

// ListPurchaseOrders returns the newest orders first. An empty status lists all.
func (s *Service) ListPurchaseOrders(ctx context.Context, status string, limit int) ([]*PurchaseOrder, error) {
	if status != "" && !IsValidStatus(status) {
		return nil, errors.NewValidationFieldError("status", fmt.Sprintf("unknown status %q", status), errors.ErrCodeValidationFailed)
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	orders, err := s.repo.List(ctx, status, limit)
	if err != nil {
		s.log(ctx).Error("failed to list purchase orders", "error", err, "status", status)
		return nil, errors.NewServiceError("failed to list purchase orders", err)
	}
	return orders, nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log(ctx).Warn("failed to publish purchase order event", "error", err, "event_type", event.EventType())
	}
}

func (s *Service) classify(err error, orderID, lineID int64) error {
	if _, ok := errors.IsAppError(err); ok {
		return err
	}
	switch {
	case stderrors.Is(err, ErrNotFound):
		return errors.NewNotFoundError(fmt.Sprintf("purchase order %d not found", orderID), errors.ErrCodeOrderNotFound)
	case stderrors.Is(err, ErrLineNotFound):
		return errors.NewNotFoundError(fmt.Sprintf("line %d not found in purchase order %d", lineID, orderID), errors.ErrCodeOrderLineNotFound)
	case stderrors.Is(err, ErrConcurrentUpdate):
		return errors.NewServiceError("purchase order was changed concurrently; reload and retry", err).
			WithCode(errors.ErrCodeConcurrentUpdate)
	case storage.IsCheckViolation(err):
		return errors.NewStockReceivingError("received quantity would exceed the ordered quantity", errors.ErrCodeOverReceipt).
			WithCause(err)
	default:
		return errors.AsServiceError("purchase order storage failed", err)
	}
}

func overReceipt(line *Line, quantityNow int) error {
	return errors.NewStockReceivingError(
		fmt.Sprintf("line %d has %d of %d received; receiving %d more would exceed the order",
			line.ID, line.QuantityReceived, line.QuantityOrdered, quantityNow),
		errors.ErrCodeOverReceipt,
	)
}
