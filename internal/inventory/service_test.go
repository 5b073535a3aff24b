package inventory_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"os"
	"sync"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	appErrors "github.com/frahmantamala/optical-pos/internal"
	"github.com/frahmantamala/optical-pos/internal/core/events"
	"github.com/frahmantamala/optical-pos/internal/inventory"
	"github.com/frahmantamala/optical-pos/pkg/logger"
)

func TestInventoryService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Inventory Service Suite")
}

type mockInventoryRepository struct {
	mu          sync.Mutex
	items       map[int64]*inventory.Item
	mutations   []*inventory.StockMutation
	nextID      int64
	casError    error
	appendError error
	getError    error
}

func newMockInventoryRepository() *mockInventoryRepository {
	return &mockInventoryRepository{items: map[int64]*inventory.Item{}, nextID: 1}
}

func (m *mockInventoryRepository) Create(_ context.Context, item *inventory.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.items {
		if existing.SKU == item.SKU {
			return inventory.ErrDuplicateSKU
		}
	}
	item.ID = m.nextID
	m.nextID++
	copied := *item
	m.items[item.ID] = &copied
	return nil
}

func (m *mockInventoryRepository) GetByID(_ context.Context, id int64) (*inventory.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getError != nil {
		return nil, m.getError
	}
	item, ok := m.items[id]
	if !ok {
		return nil, inventory.ErrNotFound
	}
	copied := *item
	return &copied, nil
}

func (m *mockInventoryRepository) GetBySKU(_ context.Context, sku string) (*inventory.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range m.items {
		if item.SKU == sku {
			copied := *item
			return &copied, nil
		}
	}
	return nil, inventory.ErrNotFound
}

func (m *mockInventoryRepository) GetForUpdate(ctx context.Context, id int64) (*inventory.Item, error) {
	return m.GetByID(ctx, id)
}

func (m *mockInventoryRepository) CompareAndSetQuantity(_ context.Context, id int64, before, after int, version int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.casError != nil {
		return m.casError
	}
	item, ok := m.items[id]
	if !ok || item.QuantityOnHand != before || item.Version != version {
		return inventory.ErrConcurrentUpdate
	}
	item.QuantityOnHand = after
	item.Version++
	return nil
}

func (m *mockInventoryRepository) AppendMutation(_ context.Context, mutation *inventory.StockMutation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendError != nil {
		return m.appendError
	}
	mutation.ID = int64(len(m.mutations) + 1)
	m.mutations = append(m.mutations, mutation)
	return nil
}

func (m *mockInventoryRepository) SetActive(_ context.Context, id int64, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return inventory.ErrNotFound
	}
	item.IsActive = active
	return nil
}

func (m *mockInventoryRepository) seed(name string, qty int, protected bool) *inventory.Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	item := &inventory.Item{ID: m.nextID, SKU: name, Name: name, QuantityOnHand: qty, IsActive: true, IsProtected: protected, Version: 1}
	m.nextID++
	m.items[item.ID] = item
	return item
}

func (m *mockInventoryRepository) quantity(id int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items[id].QuantityOnHand
}

func (m *mockInventoryRepository) auditCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.mutations)
}

type mockHistoryReader struct {
	mutations []*inventory.StockMutation
	items     []*inventory.Item
	err       error
}

func (m *mockHistoryReader) History(_ context.Context, _ int64, limit int) ([]*inventory.StockMutation, error) {
	if m.err != nil {
		return nil, m.err
	}
	if len(m.mutations) > limit {
		return m.mutations[:limit], nil
	}
	return m.mutations, nil
}

func (m *mockHistoryReader) LowStock(_ context.Context, threshold, _ int) ([]*inventory.Item, error) {
	if m.err != nil {
		return nil, m.err
	}
	result := []*inventory.Item{}
	for _, item := range m.items {
		if item.QuantityOnHand <= threshold {
			result = append(result, item)
		}
	}
	return result, nil
}

// passthroughManager runs fn without a transaction.
type passthroughManager struct{}

func (passthroughManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type capturingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *capturingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *capturingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

var _ = Describe("Inventory Service", func() {
	var (
		repo      *mockInventoryRepository
		history   *mockHistoryReader
		publisher *capturingPublisher
		service   *inventory.Service
		ctx       context.Context
		actor     int64
	)

	BeforeEach(func() {
		repo = newMockInventoryRepository()
		history = &mockHistoryReader{}
		publisher = &capturingPublisher{}
		quiet := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = inventory.NewService(repo, history, passthroughManager{}, publisher, quiet)
		ctx = context.Background()
		actor = 7
	})

	Describe("AdjustStock", func() {
		It("applies the delta and writes one audit row", func() {
			item := repo.seed("FR-001", 50, false)

			qty, err := service.AdjustStock(ctx, item.ID, -10, "sold at counter", &actor)
			Expect(err).NotTo(HaveOccurred())
			Expect(qty).To(Equal(40))
			Expect(repo.quantity(item.ID)).To(Equal(40))

			Expect(repo.auditCount()).To(Equal(1))
			audit := repo.mutations[0]
			Expect(audit.QuantityBefore).To(Equal(50))
			Expect(audit.QuantityDelta).To(Equal(-10))
			Expect(audit.QuantityAfter).To(Equal(40))
			Expect(audit.Reason).To(Equal("sold at counter"))
			Expect(*audit.ActorOperatorID).To(Equal(actor))
			Expect(audit.ItemName).To(Equal("FR-001"))
			Expect(publisher.count()).To(Equal(1))
		})

		It("refuses to go below zero and leaves no trace", func() {
			item := repo.seed("FR-002", 50, false)

			_, err := service.AdjustStock(ctx, item.ID, -60, "breakage", &actor)
			Expect(appErrors.IsType(err, appErrors.ErrorTypeValidation)).To(BeTrue())
			Expect(appErrors.HasCode(err, appErrors.ErrCodeInsufficientStock)).To(BeTrue())
			Expect(repo.quantity(item.ID)).To(Equal(50))
			Expect(repo.auditCount()).To(BeZero())
			Expect(publisher.count()).To(BeZero())
		})

		It("allows going exactly to zero", func() {
			item := repo.seed("FR-003", 5, false)
			qty, err := service.AdjustStock(ctx, item.ID, -5, "write-off", nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(qty).To(BeZero())
		})

		It("rejects a zero delta and a blank reason without writing", func() {
			item := repo.seed("FR-004", 5, false)

			_, err := service.AdjustStock(ctx, item.ID, 0, "recount", nil)
			Expect(appErrors.HasCode(err, appErrors.ErrCodeInvalidQuantity)).To(BeTrue())

			_, err = service.AdjustStock(ctx, item.ID, 1, "  ", nil)
			Expect(appErrors.HasCode(err, appErrors.ErrCodeInvalidReason)).To(BeTrue())
			Expect(repo.quantity(item.ID)).To(Equal(5))
			Expect(repo.auditCount()).To(BeZero())
		})

		It("reports unknown items", func() {
			_, err := service.AdjustStock(ctx, 404, 1, "found", nil)
			Expect(appErrors.IsType(err, appErrors.ErrorTypeNotFound)).To(BeTrue())
			Expect(appErrors.HasCode(err, appErrors.ErrCodeItemNotFound)).To(BeTrue())
		})

		It("logs through the logger carried by the context", func() {
			var buf bytes.Buffer
			logger.Configure(logger.Options{Level: "info", Format: "text", Output: &buf})
			item := repo.seed("FR-010", 2, false)

			_, err := service.AdjustStock(logger.With(ctx, "operator_id", int64(6)), item.ID, 1, "found", nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(buf.String()).To(ContainSubstring("stock mutated"))
			Expect(buf.String()).To(ContainSubstring("operator_id=6"))
		})

		It("reports an unknown item ahead of invalid input", func() {
			_, err := service.AdjustStock(ctx, 404, 0, "", nil)
			Expect(appErrors.IsType(err, appErrors.ErrorTypeNotFound)).To(BeTrue())
		})

		It("rejects an increase that would overflow the quantity", func() {
			item := repo.seed("FR-009", 4, false)

			_, err := service.AdjustStock(ctx, item.ID, math.MaxInt, "recount", nil)
			Expect(appErrors.IsType(err, appErrors.ErrorTypeValidation)).To(BeTrue())
			Expect(appErrors.HasCode(err, appErrors.ErrCodeInvalidQuantity)).To(BeTrue())
			Expect(repo.quantity(item.ID)).To(Equal(4))
			Expect(repo.auditCount()).To(BeZero())
		})

		It("writes no audit row when the compare-and-set loses", func() {
			item := repo.seed("FR-005", 10, false)
			repo.casError = inventory.ErrConcurrentUpdate

			_, err := service.AdjustStock(ctx, item.ID, 2, "restock", nil)
			Expect(appErrors.IsType(err, appErrors.ErrorTypeService)).To(BeTrue())
			Expect(appErrors.HasCode(err, appErrors.ErrCodeConcurrentUpdate)).To(BeTrue())
			Expect(repo.auditCount()).To(BeZero())
			Expect(publisher.count()).To(BeZero())
		})

		It("wraps storage failures as service errors with the cause", func() {
			item := repo.seed("FR-006", 10, false)
			boom := errors.New("disk full")
			repo.appendError = boom

			_, err := service.AdjustStock(ctx, item.ID, 2, "restock", nil)
			Expect(appErrors.IsType(err, appErrors.ErrorTypeService)).To(BeTrue())
			Expect(errors.Is(err, boom)).To(BeTrue())
		})
	})

	Describe("ReceiveStock", func() {
		It("records the purchase order line as the reference", func() {
			item := repo.seed("LN-001", 3, false)

			mutation, err := service.ReceiveStock(ctx, inventory.StockReceipt{
				ItemID: item.ID, OrderID: 12, LineID: 31, Quantity: 4, Actor: &actor,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(mutation.QuantityAfter).To(Equal(7))
			Expect(*mutation.ReferenceType).To(Equal(inventory.ReferencePurchaseOrderLine))
			Expect(*mutation.ReferenceID).To(Equal(int64(31)))
			Expect(mutation.Reason).To(Equal("purchase order #12 line #31"))
		})

		It("rejects non-positive receipts", func() {
			item := repo.seed("LN-002", 3, false)
			_, err := service.ReceiveStock(ctx, inventory.StockReceipt{ItemID: item.ID, Quantity: 0})
			Expect(appErrors.HasCode(err, appErrors.ErrCodeInvalidQuantity)).To(BeTrue())
			Expect(repo.quantity(item.ID)).To(Equal(3))
		})
	})

	Describe("CreateItem", func() {
		It("creates the item and audits the initial stock", func() {
			item, err := service.CreateItem(ctx, inventory.CreateItemDTO{
				SKU: " fr-100 ", Name: "Titanium frame", InitialQuantity: 4,
				SellingPrice: decimal.RequireFromString("850000.00"),
			}, &actor)
			Expect(err).NotTo(HaveOccurred())
			Expect(item.SKU).To(Equal("FR-100"))
			Expect(item.IsActive).To(BeTrue())
			Expect(repo.auditCount()).To(Equal(1))
			Expect(*repo.mutations[0].ReferenceType).To(Equal(inventory.ReferenceInitialStock))
		})

		It("does not audit an empty item", func() {
			_, err := service.CreateItem(ctx, inventory.CreateItemDTO{SKU: "FR-101", Name: "Case"}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(repo.auditCount()).To(BeZero())
		})

		It("rejects duplicates and invalid input", func() {
			_, err := service.CreateItem(ctx, inventory.CreateItemDTO{SKU: "FR-102", Name: "Case"}, nil)
			Expect(err).NotTo(HaveOccurred())
			_, err = service.CreateItem(ctx, inventory.CreateItemDTO{SKU: "fr-102", Name: "Other"}, nil)
			Expect(appErrors.IsType(err, appErrors.ErrorTypeConflict)).To(BeTrue())
			Expect(appErrors.HasCode(err, appErrors.ErrCodeDuplicateSKU)).To(BeTrue())

			_, err = service.CreateItem(ctx, inventory.CreateItemDTO{SKU: "FR-103", Name: "Case", InitialQuantity: -1}, nil)
			Expect(appErrors.HasCode(err, appErrors.ErrCodeInvalidQuantity)).To(BeTrue())
		})
	})

	Describe("DeactivateItem", func() {
		It("deactivates ordinary items", func() {
			item := repo.seed("CL-001", 1, false)
			Expect(service.DeactivateItem(ctx, item.ID)).To(Succeed())
			found, err := service.GetItem(ctx, item.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(found.IsActive).To(BeFalse())
		})

		It("refuses protected items", func() {
			item := repo.seed("SVC-EYE-TEST", 0, true)
			err := service.DeactivateItem(ctx, item.ID)
			Expect(appErrors.HasCode(err, appErrors.ErrCodeProtectedItem)).To(BeTrue())
		})
	})

	Describe("reports", func() {
		It("reads history for known items only", func() {
			item := repo.seed("CL-002", 1, false)
			history.mutations = []*inventory.StockMutation{{ID: 2}, {ID: 1}}

			mutations, err := service.History(ctx, item.ID, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(mutations).To(HaveLen(2))

			_, err = service.History(ctx, 404, 10)
			Expect(appErrors.IsType(err, appErrors.ErrorTypeNotFound)).To(BeTrue())
		})

		It("lists low stock and validates the threshold", func() {
			history.items = []*inventory.Item{{ID: 1, QuantityOnHand: 1}, {ID: 2, QuantityOnHand: 9}}
			items, err := service.LowStock(ctx, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(items).To(HaveLen(1))

			_, err = service.LowStock(ctx, -1)
			Expect(appErrors.IsType(err, appErrors.ErrorTypeValidation)).To(BeTrue())
		})

		It("wraps reader failures", func() {
			history.err = errors.New("timeout")
			_, err := service.LowStock(ctx, 2)
			Expect(appErrors.IsType(err, appErrors.ErrorTypeService)).To(BeTrue())
		})
	})
})

var _ = Describe("LowStockNotifier", func() {
	var (
		notifier *inventory.LowStockNotifier
		alerts   []int64
	)

	BeforeEach(func() {
		alerts = nil
		notifier = inventory.NewLowStockNotifier(3, slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})))
		notifier.OnAlert(func(_ context.Context, itemID int64, _ int) {
			alerts = append(alerts, itemID)
		})
	})

	It("alerts when a decrease reaches the threshold", func() {
		Expect(notifier.Handle(context.Background(), events.NewStockMutatedEvent(1, -2, 5, 3, "sale"))).To(Succeed())
		Expect(alerts).To(Equal([]int64{1}))
	})

	It("ignores increases and quantities above the threshold", func() {
		Expect(notifier.Handle(context.Background(), events.NewStockMutatedEvent(1, 1, 0, 1, "receipt"))).To(Succeed())
		Expect(notifier.Handle(context.Background(), events.NewStockMutatedEvent(2, -1, 10, 9, "sale"))).To(Succeed())
		Expect(alerts).To(BeEmpty())
	})

	It("fires through the bus", func() {
		bus := events.NewEventBus(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})))
		notifier.Register(bus)
		Expect(bus.Publish(context.Background(), events.NewStockMutatedEvent(4, -1, 1, 0, "sale"))).To(Succeed())
		Expect(bus.Wait(context.Background())).To(Succeed())
		Expect(alerts).To(Equal([]int64{4}))
	})
})
