package shift_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	appErrors "github.com/frahmantamala/optical-pos/internal"
	"github.com/frahmantamala/optical-pos/internal/core/events"
	"github.com/frahmantamala/optical-pos/internal/operator"
	"github.com/frahmantamala/optical-pos/internal/shift"
)

func TestShiftService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Shift Service Suite")
}

type mockShiftRepository struct {
	mu              sync.Mutex
	shifts          map[int64]*shift.Shift
	nextID          int64
	createError     error
	getError        error
	transitionError error
}

func newMockShiftRepository() *mockShiftRepository {
	return &mockShiftRepository{shifts: map[int64]*shift.Shift{}, nextID: 1}
}

func (m *mockShiftRepository) Create(_ context.Context, s *shift.Shift) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createError != nil {
		return m.createError
	}
	for _, existing := range m.shifts {
		if existing.OperatorID == s.OperatorID && existing.IsOpen() {
			return shift.ErrShiftAlreadyOpen
		}
	}
	s.ID = m.nextID
	m.nextID++
	copied := *s
	m.shifts[s.ID] = &copied
	return nil
}

func (m *mockShiftRepository) GetByID(_ context.Context, id int64) (*shift.Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getError != nil {
		return nil, m.getError
	}
	s, ok := m.shifts[id]
	if !ok {
		return nil, shift.ErrNotFound
	}
	copied := *s
	return &copied, nil
}

func (m *mockShiftRepository) GetOpenByOperator(_ context.Context, operatorID int64) (*shift.Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.shifts {
		if s.OperatorID == operatorID && s.IsOpen() {
			copied := *s
			return &copied, nil
		}
	}
	return nil, shift.ErrNotFound
}

func (m *mockShiftRepository) ListByOperator(_ context.Context, operatorID int64, limit int) ([]*shift.Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := []*shift.Shift{}
	for _, s := range m.shifts {
		if s.OperatorID == operatorID && len(result) < limit {
			copied := *s
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (m *mockShiftRepository) Transition(_ context.Context, id, operatorID int64, from, to string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.transitionError != nil {
		return m.transitionError
	}
	s, ok := m.shifts[id]
	if !ok || s.OperatorID != operatorID || s.Status != from {
		return shift.ErrConcurrentUpdate
	}
	s.Status = to
	if to == shift.StatusClosed {
		s.EndedAt = &at
	}
	return nil
}

type mockOperatorReader struct {
	operators map[int64]*operator.Operator
}

func (m *mockOperatorReader) GetByID(_ context.Context, id int64) (*operator.Operator, error) {
	if op, ok := m.operators[id]; ok {
		return op, nil
	}
	return nil, operator.ErrNotFound
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

func (p *capturingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

var _ = Describe("Shift Service", func() {
	var (
		repo      *mockShiftRepository
		publisher *capturingPublisher
		service   *shift.Service
		ctx       context.Context
	)

	BeforeEach(func() {
		repo = newMockShiftRepository()
		publisher = &capturingPublisher{}
		operators := &mockOperatorReader{operators: map[int64]*operator.Operator{
			1: {ID: 1, DisplayName: "Ayu", IsActive: true},
			2: {ID: 2, DisplayName: "Bima", IsActive: true},
			3: {ID: 3, DisplayName: "Citra", IsActive: false},
		}}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = shift.NewService(repo, operators, publisher, logger)
		ctx = context.Background()
	})

	Describe("StartNewShift", func() {
		It("opens an active shift with the operator name", func() {
			s, err := service.StartNewShift(ctx, 1, decimal.NewFromInt(200000))
			Expect(err).NotTo(HaveOccurred())
			Expect(s.ID).NotTo(BeZero())
			Expect(s.Status).To(Equal(shift.StatusActive))
			Expect(s.OperatorName).To(Equal("Ayu"))
			Expect(s.EndedAt).To(BeNil())
			Expect(publisher.types()).To(Equal([]string{events.EventTypeShiftStarted}))
		})

		It("accepts a zero float and rejects a negative one", func() {
			_, err := service.StartNewShift(ctx, 1, decimal.Zero)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.StartNewShift(ctx, 2, decimal.NewFromInt(-1))
			Expect(appErrors.IsType(err, appErrors.ErrorTypeValidation)).To(BeTrue())
		})

		It("rejects a second open shift", func() {
			_, err := service.StartNewShift(ctx, 1, decimal.Zero)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.StartNewShift(ctx, 1, decimal.Zero)
			Expect(appErrors.IsType(err, appErrors.ErrorTypeShiftOperation)).To(BeTrue())
			Expect(appErrors.HasCode(err, appErrors.ErrCodeShiftAlreadyOpen)).To(BeTrue())
		})

		It("treats a paused shift as still open", func() {
			s, err := service.StartNewShift(ctx, 1, decimal.Zero)
			Expect(err).NotTo(HaveOccurred())
			_, err = service.PauseActiveShift(ctx, s.ID, 1)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.StartNewShift(ctx, 1, decimal.Zero)
			Expect(appErrors.HasCode(err, appErrors.ErrCodeShiftAlreadyOpen)).To(BeTrue())
		})

		It("allows a new shift after closing", func() {
			s, err := service.StartNewShift(ctx, 1, decimal.Zero)
			Expect(err).NotTo(HaveOccurred())
			_, err = service.CloseShift(ctx, s.ID, 1)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.StartNewShift(ctx, 1, decimal.Zero)
			Expect(err).NotTo(HaveOccurred())
		})

		It("reports unknown and inactive operators", func() {
			_, err := service.StartNewShift(ctx, 99, decimal.Zero)
			Expect(appErrors.IsType(err, appErrors.ErrorTypeNotFound)).To(BeTrue())

			_, err = service.StartNewShift(ctx, 3, decimal.Zero)
			Expect(appErrors.HasCode(err, appErrors.ErrCodeOperatorInactive)).To(BeTrue())
		})

		It("maps the storage uniqueness failure to a shift error", func() {
			repo.createError = shift.ErrShiftAlreadyOpen
			_, err := service.StartNewShift(ctx, 1, decimal.Zero)
			Expect(appErrors.HasCode(err, appErrors.ErrCodeShiftAlreadyOpen)).To(BeTrue())
		})

		It("wraps other storage failures", func() {
			boom := errors.New("disk I/O error")
			repo.createError = boom
			_, err := service.StartNewShift(ctx, 1, decimal.Zero)
			Expect(appErrors.IsType(err, appErrors.ErrorTypeShiftOperation)).To(BeTrue())
			Expect(errors.Is(err, boom)).To(BeTrue())
		})
	})

	Describe("pause and resume", func() {
		var opened *shift.Shift

		BeforeEach(func() {
			var err error
			opened, err = service.StartNewShift(ctx, 1, decimal.Zero)
			Expect(err).NotTo(HaveOccurred())
		})

		It("pauses and resumes for the owner", func() {
			paused, err := service.PauseActiveShift(ctx, opened.ID, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(paused.Status).To(Equal(shift.StatusPaused))

			resumed, err := service.ResumePausedShift(ctx, opened.ID, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(resumed.Status).To(Equal(shift.StatusActive))
			Expect(publisher.types()).To(ContainElements(events.EventTypeShiftPaused, events.EventTypeShiftResumed))
		})

		It("refuses a non-owner regardless of status", func() {
			_, err := service.PauseActiveShift(ctx, opened.ID, 2)
			Expect(appErrors.HasCode(err, appErrors.ErrCodeShiftNotOwner)).To(BeTrue())

			_, err = service.ResumePausedShift(ctx, opened.ID, 2)
			Expect(appErrors.HasCode(err, appErrors.ErrCodeShiftNotOwner)).To(BeTrue())
		})

		It("refuses the wrong status", func() {
			_, err := service.ResumePausedShift(ctx, opened.ID, 1)
			Expect(appErrors.HasCode(err, appErrors.ErrCodeShiftInvalidStatus)).To(BeTrue())

			_, err = service.PauseActiveShift(ctx, opened.ID, 1)
			Expect(err).NotTo(HaveOccurred())
			_, err = service.PauseActiveShift(ctx, opened.ID, 1)
			Expect(appErrors.HasCode(err, appErrors.ErrCodeShiftInvalidStatus)).To(BeTrue())
		})

		It("reports a lost compare-and-set as a state change", func() {
			repo.transitionError = shift.ErrConcurrentUpdate
			_, err := service.PauseActiveShift(ctx, opened.ID, 1)
			Expect(appErrors.HasCode(err, appErrors.ErrCodeShiftStateChanged)).To(BeTrue())
		})

		It("wraps storage failures with the cause", func() {
			boom := errors.New("connection lost")
			repo.transitionError = boom
			_, err := service.PauseActiveShift(ctx, opened.ID, 1)
			Expect(appErrors.IsType(err, appErrors.ErrorTypeShiftOperation)).To(BeTrue())
			Expect(appErrors.HasCode(err, appErrors.ErrCodeShiftStorage)).To(BeTrue())
			Expect(errors.Is(err, boom)).To(BeTrue())
		})

		It("reports unknown shifts", func() {
			_, err := service.PauseActiveShift(ctx, 404, 1)
			Expect(appErrors.IsType(err, appErrors.ErrorTypeNotFound)).To(BeTrue())
		})
	})

	Describe("CloseShift", func() {
		It("closes a paused shift and keeps it closed", func() {
			s, err := service.StartNewShift(ctx, 1, decimal.Zero)
			Expect(err).NotTo(HaveOccurred())
			_, err = service.PauseActiveShift(ctx, s.ID, 1)
			Expect(err).NotTo(HaveOccurred())

			closed, err := service.CloseShift(ctx, s.ID, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(closed.Status).To(Equal(shift.StatusClosed))
			Expect(closed.EndedAt).NotTo(BeNil())

			_, err = service.CloseShift(ctx, s.ID, 1)
			Expect(appErrors.HasCode(err, appErrors.ErrCodeShiftInvalidStatus)).To(BeTrue())
			_, err = service.ResumePausedShift(ctx, s.ID, 1)
			Expect(appErrors.HasCode(err, appErrors.ErrCodeShiftInvalidStatus)).To(BeTrue())
		})

		It("refuses a non-owner", func() {
			s, err := service.StartNewShift(ctx, 1, decimal.Zero)
			Expect(err).NotTo(HaveOccurred())
			_, err = service.CloseShift(ctx, s.ID, 2)
			Expect(appErrors.HasCode(err, appErrors.ErrCodeShiftNotOwner)).To(BeTrue())
		})
	})

	Describe("queries", func() {
		It("finds the open shift for an operator", func() {
			_, err := service.GetOpenShiftForOperator(ctx, 1)
			Expect(appErrors.IsType(err, appErrors.ErrorTypeNotFound)).To(BeTrue())

			s, err := service.StartNewShift(ctx, 1, decimal.Zero)
			Expect(err).NotTo(HaveOccurred())
			found, err := service.GetOpenShiftForOperator(ctx, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(found.ID).To(Equal(s.ID))
		})

		It("lists shifts", func() {
			_, err := service.StartNewShift(ctx, 1, decimal.Zero)
			Expect(err).NotTo(HaveOccurred())
			shifts, err := service.ListShifts(ctx, 1, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(shifts).To(HaveLen(1))
		})

		It("exposes the session reference", func() {
			s, err := service.StartNewShift(ctx, 1, decimal.Zero)
			Expect(err).NotTo(HaveOccurred())
			ref := s.Ref()
			Expect(ref.ID).To(Equal(s.ID))
			Expect(ref.Status).To(Equal(shift.StatusActive))
		})
	})
})
