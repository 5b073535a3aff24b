package session_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	appErrors "github.com/frahmantamala/optical-pos/internal"
	"github.com/frahmantamala/optical-pos/internal/operator"
	"github.com/frahmantamala/optical-pos/internal/session"
)

func TestSession(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Session Suite")
}

type recordingPropagator struct {
	mu        sync.Mutex
	operators []*int64
	shifts    []*int64
	fail      error
}

func (p *recordingPropagator) PropagateOperator(_ context.Context, id *int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.operators = append(p.operators, id)
	return p.fail
}

func (p *recordingPropagator) PropagateShift(_ context.Context, id *int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shifts = append(p.shifts, id)
	return p.fail
}

var _ = Describe("Session", func() {
	var (
		propagator *recordingPropagator
		sess       *session.Session
		ctx        context.Context
		cashier    *operator.Operator
	)

	BeforeEach(func() {
		propagator = &recordingPropagator{}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		sess = session.New(propagator, logger)
		ctx = context.Background()
		cashier = &operator.Operator{ID: 7, Username: "cashier", IsActive: true, Permissions: []string{operator.PermissionOperateTill}}
	})

	It("starts empty", func() {
		Expect(sess.IsOperatorPresent()).To(BeFalse())
		Expect(sess.IsShiftActive()).To(BeFalse())
		Expect(sess.OperatorID()).To(BeNil())
	})

	It("propagates operator changes", func() {
		sess.SetCurrentOperator(ctx, cashier)
		Expect(sess.IsOperatorPresent()).To(BeTrue())
		Expect(*sess.OperatorID()).To(Equal(int64(7)))
		Expect(propagator.operators).To(HaveLen(1))
		Expect(*propagator.operators[0]).To(Equal(int64(7)))

		sess.SetCurrentOperator(ctx, nil)
		Expect(sess.IsOperatorPresent()).To(BeFalse())
		Expect(propagator.operators[1]).To(BeNil())
	})

	It("keeps the shift when the operator is cleared", func() {
		sess.SetCurrentOperator(ctx, cashier)
		sess.SetActiveShift(ctx, &session.ShiftRef{ID: 3, OperatorID: 7, Status: "active"})
		sess.SetCurrentOperator(ctx, nil)

		Expect(sess.ActiveShift()).NotTo(BeNil())
		Expect(sess.ActiveShift().ID).To(Equal(int64(3)))
		Expect(propagator.shifts).To(HaveLen(1))
	})

	It("treats a paused shift as not active", func() {
		sess.SetActiveShift(ctx, &session.ShiftRef{ID: 3, OperatorID: 7, Status: "paused"})
		Expect(sess.IsShiftActive()).To(BeFalse())
		sess.SetActiveShift(ctx, &session.ShiftRef{ID: 3, OperatorID: 7, Status: "active"})
		Expect(sess.IsShiftActive()).To(BeTrue())
	})

	It("keeps the new state when propagation fails", func() {
		propagator.fail = errors.New("connection refused")
		sess.SetCurrentOperator(ctx, cashier)
		sess.SetActiveShift(ctx, &session.ShiftRef{ID: 9, OperatorID: 7, Status: "active"})

		Expect(sess.IsOperatorPresent()).To(BeTrue())
		Expect(sess.IsShiftActive()).To(BeTrue())
	})

	It("works without a propagator", func() {
		bare := session.New(nil, slog.New(slog.NewTextHandler(os.Stdout, nil)))
		bare.SetCurrentOperator(ctx, cashier)
		Expect(bare.IsOperatorPresent()).To(BeTrue())
	})

	It("does not share the caller's operator value", func() {
		sess.SetCurrentOperator(ctx, cashier)
		cashier.Permissions[0] = operator.PermissionAdmin
		Expect(sess.CurrentOperator().IsAdmin()).To(BeFalse())
	})

	Describe("gates", func() {
		It("requires an operator", func() {
			_, err := sess.RequireOperator()
			Expect(appErrors.HasCode(err, appErrors.ErrCodeOperatorRequired)).To(BeTrue())
		})

		It("checks permissions with admin override", func() {
			sess.SetCurrentOperator(ctx, cashier)
			_, err := sess.RequirePermission(operator.PermissionOperateTill)
			Expect(err).NotTo(HaveOccurred())

			_, err = sess.RequirePermission(operator.PermissionAdjustStock)
			Expect(appErrors.HasCode(err, appErrors.ErrCodePermissionDenied)).To(BeTrue())

			sess.SetCurrentOperator(ctx, &operator.Operator{ID: 1, Permissions: []string{operator.PermissionAdmin}})
			_, err = sess.RequirePermission(operator.PermissionAdjustStock)
			Expect(err).NotTo(HaveOccurred())
		})

		It("requires an active shift", func() {
			sess.SetCurrentOperator(ctx, cashier)
			_, err := sess.RequireActiveShift()
			Expect(appErrors.HasCode(err, appErrors.ErrCodeShiftRequired)).To(BeTrue())

			sess.SetActiveShift(ctx, &session.ShiftRef{ID: 2, OperatorID: 7, Status: "active"})
			ref, err := sess.RequireActiveShift()
			Expect(err).NotTo(HaveOccurred())
			Expect(ref.ID).To(Equal(int64(2)))
		})
	})

	It("is safe for concurrent use", func() {
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(2)
			go func(id int64) {
				defer wg.Done()
				sess.SetCurrentOperator(ctx, &operator.Operator{ID: id})
			}(int64(i))
			go func() {
				defer wg.Done()
				_ = sess.IsOperatorPresent()
				_ = sess.CurrentOperator()
			}()
		}
		wg.Wait()
		Expect(sess.IsOperatorPresent()).To(BeTrue())
	})

	It("puts the operator id on the context", func() {
		sess.SetCurrentOperator(ctx, cashier)
		Expect(appErrors.OperatorIDFromContext(sess.WithOperator(ctx))).To(Equal(int64(7)))
	})
})
