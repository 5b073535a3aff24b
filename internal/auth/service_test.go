package auth

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	appErrors "github.com/frahmantamala/optical-pos/internal"
	"github.com/frahmantamala/optical-pos/internal/operator"
)

func TestAuth(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Auth Module Suite")
}

type mockOperatorStore struct {
	operators     map[string]*operator.Operator
	returnError   bool
	errorToReturn error
}

func newMockOperatorStore() *mockOperatorStore {
	hash, _ := bcrypt.GenerateFromPassword([]byte("correct_password"), bcrypt.MinCost)
	return &mockOperatorStore{
		operators: map[string]*operator.Operator{
			"cashier": {ID: 1, Username: "cashier", PasswordHash: string(hash), IsActive: true, Permissions: []string{operator.PermissionOperateTill}},
			"retired": {ID: 2, Username: "retired", PasswordHash: string(hash), IsActive: false},
		},
	}
}

func (m *mockOperatorStore) GetByUsername(_ context.Context, username string) (*operator.Operator, error) {
	if m.returnError {
		return nil, m.errorToReturn
	}
	if op, ok := m.operators[username]; ok {
		return op, nil
	}
	return nil, operator.ErrNotFound
}

var _ = ginkgo.Describe("Auth Service", func() {
	var (
		store   *mockOperatorStore
		service *Service
		ctx     context.Context
	)

	ginkgo.BeforeEach(func() {
		store = newMockOperatorStore()
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = NewService(store, logger)
		ctx = context.Background()
	})

	ginkgo.It("returns the operator for valid credentials", func() {
		op, err := service.Authenticate(ctx, " Cashier ", "correct_password")
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(op.ID).To(gomega.Equal(int64(1)))
		gomega.Expect(op.Permissions).To(gomega.ContainElement(operator.PermissionOperateTill))
	})

	ginkgo.It("rejects a wrong password as unauthorized", func() {
		_, err := service.Authenticate(ctx, "cashier", "nope")
		gomega.Expect(appErrors.IsType(err, appErrors.ErrorTypeUnauthorized)).To(gomega.BeTrue())
	})

	ginkgo.It("does not reveal unknown usernames", func() {
		_, err := service.Authenticate(ctx, "ghost", "correct_password")
		gomega.Expect(appErrors.HasCode(err, appErrors.ErrCodeInvalidCredentials)).To(gomega.BeTrue())
	})

	ginkgo.It("refuses inactive operators", func() {
		_, err := service.Authenticate(ctx, "retired", "correct_password")
		gomega.Expect(appErrors.IsType(err, appErrors.ErrorTypeForbidden)).To(gomega.BeTrue())
		gomega.Expect(appErrors.HasCode(err, appErrors.ErrCodeOperatorInactive)).To(gomega.BeTrue())
	})

	ginkgo.It("classifies store failures as service errors", func() {
		store.returnError = true
		store.errorToReturn = errors.New("connection reset")
		_, err := service.Authenticate(ctx, "cashier", "correct_password")
		gomega.Expect(appErrors.IsType(err, appErrors.ErrorTypeService)).To(gomega.BeTrue())
	})

	ginkgo.It("rejects empty input without a lookup", func() {
		store.returnError = true
		_, err := service.Authenticate(ctx, "", "")
		gomega.Expect(appErrors.HasCode(err, appErrors.ErrCodeInvalidCredentials)).To(gomega.BeTrue())
	})
})

var _ = ginkgo.Describe("DefaultPermissionChecker", func() {
	checker := NewPermissionChecker()

	ginkgo.It("lets admin do everything", func() {
		perms := []string{operator.PermissionAdmin}
		gomega.Expect(checker.IsAdmin(perms)).To(gomega.BeTrue())
		gomega.Expect(checker.CanAdjustStock(perms)).To(gomega.BeTrue())
		gomega.Expect(checker.CanReceiveStock(perms)).To(gomega.BeTrue())
		gomega.Expect(checker.CanManagePurchaseOrders(perms)).To(gomega.BeTrue())
		gomega.Expect(checker.CanManageOperators(perms)).To(gomega.BeTrue())
		gomega.Expect(checker.CanOperateTill(perms)).To(gomega.BeTrue())
	})

	ginkgo.It("keeps grants narrow", func() {
		perms := []string{operator.PermissionReceiveStock}
		gomega.Expect(checker.CanReceiveStock(perms)).To(gomega.BeTrue())
		gomega.Expect(checker.CanAdjustStock(perms)).To(gomega.BeFalse())
		gomega.Expect(checker.CanManagePurchaseOrders(perms)).To(gomega.BeFalse())
		gomega.Expect(checker.IsAdmin(perms)).To(gomega.BeFalse())
	})

	ginkgo.It("lets purchase order managers receive", func() {
		gomega.Expect(checker.CanReceiveStock([]string{operator.PermissionManagePurchaseOrders})).To(gomega.BeTrue())
	})
})
