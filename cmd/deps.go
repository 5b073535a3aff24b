package cmd

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/frahmantamala/optical-pos/internal"
	"github.com/frahmantamala/optical-pos/internal/auth"
	"github.com/frahmantamala/optical-pos/internal/core/events"
	"github.com/frahmantamala/optical-pos/internal/core/storage"
	"github.com/frahmantamala/optical-pos/internal/core/tx"
	"github.com/frahmantamala/optical-pos/internal/inventory"
	inventoryPostgres "github.com/frahmantamala/optical-pos/internal/inventory/postgres"
	"github.com/frahmantamala/optical-pos/internal/messages"
	"github.com/frahmantamala/optical-pos/internal/operator"
	operatorPostgres "github.com/frahmantamala/optical-pos/internal/operator/postgres"
	"github.com/frahmantamala/optical-pos/internal/purchaseorder"
	purchaseOrderPostgres "github.com/frahmantamala/optical-pos/internal/purchaseorder/postgres"
	"github.com/frahmantamala/optical-pos/internal/session"
	sessionPostgres "github.com/frahmantamala/optical-pos/internal/session/postgres"
	"github.com/frahmantamala/optical-pos/internal/shift"
	shiftPostgres "github.com/frahmantamala/optical-pos/internal/shift/postgres"
	"github.com/frahmantamala/optical-pos/pkg/logger"
)

type Dependencies struct {
	Config         *internal.Config
	DB             *gorm.DB
	Logger         *slog.Logger
	Bus            *events.EventBus
	Session        *session.Session
	Messages       *messages.Provider
	Permissions    auth.PermissionChecker
	Operators      *operator.Service
	Auth           *auth.Service
	Shifts         *shift.Service
	Inventory      *inventory.Service
	PurchaseOrders *purchaseorder.Service
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Configure(logger.Options{Level: config.Logging.Level, Format: config.Logging.Format})
	log := logger.LoggerWrapper()

	db, err := storage.Open(config.Database, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	provider, err := messages.NewProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to build message catalog: %w", err)
	}

	history, err := inventoryPostgres.NewHistoryReaderFromGorm(db)
	if err != nil {
		return nil, err
	}

	txm := tx.NewGormManager(db, config.Database.QueryTimeout, log)
	tagger := sessionPostgres.NewContextTagger(db, config.App.InstanceID)
	txm.OnBegin(tagger.Apply)
	bus := events.NewEventBus(log)
	inventory.NewLowStockNotifier(config.Inventory.LowStockThreshold, log).Register(bus)

	operatorRepo := operatorPostgres.NewOperatorRepository(db)
	ledger := inventory.NewService(inventoryPostgres.NewInventoryRepository(db), history, txm, bus, log)

	return &Dependencies{
		Config:         config,
		DB:             db,
		Logger:         log,
		Bus:            bus,
		Session:        session.New(tagger, log),
		Messages:       provider,
		Permissions:    auth.NewPermissionChecker(),
		Operators:      operator.NewService(operatorRepo, config.Security.BCryptCost, log),
		Auth:           auth.NewService(operatorRepo, log),
		Shifts:         shift.NewService(shiftPostgres.NewShiftRepository(db), operatorRepo, bus, log),
		Inventory:      ledger,
		PurchaseOrders: purchaseorder.NewService(purchaseOrderPostgres.NewPurchaseOrderRepository(db), ledger, txm, bus, log),
	}, nil
}

// Close drains event handlers before the connection pool goes away.
func (d *Dependencies) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.Bus.Wait(ctx); err != nil {
		d.Logger.Warn("event handlers still running at shutdown", "error", err)
	}
	if err := storage.Close(d.DB); err != nil {
		d.Logger.Error("database close error", "error", err)
	}
}

func (d *Dependencies) lang() string {
	if langFlag != "" {
		return langFlag
	}
	return d.Config.App.Lang
}

// run wraps a command body with dependency setup and error rendering.
func run(fn func(ctx context.Context, deps *Dependencies, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		deps, err := initializeDependencies()
		if err != nil {
			return err
		}
		defer deps.Close()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		ctx, cancel := internal.WithTimeout(ctx, deps.Config.App.CommandTimeout)
		defer cancel()
		ctx = logger.With(ctx, "command", cmd.CommandPath())

		if err := fn(ctx, deps, args); err != nil {
			deps.Logger.Debug("command failed", "command", cmd.CommandPath(), "error", err)
			return stderrors.New(deps.Messages.Render(err, deps.lang()))
		}
		return nil
	}
}

// login authenticates the --user operator into the session and restores the
// open shift, if any. The returned context carries the operator id and a
// logger tagged with it.
func login(ctx context.Context, deps *Dependencies) (context.Context, *operator.Operator, error) {
	password := loginPass
	if password == "" {
		password = os.Getenv("POS_PASSWORD")
	}
	if loginUser == "" {
		return ctx, nil, internal.ErrOperatorRequired
	}

	op, err := deps.Auth.Authenticate(ctx, loginUser, password)
	if err != nil {
		return ctx, nil, err
	}
	deps.Session.SetCurrentOperator(ctx, op)
	ctx = deps.Session.WithOperator(ctx)
	ctx = logger.With(ctx, "operator_id", internal.OperatorIDFromContext(ctx))

	open, err := deps.Shifts.GetOpenShiftForOperator(ctx, op.ID)
	switch {
	case err == nil:
		deps.Session.SetActiveShift(ctx, open.Ref())
	case !internal.IsType(err, internal.ErrorTypeNotFound):
		return ctx, nil, err
	}
	return ctx, op, nil
}

// authorize logs in and checks the operator's permissions with check.
func authorize(ctx context.Context, deps *Dependencies, check func([]string) bool) (context.Context, *operator.Operator, error) {
	ctx, op, err := login(ctx, deps)
	if err != nil {
		return ctx, nil, err
	}
	if !check(op.Permissions) {
		return ctx, nil, internal.NewForbiddenError("operator lacks permission", internal.ErrCodePermissionDenied)
	}
	return ctx, op, nil
}
