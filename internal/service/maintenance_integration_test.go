//go:build integration

package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"maintrack/internal/dto"
	"maintrack/internal/infra"
	"maintrack/internal/model"
	"maintrack/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/gorm"
)

type pgEnv struct {
	db        *gorm.DB
	svc       MaintenanceService
	stock     repository.StockItemRepository
	tech      model.Actor
	equipment uuid.UUID
}

func startPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("maintrack_test"),
		tcPostgres.WithUsername("maintrack"),
		tcPostgres.WithPassword("maintrack"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	dsn, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := infra.NewDatabase(dsn, true)
	require.NoError(t, err)
	return db
}

func setupPG(t *testing.T) *pgEnv {
	t.Helper()
	db := startPostgres(t)

	tech := &model.User{Username: "tech", Name: "Field Tech", PasswordHash: "x", Role: model.RoleTechnician, Active: true}
	require.NoError(t, db.Create(tech).Error)
	client := &model.Client{Name: "Acme"}
	require.NoError(t, db.Create(client).Error)
	eq := &model.Equipment{
		Code: "EQ-1", Model: "Chiller", Location: "Roof",
		NextMaintenanceDate: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
		UserID:              tech.ID, ClientID: client.ID,
	}
	require.NoError(t, db.Create(eq).Error)

	photos, err := infra.NewDiskPhotoStore(t.TempDir())
	require.NoError(t, err)

	users := repository.NewUserRepository(db)
	stock := repository.NewStockItemRepository(db)
	notifier := NewNotificationService(repository.NewNotificationRepository(db), users, nil, "http://localhost")
	svc := NewMaintenanceService(
		repository.NewMaintenanceRepository(db),
		repository.NewEquipmentRepository(db),
		stock,
		repository.NewStockMovementRepository(db),
		notifier,
		photos,
	)
	return &pgEnv{
		db:        db,
		svc:       svc,
		stock:     stock,
		tech:      model.Actor{ID: tech.ID, Role: model.RoleTechnician},
		equipment: eq.ID,
	}
}

func (e *pgEnv) addItem(t *testing.T, name string, qty int, cost string) uuid.UUID {
	t.Helper()
	c := decimal.RequireFromString(cost)
	item := &model.StockItem{Name: name, Category: "Spare Parts", Quantity: qty, UnitCost: &c, RequiresTracking: true}
	require.NoError(t, e.stock.Create(context.Background(), item))
	return item.ID
}

func (e *pgEnv) quantity(t *testing.T, id uuid.UUID) int {
	t.Helper()
	item, err := e.stock.FindByID(context.Background(), id)
	require.NoError(t, err)
	return item.Quantity
}

func pgInput(parts ...dto.PartRequest) dto.MaintenanceInput {
	return dto.MaintenanceInput{
		Date:        "2024-06-01",
		Category:    "Corrective",
		Description: "Compressor service",
		LaborCost:   "50",
		Parts:       parts,
	}
}

func TestConcurrentWithdrawalsNeverOversell(t *testing.T) {
	env := setupPG(t)
	item := env.addItem(t, "Gasket", 5, "3.00")

	const workers = 12
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded, short := 0, 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.svc.Create(context.Background(), env.tech, env.equipment,
				pgInput(dto.PartRequest{StockItemID: item, Quantity: 1}))
			mu.Lock()
			defer mu.Unlock()
			var serr *InsufficientStockError
			switch {
			case err == nil:
				succeeded++
			case errors.As(err, &serr):
				short++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded)
	assert.Equal(t, workers-5, short)
	assert.Equal(t, 0, env.quantity(t, item))

	var records int64
	require.NoError(t, env.db.Model(&model.MaintenanceHistory{}).Count(&records).Error)
	assert.EqualValues(t, 5, records)
}

func TestFailedWithdrawalRollsBackEarlierParts(t *testing.T) {
	env := setupPG(t)
	filter := env.addItem(t, "Filter", 10, "10.00")
	belt := env.addItem(t, "Belt", 4, "20.00")

	const workers = 6
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = env.svc.Create(context.Background(), env.tech, env.equipment, pgInput(
				dto.PartRequest{StockItemID: filter, Quantity: 1},
				dto.PartRequest{StockItemID: belt, Quantity: 4},
			))
		}()
	}
	wg.Wait()

	// Only one record can take the four belts; every other attempt must have
	// given its filter back.
	assert.Equal(t, 0, env.quantity(t, belt))
	assert.Equal(t, 9, env.quantity(t, filter))

	var parts int64
	require.NoError(t, env.db.Model(&model.MaintenancePartUsed{}).Count(&parts).Error)
	assert.EqualValues(t, 2, parts)
}

func TestEditAndDeleteAgainstPostgres(t *testing.T) {
	env := setupPG(t)
	ctx := context.Background()
	item := env.addItem(t, "Valve", 10, "12.50")

	rec, err := env.svc.Create(ctx, env.tech, env.equipment, pgInput(dto.PartRequest{StockItemID: item, Quantity: 3}))
	require.NoError(t, err)
	assert.Equal(t, "87.50", rec.Cost.StringFixed(2))
	assert.Equal(t, 7, env.quantity(t, item))

	id := uuid.MustParse(rec.ID)
	_, err = env.svc.Edit(ctx, env.tech, id, pgInput(dto.PartRequest{StockItemID: item, Quantity: 1}))
	require.NoError(t, err)
	assert.Equal(t, 9, env.quantity(t, item))

	// 9 on hand plus the record's own 1 covers 10 but not 11.
	_, err = env.svc.Edit(ctx, env.tech, id, pgInput(dto.PartRequest{StockItemID: item, Quantity: 11}))
	var serr *InsufficientStockError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, 9, env.quantity(t, item))

	require.NoError(t, env.svc.Delete(ctx, env.tech, id))
	assert.Equal(t, 10, env.quantity(t, item))

	var movements int64
	require.NoError(t, env.db.Model(&model.StockMovement{}).Where("stock_item_id = ?", item).Count(&movements).Error)
	assert.Positive(t, movements)
}
