package infra

import (
	"fmt"

	"maintrack/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase opens a GORM connection backed by pgx and, when migrate is set,
// creates / updates all tables and applies the constraints AutoMigrate cannot
// express.
func NewDatabase(dsn string, migrate bool) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if migrate {
		if err := RunMigrations(db); err != nil {
			return nil, err
		}
	}
	return db, nil
}

// RunMigrations creates the schema and applies idempotent patches.
// Integration tests call it directly against a fresh container.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.Client{},
		&model.Equipment{},
		&model.StockItem{},
		&model.MaintenanceHistory{},
		&model.MaintenancePartUsed{},
		&model.MaintenanceImage{},
		&model.StockMovement{},
		&model.Setting{},
		&model.Notification{},
		&model.Task{},
		&model.TaskAssignment{},
		&model.Expense{},
		&model.TimeClock{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if err := applySchemaPatches(db); err != nil {
		return fmt.Errorf("schema patches: %w", err)
	}
	return nil
}

// applySchemaPatches runs idempotent DDL that GORM tags cannot express.
// Each statement is guarded so re-running on a patched schema is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		// the ledger invariant must hold even for writes that bypass the service layer
		{"stock_item quantity non-negative", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_stock_item_quantity_nonneg') THEN
    ALTER TABLE stock_item ADD CONSTRAINT chk_stock_item_quantity_nonneg CHECK (quantity >= 0);
  END IF;
END $$`},
		{"maintenance_history equipment FK cascade", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'fk_maintenance_history_equipment') THEN
    ALTER TABLE maintenance_history
      ADD CONSTRAINT fk_maintenance_history_equipment
      FOREIGN KEY (equipment_id) REFERENCES equipment(id) ON DELETE CASCADE;
  END IF;
END $$`},
		{"unread notifications index", `
CREATE INDEX IF NOT EXISTS idx_notification_unread
    ON notification (user_id, created_at DESC)
    WHERE is_read = false`},
		{"low stock index", `
CREATE INDEX IF NOT EXISTS idx_stock_item_low
    ON stock_item (name)
    WHERE quantity <= low_stock_threshold`},
	}
	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
