package db

import (
	"gigmarket/internal/domain/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Connect はDBに接続して *gorm.DB を返す。
func Connect(dsn string, debug bool) (*gorm.DB, error) {
	level := gormlogger.Warn
	if debug {
		level = gormlogger.Info
	}
	return gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(level),
		TranslateError: true,
	})
}

// 部分ユニークインデックスはタグで書けないのでSQLで作る
var partialIndexes = []string{
	// final_deliveryは注文ごとに1件
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_messages_final_delivery
		ON messages (order_id) WHERE file_type = 'final_delivery'`,
	// 注文完了の入金は注文ごとに1件
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_ledger_order_credit
		ON ledger_entries (order_id) WHERE type = 'order_credit'`,
	// 失敗した支払いは必ずキャンセル
	`DO $$ BEGIN
		ALTER TABLE orders ADD CONSTRAINT ck_orders_failed_is_cancelled
			CHECK (payment_status <> 'failed' OR status = 'cancelled');
	EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.Service{},
		&model.ServicePackage{},
		&model.Order{},
		&model.Message{},
		&model.Review{},
		&model.Wallet{},
		&model.LedgerEntry{},
		&model.Payout{},
		&model.AuditLog{},
	); err != nil {
		return err
	}
	for _, stmt := range partialIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
