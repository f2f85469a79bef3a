// Package databasetest menyiapkan DB sqlite sementara untuk test service.
package databasetest

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	ledgerModel "feeledger_backend/internals/features/finance/fee_ledgers/model"
	gatewayModel "feeledger_backend/internals/features/finance/gateway/model"
	penaltyModel "feeledger_backend/internals/features/finance/penalties/model"
)

// Models: urutan AutoMigrate (payment_records setelah fee_ledgers).
func Models() []any {
	return []any{
		&penaltyModel.PenaltyConfig{},
		&ledgerModel.FeeLedger{},
		&ledgerModel.PaymentRecord{},
		&gatewayModel.GatewayEvent{},
	}
}

// Open: satu koneksi saja, semua query dalam transaksi wajib lewat tx.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "ledger.db") + "?_busy_timeout=5000&_foreign_keys=on"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(Models()...))
	return db
}
