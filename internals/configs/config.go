package configs

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	gormLogger "gorm.io/gorm/logger"
	"gorm.io/gorm/utils"
)

var (
	Conf *viper.Viper

	AppEnv string

	JWTSecret string

	// Payment gateway
	GatewaySecret     string
	GatewayMerchantID string
	GatewayProvider   string // hosted | midtrans
	GatewayBaseURL    string
	MidtransServerKey string
	MidtransUseProd   bool

	PenaltyRecomputeCron string
	RollbarToken         string
)

func init() {
	Conf = viper.New()
	Conf.SetTypeByDefaultValue(true)
	Conf.SetDefault("APP_ENV", "development")
	Conf.SetDefault("PORT", "8080")
	Conf.SetDefault("DB_SSLMODE", "require")
	Conf.SetDefault("DB_LOG_LEVEL", "warn")
	Conf.SetDefault("DB_AUTO_MIGRATE", true)
	Conf.SetDefault("SEED_ON_START", false)
	Conf.SetDefault("GATEWAY_PROVIDER", "hosted")
	Conf.SetDefault("GATEWAY_MERCHANT_ID", "")
	Conf.SetDefault("GATEWAY_BASE_URL", "")
	Conf.SetDefault("MIDTRANS_USE_PROD", false)
	Conf.SetDefault("PENALTY_RECOMPUTE_CRON", "30 1 * * *")
	Conf.SetDefault("PENALTY_CRON_ENABLED", true)
	Conf.SetDefault("CORS_ALLOW_ORIGINS", "*")
	Conf.SetDefault("RATE_LIMIT_MAX", 100)
	Conf.SetDefault("RATE_LIMIT_WINDOW", time.Minute)
	Conf.AutomaticEnv()
}

// =======================
// ENV LOADER
// =======================
func LoadEnv() {
	if os.Getenv("RAILWAY_ENVIRONMENT") == "" {
		if err := godotenv.Load(); err != nil {
			log.Println("⚠️ Tidak menemukan .env file, menggunakan ENV dari sistem")
		} else {
			log.Println("✅ .env file berhasil dimuat!")
		}
	} else {
		log.Println("🚀 Running in Railway, menggunakan ENV dari sistem")
	}

	AppEnv = Conf.GetString("APP_ENV")
	JWTSecret = GetEnv("JWT_SECRET")
	GatewaySecret = GetEnv("GATEWAY_SECRET")
	GatewayMerchantID = Conf.GetString("GATEWAY_MERCHANT_ID")
	GatewayProvider = strings.ToLower(Conf.GetString("GATEWAY_PROVIDER"))
	GatewayBaseURL = Conf.GetString("GATEWAY_BASE_URL")
	MidtransServerKey = GetEnv("MIDTRANS_SERVER_KEY")
	MidtransUseProd = Conf.GetBool("MIDTRANS_USE_PROD")
	PenaltyRecomputeCron = Conf.GetString("PENALTY_RECOMPUTE_CRON")
	RollbarToken = GetEnv("ROLLBAR_TOKEN")

	if JWTSecret == "" {
		log.Println("❌ JWT_SECRET belum diset!")
	} else {
		log.Println("✅ JWT_SECRET berhasil dimuat.")
	}
	if GatewaySecret == "" {
		log.Println("❌ GATEWAY_SECRET belum diset! Semua callback gateway akan ditolak.")
	} else {
		log.Println("✅ GATEWAY_SECRET berhasil dimuat.")
	}
	if GatewayProvider == "midtrans" && MidtransServerKey == "" {
		log.Println("❌ GATEWAY_PROVIDER=midtrans tapi MIDTRANS_SERVER_KEY kosong")
	}
}

// GetEnv: nilai dari env/.env (lewat viper), fallback ke default.
func GetEnv(key string, defaultValue ...string) string {
	if v := strings.TrimSpace(Conf.GetString(key)); v != "" {
		return v
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func IsProduction() bool {
	return strings.EqualFold(AppEnv, "production")
}

// =======================
// GORM LOGGER CUSTOM
// =======================
type GormLogger struct {
	SlowThreshold time.Duration
	LogLevel      gormLogger.LogLevel
}

func NewGormLogger() gormLogger.Interface {
	return &GormLogger{
		SlowThreshold: 200 * time.Millisecond,
		LogLevel:      parseLogLevel(Conf.GetString("DB_LOG_LEVEL")),
	}
}

func parseLogLevel(s string) gormLogger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "silent":
		return gormLogger.Silent
	case "error":
		return gormLogger.Error
	case "info":
		return gormLogger.Info
	default:
		return gormLogger.Warn
	}
}

func (l *GormLogger) LogMode(level gormLogger.LogLevel) gormLogger.Interface {
	nl := *l
	nl.LogLevel = level
	return &nl
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Info {
		log.Printf("[INFO] "+msg, data...)
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Warn {
		log.Printf("[WARN] "+msg, data...)
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Error {
		log.Printf("[ERROR] "+msg, data...)
	}
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.LogLevel <= gormLogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	sql, rows := fc()
	file := utils.FileWithLineNum()

	switch {
	case err != nil && l.LogLevel >= gormLogger.Error && err != gormLogger.ErrRecordNotFound:
		log.Printf("[ERROR] %s | %v | %s | %d rows | %s", file, err, elapsed, rows, sql)
	case elapsed > l.SlowThreshold && l.LogLevel >= gormLogger.Warn:
		log.Printf("[SLOW SQL] %s | %s | %d rows | %s", file, elapsed, rows, sql)
	case l.LogLevel >= gormLogger.Info:
		log.Printf("[QUERY] %s | %s | %d rows | %s", file, elapsed, rows, sql)
	}
}
