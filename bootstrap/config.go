// bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/statehub/internal/timeouts"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for a StateHub host.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, mongo_database, etc.
//   - Environment variables: STATEHUB_MONGO_URI, STATEHUB_MONGO_DATABASE, etc.
//   - Command-line flags: --mongo_uri, --mongo_database, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "statehub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size"},

	// Port deadlines; zero keeps the built-in default.
	{Name: "timeout_short", Default: "5s", Desc: "Deadline for single-document reads and small writes"},
	{Name: "timeout_medium", Default: "10s", Desc: "Deadline for scoped list loads"},
	{Name: "timeout_long", Default: "30s", Desc: "Deadline for multi-step operations"},
	{Name: "timeout_batch", Default: "60s", Desc: "Deadline for bulk operations"},

	// Audit logging: "log" writes structured entries, "off" disables.
	{Name: "audit_log", Default: "log", Desc: "Audit event logging: 'log' or 'off'"},
}

// AppConfig holds host-specific configuration for a StateHub deployment.
//
// WAFFLE's CoreConfig handles framework-level settings (logging level and
// format, timeouts for its own machinery); AppConfig carries everything
// specific to the synchronization core: the MongoDB backend, the port
// deadlines, and audit logging.
type AppConfig struct {
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration
	TimeoutBatch  time.Duration

	AuditLog string // "log" | "off"
}

// LoadConfig loads WAFFLE core config and app-specific config. It is
// called early in startup so configuration exists before any backends
// are built. Merging precedence: flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "STATEHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		TimeoutShort:  appValues.Duration("timeout_short", timeouts.DefaultShort),
		TimeoutMedium: appValues.Duration("timeout_medium", timeouts.DefaultMedium),
		TimeoutLong:   appValues.Duration("timeout_long", timeouts.DefaultLong),
		TimeoutBatch:  appValues.Duration("timeout_batch", timeouts.DefaultBatch),

		AuditLog: appValues.String("audit_log"),
	}
	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation. The MongoDB
// URI format is checked early, before attempting to connect.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.MongoDatabase == "" {
		return fmt.Errorf("mongo_database must not be empty")
	}
	switch appCfg.AuditLog {
	case "log", "off":
	default:
		return fmt.Errorf("audit_log must be 'log' or 'off', got %q", appCfg.AuditLog)
	}
	return nil
}
