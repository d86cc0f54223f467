package database

import (
	"github.com/teamtime/clockwork/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// constraintStatements back the enum-like columns and the stats query with
// things AutoMigrate cannot express. Each one is idempotent.
var constraintStatements = []string{
	`DO $$ BEGIN
		ALTER TABLE time_recordings ADD CONSTRAINT chk_time_recordings_type CHECK (type IN ('Arrival', 'Departure'));
	EXCEPTION WHEN duplicate_object THEN NULL; END $$;`,

	`DO $$ BEGIN
		ALTER TABLE users ADD CONSTRAINT chk_users_role CHECK (role IN ('admin', 'manager', 'employee'));
	EXCEPTION WHEN duplicate_object THEN NULL; END $$;`,

	// Refresh session columns are set and cleared together
	`DO $$ BEGIN
		ALTER TABLE users ADD CONSTRAINT chk_users_refresh_session
			CHECK ((refresh_token_hash IS NULL) = (refresh_token_family IS NULL));
	EXCEPTION WHEN duplicate_object THEN NULL; END $$;`,

	"CREATE INDEX IF NOT EXISTS idx_time_recordings_user_type_ts ON time_recordings(id_user, type, timestamp);",
	"CREATE INDEX IF NOT EXISTS idx_users_live_sessions ON users(id) WHERE refresh_token_hash IS NOT NULL;",
}

// EnsureConstraints applies constraintStatements. Failures are logged and
// skipped; the application enforces the same rules.
func EnsureConstraints(db *gorm.DB) {
	applied := 0
	for _, stmt := range constraintStatements {
		if err := db.Exec(stmt).Error; err != nil {
			logger.GetLogger().Warn("Failed to apply database constraint",
				zap.String("statement", stmt),
				zap.Error(err),
			)
			continue
		}
		applied++
	}

	logger.GetLogger().Info("Database constraints ensured",
		zap.Int("applied", applied),
		zap.Int("total", len(constraintStatements)),
	)
}
