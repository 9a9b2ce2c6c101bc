package observability_test

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/zemedica/feereference/backend/internal/infrastructure/observability"
)

func TestInitLoggerDefaultsByEnvironment(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")

	observability.InitLogger("fee-reference", "development")
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())

	observability.InitLogger("fee-reference", "production")
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestInitLoggerHonorsLogLevelOverride(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")

	observability.InitLogger("fee-reference", "development")
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())
}

func TestInitLoggerIgnoresBadLogLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "loud")

	observability.InitLogger("fee-reference", "production")
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
