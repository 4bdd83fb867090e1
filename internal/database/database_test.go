package database_test

import (
	"context"
	"io"
	"testing"

	"ms-landing/internal/config"
	"ms-landing/internal/database"
	"ms-landing/internal/logger"
	"ms-landing/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_SQLiteCreatesTables(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open(ctx, config.DatabaseConfig{
		Driver:      "sqlite",
		DSN:         "file::memory:",
		AutoMigrate: true,
	}, logger.NewWithWriter(io.Discard))
	require.NoError(t, err)
	defer db.Close()

	count, err := db.NewSelect().Model((*models.Testimonial)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := database.Open(context.Background(), config.DatabaseConfig{Driver: "oracle"}, logger.NewWithWriter(io.Discard))
	assert.ErrorContains(t, err, "unsupported database driver")
}
