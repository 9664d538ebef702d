package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"studiodesk/pkg/config"
)

func TestConnStrings(t *testing.T) {
	cfg := config.Config{DB: config.DBConfig{Host: "db", Port: "5432", Name: "n", User: "u", Password: "p"}}
	assert.Equal(t, "postgres://u:p@db:5432/n?sslmode=disable", runtimeConnString(cfg))
	assert.Equal(t, runtimeConnString(cfg), migrationConnString(cfg))

	cfg.DatabaseURL = "postgres://pooler/x?pgbouncer=true"
	cfg.DirectURL = "postgres://direct/x"
	assert.Equal(t, cfg.DatabaseURL, runtimeConnString(cfg))
	assert.Equal(t, cfg.DirectURL, migrationConnString(cfg))
}

func TestErrorClassifiers(t *testing.T) {
	assert.True(t, IsNotFound(fmt.Errorf("get: %w", pgx.ErrNoRows)))
	assert.False(t, IsNotFound(errors.New("boom")))

	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.True(t, IsForeignKeyViolation(fmt.Errorf("wrap: %w", &pgconn.PgError{Code: "23503"})))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
}
