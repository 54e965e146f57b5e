package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/wordbingo/go/internal/dbconfig"
	"github.com/mcdev12/wordbingo/go/internal/results"
)

func setupResultsStore(ctx context.Context) (*results.PostgresStore, error) {
	dbConfig := dbconfig.NewConfigFromEnv()

	if dbConfig.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, dbConfig.ConnectTimeout)
		defer cancel()
	}

	store, err := results.NewPostgresStore(ctx, dbConfig.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection: %w", err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, err
	}

	log.Info().
		Str("user", dbConfig.User).
		Str("host", dbConfig.Host).
		Int("port", dbConfig.Port).
		Str("database", dbConfig.Database).
		Msg("connected to database")
	return store, nil
}
