package main

import (
	"database/sql"

	"github.com/rs/zerolog/log"

	"trip-dispatch-service/internal/adapters/repositories"
	"trip-dispatch-service/internal/config"
	"trip-dispatch-service/internal/platform/db"
	"trip-dispatch-service/internal/platform/obs"
)

// dbtool initializes the schema and loads seed data for whichever backend
// the environment selects.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("configuration failed")
	}

	obs.InitLogger(cfg.LogLevel)

	var sqlDB *sql.DB
	if cfg.UsePostgres() {
		sqlDB, err = db.OpenPostgres(cfg.DatabaseURL)
	} else {
		sqlDB, err = db.OpenSQLite(cfg.DBPath)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("open database failed")
	}
	defer sqlDB.Close()

	log.Info().Msg("initializing database schema")
	if cfg.UsePostgres() {
		err = repositories.InitPostgresSchema(sqlDB)
	} else {
		err = repositories.InitSqliteSchema(sqlDB)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("schema initialization failed")
	}

	log.Info().Str("seed", cfg.SeedPath).Msg("seeding database")
	if cfg.UsePostgres() {
		err = repositories.SeedPostgresFromJSON(sqlDB, cfg.SeedPath)
	} else {
		err = repositories.SeedSqliteFromJSON(sqlDB, cfg.SeedPath)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("seeding failed")
	}

	log.Info().Msg("done")
}
