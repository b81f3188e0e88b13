package infra

import (
	"errors"
	"time"

	infrarepo "github.com/gamilit/progression/infra/repository"
	"github.com/gamilit/progression/pkg/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDBConnection opens the postgres connection. TranslateError is on so
// unique violations surface as gorm.ErrDuplicatedKey for the repositories.
func NewDBConnection(
	cnf config.DB,
	appEnv string,
) (*gorm.DB, error) {
	databaseUrl := cnf.Url
	if databaseUrl == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}

	var logMode logger.LogLevel
	if appEnv == "development" {
		logMode = logger.Info
	} else {
		logMode = logger.Silent
	}

	connection, err := gorm.Open(postgres.Open(databaseUrl), &gorm.Config{
		Logger:                 logger.Default.LogMode(logMode),
		SkipDefaultTransaction: true,
		TranslateError:         true})
	if err != nil {
		return nil, err
	}

	sqlDB, err := connection.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(1 * time.Hour)

	return connection, nil
}

// AutoMigrate creates or updates the engine's tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&infrarepo.Profile{},
		&infrarepo.UserStats{},
		&infrarepo.CoinTransaction{},
		&infrarepo.Mission{},
		&infrarepo.RankRecord{},
	)
}
