package repository

import (
	"database/sql/driver"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/nurpe/fleetops/internal/db"
	"github.com/nurpe/fleetops/internal/model"
)

// newSQLiteDB открывает изолированную базу в памяти с полной схемой.
func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Migrate(database))
	return database
}

// newMockDB подключает postgres-диалект gorm к sqlmock.
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	database, err := gorm.Open(postgres.New(postgres.Config{Conn: conn}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return database, mock
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func dayPtr(s string) *time.Time {
	t := day(s)
	return &t
}

func seedVehicle(t *testing.T, database *gorm.DB, plate string) model.Vehicle {
	t.Helper()
	vehicle := model.Vehicle{ID: uuid.New(), Immatriculation: plate, Statut: model.VehicleStatusActif}
	require.NoError(t, database.Create(&vehicle).Error)
	return vehicle
}

func seedProfile(t *testing.T, database *gorm.DB, prenom, nom string) model.Profile {
	t.Helper()
	profile := model.Profile{ID: uuid.New(), Prenom: prenom, Nom: nom, Matricule: "M-" + nom, Secteur: "Paris"}
	require.NoError(t, database.Create(&profile).Error)
	return profile
}

// Any совпадает с любым аргументом.
type Any struct{}

func (Any) Match(driver.Value) bool {
	return true
}
