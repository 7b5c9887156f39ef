package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/nurpe/fleetops/internal/db"
	"github.com/nurpe/fleetops/internal/model"
	"github.com/nurpe/fleetops/internal/occupancy"
	"github.com/nurpe/fleetops/internal/repository"
)

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

func TestVehicleService_OccupancyFollowsPrincipalHandover(t *testing.T) {
	ctx := context.Background()
	database := newSQLiteDB(t)

	vehicle := model.Vehicle{ID: uuid.New(), Immatriculation: "XY-001-ZZ", Statut: model.VehicleStatusActif}
	require.NoError(t, database.Create(&vehicle).Error)
	alice := model.Profile{ID: uuid.New(), Prenom: "Alice", Nom: "A", Matricule: "M-A"}
	bob := model.Profile{ID: uuid.New(), Prenom: "Bob", Nom: "B", Matricule: "M-B"}
	require.NoError(t, database.Create(&alice).Error)
	require.NoError(t, database.Create(&bob).Error)

	attributions := newTestAttributionService(repository.NewAttributionRepository(database), "2024-03-01")
	vehicles := NewVehicleService(repository.NewVehicleRepository(database), attributions, zerolog.Nop())

	assign := func(holder model.Profile, start string) (*model.Attribution, error) {
		return attributions.Create(ctx, CreateAttributionInput{
			VehicleID:  vehicle.ID,
			HolderKind: model.HolderProfil,
			HolderID:   holder.ID,
			Role:       model.RolePrincipal,
			DateDebut:  day(start),
		})
	}

	first, err := assign(alice, "2024-01-01")
	require.NoError(t, err)

	_, err = assign(bob, "2024-02-01")
	assert.ErrorIs(t, err, ErrConflict)

	got, err := vehicles.Occupancy(ctx, vehicle.ID)
	require.NoError(t, err)
	assert.Equal(t, occupancy.Display{Label: "Alice A", Category: occupancy.CategoryPrincipalDriver}, got.Locataire)

	_, err = attributions.End(ctx, first.ID, day("2024-01-31"))
	require.NoError(t, err)
	_, err = assign(bob, "2024-02-01")
	require.NoError(t, err)

	got, err = vehicles.Occupancy(ctx, vehicle.ID)
	require.NoError(t, err)
	assert.Equal(t, occupancy.Display{Label: "Bob B", Category: occupancy.CategoryPrincipalDriver}, got.Locataire)

	history, err := attributions.ListHistory(ctx, vehicle.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "Alice A", history[0].HolderName)
	require.NotNil(t, history[0].DateFin)
	assert.Equal(t, day("2024-01-31"), model.DateOnly(*history[0].DateFin))
}
