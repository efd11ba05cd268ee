package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	apperrors "trainalert.app/errors"
	"trainalert.app/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.City{},
		&models.Station{},
		&models.User{},
		&models.Route{},
		&models.Subscription{},
		&models.Ticket{},
	)
	require.NoError(t, err)

	return db
}

func sampleRoute(departure time.Time) *models.Route {
	return &models.Route{
		FromStationID: 2000000,
		ToStationID:   2004000,
		FromCityCode:  2000000,
		ToCityCode:    2004000,
		FromDate:      departure,
		ToDate:        departure.Add(8 * time.Hour),
		TrainNo:       "102А",
		Class:         models.ClassCupe,
	}
}

func TestRouteRepository_FindOrCreate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRouteRepository(db)
	departure := time.Date(2026, 10, 1, 12, 30, 0, 0, time.UTC)

	first, err := repo.FindOrCreate(sampleRoute(departure))
	require.NoError(t, err)
	require.NotZero(t, first.ID)

	// The same identity must resolve to the same row, not a duplicate.
	second, err := repo.FindOrCreate(sampleRoute(departure))
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	db.Model(&models.Route{}).Count(&count)
	assert.Equal(t, int64(1), count)

	// A different train number is a different route.
	other := sampleRoute(departure)
	other.TrainNo = "104Б"
	third, err := repo.FindOrCreate(other)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, third.ID)
}

func TestRouteRepository_FindByID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRouteRepository(db)

	created, err := repo.FindOrCreate(sampleRoute(time.Date(2026, 10, 1, 12, 30, 0, 0, time.UTC)))
	require.NoError(t, err)

	found, err := repo.FindByID(created.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.TrainNo, found.TrainNo)

	missing, err := repo.FindByID(9999)
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRouteRepository_DistinctSubscribedRouteIDs(t *testing.T) {
	db := setupTestDB(t)
	routes := NewRouteRepository(db)
	subs := NewSubscriptionRepository(db)
	departure := time.Date(2026, 10, 1, 12, 30, 0, 0, time.UTC)

	tracked, err := routes.FindOrCreate(sampleRoute(departure))
	require.NoError(t, err)

	untracked := sampleRoute(departure)
	untracked.TrainNo = "104Б"
	_, err = routes.FindOrCreate(untracked)
	require.NoError(t, err)

	// Two subscribers on the same route count once.
	require.NoError(t, subs.Create(100, tracked.ID))
	require.NoError(t, subs.Create(200, tracked.ID))

	ids, err := routes.DistinctSubscribedRouteIDs()
	require.NoError(t, err)
	assert.Equal(t, []uint{tracked.ID}, ids)
}

func TestRouteRepository_DeleteRoutesDepartingBefore(t *testing.T) {
	db := setupTestDB(t)
	routes := NewRouteRepository(db)
	subs := NewSubscriptionRepository(db)
	tickets := NewTicketRepository(db)
	now := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)

	stale, err := routes.FindOrCreate(sampleRoute(now.Add(-48 * time.Hour)))
	require.NoError(t, err)
	fresh, err := routes.FindOrCreate(sampleRoute(now.Add(48 * time.Hour)))
	require.NoError(t, err)

	require.NoError(t, subs.Create(100, stale.ID))
	require.NoError(t, subs.Create(100, fresh.ID))
	require.NoError(t, tickets.RecordPrice(stale.ID, 1000, now.Add(-72*time.Hour)))
	require.NoError(t, tickets.RecordPrice(fresh.ID, 2000, now))

	removed, err := routes.DeleteRoutesDepartingBefore(now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	// The departed route and everything hanging off it are gone.
	gone, err := routes.FindByID(stale.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	var subCount, ticketCount int64
	db.Model(&models.Subscription{}).Where("route_id = ?", stale.ID).Count(&subCount)
	db.Model(&models.Ticket{}).Where("route_id = ?", stale.ID).Count(&ticketCount)
	assert.Zero(t, subCount)
	assert.Zero(t, ticketCount)

	// The future route is untouched.
	kept, err := routes.FindByID(fresh.ID)
	require.NoError(t, err)
	assert.NotNil(t, kept)

	latest, err := tickets.Latest(fresh.ID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, 2000, latest.BestPrice)
}

func TestSubscriptionRepository_CreateIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	subs := NewSubscriptionRepository(db)

	require.NoError(t, subs.Create(100, 7))
	require.NoError(t, subs.Create(100, 7))

	var count int64
	db.Model(&models.Subscription{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestSubscriptionRepository_Delete(t *testing.T) {
	db := setupTestDB(t)
	subs := NewSubscriptionRepository(db)

	require.NoError(t, subs.Create(100, 7))
	require.NoError(t, subs.Create(200, 7))
	require.NoError(t, subs.Delete(100, 7))

	ids, err := subs.SubscriberIDs(7)
	require.NoError(t, err)
	assert.Equal(t, []int64{200}, ids)
}

func TestSubscriptionRepository_ListRoutesByUser(t *testing.T) {
	db := setupTestDB(t)
	routes := NewRouteRepository(db)
	subs := NewSubscriptionRepository(db)
	departure := time.Date(2026, 10, 1, 12, 30, 0, 0, time.UTC)

	mine, err := routes.FindOrCreate(sampleRoute(departure))
	require.NoError(t, err)

	theirs := sampleRoute(departure)
	theirs.TrainNo = "104Б"
	other, err := routes.FindOrCreate(theirs)
	require.NoError(t, err)

	require.NoError(t, subs.Create(100, mine.ID))
	require.NoError(t, subs.Create(200, other.ID))

	listed, err := subs.ListRoutesByUser(100)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, mine.ID, listed[0].ID)
}

func TestTicketRepository_Latest(t *testing.T) {
	db := setupTestDB(t)
	tickets := NewTicketRepository(db)
	base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	// Never observed yet.
	latest, err := tickets.Latest(7)
	require.NoError(t, err)
	assert.Nil(t, latest)

	require.NoError(t, tickets.RecordPrice(7, 1000, base))
	require.NoError(t, tickets.RecordPrice(7, 1200, base.Add(time.Hour)))
	require.NoError(t, tickets.RecordPrice(7, 1100, base.Add(2*time.Hour)))

	latest, err = tickets.Latest(7)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, 1100, latest.BestPrice)

	// History stays append-only.
	var count int64
	db.Model(&models.Ticket{}).Where("route_id = ?", 7).Count(&count)
	assert.Equal(t, int64(3), count)
}

func TestUserRepository_FindOrCreate(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserRepository(db)

	user, err := users.FindOrCreate(100)
	require.NoError(t, err)
	assert.Equal(t, models.UserStatusActive, user.Status)

	again, err := users.FindOrCreate(100)
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)

	var count int64
	db.Model(&models.User{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestUserRepository_BanPurgesSubscriptions(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserRepository(db)
	subs := NewSubscriptionRepository(db)

	_, err := users.FindOrCreate(100)
	require.NoError(t, err)
	require.NoError(t, subs.Create(100, 7))
	require.NoError(t, subs.Create(100, 8))
	require.NoError(t, subs.Create(200, 7))

	require.NoError(t, users.Ban(100))

	banned, err := users.IsBanned(100)
	require.NoError(t, err)
	assert.True(t, banned)

	mine, err := subs.ListRoutesByUser(100)
	require.NoError(t, err)
	assert.Empty(t, mine)

	// Other users keep their subscriptions.
	ids, err := subs.SubscriberIDs(7)
	require.NoError(t, err)
	assert.Equal(t, []int64{200}, ids)
}

func TestUserRepository_BanUnknownUserCreatesBannedRecord(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserRepository(db)

	require.NoError(t, users.Ban(500))

	banned, err := users.IsBanned(500)
	require.NoError(t, err)
	assert.True(t, banned)
}

func TestUserRepository_IsBannedUnknownUser(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserRepository(db)

	banned, err := users.IsBanned(999)
	require.NoError(t, err)
	assert.False(t, banned)
}

func TestCityRepository_CodeByName(t *testing.T) {
	db := setupTestDB(t)
	cities := NewCityRepository(db)

	require.NoError(t, db.Create(&models.City{ID: 2000000, Name: "москва"}).Error)
	require.NoError(t, db.Create(&models.City{ID: 2004000, Name: "санкт-петербург"}).Error)
	require.NoError(t, db.Create(&models.City{ID: 2060000, Name: "мостовская"}).Error)

	t.Run("ExactMatch", func(t *testing.T) {
		code, err := cities.CodeByName("москва")
		require.NoError(t, err)
		assert.Equal(t, uint(2000000), code)
	})

	t.Run("CaseAndWhitespaceInsensitive", func(t *testing.T) {
		code, err := cities.CodeByName("  Москва ")
		require.NoError(t, err)
		assert.Equal(t, uint(2000000), code)
	})

	t.Run("PrefixMatchAlphabeticallyFirst", func(t *testing.T) {
		// Both "москва" and "мостовская" match; "москва" sorts first.
		code, err := cities.CodeByName("мос")
		require.NoError(t, err)
		assert.Equal(t, uint(2000000), code)
	})

	t.Run("ExactBeatsPrefix", func(t *testing.T) {
		require.NoError(t, db.Create(&models.City{ID: 2078000, Name: "мост"}).Error)
		code, err := cities.CodeByName("мост")
		require.NoError(t, err)
		assert.Equal(t, uint(2078000), code)
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := cities.CodeByName("атлантида")
		require.Error(t, err)
		appErr, ok := err.(*apperrors.AppError)
		require.True(t, ok)
		assert.Equal(t, apperrors.NotFoundError, appErr.Type)
	})

	t.Run("EmptyName", func(t *testing.T) {
		_, err := cities.CodeByName("   ")
		require.Error(t, err)
		appErr, ok := err.(*apperrors.AppError)
		require.True(t, ok)
		assert.Equal(t, apperrors.ValidationError, appErr.Type)
	})
}

func TestStationRepository(t *testing.T) {
	db := setupTestDB(t)
	stations := NewStationRepository(db)

	err := stations.Upsert([]models.Station{
		{ID: 2000000, Name: "МОСКВА ОКТЯБРЬСКАЯ"},
		{ID: 0, Name: "ignored"},
		{ID: 2004000, Name: ""},
	})
	require.NoError(t, err)

	name, err := stations.NameByCode(2000000)
	require.NoError(t, err)
	assert.Equal(t, "МОСКВА ОКТЯБРЬСКАЯ", name)

	// Rows without a code or name are skipped, not saved.
	var count int64
	db.Model(&models.Station{}).Count(&count)
	assert.Equal(t, int64(1), count)

	// Unknown codes are not an error.
	name, err = stations.NameByCode(9999999)
	require.NoError(t, err)
	assert.Empty(t, name)

	// Upserting again replaces the name.
	require.NoError(t, stations.Upsert([]models.Station{{ID: 2000000, Name: "МОСКВА"}}))
	name, err = stations.NameByCode(2000000)
	require.NoError(t, err)
	assert.Equal(t, "МОСКВА", name)
}
