package postgres

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	postgresContainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	postgresDriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"reservation-service/internal/domain"
	"reservation-service/internal/infra/postgres/migrations"
)

// setupTestDB creates a PostgreSQL testcontainer, applies migrations and
// returns a connected GORM DB.
//
// Prerequisites:
//   - Docker must be running
//
// OR
//   - Skip tests with: go test -short
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	ctx := context.Background()

	pgContainer, err := postgresContainer.Run(ctx,
		"postgres:16-alpine",
		postgresContainer.WithDatabase("testdb"),
		postgresContainer.WithUsername("testuser"),
		postgresContainer.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf(`Failed to start PostgreSQL container: %v

Docker Prerequisites:
1. Ensure Docker is running
2. OR skip integration tests: go test -short

`, err)
	}
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "Failed to get connection string")

	db, err := gorm.Open(postgresDriver.Open(connStr), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err, "Failed to connect to test database")
	t.Cleanup(func() { _ = Close(db) })

	require.NoError(t, migrations.Run(db), "Failed to run migrations")

	return db
}

func seedCustomer(t *testing.T, db *gorm.DB, email string) string {
	t.Helper()

	id, err := NewCustomerRepository(db).UpsertByEmail(context.Background(), email, "Test Guest")
	require.NoError(t, err)

	return id
}

func insertReservation(t *testing.T, repo *ReservationRepository, customerID, arrival, departure string) *domain.Reservation {
	t.Helper()

	res := &domain.Reservation{
		CustomerID:    customerID,
		ArrivalDate:   domain.MustParseDate(arrival),
		DepartureDate: domain.MustParseDate(departure),
	}
	id, err := repo.Insert(context.Background(), res)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	return res
}

func TestReservationRepository_InsertAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReservationRepository(db)
	ctx := context.Background()

	customerID := seedCustomer(t, db, "guest@example.com")
	res := insertReservation(t, repo, customerID, "2026-10-20", "2026-10-22")

	got, err := repo.GetByID(ctx, res.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, res.ID, got.ID)
	assert.Equal(t, customerID, got.CustomerID)
	assert.Equal(t, "2026-10-20", got.ArrivalDate.String())
	assert.Equal(t, "2026-10-22", got.DepartureDate.String())
	assert.False(t, got.CreatedAt.IsZero())
}

func TestReservationRepository_GetByID_Missing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReservationRepository(db)

	got, err := repo.GetByID(context.Background(), "5f0c6a4e-93f4-4c8e-8b7e-0d6f3b7a1c11")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = repo.GetByID(context.Background(), "not-a-uuid")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestReservationRepository_HasOverlap(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReservationRepository(db)
	ctx := context.Background()

	customerID := seedCustomer(t, db, "guest@example.com")
	existing := insertReservation(t, repo, customerID, "2026-10-05", "2026-10-07")

	tests := []struct {
		name      string
		excludeID string
		start     string
		end       string
		expected  bool
	}{
		{name: "overlaps tail", start: "2026-10-06", end: "2026-10-09", expected: true},
		{name: "touches first day", start: "2026-10-03", end: "2026-10-05", expected: true},
		{name: "touches last day", start: "2026-10-07", end: "2026-10-08", expected: true},
		{name: "contained", start: "2026-10-06", end: "2026-10-06", expected: true},
		{name: "day before", start: "2026-10-02", end: "2026-10-04", expected: false},
		{name: "day after", start: "2026-10-08", end: "2026-10-10", expected: false},
		{name: "excluding itself", excludeID: existing.ID, start: "2026-10-06", end: "2026-10-08", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.HasOverlap(ctx, tt.excludeID, domain.MustParseDate(tt.start), domain.MustParseDate(tt.end))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestReservationRepository_ReservedDates_ClippedToWindow(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReservationRepository(db)
	ctx := context.Background()

	customerID := seedCustomer(t, db, "guest@example.com")
	insertReservation(t, repo, customerID, "2026-09-29", "2026-10-01")
	insertReservation(t, repo, customerID, "2026-10-05", "2026-10-06")
	insertReservation(t, repo, customerID, "2026-10-20", "2026-10-21")

	start, end := domain.MustParseDate("2026-10-01"), domain.MustParseDate("2026-10-10")

	reserved, err := repo.ReservedDates(ctx, start, end)
	require.NoError(t, err)

	expected := []string{"2026-10-01", "2026-10-05", "2026-10-06"}
	assert.Len(t, reserved, len(expected))
	for _, d := range expected {
		_, ok := reserved[domain.MustParseDate(d)]
		assert.True(t, ok, "expected %s to be reserved", d)
	}

	again, err := repo.ReservedDates(ctx, start, end)
	require.NoError(t, err)
	assert.Equal(t, reserved, again, "query must be idempotent without writes")
}

func TestReservationRepository_UpdateAndDelete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReservationRepository(db)
	ctx := context.Background()

	customerID := seedCustomer(t, db, "guest@example.com")
	res := insertReservation(t, repo, customerID, "2026-10-20", "2026-10-22")

	res.ArrivalDate = domain.MustParseDate("2026-10-21")
	res.DepartureDate = domain.MustParseDate("2026-10-23")
	require.NoError(t, repo.Update(ctx, res))

	got, err := repo.GetByID(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, "2026-10-21", got.ArrivalDate.String())
	assert.Equal(t, "2026-10-23", got.DepartureDate.String())

	require.NoError(t, repo.Delete(ctx, res.ID))

	got, err = repo.GetByID(ctx, res.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	err = repo.Delete(ctx, res.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = repo.Update(ctx, res)
	assert.ErrorIs(t, err, domain.ErrNotFound, "zero affected rows means the row vanished")
}

func TestReservationRepository_ExclusionConstraintRejectsOverlap(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReservationRepository(db)
	ctx := context.Background()

	customerID := seedCustomer(t, db, "guest@example.com")
	insertReservation(t, repo, customerID, "2026-10-05", "2026-10-07")

	_, err := repo.Insert(ctx, &domain.Reservation{
		CustomerID:    customerID,
		ArrivalDate:   domain.MustParseDate("2026-10-06"),
		DepartureDate: domain.MustParseDate("2026-10-09"),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict), "expected ErrConflict, got %v", err)
}

func TestReservationRepository_FindOverlappingPairs(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReservationRepository(db)
	ctx := context.Background()

	pairs, err := repo.FindOverlappingPairs(ctx)
	require.NoError(t, err)
	assert.Empty(t, pairs)

	// Drop the backstop so the broken state can be produced.
	require.NoError(t, migrations.Rollback(db))

	customerID := seedCustomer(t, db, "guest@example.com")
	insertReservation(t, repo, customerID, "2026-10-05", "2026-10-07")
	insertReservation(t, repo, customerID, "2026-10-07", "2026-10-09")
	insertReservation(t, repo, customerID, "2026-10-15", "2026-10-16")

	pairs, err = repo.FindOverlappingPairs(ctx)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, "2026-10-07", pairs[0].Overlap.Start.String())
	assert.Equal(t, "2026-10-07", pairs[0].Overlap.End.String())
}

func TestCustomerRepository_UpsertByEmail(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCustomerRepository(db)
	ctx := context.Background()

	first, err := repo.UpsertByEmail(ctx, "guest@example.com", "First Name")
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := repo.UpsertByEmail(ctx, "guest@example.com", "Second Name")
	require.NoError(t, err)
	assert.Equal(t, first, second, "same email must resolve to the same customer")

	got, err := repo.GetByID(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, "Second Name", got.FullName)
}

func TestCustomerRepository_UpsertByEmail_Concurrent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCustomerRepository(db)
	ctx := context.Background()

	const workers = 8
	ids := make([]string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := repo.UpsertByEmail(ctx, "race@example.com", "Racer")
			assert.NoError(t, err)
			ids[i] = id
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}

	var count int64
	require.NoError(t, db.Model(&CustomerModel{}).Where("email = ?", "race@example.com").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCustomerRepository_Update(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCustomerRepository(db)
	ctx := context.Background()

	id := seedCustomer(t, db, "old@example.com")
	seedCustomer(t, db, "taken@example.com")

	require.NoError(t, repo.Update(ctx, &domain.Customer{ID: id, Email: "new@example.com", FullName: "New Name"}))

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", got.Email)
	assert.Equal(t, "New Name", got.FullName)

	err = repo.Update(ctx, &domain.Customer{ID: id, Email: "taken@example.com", FullName: "X"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}
