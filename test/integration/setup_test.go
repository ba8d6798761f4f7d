package integration

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ohclinic/ohclinic/internal/platform/db"
)

const postgresImage = "postgres:16-alpine"

// clinicTimeZone differs from the container default (UTC) so date casts are
// checked against the pinned session zone.
const clinicTimeZone = "Asia/Kuala_Lumpur"

var (
	sharedPool     *pgxpool.Pool
	sharedPoolOnce sync.Once
	sharedPoolErr  error
)

// dataTables are emptied between tests. users, medical_staff and
// clinic_profile keep their seeded rows.
const dataTables = `declarations, recommendations, conclusion_ms_finding,
	fitness_respirator_data, biological_monitoring_data, target_organ_data,
	chemical_information, ms_report_data, occupational_history,
	patient_information, company`

// testPool returns a migrated database shared by every test in the run, with
// all clinical data removed.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedPoolOnce.Do(func() {
		sharedPool, sharedPoolErr = setupPostgres(context.Background())
	})
	if sharedPoolErr != nil {
		t.Fatalf("Failed to setup test database: %v", sharedPoolErr)
	}

	_, err := sharedPool.Exec(context.Background(), "TRUNCATE "+dataTables+" RESTART IDENTITY CASCADE")
	if err != nil {
		t.Fatalf("reset tables: %v", err)
	}
	return sharedPool
}

func setupPostgres(ctx context.Context) (*pgxpool.Pool, error) {
	req := testcontainers.ContainerRequest{
		Image:        postgresImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "ohclinic_test",
			"POSTGRES_USER":     "ohclinic",
			"POSTGRES_PASSWORD": "test_password",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("start postgres container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return nil, fmt.Errorf("container port: %w", err)
	}
	connStr := fmt.Sprintf("postgres://ohclinic:test_password@%s:%s/ohclinic_test?sslmode=disable", host, port.Port())

	pool, err := db.NewPool(ctx, connStr, 5, 1, clinicTimeZone)
	if err != nil {
		return nil, err
	}
	if _, err := db.NewMigrator(pool, migrationsDir()).Up(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	return pool, nil
}

// migrationsDir locates the migrations directory relative to this file.
func migrationsDir() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "..", "..", "migrations")
}

func nopLogger() zerolog.Logger { return zerolog.Nop() }

func day(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}
