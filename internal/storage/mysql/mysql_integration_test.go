//go:build integration

package mysql_test

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"landlord_reviews/internal/domain"
	mysqlrepo "landlord_reviews/internal/storage/mysql"
)

func startMySQL(t *testing.T) *sql.DB {
	t.Helper()
	// Start isolated MySQL; let Docker pick a free host port.
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}
	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=reviews",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	dsn := fmt.Sprintf("root:root@tcp(127.0.0.1:%s)/reviews?parseTime=true&charset=utf8mb4,utf8&loc=UTC",
		resource.GetPort("3306/tcp"))

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestRepo_MySQL_SaveAndFindNear(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.New(db)
	ctx := context.Background()

	if err := repo.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	// Migrate is idempotent.
	if err := repo.Migrate(ctx); err != nil {
		t.Fatalf("Migrate again: %v", err)
	}

	lat, lng := 40.7128, -74.0060
	seed := []domain.ReviewInput{
		{FormattedAddress: "1 Main St", ReviewText: "Noisy", Floor: 3, UnitNumber: "4B", Lat: lat, Lng: lng},
		{FormattedAddress: "1 Main St", ReviewText: "Edge", Floor: 1, UnitNumber: "edge", Lat: lat + domain.Tolerance, Lng: lng},
		{FormattedAddress: "9 Far Rd", ReviewText: "Far", Floor: 2, UnitNumber: "far", Lat: lat + 0.0011, Lng: lng},
	}
	for _, in := range seed {
		rv, err := repo.Save(ctx, in)
		if err != nil {
			t.Fatalf("Save: %v", err)
		}
		if rv.ID == "" || rv.CreatedAt.IsZero() {
			t.Fatalf("Save returned incomplete review: %+v", rv)
		}
	}

	got, err := repo.FindNear(ctx, lat, lng)
	if err != nil {
		t.Fatalf("FindNear: %v", err)
	}
	var units []string
	for _, r := range got {
		units = append(units, r.UnitNumber)
	}
	sort.Strings(units)
	if len(units) != 2 || units[0] != "4B" || units[1] != "edge" {
		t.Fatalf("unexpected units: %v", units)
	}

	none, err := repo.FindNear(ctx, -33.8688, 151.2093)
	if err != nil || none == nil || len(none) != 0 {
		t.Fatalf("expected empty non-nil result, got %#v %v", none, err)
	}
}

func TestRepo_MySQL_ClosedDBIsPersistenceError(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.New(db)
	_ = db.Close()

	_, err := repo.Save(context.Background(), domain.ReviewInput{FormattedAddress: "x", ReviewText: "y", Floor: 1, UnitNumber: "1", Lat: 1, Lng: 1})
	if _, ok := err.(*domain.PersistenceError); !ok {
		t.Fatalf("expected *domain.PersistenceError, got %T %v", err, err)
	}
}
