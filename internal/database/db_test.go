package database

import (
	"path/filepath"
	"testing"

	"github.com/zaqqye/institute_backend/internal/config"
	"github.com/zaqqye/institute_backend/internal/models"
	"github.com/zaqqye/institute_backend/internal/utils"
)

func TestMigrateIsIdempotent(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := Migrate(db); err != nil {
			t.Fatalf("Migrate run %d: %v", i+1, err)
		}
	}
	for _, tbl := range []string{"students", "enrollments", "grade_records", "counters", "courses", "users"} {
		if !db.Migrator().HasTable(tbl) {
			t.Errorf("table %q not created", tbl)
		}
	}
}

func TestConnectSQLite(t *testing.T) {
	cfg := &config.Config{DBDriver: "sqlite", DBPath: filepath.Join(t.TempDir(), "conn.db")}
	db, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := db.Exec("SELECT 1").Error; err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestConnectRejectsUnknownDriver(t *testing.T) {
	if _, err := Connect(&config.Config{DBDriver: "oracle"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestSeedAdminOnce(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "seed.db"))
	if err != nil {
		t.Fatal(err)
	}
	if err := Migrate(db); err != nil {
		t.Fatal(err)
	}
	cfg := &config.Config{AdminEmail: " Admin@Institute.LK ", AdminPassword: "s3cret!", AdminFullName: "Root"}
	for i := 0; i < 2; i++ {
		if err := SeedAdmin(db, cfg); err != nil {
			t.Fatalf("SeedAdmin run %d: %v", i+1, err)
		}
	}
	var admins []models.User
	if err := db.Where("role = ?", models.RoleAdmin).Find(&admins).Error; err != nil {
		t.Fatal(err)
	}
	if len(admins) != 1 {
		t.Fatalf("expected 1 admin, got %d", len(admins))
	}
	if admins[0].Email != "admin@institute.lk" {
		t.Errorf("email not normalized: %q", admins[0].Email)
	}
	if !utils.CheckPassword(admins[0].Password, "s3cret!") {
		t.Error("password hash does not match")
	}
}
