package migrations

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLatestVersion(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"000001_init_schema.up.sql",
		"000001_init_schema.down.sql",
		"000012_admin.up.sql",
		"README.md",
		"notes_000099.sql",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("--"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "000500_dir"), 0o755); err != nil {
		t.Fatal(err)
	}

	if got := LatestVersion(dir); got != 12 {
		t.Errorf("LatestVersion = %d, want 12", got)
	}
}

func TestLatestVersionMissingDir(t *testing.T) {
	if got := LatestVersion(filepath.Join(t.TempDir(), "nope")); got != 0 {
		t.Errorf("LatestVersion = %d, want 0", got)
	}
}

func TestShippedMigrationsPaired(t *testing.T) {
	dir := filepath.Join("..", "..", DefaultDir)
	ups, _ := filepath.Glob(filepath.Join(dir, "*.up.sql"))
	if len(ups) == 0 {
		t.Fatalf("no up migrations found in %s", dir)
	}
	for _, up := range ups {
		down := up[:len(up)-len(".up.sql")] + ".down.sql"
		if _, err := os.Stat(down); err != nil {
			t.Errorf("%s has no matching down migration", filepath.Base(up))
		}
	}
	if got := LatestVersion(dir); got != int64(len(ups)) {
		t.Errorf("latest version %d does not match %d up migrations", got, len(ups))
	}
}

func TestRunMigrationsRequiresURL(t *testing.T) {
	if err := RunMigrations("", DefaultDir); err == nil {
		t.Error("expected error for empty database URL")
	}
}
