package db

import (
	"testing"
	"testing/fstest"

	"github.com/session-audit/backend/migrations"
)

func TestPendingFilesOrder(t *testing.T) {
	fsys := fstest.MapFS{
		"0002_groups.up.sql": {Data: []byte("SELECT 2")},
		"0001_init.up.sql":   {Data: []byte("SELECT 1")},
		"0001_init.down.sql": {Data: []byte("SELECT 0")},
		"README.md":          {Data: []byte("docs")},
		"nested/0003.up.sql": {Data: []byte("SELECT 3")},
	}

	files, err := PendingFiles(fsys)
	if err != nil {
		t.Fatalf("PendingFiles: %v", err)
	}
	want := []string{"0001_init.up.sql", "0002_groups.up.sql"}
	if len(files) != len(want) {
		t.Fatalf("got %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("files[%d] = %s, want %s", i, files[i], want[i])
		}
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	files, err := PendingFiles(migrations.FS)
	if err != nil {
		t.Fatalf("PendingFiles: %v", err)
	}
	if len(files) == 0 || files[0] != "0001_init.up.sql" {
		t.Errorf("unexpected embedded migrations: %v", files)
	}
}
