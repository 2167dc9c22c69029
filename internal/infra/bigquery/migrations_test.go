package bigquery

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
)

func TestReadMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"0002_accounts.sql":       {Data: []byte("CREATE TABLE `{{PROJECT_ID}}.{{DATASET_ID}}.accounts` (x INT64);")},
		"0001_statement_runs.sql": {Data: []byte("CREATE TABLE `{{PROJECT_ID}}.{{DATASET_ID}}.statement_runs` (x INT64);")},
		"README.md":               {Data: []byte("not a migration")},
		"notes/0003_skip.sql":     {Data: []byte("in a subdirectory")},
	}

	got, err := ReadMigrations(fsys, "proj", "ds")
	if err != nil {
		t.Fatalf("ReadMigrations() error = %v", err)
	}

	var names []string
	for _, m := range got {
		names = append(names, m.Filename)
	}
	if diff := cmp.Diff([]string{"0001_statement_runs.sql", "0002_accounts.sql"}, names); diff != "" {
		t.Errorf("migrations mismatch (-want +got):\n%s", diff)
	}

	if got[0].Version != 1 || got[0].Name != "statement_runs" {
		t.Errorf("unexpected first migration: %+v", got[0])
	}
	if !strings.Contains(got[0].SQL, "`proj.ds.statement_runs`") {
		t.Errorf("placeholders not substituted: %s", got[0].SQL)
	}

	again, err := ReadMigrations(fsys, "other", "dataset")
	if err != nil {
		t.Fatalf("ReadMigrations() error = %v", err)
	}
	if again[0].Checksum != got[0].Checksum {
		t.Error("checksum should not depend on project or dataset")
	}
}

func TestReadMigrations_DuplicateVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"0001_a.sql": {Data: []byte("SELECT 1")},
		"0001_b.sql": {Data: []byte("SELECT 2")},
	}
	if _, err := ReadMigrations(fsys, "p", "d"); err == nil {
		t.Error("expected error for duplicate version")
	}
}

func TestEmbeddedMigrations_CoverStoredTables(t *testing.T) {
	migrations, err := ReadMigrations(EmbeddedMigrations(), "p", "d")
	if err != nil {
		t.Fatalf("ReadMigrations() error = %v", err)
	}

	all := ""
	for i, m := range migrations {
		if m.Version != i+1 {
			t.Errorf("migration %s has version %d, want %d", m.Filename, m.Version, i+1)
		}
		all += m.SQL
	}

	for _, table := range []string{runsTable, accountsTable, transactionsTable} {
		if !strings.Contains(all, "`p.d."+table+"`") {
			t.Errorf("no migration creates %s", table)
		}
	}
	// Every column read back by ListRunsWithClient must exist.
	for _, col := range []string{"skipped_pages", "warnings", "failed_stage", "line_no", "position"} {
		if !strings.Contains(all, col) {
			t.Errorf("no migration defines column %s", col)
		}
	}
}

func TestPendingMigrations(t *testing.T) {
	all := []Migration{
		{Version: 1, Filename: "0001_a.sql", Checksum: "aaa"},
		{Version: 2, Filename: "0002_b.sql", Checksum: "bbb"},
		{Version: 3, Filename: "0003_c.sql", Checksum: "ccc"},
	}

	tests := []struct {
		name    string
		applied []AppliedMigration
		want    []int
		wantErr bool
	}{
		{"fresh dataset", nil, []int{1, 2, 3}, false},
		{"partially applied", []AppliedMigration{{Version: 1, Checksum: "aaa"}}, []int{2, 3}, false},
		{"legacy row without checksum", []AppliedMigration{{Version: 1}, {Version: 2}}, []int{3}, false},
		{"edited after apply", []AppliedMigration{{Version: 1, Checksum: "changed"}}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pending, err := PendingMigrations(all, tt.applied)
			if (err != nil) != tt.wantErr {
				t.Fatalf("PendingMigrations() error = %v, wantErr %v", err, tt.wantErr)
			}
			var got []int
			for _, m := range pending {
				got = append(got, m.Version)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("pending mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMigrationFilenamePattern(t *testing.T) {
	tests := []struct {
		filename string
		valid    bool
		version  string
		name     string
	}{
		{"0001_statement_runs.sql", true, "0001", "statement_runs"},
		{"001_invalid.sql", false, "", ""},
		{"0001_test", false, "", ""},
		{"0001.sql", false, "", ""},
		{"invalid_0001_test.sql", false, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			m := migrationPattern.FindStringSubmatch(tt.filename)
			if (m != nil) != tt.valid {
				t.Fatalf("match = %v, want %v", m != nil, tt.valid)
			}
			if tt.valid && (m[1] != tt.version || m[2] != tt.name) {
				t.Errorf("got (%q, %q), want (%q, %q)", m[1], m[2], tt.version, tt.name)
			}
		})
	}
}
