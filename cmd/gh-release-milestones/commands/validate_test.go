package commands

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestValidateConfigFile_Valid(t *testing.T) {
	path := writeConfig(t, `
repository: metabase/metabase
base_ref: v0.50.6
excluded_labels:
  - Type:Documentation
board:
  project_id: PVT_1
  comment_field_id: PVTF_comment
  version_field_id: PVTF_version
rate_limit:
  requests_per_second: 2
  burst: 2
`)
	errs, err := validateConfigFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(errs) != 0 {
		t.Errorf("expected no errors, got %v", errs)
	}
}

func TestValidateConfigFile_MissingRepository(t *testing.T) {
	errs, err := validateConfigFile(writeConfig(t, "backport_label: backported\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	found := false
	for _, e := range errs {
		if e == "repository is required" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected repository error, got %v", errs)
	}
}

func TestValidateConfigFile_InvalidRepoFormat(t *testing.T) {
	errs, err := validateConfigFile(writeConfig(t, "repository: invalid-no-slash\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	found := false
	for _, e := range errs {
		if e == `repository "invalid-no-slash" must be in owner/repo format` {
			found = true
		}
	}
	if !found {
		t.Errorf("expected repo format error, got %v", errs)
	}
}

func TestValidateConfigFile_PartialBoard(t *testing.T) {
	errs, err := validateConfigFile(writeConfig(t, `
repository: owner/repo
board:
  project_id: PVT_1
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(errs) != 1 || errs[0] != "board requires project_id, comment_field_id and version_field_id together" {
		t.Errorf("expected board error, got %v", errs)
	}
}

func TestValidateConfigFile_UnknownKeys(t *testing.T) {
	errs, err := validateConfigFile(writeConfig(t, `
repository: owner/repo
backport_lable: was-backported
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(errs) != 1 || errs[0] != `unknown key "backport_lable"` {
		t.Errorf("expected unknown key error, got %v", errs)
	}
}

func TestValidateConfigFile_InvalidYAML(t *testing.T) {
	if _, err := validateConfigFile(writeConfig(t, "repository: [unclosed\n")); err == nil {
		t.Error("expected error for invalid YAML")
	}
	if _, err := validateConfigFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
