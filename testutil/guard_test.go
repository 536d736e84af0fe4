package testutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPredicates(t *testing.T) {
	cases := []struct {
		name string
		pred func(string) bool
		in   string
		want bool
	}{
		{"internal segment", InternalImportForbidden, "example.com/mod/internal/x", true},
		{"internal stdlib", InternalImportForbidden, "crypto/internal/fips140", true},
		{"internal trailing", InternalImportForbidden, "example.com/internal", false},
		{"internal pkg", InternalImportForbidden, "example.com/mod/pkg/x", false},
		{"module internal", ModuleInternalForbidden, ModulePath + "/internal/core", true},
		{"module internal root", ModuleInternalForbidden, ModulePath + "/internal", true},
		{"module stdlib internal", ModuleInternalForbidden, "crypto/internal/fips140", false},
		{"module lookalike", ModuleInternalForbidden, ModulePath + "/internalx", false},
		{"infra store", InfraImportForbidden, ModulePath + "/internal/infra/persistence/sqlite", true},
		{"infra blob", InfraImportForbidden, ModulePath + "/internal/infra/blob/s3", true},
		{"blob facade", InfraImportForbidden, ModulePath + "/internal/blob", false},
		{"cli", CLIImportForbidden, ModulePath + "/internal/cli", true},
		{"cmd", CLIImportForbidden, ModulePath + "/cmd/agritrace", true},
		{"core", CLIImportForbidden, ModulePath + "/internal/core", false},
		{"empty", CLIImportForbidden, "", false},
	}
	for _, c := range cases {
		if got := c.pred(c.in); got != c.want {
			t.Errorf("%s: predicate(%q) = %v, want %v", c.name, c.in, got, c.want)
		}
	}
}

type recordingFatal struct {
	msg string
}

func (r *recordingFatal) Fatalf(format string, args ...any) {
	r.msg = fmt.Sprintf(format, args...)
}

func writeFile(t *testing.T, path, src string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestDirectImportViolations(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "store.go"), "package tmp\nimport (\n\t\"fmt\"\n\t\""+ModulePath+"/internal/infra/blob/fs\"\n)\nfunc X() { fmt.Println(fs.DefaultRoot) }\n")
	writeFile(t, filepath.Join(dir, "store_test.go"), "package tmp\nimport \""+ModulePath+"/internal/infra/blob/memory\"\n")
	writeFile(t, filepath.Join(dir, "notes.txt"), "import \""+ModulePath+"/internal/infra\"")
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeFile(t, filepath.Join(dir, "sub", "sub.go"), "package sub\nimport \""+ModulePath+"/internal/infra/blob/s3\"\n")

	viols, err := directImportViolations(dir, InfraImportForbidden)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(viols) != 1 || !strings.HasSuffix(viols[0], "(in store.go)") {
		t.Fatalf("expected only the non-test file in dir flagged, got %v", viols)
	}

	rec := &recordingFatal{}
	failIfDirectViolations(rec, "archive behind blob", viols)
	if rec.msg == "" {
		t.Fatalf("expected violations to fail")
	}
	rec = &recordingFatal{}
	failIfDirectViolations(rec, "none", nil)
	if rec.msg != "" {
		t.Fatalf("expected no failure without violations")
	}

	if _, err := directImportViolations(filepath.Join(dir, "missing"), InfraImportForbidden); err == nil {
		t.Fatalf("expected error for a missing directory")
	}
	AssertNoDirectImports(t, filepath.Join(dir, "sub"), CLIImportForbidden, "sub does not import the cli")
}

func TestTransitiveDependencyViolations(t *testing.T) {
	orig := goListDeps
	t.Cleanup(func() { goListDeps = orig })

	goListDeps = func(string) ([]byte, error) {
		return []byte("fmt\ncrypto/internal/fips140\n\n" + ModulePath + "/internal/core\n" + ModulePath + "/pkg/domain\n"), nil
	}
	viols, _, err := transitiveDependencyViolations("./...", ModuleInternalForbidden)
	if err != nil {
		t.Fatalf("deps: %v", err)
	}
	if len(viols) != 1 || viols[0] != ModulePath+"/internal/core" {
		t.Fatalf("unexpected violations %v", viols)
	}

	goListDeps = func(string) ([]byte, error) { return []byte("no Go files"), errors.New("exit status 1") }
	if _, out, err := transitiveDependencyViolations(".", ModuleInternalForbidden); err == nil || string(out) != "no Go files" {
		t.Fatalf("expected go list failure passed through, got %v %q", err, out)
	}

	rec := &recordingFatal{}
	failIfTransitiveViolations(rec, "domain stays standalone", []string{ModulePath + "/internal/core"})
	if rec.msg == "" {
		t.Fatalf("expected violations to fail")
	}
}
