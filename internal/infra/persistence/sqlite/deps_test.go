package sqlite

import (
	"go/build"
	"strings"
	"testing"
)

const modulePrefix = "github.com/shubh1021/AgriTrace/"

var allowedImports = map[string]struct{}{
	modulePrefix + "pkg/domain":                       {},
	modulePrefix + "internal/infra/persistence/memory": {},
}

func TestImportsAreDomainOrMemory(t *testing.T) {
	pkg, err := build.Default.ImportDir(".", 0)
	if err != nil {
		t.Fatalf("import dir: %v", err)
	}
	for _, imp := range pkg.Imports {
		if !strings.HasPrefix(imp, modulePrefix) {
			continue
		}
		if _, ok := allowedImports[imp]; ok {
			continue
		}
		t.Fatalf("unexpected dependency: %s", imp)
	}
}
