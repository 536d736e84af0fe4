package memory

import (
	"go/build"
	"strings"
	"testing"
)

const modulePrefix = "github.com/shubh1021/AgriTrace/"

var allowedDomainImports = map[string]struct{}{
	modulePrefix + "pkg/domain": {},
}

func TestImportsAreDomainOrStdlib(t *testing.T) {
	pkg, err := build.Default.ImportDir(".", 0)
	if err != nil {
		t.Fatalf("import dir: %v", err)
	}
	for _, imp := range pkg.Imports {
		if !strings.HasPrefix(imp, modulePrefix) {
			continue
		}
		if _, ok := allowedDomainImports[imp]; ok {
			continue
		}
		t.Fatalf("unexpected dependency: %s", imp)
	}
}
