package ingestion

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const modulePath = "github.com/jonathan/profile-scraper/"

// imports walks the non-test imports of an internal package and the module packages it
// reaches, returning every import path seen.
func imports(t *testing.T, root string) map[string]bool {
	t.Helper()
	seen := map[string]bool{}
	var walk func(dir string)
	walk = func(dir string) {
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		for _, e := range entries {
			name := e.Name()
			if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
				continue
			}
			f, err := parser.ParseFile(token.NewFileSet(), filepath.Join(dir, name), nil, parser.ImportsOnly)
			require.NoError(t, err)
			for _, spec := range f.Imports {
				path, _ := strconv.Unquote(spec.Path.Value)
				if seen[path] {
					continue
				}
				seen[path] = true
				if rel, ok := strings.CutPrefix(path, modulePath); ok {
					walk(filepath.Join("..", "..", rel))
				}
			}
		}
	}
	walk(root)
	return seen
}

func TestPDFPathHasNoBrowserDependency(t *testing.T) {
	deps := imports(t, ".")
	assert.True(t, deps[modulePath+"internal/parsing"])
	for path := range deps {
		assert.NotContains(t, path, "chromedp", "PDF parsing must not link the browser driver")
		assert.NotEqual(t, modulePath+"internal/browser", path)
	}
}
