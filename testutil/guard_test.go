package testutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingFatal struct {
	msg string
}

func (r *recordingFatal) Fatalf(format string, args ...any) {
	r.msg = fmt.Sprintf(format, args...)
}

func writeFile(t *testing.T, dir, name, src string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(src), 0o600))
}

func TestInternalImportForbidden(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"pidcore/internal/core", true},
		{"pidcore/internal/infra/blob/s3", true},
		{"pidcore/pkg/domain", false},
		{"crypto/internal/fips140", false},
		{"internal/abi", false},
		{"example.com/mod/internal/x", false},
		{"", false},
	}
	for _, c := range cases {
		require.Equal(t, c.want, InternalImportForbidden(c.in), c.in)
	}
}

func TestModuleImportsExcept(t *testing.T) {
	forbidden := ModuleImportsExcept("pidcore/pkg/domain")
	require.False(t, forbidden("pidcore/pkg/domain"))
	require.False(t, forbidden("fmt"))
	require.False(t, forbidden("github.com/google/uuid"))
	require.False(t, forbidden("pidcorex/pkg"))
	require.True(t, forbidden("pidcore/internal/core"))
	require.True(t, forbidden("pidcore/pkg/domain/sub"))
	require.True(t, forbidden("pidcore"))
}

func TestDirectImportViolations(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.go", "package tmp\nimport (\n\t\"fmt\"\n\talias \"pidcore/internal/core\"\n)\nvar _ = fmt.Sprint\nvar _ = alias.Op(\"\")\n")
	writeFile(t, dir, "a_test.go", "package tmp\nimport \"pidcore/internal/infra/blob\"\n")
	writeFile(t, dir, "notes.txt", "import \"pidcore/internal/x\"")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o750))
	writeFile(t, filepath.Join(dir, "sub"), "b.go", "package sub\nimport \"pidcore/internal/x\"\n")

	viols, err := directImportViolations(dir, InternalImportForbidden)
	require.NoError(t, err)
	require.Equal(t, []string{"pidcore/internal/core (in a.go)"}, viols)

	AssertNoDirectImports(t, dir, func(string) bool { return false }, "none")
}

func TestDirectImportViolationsErrors(t *testing.T) {
	_, err := directImportViolations(filepath.Join(t.TempDir(), "missing"), InternalImportForbidden)
	require.Error(t, err)

	dir := t.TempDir()
	writeFile(t, dir, "broken.go", "package")
	_, err = directImportViolations(dir, InternalImportForbidden)
	require.Error(t, err)
}

func TestTransitiveDependencyViolations(t *testing.T) {
	orig := goListDeps
	t.Cleanup(func() { goListDeps = orig })

	goListDeps = func(string) ([]byte, error) {
		return []byte("fmt\ncrypto/internal/fips140\n\npidcore/pkg/domain\npidcore/internal/core\n"), nil
	}
	viols, _, err := transitiveDependencyViolations(".", InternalImportForbidden)
	require.NoError(t, err)
	require.Equal(t, []string{"pidcore/internal/core"}, viols)

	goListDeps = func(string) ([]byte, error) {
		return []byte("no go files"), errors.New("exit status 1")
	}
	_, out, err := transitiveDependencyViolations(".", InternalImportForbidden)
	require.Error(t, err)
	require.Equal(t, "no go files", string(out))
}

func TestFailIfViolations(t *testing.T) {
	rec := &recordingFatal{}
	failIfViolations(rec, "direct imports", "reason", nil)
	require.Empty(t, rec.msg)

	failIfViolations(rec, "direct imports", "reason", []string{"a", "b"})
	require.Equal(t, "forbidden direct imports detected (reason):\na\nb", rec.msg)
}
