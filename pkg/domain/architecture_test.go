package domain

import (
	"testing"

	"pidcore/testutil"
)

// TestDomainDoesNotImportInternal keeps the entity model free of any
// implementation package so external tools can depend on it alone.
func TestDomainDoesNotImportInternal(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.InternalImportForbidden, "pkg/domain must stay implementation free")
}

func TestDomainHasNoTransitiveInternalDependency(t *testing.T) {
	testutil.AssertNoTransitiveDependency(t, ".", testutil.InternalImportForbidden, "pkg/domain must stay implementation free")
}
