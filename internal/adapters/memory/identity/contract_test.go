package identity_test

import (
	"testing"

	"github.com/tanc-norcal/membership-api/internal/adapters/contracttest"
	memidentity "github.com/tanc-norcal/membership-api/internal/adapters/memory/identity"
	identityport "github.com/tanc-norcal/membership-api/internal/ports/out/identity"
)

func TestMemoryIdentityContract(t *testing.T) {
	contracttest.RunIdentity(t, func(t *testing.T) (identityport.Provider, contracttest.CleanupFunc) {
		return memidentity.NewProvider(), nil
	})
}
