package adminrepo_test

import (
	"testing"

	"github.com/tanc-norcal/membership-api/internal/adapters/contracttest"
	memadminrepo "github.com/tanc-norcal/membership-api/internal/adapters/memory/adminrepo"
	adminrepoport "github.com/tanc-norcal/membership-api/internal/ports/out/adminrepo"
)

func TestMemoryAdminRepoContract(t *testing.T) {
	contracttest.RunAdminRepo(t, func(t *testing.T) (adminrepoport.Repository, contracttest.CleanupFunc) {
		return memadminrepo.NewRepo(), nil
	})
}
