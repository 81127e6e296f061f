package adminrepo_test

import (
	"testing"

	"github.com/tanc-norcal/membership-api/internal/adapters/contracttest"
	pgadminrepo "github.com/tanc-norcal/membership-api/internal/adapters/postgres/adminrepo"
	"github.com/tanc-norcal/membership-api/internal/adapters/postgres/testutil"
	adminrepoport "github.com/tanc-norcal/membership-api/internal/ports/out/adminrepo"
)

func TestPostgresAdminRepoContract(t *testing.T) {
	contracttest.RunAdminRepo(t, func(t *testing.T) (adminrepoport.Repository, contracttest.CleanupFunc) {
		pool := testutil.OpenMigratedPool(t)
		return pgadminrepo.NewRepo(pool), nil
	})
}
