package memberrepo_test

import (
	"testing"

	"github.com/tanc-norcal/membership-api/internal/adapters/contracttest"
	memmemberrepo "github.com/tanc-norcal/membership-api/internal/adapters/memory/memberrepo"
	memberrepoport "github.com/tanc-norcal/membership-api/internal/ports/out/memberrepo"
)

func TestMemoryMemberRepoContract(t *testing.T) {
	contracttest.RunMemberRepo(t, func(t *testing.T) (memberrepoport.Repository, contracttest.CleanupFunc) {
		return memmemberrepo.NewRepo(), nil
	})
}
