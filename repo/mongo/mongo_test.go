package mongorepo_test

import (
	"github.com/dalemusser/statehub/repo"
	mongorepo "github.com/dalemusser/statehub/repo/mongo"
)

// Compile-time port compliance. Behavior is covered by the shared store
// tests over repo/memory; these adapters differ only in transport.
var (
	_ repo.Accounts      = (*mongorepo.Accounts)(nil)
	_ repo.Teams         = (*mongorepo.Teams)(nil)
	_ repo.Partners      = (*mongorepo.Partners)(nil)
	_ repo.Workspaces    = (*mongorepo.Workspaces)(nil)
	_ repo.Members       = (*mongorepo.Members)(nil)
	_ repo.Documents     = (*mongorepo.Documents)(nil)
	_ repo.Tasks         = (*mongorepo.Tasks)(nil)
	_ repo.Notifications = (*mongorepo.Notifications)(nil)
	_ repo.Bots          = (*mongorepo.Bots)(nil)
)
