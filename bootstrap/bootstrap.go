// bootstrap/bootstrap.go

// Package bootstrap assembles a production hub: configuration via
// WAFFLE, a MongoDB backend, and optional audit recording. Hosts that
// embed the hub with their own backends can skip this package entirely.
package bootstrap

import (
	"github.com/dalemusser/statehub"
	"github.com/dalemusser/statehub/audit"
	"github.com/dalemusser/statehub/internal/timeouts"
	mongorepo "github.com/dalemusser/statehub/repo/mongo"
	"go.uber.org/zap"
)

// BuildHub wires a hub over the mongo adapters. Port deadlines are
// applied from the config before any store is constructed; the audit
// recorder (when enabled) stays attached to the hub's bus for its
// lifetime.
func BuildHub(appCfg AppConfig, deps DBDeps, opts statehub.Options) (*statehub.Hub, error) {
	timeouts.Configure(appCfg.TimeoutShort, appCfg.TimeoutMedium, appCfg.TimeoutLong, appCfg.TimeoutBatch)

	adapters := mongorepo.New(deps.Database)
	h, err := statehub.New(statehub.Ports{
		Accounts:      adapters.Accounts(),
		Teams:         adapters.Teams(),
		Partners:      adapters.Partners(),
		Workspaces:    adapters.Workspaces(),
		Members:       adapters.Members(),
		Documents:     adapters.Documents(),
		Tasks:         adapters.Tasks(),
		Notifications: adapters.Notifications(),
		Bots:          adapters.Bots(),
	}, opts)
	if err != nil {
		return nil, err
	}

	if appCfg.AuditLog != "off" {
		logger := opts.Logger
		if logger == nil {
			logger = zap.NewNop()
		}
		audit.Attach(h.Bus, logger)
	}
	return h, nil
}
