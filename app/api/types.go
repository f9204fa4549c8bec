package api

import (
	"github.com/dbarreiro/rundown-sync/app/content"
	"github.com/dbarreiro/rundown-sync/app/database"
	"github.com/dbarreiro/rundown-sync/app/monitor"
	"github.com/dbarreiro/rundown-sync/app/rundown"
)

type MonitorInterface interface {
	Watchers() []*rundown.Watcher
}

var _ MonitorInterface = (*monitor.Monitor)(nil)

type Handler struct {
	configCache *rundown.ConfigCache
	changeRepo  database.ChangeRepository
	stateStore  *content.StateStore
	monitor     MonitorInterface
}
