package ports

import "github.com/tdex-network/oracle-dispatcher/pkg/heartbeat"

// HealthReporter exposes the liveness of the dispatcher tasks. The process is
// alive if every entry of the summary is.
type HealthReporter interface {
	Summary() map[string]heartbeat.Status
}
