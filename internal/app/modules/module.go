// Package modules builds the pieces the composition root in internal/app
// assembles: shared infrastructure first, then one Module per feature area.
package modules

import (
	"context"

	"github.com/riverqueue/river"

	"tracehub.io/tracehub/internal/api/handlers"
)

// Module is a feature area's slice of the process. Bootstrap calls
// RegisterWorkers before the River client exists and ContributeServerDeps
// after; Shutdown runs once River has stopped.
type Module interface {
	Name() string
	ContributeServerDeps(deps *handlers.ServerDeps)
	RegisterWorkers(workers *river.Workers)
	Shutdown(ctx context.Context) error
}
