package migration

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rflorenc/ng-migrator/internal/models"
)

// ErrRootNotInGraph is returned when the discovery result does not contain
// its own root.
var ErrRootNotInGraph = errors.New("root entity is not in the dependency graph")

// CycleError is returned when the leaf-draining loop finds no leaves in a
// non-empty graph. Remaining lists every entity that could not be ordered.
type CycleError struct {
	Remaining []models.EntityID
}

func (e *CycleError) Error() string {
	ids := make([]string, len(e.Remaining))
	for i, id := range e.Remaining {
		ids[i] = id.String()
	}
	return fmt.Sprintf("dependency cycle among %d entities: %s", len(ids), strings.Join(ids, ", "))
}

// AsCycleError returns err as a *CycleError, or nil.
func AsCycleError(err error) *CycleError {
	var cycleErr *CycleError
	if errors.As(err, &cycleErr) {
		return cycleErr
	}
	return nil
}
