package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cuemby/resource-status/pkg/types"
)

// ErrCloneStateWithBundles is returned for clone state queries on snapshots
// that also contain bundles. Clone aggregation is not supported there.
var ErrCloneStateWithBundles = errors.New("querying the state of clones is not supported when bundles are present in the cluster")

// NonExistentError reports a resource missing from the snapshot
type NonExistentError struct {
	Key types.ResourceKey
}

func (e *NonExistentError) Error() string {
	return fmt.Sprintf("resource '%s' does not exist", e.Key)
}

// UnexpectedTypeError reports an operation applied to the wrong resource kind
type UnexpectedTypeError struct {
	Key      types.ResourceKey
	Actual   types.ResourceKind
	Expected []types.ResourceKind
}

func (e *UnexpectedTypeError) Error() string {
	names := make([]string, len(e.Expected))
	for i, k := range e.Expected {
		names[i] = string(k)
	}
	return fmt.Sprintf("resource '%s' is a %s, expected %s", e.Key, e.Actual, strings.Join(names, " or "))
}

// NotInGroupError reports a group position query on an ungrouped resource
type NotInGroupError struct {
	Key types.ResourceKey
}

func (e *NotInGroupError) Error() string {
	return fmt.Sprintf("resource '%s' is not in a group", e.Key)
}

// MembersQuantifierUnsupportedError reports a members quantifier on a
// resource that has no group members to aggregate
type MembersQuantifierUnsupportedError struct {
	Key types.ResourceKey
}

func (e *MembersQuantifierUnsupportedError) Error() string {
	return fmt.Sprintf("members quantifier is not supported for resource '%s', it is not a group and contains no groups", e.Key)
}

// InstancesQuantifierUnsupportedError reports an instances quantifier on a
// resource that is neither cloned nor bundled
type InstancesQuantifierUnsupportedError struct {
	Key types.ResourceKey
}

func (e *InstancesQuantifierUnsupportedError) Error() string {
	return fmt.Sprintf("instances quantifier is not supported for resource '%s', it is not a clone or bundle and is not part of one", e.Key)
}

// StateValueUnsupportedError reports an exact value query on a boolean state
type StateValueUnsupportedError struct {
	State State
}

func (e *StateValueUnsupportedError) Error() string {
	return fmt.Sprintf("state '%s' does not carry a value", e.State)
}
