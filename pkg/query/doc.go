/*
Package query answers structured questions about a status snapshot.

A Facade indexes one types.Snapshot and exposes read-only lookups on it:
existence, kind, parent containers, members, nodes and state predicates.
It never mutates the snapshot and can be shared between goroutines once
built.

	f, err := query.New(snapshot, query.Defaults{
		Members:   query.QuantifierAll,
		Instances: query.QuantifierAny,
	})
	ok, err := f.IsState(types.SplitResourceID("web"), query.StateStarted, query.Policy{})

# Resolution

A key with an instance id resolves to that exact record. A bare resource id
resolves to every record carrying the id, which for anonymous clones means
one record per running instance. Lookups that need a single record use the
first one recorded.

# State Evaluation

IsState walks the resolved records recursively and reduces child results
with quantifiers:

	Primitive   predicate on the record, optionally restricted to a node
	Group       members quantifier over member results
	Clone       instances quantifier over instance results
	Bundle      instances quantifier over each replica's effective primitive,
	            located on the container's node

When the caller requests neither a node nor a quantifier, group, clone and
bundle level flags (managed, maintenance, disabled and friends) answer the
question directly. Orphaned instances are ignored unless the orphaned state
itself is queried.

Clone state queries are refused with ErrCloneStateWithBundles when the
snapshot also contains bundles.

# Errors

Failures are typed so callers can tell a missing resource (NonExistentError)
from a misapplied operation (UnexpectedTypeError, NotInGroupError) or an
unsupported policy (MembersQuantifierUnsupportedError,
InstancesQuantifierUnsupportedError, StateValueUnsupportedError).
*/
package query
