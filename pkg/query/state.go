package query

import (
	"github.com/cuemby/resource-status/pkg/types"
)

// StateResult is the outcome of a state query. Nodes lists where the
// predicate held on individual primitives and is empty when Value is false.
type StateResult struct {
	Value bool
	Nodes []string
}

// IsState evaluates a boolean state predicate
func (f *Facade) IsState(key types.ResourceKey, state State, policy Policy) (bool, error) {
	res, err := f.Evaluate(key, state, policy)
	return res.Value, err
}

// Evaluate is IsState returning the node-location side channel as well
func (f *Facade) Evaluate(key types.ResourceKey, state State, policy Policy) (StateResult, error) {
	return f.evaluate(key, state, primitiveCheck(state), true, policy)
}

// IsStateExactValue compares the value carried by a state with an expected
// literal, e.g. the node a resource is locked to
func (f *Facade) IsStateExactValue(key types.ResourceKey, state State, value string, policy Policy) (bool, error) {
	if !state.HasValue() {
		return false, &StateValueUnsupportedError{State: state}
	}
	check := func(p *types.Primitive) bool {
		if state == StatePending {
			return p.Pending == value
		}
		return p.LockedTo == value
	}
	res, err := f.evaluate(key, state, check, false, policy)
	return res.Value, err
}

func (f *Facade) evaluate(key types.ResourceKey, state State, check func(*types.Primitive) bool, summaries bool, policy Policy) (StateResult, error) {
	records, err := f.resolve(key)
	if err != nil {
		return StateResult{}, err
	}
	if err := f.checkPolicy(key, records, policy); err != nil {
		return StateResult{}, err
	}
	if f.idx.hasBundle && f.targetsClone(records) {
		return StateResult{}, ErrCloneStateWithBundles
	}

	e := &evaluator{
		idx:       f.idx,
		state:     state,
		check:     check,
		summaries: summaries && !policy.requested(),
		node:      policy.Node,
		members:   pick(policy.Members, f.defaults.Members),
		instances: pick(policy.Instances, f.defaults.Instances),
	}

	var (
		value bool
		nodes map[string]struct{}
	)
	if len(records) == 1 {
		value, nodes = e.eval(records[0])
	} else {
		// several instances share the resource id
		var red reduction
		for _, r := range records {
			if e.skipOrphan(r) {
				continue
			}
			red.add(e.eval(r))
		}
		value, nodes = red.reduce(e.instances)
	}

	f.logger.Debug().
		Str("resource", key.String()).
		Str("state", string(state)).
		Int("records", len(records)).
		Bool("result", value).
		Msg("State evaluated")

	return StateResult{Value: value, Nodes: sortedNodes(nodes)}, nil
}

func (f *Facade) checkPolicy(key types.ResourceKey, records []types.Resource, policy Policy) error {
	if policy.Members != "" {
		supported := false
		for _, r := range records {
			switch res := r.(type) {
			case *types.Group:
				supported = true
			case *types.Clone:
				supported = supported || res.InstanceKind() == types.KindGroup
			}
		}
		if !supported {
			return &MembersQuantifierUnsupportedError{Key: key}
		}
	}

	if policy.Instances != "" {
		supported := false
		for _, r := range records {
			if r.Kind() == types.KindClone || r.Kind() == types.KindBundle ||
				f.idx.hasAncestor(r, types.KindClone, types.KindBundle) {
				supported = true
			}
		}
		if !supported {
			return &InstancesQuantifierUnsupportedError{Key: key}
		}
	}
	return nil
}

func (f *Facade) targetsClone(records []types.Resource) bool {
	for _, r := range records {
		if r.Kind() == types.KindClone || f.idx.hasAncestor(r, types.KindClone) {
			return true
		}
	}
	return false
}

func pick(requested, fallback Quantifier) Quantifier {
	if requested != "" {
		return requested
	}
	return fallback
}

// evaluator holds the settings of one state query while it recurses. Each
// step returns its value with the nodes backing it, empty when false.
type evaluator struct {
	idx       *index
	state     State
	check     func(*types.Primitive) bool
	summaries bool
	node      string
	members   Quantifier
	instances Quantifier
}

func (e *evaluator) eval(r types.Resource) (bool, map[string]struct{}) {
	switch res := r.(type) {
	case *types.Primitive:
		return e.primitive(res, e.idx.recordNodes(res))
	case *types.Group:
		return e.group(res)
	case *types.Clone:
		return e.clone(res)
	case *types.Bundle:
		return e.bundle(res)
	}
	return false, nil
}

func (e *evaluator) primitive(p *types.Primitive, nodes []string) (bool, map[string]struct{}) {
	if !e.check(p) {
		return false, nil
	}
	if e.node != "" {
		if !contains(nodes, e.node) {
			return false, nil
		}
		return true, map[string]struct{}{e.node: {}}
	}
	set := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		set[n] = struct{}{}
	}
	return true, set
}

func (e *evaluator) group(g *types.Group) (bool, map[string]struct{}) {
	if e.summaries {
		if v, ok := groupSummary(g, e.state); ok {
			return v, nil
		}
	}
	var red reduction
	for _, m := range g.Members {
		red.add(e.primitive(m, e.idx.recordNodes(m)))
	}
	return red.reduce(e.members)
}

func (e *evaluator) clone(c *types.Clone) (bool, map[string]struct{}) {
	if e.summaries {
		if v, ok := cloneSummary(c, e.state); ok {
			return v, nil
		}
	}
	var red reduction
	for _, inst := range c.Instances {
		if e.skipOrphan(inst) {
			continue
		}
		red.add(e.eval(inst))
	}
	return red.reduce(e.instances)
}

func (e *evaluator) bundle(b *types.Bundle) (bool, map[string]struct{}) {
	if e.summaries {
		if v, ok := bundleSummary(b, e.state); ok {
			return v, nil
		}
	}
	var red reduction
	for _, rep := range b.Replicas {
		eff := rep.Effective()
		if e.skipOrphan(eff) {
			continue
		}
		red.add(e.primitive(eff, rep.Container.Nodes))
	}
	return red.reduce(e.instances)
}

// reduction collects child results. Nodes of children that held are kept
// and reported only when the quantifier holds over all results.
type reduction struct {
	results []bool
	nodes   map[string]struct{}
}

func (r *reduction) add(value bool, nodes map[string]struct{}) {
	r.results = append(r.results, value)
	if !value {
		return
	}
	if r.nodes == nil {
		r.nodes = make(map[string]struct{}, len(nodes))
	}
	for n := range nodes {
		r.nodes[n] = struct{}{}
	}
}

func (r *reduction) reduce(q Quantifier) (bool, map[string]struct{}) {
	if !q.Reduce(r.results) {
		return false, nil
	}
	return true, r.nodes
}

// skipOrphan drops instances that are no longer configured. They still
// count when the orphaned state itself is queried.
func (e *evaluator) skipOrphan(r types.Resource) bool {
	if e.state == StateOrphaned {
		return false
	}
	switch res := r.(type) {
	case *types.Primitive:
		return res.Orphaned
	case *types.Group:
		return res.Orphaned()
	}
	return false
}

func primitiveCheck(state State) func(*types.Primitive) bool {
	role := func(r types.Role) func(*types.Primitive) bool {
		return func(p *types.Primitive) bool { return p.Role == r }
	}
	switch state {
	case StateStarted:
		return func(p *types.Primitive) bool { return p.Role.IsRunning() }
	case StateStopped:
		return role(types.RoleStopped)
	case StatePromoted:
		return role(types.RolePromoted)
	case StateUnpromoted:
		return role(types.RoleUnpromoted)
	case StateStarting:
		return role(types.RoleStarting)
	case StateStopping:
		return role(types.RoleStopping)
	case StateMigrating:
		return role(types.RoleMigrating)
	case StatePromoting:
		return role(types.RolePromoting)
	case StateDemoting:
		return role(types.RoleDemoting)
	case StateEnabled:
		return func(p *types.Primitive) bool { return !p.Disabled() }
	case StateDisabled:
		return func(p *types.Primitive) bool { return p.Disabled() }
	case StateManaged:
		return func(p *types.Primitive) bool { return p.Managed }
	case StateUnmanaged:
		return func(p *types.Primitive) bool { return !p.Managed }
	case StateMaintenance:
		return func(p *types.Primitive) bool { return p.Maintenance }
	case StateFailed:
		return func(p *types.Primitive) bool { return p.Failed }
	case StateActive:
		return func(p *types.Primitive) bool { return p.Active }
	case StateOrphaned:
		return func(p *types.Primitive) bool { return p.Orphaned }
	case StateBlocked:
		return func(p *types.Primitive) bool { return p.Blocked }
	case StateFailureIgnored:
		return func(p *types.Primitive) bool { return p.FailureIgnored }
	case StatePending:
		return func(p *types.Primitive) bool { return p.Role.IsTransitional() || p.Pending != "" }
	case StateLockedTo:
		return func(p *types.Primitive) bool { return p.LockedTo != "" }
	}
	return func(*types.Primitive) bool { return false }
}

func groupSummary(g *types.Group, state State) (bool, bool) {
	switch state {
	case StateMaintenance:
		return g.Maintenance, true
	case StateManaged:
		return g.Managed, true
	case StateUnmanaged:
		return !g.Managed, true
	case StateDisabled:
		return g.Disabled, true
	case StateEnabled:
		return !g.Disabled, true
	}
	return false, false
}

func cloneSummary(c *types.Clone, state State) (bool, bool) {
	switch state {
	case StateMaintenance:
		return c.Maintenance, true
	case StateManaged:
		return c.Managed, true
	case StateUnmanaged:
		return !c.Managed, true
	case StateDisabled:
		return c.Disabled, true
	case StateEnabled:
		return !c.Disabled, true
	case StateFailed:
		return c.Failed, true
	case StateFailureIgnored:
		return c.FailureIgnored, true
	}
	return false, false
}

func bundleSummary(b *types.Bundle, state State) (bool, bool) {
	switch state {
	case StateMaintenance:
		return b.Maintenance, true
	case StateManaged:
		return b.Managed, true
	case StateUnmanaged:
		return !b.Managed, true
	case StateFailed:
		return b.Failed, true
	}
	return false, false
}
