package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cuemby/resource-status/pkg/log"
	"github.com/cuemby/resource-status/pkg/types"
	"github.com/rs/zerolog"
)

// Facade answers structured questions about one status snapshot
type Facade struct {
	snapshot *types.Snapshot
	idx      *index
	defaults Defaults
	logger   zerolog.Logger
}

// New indexes the snapshot. Defaults supplies the quantifiers used when a
// state query does not request its own.
func New(snapshot *types.Snapshot, defaults Defaults) (*Facade, error) {
	if snapshot == nil {
		return nil, fmt.Errorf("snapshot is required")
	}
	if err := defaults.Validate(); err != nil {
		return nil, err
	}

	f := &Facade{
		snapshot: snapshot,
		idx:      buildIndex(snapshot),
		defaults: defaults,
		logger:   log.WithComponent("query"),
	}

	f.logger.Debug().
		Int("top_level", len(snapshot.Resources)).
		Int("records", len(f.idx.byKey)).
		Int("children", len(f.idx.parents)).
		Bool("bundles", f.idx.hasBundle).
		Msg("Snapshot indexed")

	return f, nil
}

// Snapshot returns the snapshot the facade was built from
func (f *Facade) Snapshot() *types.Snapshot {
	return f.snapshot
}

func (f *Facade) resolve(key types.ResourceKey) ([]types.Resource, error) {
	records := f.idx.lookup(key)
	if len(records) == 0 {
		return nil, &NonExistentError{Key: key}
	}
	return records, nil
}

// resolveOne returns the representative record: the first one recorded
// under the requested identity
func (f *Facade) resolveOne(key types.ResourceKey) (types.Resource, error) {
	records, err := f.resolve(key)
	if err != nil {
		return nil, err
	}
	return records[0], nil
}

// Exists reports whether the identity is present in the snapshot
func (f *Facade) Exists(key types.ResourceKey) bool {
	return len(f.idx.lookup(key)) > 0
}

// Type returns the kind of the resolved resource
func (f *Facade) Type(key types.ResourceKey) (types.ResourceKind, error) {
	r, err := f.resolveOne(key)
	if err != nil {
		return "", err
	}
	return r.Kind(), nil
}

// IsUnique reports whether a clone or bundle has distinguishable instances
func (f *Facade) IsUnique(key types.ResourceKey) (bool, error) {
	r, err := f.resolveOne(key)
	if err != nil {
		return false, err
	}
	switch res := r.(type) {
	case *types.Clone:
		return res.Unique, nil
	case *types.Bundle:
		return res.Unique, nil
	}
	return false, unexpectedType(key, r, types.KindClone, types.KindBundle)
}

// IsPromotable reports whether a clone or bundle runs promotable instances.
// Bundles carry no promotable flag, so a bundle counts as promotable when
// any replica member holds a promoted or unpromoted role.
func (f *Facade) IsPromotable(key types.ResourceKey) (bool, error) {
	r, err := f.resolveOne(key)
	if err != nil {
		return false, err
	}
	switch res := r.(type) {
	case *types.Clone:
		return res.Promotable, nil
	case *types.Bundle:
		for _, rep := range res.Replicas {
			if rep.Member == nil {
				continue
			}
			if rep.Member.Role == types.RolePromoted || rep.Member.Role == types.RoleUnpromoted {
				return true, nil
			}
		}
		return false, nil
	}
	return false, unexpectedType(key, r, types.KindClone, types.KindBundle)
}

// IsStonith reports whether the resource is a fencing device
func (f *Facade) IsStonith(key types.ResourceKey) (bool, error) {
	r, err := f.resolveOne(key)
	if err != nil {
		return false, err
	}
	p, ok := r.(*types.Primitive)
	return ok && strings.HasPrefix(p.Agent, "stonith:"), nil
}

// ParentGroupID returns the group containing a primitive
func (f *Facade) ParentGroupID(key types.ResourceKey) (types.ResourceKey, bool, error) {
	return f.parentOfKind(key, types.KindGroup, types.KindPrimitive)
}

// ParentCloneID returns the clone containing a primitive or group. A
// primitive inside a cloned group reports the clone.
func (f *Facade) ParentCloneID(key types.ResourceKey) (types.ResourceKey, bool, error) {
	return f.parentOfKind(key, types.KindClone, types.KindPrimitive, types.KindGroup)
}

// ParentBundleID returns the bundle containing a primitive
func (f *Facade) ParentBundleID(key types.ResourceKey) (types.ResourceKey, bool, error) {
	return f.parentOfKind(key, types.KindBundle, types.KindPrimitive)
}

func (f *Facade) parentOfKind(key types.ResourceKey, parentKind types.ResourceKind, childKinds ...types.ResourceKind) (types.ResourceKey, bool, error) {
	r, err := f.resolveOne(key)
	if err != nil {
		return types.ResourceKey{}, false, err
	}
	if !kindIn(r.Kind(), childKinds) {
		return types.ResourceKey{}, false, unexpectedType(key, r, childKinds...)
	}
	p := f.idx.parent(r)
	// members of a cloned group belong to the clone as well
	for p != nil && p.Kind() != parentKind && p.Kind() == types.KindGroup {
		p = f.idx.parent(p)
	}
	if p == nil || p.Kind() != parentKind {
		return types.ResourceKey{}, false, nil
	}
	// cloned groups carry an instance suffix, the answer is the bare id
	return types.ResourceKey{ResourceID: p.Key().ResourceID}, true, nil
}

// Members returns the child identities of a group, clone or bundle in order.
// Anonymous clone instances share one identity and are listed once.
func (f *Facade) Members(key types.ResourceKey) ([]types.ResourceKey, error) {
	r, err := f.resolveOne(key)
	if err != nil {
		return nil, err
	}

	var children []types.Resource
	switch res := r.(type) {
	case *types.Primitive:
		return nil, unexpectedType(key, r, types.KindGroup, types.KindClone, types.KindBundle)
	case *types.Group:
		for _, m := range res.Members {
			children = append(children, m)
		}
	case *types.Clone:
		children = res.Instances
	case *types.Bundle:
		for _, rep := range res.Replicas {
			if rep.Member != nil {
				children = append(children, rep.Member)
			}
		}
	}

	keys := make([]types.ResourceKey, 0, len(children))
	seen := make(map[types.ResourceKey]bool, len(children))
	for _, c := range children {
		k := c.Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		keys = append(keys, k)
	}
	return keys, nil
}

// Nodes returns the sorted set of nodes the resource runs on
func (f *Facade) Nodes(key types.ResourceKey) ([]string, error) {
	records, err := f.resolve(key)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{})
	for _, r := range records {
		f.collectNodes(r, set)
	}
	return sortedNodes(set), nil
}

func (f *Facade) collectNodes(r types.Resource, set map[string]struct{}) {
	switch res := r.(type) {
	case *types.Primitive:
		for _, n := range f.idx.primitiveNodes(res) {
			set[n] = struct{}{}
		}
	case *types.Group:
		for _, m := range res.Members {
			f.collectNodes(m, set)
		}
	case *types.Clone:
		for _, inst := range res.Instances {
			f.collectNodes(inst, set)
		}
	case *types.Bundle:
		for _, rep := range res.Replicas {
			for _, n := range rep.Container.Nodes {
				set[n] = struct{}{}
			}
		}
	}
}

// IndexInGroup returns the zero-based position of a primitive in its group
func (f *Facade) IndexInGroup(key types.ResourceKey) (int, error) {
	if _, ok, err := f.ParentGroupID(key); err != nil {
		return 0, err
	} else if !ok {
		return 0, &NotInGroupError{Key: key}
	}

	r, _ := f.resolveOne(key)
	g := f.idx.parent(r).(*types.Group)
	for i, m := range g.Members {
		if m.Key() == r.Key() {
			return i, nil
		}
	}
	return 0, &NotInGroupError{Key: key}
}

func kindIn(k types.ResourceKind, kinds []types.ResourceKind) bool {
	for _, candidate := range kinds {
		if k == candidate {
			return true
		}
	}
	return false
}

func unexpectedType(key types.ResourceKey, r types.Resource, expected ...types.ResourceKind) error {
	return &UnexpectedTypeError{Key: key, Actual: r.Kind(), Expected: expected}
}

func sortedNodes(set map[string]struct{}) []string {
	nodes := make([]string, 0, len(set))
	for n := range set {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)
	return nodes
}
