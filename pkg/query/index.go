package query

import (
	"github.com/cuemby/resource-status/pkg/types"
)

// index holds the lookup tables built once over a snapshot
type index struct {
	// first record per composite key
	byKey map[types.ResourceKey]types.Resource
	// every record sharing a resource id, in snapshot order
	byID map[string][]types.Resource
	// child key -> parent record
	parents map[types.ResourceKey]types.Resource
	// bundle member key -> nodes of every container hosting that key
	memberNodes map[types.ResourceKey][]string
	// bundle member record -> nodes of its own replica container
	hostNodes map[*types.Primitive][]string
	hasBundle bool
}

func buildIndex(snapshot *types.Snapshot) *index {
	idx := &index{
		byKey:       make(map[types.ResourceKey]types.Resource),
		byID:        make(map[string][]types.Resource),
		parents:     make(map[types.ResourceKey]types.Resource),
		memberNodes: make(map[types.ResourceKey][]string),
		hostNodes:   make(map[*types.Primitive][]string),
	}

	for _, r := range snapshot.Resources {
		idx.add(r, nil)

		switch res := r.(type) {
		case *types.Primitive:
		case *types.Group:
			for _, m := range res.Members {
				idx.add(m, res)
			}
		case *types.Clone:
			for _, inst := range res.Instances {
				idx.add(inst, res)
				if g, ok := inst.(*types.Group); ok {
					for _, m := range g.Members {
						idx.add(m, g)
					}
				}
			}
		case *types.Bundle:
			idx.hasBundle = true
			for _, rep := range res.Replicas {
				if rep.Member == nil {
					continue
				}
				idx.add(rep.Member, res)
				key := rep.Member.Key()
				idx.memberNodes[key] = mergeNodes(idx.memberNodes[key], rep.Container.Nodes)
				idx.hostNodes[rep.Member] = rep.Container.Nodes
			}
		}
	}

	return idx
}

func (idx *index) add(r types.Resource, parent types.Resource) {
	key := r.Key()
	if _, exists := idx.byKey[key]; !exists {
		idx.byKey[key] = r
	}
	idx.byID[key.ResourceID] = append(idx.byID[key.ResourceID], r)
	if parent != nil {
		if _, exists := idx.parents[key]; !exists {
			idx.parents[key] = parent
		}
	}
}

// lookup returns every record matching the requested identity. Without an
// instance id all records sharing the resource id match.
func (idx *index) lookup(key types.ResourceKey) []types.Resource {
	if key.InstanceID != "" {
		if r, ok := idx.byKey[key]; ok {
			return []types.Resource{r}
		}
		return nil
	}
	return idx.byID[key.ResourceID]
}

func (idx *index) parent(r types.Resource) types.Resource {
	return idx.parents[r.Key()]
}

// hasAncestor walks the parent chain looking for one of the given kinds
func (idx *index) hasAncestor(r types.Resource, kinds ...types.ResourceKind) bool {
	for p := idx.parent(r); p != nil; p = idx.parent(p) {
		for _, k := range kinds {
			if p.Kind() == k {
				return true
			}
		}
	}
	return false
}

// recordNodes returns where one primitive record physically runs. A bundle
// member reports the host of its own replica container.
func (idx *index) recordNodes(p *types.Primitive) []string {
	if nodes, ok := idx.hostNodes[p]; ok {
		return nodes
	}
	return p.Nodes
}

// primitiveNodes returns where a primitive id runs. Anonymous bundle members
// share an id, so they report the hosts of all their containers.
func (idx *index) primitiveNodes(p *types.Primitive) []string {
	if nodes, ok := idx.memberNodes[p.Key()]; ok {
		return nodes
	}
	return p.Nodes
}

func mergeNodes(dst []string, src []string) []string {
	for _, n := range src {
		if !contains(dst, n) {
			dst = append(dst, n)
		}
	}
	return dst
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
