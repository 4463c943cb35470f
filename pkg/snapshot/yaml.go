package snapshot

import (
	"fmt"

	"github.com/cuemby/resource-status/pkg/types"
	"gopkg.in/yaml.v3"
)

// yamlDocument is the hand-written or cached status format:
//
//	nodes:
//	  - name: node1
//	    online: true
//	resources:
//	  - kind: group
//	    id: web
//	    members:
//	      - id: web-ip
//	        agent: ocf:heartbeat:IPaddr2
//	        role: Started
//	        nodes: [node1]
type yamlDocument struct {
	Nodes     []yamlNode     `yaml:"nodes"`
	Resources []yamlResource `yaml:"resources"`
}

type yamlNode struct {
	Name        string `yaml:"name"`
	ID          string `yaml:"id"`
	Type        string `yaml:"type"`
	Online      bool   `yaml:"online"`
	Standby     bool   `yaml:"standby"`
	Maintenance bool   `yaml:"maintenance"`
}

// yamlResource covers every kind; fields not used by a kind are ignored
type yamlResource struct {
	Kind        string `yaml:"kind"`
	ID          string `yaml:"id"`
	Description string `yaml:"description"`
	Maintenance bool   `yaml:"maintenance"`
	Managed     *bool  `yaml:"managed"`
	Disabled    bool   `yaml:"disabled"`
	Failed      bool   `yaml:"failed"`
	TargetRole  string `yaml:"target_role"`

	// primitive
	Agent          string   `yaml:"agent"`
	Role           string   `yaml:"role"`
	Active         bool     `yaml:"active"`
	Orphaned       bool     `yaml:"orphaned"`
	Blocked        bool     `yaml:"blocked"`
	FailureIgnored bool     `yaml:"failure_ignored"`
	Nodes          []string `yaml:"nodes"`
	Pending        string   `yaml:"pending"`
	LockedTo       string   `yaml:"locked_to"`

	// group
	Members []yamlResource `yaml:"members"`

	// clone
	Promotable bool           `yaml:"promotable"`
	Unique     bool           `yaml:"unique"`
	Instances  []yamlResource `yaml:"instances"`

	// bundle
	Type     string        `yaml:"type"`
	Image    string        `yaml:"image"`
	Replicas []yamlReplica `yaml:"replicas"`
}

type yamlReplica struct {
	ID        string        `yaml:"id"`
	Container *yamlResource `yaml:"container"`
	IPAddress *yamlResource `yaml:"ip_address"`
	Remote    *yamlResource `yaml:"remote"`
	Member    *yamlResource `yaml:"member"`
}

// ParseYAML converts a YAML status document into a snapshot
func ParseYAML(data []byte) (*types.Snapshot, error) {
	var doc yamlDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse status yaml: %w", err)
	}

	snapshot := &types.Snapshot{}
	for _, n := range doc.Nodes {
		snapshot.Nodes = append(snapshot.Nodes, types.Node(n))
	}
	for i := range doc.Resources {
		res, err := doc.Resources[i].toModel()
		if err != nil {
			return nil, err
		}
		snapshot.Resources = append(snapshot.Resources, res)
	}

	if err := snapshot.Validate(); err != nil {
		return nil, fmt.Errorf("invalid status: %w", err)
	}
	return snapshot, nil
}

func (y *yamlResource) managed() bool {
	return y.Managed == nil || *y.Managed
}

func (y *yamlResource) toModel() (types.Resource, error) {
	switch y.Kind {
	case "", string(types.KindPrimitive):
		return y.toPrimitive()
	case string(types.KindGroup):
		return y.toGroup()
	case string(types.KindClone):
		return y.toClone()
	case string(types.KindBundle):
		return y.toBundle()
	}
	return nil, fmt.Errorf("resource %s: unknown kind %q", y.ID, y.Kind)
}

func (y *yamlResource) toPrimitive() (*types.Primitive, error) {
	role, err := types.ParseRole(y.Role)
	if err != nil {
		return nil, fmt.Errorf("resource %s: %w", y.ID, err)
	}
	if role == "" {
		role = types.RoleStopped
	}
	targetRole, err := types.ParseRole(y.TargetRole)
	if err != nil {
		return nil, fmt.Errorf("resource %s: target %w", y.ID, err)
	}

	key := types.SplitResourceID(y.ID)
	return &types.Primitive{
		ResourceID:     key.ResourceID,
		InstanceID:     key.InstanceID,
		Agent:          y.Agent,
		Description:    y.Description,
		Role:           role,
		TargetRole:     targetRole,
		Active:         y.Active,
		Orphaned:       y.Orphaned,
		Blocked:        y.Blocked,
		Maintenance:    y.Maintenance,
		Failed:         y.Failed,
		Managed:        y.managed(),
		FailureIgnored: y.FailureIgnored,
		Nodes:          y.Nodes,
		Pending:        y.Pending,
		LockedTo:       y.LockedTo,
	}, nil
}

func (y *yamlResource) toGroup() (*types.Group, error) {
	key := types.SplitResourceID(y.ID)
	g := &types.Group{
		ResourceID:  key.ResourceID,
		InstanceID:  key.InstanceID,
		Description: y.Description,
		Maintenance: y.Maintenance,
		Managed:     y.managed(),
		Disabled:    y.Disabled,
	}
	for i := range y.Members {
		m, err := y.Members[i].toPrimitive()
		if err != nil {
			return nil, fmt.Errorf("group %s: %w", y.ID, err)
		}
		g.Members = append(g.Members, m)
	}
	return g, nil
}

func (y *yamlResource) toClone() (*types.Clone, error) {
	targetRole, err := types.ParseRole(y.TargetRole)
	if err != nil {
		return nil, fmt.Errorf("clone %s: target %w", y.ID, err)
	}
	c := &types.Clone{
		ResourceID:     y.ID,
		Description:    y.Description,
		Promotable:     y.Promotable,
		Unique:         y.Unique,
		Maintenance:    y.Maintenance,
		Managed:        y.managed(),
		Disabled:       y.Disabled,
		Failed:         y.Failed,
		FailureIgnored: y.FailureIgnored,
		TargetRole:     targetRole,
	}
	for i := range y.Instances {
		inst, err := y.Instances[i].toModel()
		if err != nil {
			return nil, fmt.Errorf("clone %s: %w", y.ID, err)
		}
		c.Instances = append(c.Instances, inst)
	}
	return c, nil
}

func (y *yamlResource) toBundle() (*types.Bundle, error) {
	b := &types.Bundle{
		ResourceID:    y.ID,
		Description:   y.Description,
		ContainerType: y.Type,
		Image:         y.Image,
		Unique:        y.Unique,
		Maintenance:   y.Maintenance,
		Managed:       y.managed(),
		Failed:        y.Failed,
	}
	for _, yr := range y.Replicas {
		rep := types.BundleReplica{ReplicaID: yr.ID}
		if yr.Container == nil {
			return nil, fmt.Errorf("bundle %s replica %s: no container resource", y.ID, yr.ID)
		}
		slots := []struct {
			src *yamlResource
			dst **types.Primitive
		}{
			{yr.Container, &rep.Container},
			{yr.IPAddress, &rep.IPAddress},
			{yr.Remote, &rep.Remote},
			{yr.Member, &rep.Member},
		}
		for _, s := range slots {
			if s.src == nil {
				continue
			}
			p, err := s.src.toPrimitive()
			if err != nil {
				return nil, fmt.Errorf("bundle %s replica %s: %w", y.ID, yr.ID, err)
			}
			*s.dst = p
		}
		b.Replicas = append(b.Replicas, rep)
	}
	return b, nil
}
