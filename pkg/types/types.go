package types

import (
	"fmt"
	"strings"
)

// ResourceKind identifies which variant of Resource a record is
type ResourceKind string

const (
	KindPrimitive ResourceKind = "primitive"
	KindGroup     ResourceKind = "group"
	KindClone     ResourceKind = "clone"
	KindBundle    ResourceKind = "bundle"
)

// Kinds lists every resource kind in a stable order
var Kinds = []ResourceKind{KindPrimitive, KindGroup, KindClone, KindBundle}

// ParseKind converts a user supplied kind name
func ParseKind(s string) (ResourceKind, error) {
	for _, k := range Kinds {
		if strings.EqualFold(s, string(k)) {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown resource kind %q", s)
}

// ResourceKey addresses a single status record. InstanceID is empty for
// ordinary resources and anonymous clone instances.
type ResourceKey struct {
	ResourceID string
	InstanceID string
}

func (k ResourceKey) String() string {
	if k.InstanceID == "" {
		return k.ResourceID
	}
	return k.ResourceID + ":" + k.InstanceID
}

// SplitResourceID splits "id:instance" once on the rightmost colon
func SplitResourceID(s string) ResourceKey {
	i := strings.LastIndex(s, ":")
	if i < 0 {
		return ResourceKey{ResourceID: s}
	}
	return ResourceKey{ResourceID: s[:i], InstanceID: s[i+1:]}
}

// Resource is implemented by *Primitive, *Group, *Clone and *Bundle only.
type Resource interface {
	Key() ResourceKey
	Kind() ResourceKind
	isResource()
}

// Role is the pacemaker role of a primitive
type Role string

const (
	RoleUnknown    Role = "Unknown"
	RoleStopped    Role = "Stopped"
	RoleStarted    Role = "Started"
	RolePromoted   Role = "Promoted"
	RoleUnpromoted Role = "Unpromoted"

	// Transitional roles reported while an action is in flight
	RoleStarting  Role = "Starting"
	RoleStopping  Role = "Stopping"
	RoleMigrating Role = "Migrating"
	RolePromoting Role = "Promoting"
	RoleDemoting  Role = "Demoting"
)

var knownRoles = []Role{
	RoleUnknown, RoleStopped, RoleStarted, RolePromoted, RoleUnpromoted,
	RoleStarting, RoleStopping, RoleMigrating, RolePromoting, RoleDemoting,
}

// ParseRole normalises a role string, including the legacy Master/Slave names.
// Empty input yields an empty role.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(s) {
	case "":
		return "", nil
	case "master":
		return RolePromoted, nil
	case "slave":
		return RoleUnpromoted, nil
	}
	for _, r := range knownRoles {
		if strings.EqualFold(s, string(r)) {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// IsTransitional reports whether the role describes an action in progress
func (r Role) IsTransitional() bool {
	switch r {
	case RoleStarting, RoleStopping, RoleMigrating, RolePromoting, RoleDemoting:
		return true
	}
	return false
}

// IsRunning reports whether the role means the resource is up
func (r Role) IsRunning() bool {
	return r == RoleStarted || r == RolePromoted || r == RoleUnpromoted
}

// Primitive is a single agent-backed resource
type Primitive struct {
	ResourceID     string
	InstanceID     string
	Agent          string // class[:provider]:type, e.g. ocf:heartbeat:IPaddr2
	Description    string
	Role           Role
	TargetRole     Role // empty when not configured
	Active         bool
	Orphaned       bool
	Blocked        bool
	Maintenance    bool
	Failed         bool
	Managed        bool
	FailureIgnored bool
	Nodes          []string
	Pending        string // in-flight operation, e.g. "Monitoring"
	LockedTo       string // node the resource is shutdown-locked to
}

func (p *Primitive) Key() ResourceKey {
	return ResourceKey{ResourceID: p.ResourceID, InstanceID: p.InstanceID}
}

func (p *Primitive) Kind() ResourceKind { return KindPrimitive }
func (p *Primitive) isResource()        {}

// Disabled reports whether the configured target role stops the resource
func (p *Primitive) Disabled() bool {
	return p.TargetRole == RoleStopped
}

// Group is an ordered set of primitives started in sequence
type Group struct {
	ResourceID  string
	InstanceID  string
	Description string
	Maintenance bool
	Managed     bool
	Disabled    bool
	Members     []*Primitive
}

func (g *Group) Key() ResourceKey {
	return ResourceKey{ResourceID: g.ResourceID, InstanceID: g.InstanceID}
}

func (g *Group) Kind() ResourceKind { return KindGroup }
func (g *Group) isResource()        {}

// Orphaned reports whether every member of a group instance is orphaned
func (g *Group) Orphaned() bool {
	if len(g.Members) == 0 {
		return false
	}
	for _, m := range g.Members {
		if !m.Orphaned {
			return false
		}
	}
	return true
}

// Clone replicates a primitive or a group
type Clone struct {
	ResourceID     string
	Description    string
	Promotable     bool
	Unique         bool
	Maintenance    bool
	Managed        bool
	Disabled       bool
	Failed         bool
	FailureIgnored bool
	TargetRole     Role
	// Instances are either all *Primitive or all *Group
	Instances []Resource
}

func (c *Clone) Key() ResourceKey   { return ResourceKey{ResourceID: c.ResourceID} }
func (c *Clone) Kind() ResourceKind { return KindClone }
func (c *Clone) isResource()        {}

// InstanceKind returns the kind shared by all instances, or "" for an empty clone
func (c *Clone) InstanceKind() ResourceKind {
	if len(c.Instances) == 0 {
		return ""
	}
	return c.Instances[0].Kind()
}

// Bundle runs a resource inside container replicas
type Bundle struct {
	ResourceID    string
	Description   string
	ContainerType string // docker, podman, rkt
	Image         string
	Unique        bool
	Maintenance   bool
	Managed       bool
	Failed        bool
	Replicas      []BundleReplica
}

func (b *Bundle) Key() ResourceKey   { return ResourceKey{ResourceID: b.ResourceID} }
func (b *Bundle) Kind() ResourceKind { return KindBundle }
func (b *Bundle) isResource()        {}

// BundleReplica is one container of a bundle. Container is always set.
type BundleReplica struct {
	ReplicaID string
	Container *Primitive
	IPAddress *Primitive
	Remote    *Primitive
	Member    *Primitive
}

// Effective returns the resource that represents the replica's state
func (r BundleReplica) Effective() *Primitive {
	if r.Member != nil {
		return r.Member
	}
	return r.Container
}

// Node is a cluster node as reported in the status snapshot
type Node struct {
	Name        string
	ID          string
	Type        string // member, remote, ping
	Online      bool
	Standby     bool
	Maintenance bool
}

// Snapshot is an immutable point-in-time view of cluster status. Resources
// holds top-level resources only.
type Snapshot struct {
	Resources []Resource
	Nodes     []Node
}

// HasNode reports whether the snapshot knows a node by name
func (s *Snapshot) HasNode(name string) bool {
	for _, n := range s.Nodes {
		if n.Name == name {
			return true
		}
	}
	return false
}

// CountByKind counts top-level resources per kind
func (s *Snapshot) CountByKind() map[ResourceKind]int {
	counts := make(map[ResourceKind]int, len(Kinds))
	for _, k := range Kinds {
		counts[k] = 0
	}
	for _, r := range s.Resources {
		counts[r.Kind()]++
	}
	return counts
}

// Validate checks the structural invariants loaders must guarantee
func (s *Snapshot) Validate() error {
	for _, r := range s.Resources {
		if err := validateResource(r); err != nil {
			return err
		}
	}
	return nil
}

func validateResource(r Resource) error {
	if r == nil {
		return fmt.Errorf("nil resource in snapshot")
	}
	if r.Key().ResourceID == "" {
		return fmt.Errorf("%s without id", r.Kind())
	}
	switch res := r.(type) {
	case *Primitive:
		return nil
	case *Group:
		for _, m := range res.Members {
			if m == nil || m.ResourceID == "" {
				return fmt.Errorf("group %s: member without id", res.ResourceID)
			}
		}
	case *Clone:
		kind := res.InstanceKind()
		for _, inst := range res.Instances {
			if inst == nil {
				return fmt.Errorf("clone %s: nil instance", res.ResourceID)
			}
			if inst.Kind() != kind {
				return fmt.Errorf("clone %s: mixed instance kinds %s and %s", res.ResourceID, kind, inst.Kind())
			}
			if kind != KindPrimitive && kind != KindGroup {
				return fmt.Errorf("clone %s: unsupported instance kind %s", res.ResourceID, kind)
			}
			if err := validateResource(inst); err != nil {
				return fmt.Errorf("clone %s: %w", res.ResourceID, err)
			}
		}
	case *Bundle:
		for _, rep := range res.Replicas {
			if rep.Container == nil {
				return fmt.Errorf("bundle %s: replica %s has no container", res.ResourceID, rep.ReplicaID)
			}
		}
	default:
		return fmt.Errorf("unsupported resource type %T", r)
	}
	return nil
}
