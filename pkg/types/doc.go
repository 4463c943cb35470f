/*
Package types defines the cluster status model queried by resource-status.

A status snapshot is a point-in-time view of the resources a pacemaker
cluster manages. This package models it as a closed set of four record kinds,
all implementing the Resource interface:

	┌──────────────────────── Snapshot ────────────────────────┐
	│                                                            │
	│  Primitive    one agent-backed resource                    │
	│  Group        ordered list of Primitives                   │
	│  Clone        instances: all Primitive or all Group        │
	│  Bundle       replicas: container + optional member,       │
	│               remote connection and IP address             │
	│                                                            │
	│  Nodes        cluster nodes (name, online, standby, ...)   │
	└────────────────────────────────────────────────────────────┘

Only the four types in this package implement Resource, so a type switch
over *Primitive, *Group, *Clone and *Bundle is exhaustive.

# Identity

Records are addressed by ResourceKey, the pair of resource id and instance
id. The instance id is empty for ordinary resources and anonymous clone
instances. Unique clone instances share a resource id and differ only in the
instance id, so consumers must never key on the resource id alone:

	types.SplitResourceID("dummy:1")  // {ResourceID: "dummy", InstanceID: "1"}
	types.SplitResourceID("dummy")    // {ResourceID: "dummy"}

# Invariants

  - Group member order is significant and defines the position in the group.
  - Clone instances are homogeneous (Snapshot.Validate enforces this).
  - A bundle replica always has a container; member, remote and IP address
    may each be absent.

Snapshots are built once by a loader (see package snapshot) and never
mutated afterwards.
*/
package types
