package query

import (
	"testing"

	"github.com/cuemby/resource-status/pkg/types"
	"github.com/stretchr/testify/require"
)

var testDefaults = Defaults{Members: QuantifierAll, Instances: QuantifierAny}

func key(id string) types.ResourceKey {
	return types.SplitResourceID(id)
}

func started(id string, nodes ...string) *types.Primitive {
	k := key(id)
	return &types.Primitive{
		ResourceID: k.ResourceID,
		InstanceID: k.InstanceID,
		Agent:      "ocf:pacemaker:Dummy",
		Role:       types.RoleStarted,
		Active:     true,
		Managed:    true,
		Nodes:      nodes,
	}
}

func stopped(id string) *types.Primitive {
	k := key(id)
	return &types.Primitive{
		ResourceID: k.ResourceID,
		InstanceID: k.InstanceID,
		Agent:      "ocf:pacemaker:Dummy",
		Role:       types.RoleStopped,
		Managed:    true,
	}
}

// clusterSnapshot has no bundles so clone state queries are allowed
func clusterSnapshot() *types.Snapshot {
	fence := started("fence-node1", "node2")
	fence.Agent = "stonith:fence_xvm"

	locked := started("app-svc:0", "node1")
	locked.LockedTo = "node1"

	pendingDB := started("db", "node2")
	pendingDB.Role = types.RoleUnpromoted
	pendingDB.Pending = "Monitoring"
	promotedDB := started("db", "node1")
	promotedDB.Role = types.RolePromoted

	orphan := started("ghost", "node1")
	orphan.Orphaned = true

	return &types.Snapshot{
		Nodes: []types.Node{{Name: "node1", Online: true}, {Name: "node2", Online: true}},
		Resources: []types.Resource{
			fence,
			&types.Group{
				ResourceID: "web",
				Managed:    true,
				Members: []*types.Primitive{
					started("web-ip", "node1"),
					started("web-fs", "node1"),
					stopped("web-server"),
				},
			},
			&types.Group{ResourceID: "empty-group", Managed: true},
			&types.Clone{
				ResourceID: "db-clone",
				Promotable: true,
				Managed:    true,
				Instances:  []types.Resource{promotedDB, pendingDB},
			},
			&types.Clone{
				ResourceID: "app-clone",
				Unique:     true,
				Managed:    true,
				Instances: []types.Resource{
					&types.Group{ResourceID: "app", InstanceID: "0", Managed: true, Members: []*types.Primitive{locked}},
					&types.Group{ResourceID: "app", InstanceID: "1", Managed: true, Members: []*types.Primitive{stopped("app-svc:1")}},
				},
			},
			&types.Clone{
				ResourceID: "uniq-clone",
				Unique:     true,
				Managed:    true,
				Instances: []types.Resource{
					started("uniq:0", "node1"),
					stopped("uniq:1"),
					started("uniq:2", "node2"),
				},
			},
			&types.Clone{
				ResourceID: "ghost-clone",
				Managed:    true,
				Instances:  []types.Resource{orphan},
			},
			&types.Clone{ResourceID: "empty-clone", Managed: true},
		},
	}
}

// bundleSnapshot contains a bundle whose member reports the remote node name
func bundleSnapshot() *types.Snapshot {
	member := started("httpd", "httpd-bundle-0")
	member.Agent = "ocf:heartbeat:apache"
	container := started("httpd-bundle-podman-0", "node1")
	container.Agent = "ocf:heartbeat:podman"
	remote := started("httpd-bundle-0", "node1")
	remote.Agent = "ocf:pacemaker:remote"
	idle := stopped("httpd-bundle-podman-1")
	idle.Agent = "ocf:heartbeat:podman"

	emptyContainer := started("empty-bundle-docker-0", "node2")

	// anonymous members share one key across replicas
	nginxUp := started("nginx", "web-bundle-0")
	nginxDown := stopped("nginx")
	webUp := started("web-bundle-docker-0", "node1")
	webIdle := started("web-bundle-docker-1", "node2")

	return &types.Snapshot{
		Resources: []types.Resource{
			started("vip", "node1"),
			&types.Bundle{
				ResourceID:    "httpd-bundle",
				ContainerType: "podman",
				Managed:       true,
				Replicas: []types.BundleReplica{
					{ReplicaID: "0", Container: container, Remote: remote, Member: member},
					{ReplicaID: "1", Container: idle},
				},
			},
			&types.Bundle{
				ResourceID:    "empty-bundle",
				ContainerType: "docker",
				Managed:       true,
				Replicas:      []types.BundleReplica{{ReplicaID: "0", Container: emptyContainer}},
			},
			&types.Bundle{
				ResourceID:    "web-bundle",
				ContainerType: "docker",
				Managed:       true,
				Replicas: []types.BundleReplica{
					{ReplicaID: "0", Container: webUp, Member: nginxUp},
					{ReplicaID: "1", Container: webIdle, Member: nginxDown},
				},
			},
			&types.Clone{
				ResourceID: "ping-clone",
				Managed:    true,
				Instances:  []types.Resource{started("ping", "node1")},
			},
		},
	}
}

func newFacade(t *testing.T, snap *types.Snapshot) *Facade {
	t.Helper()
	f, err := New(snap, testDefaults)
	require.NoError(t, err)
	return f
}
