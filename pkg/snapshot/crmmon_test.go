package snapshot

import (
	"os"
	"strings"
	"testing"

	"github.com/cuemby/resource-status/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFixture(t *testing.T) *types.Snapshot {
	t.Helper()
	f, err := os.Open("testdata/crm_mon.xml")
	require.NoError(t, err)
	defer f.Close()

	snap, err := ParseCrmMonXML(f)
	require.NoError(t, err)
	return snap
}

func TestParseCrmMonXML_Nodes(t *testing.T) {
	snap := loadFixture(t)

	require.Len(t, snap.Nodes, 2)
	assert.Equal(t, types.Node{Name: "node1", ID: "1", Type: "member", Online: true}, snap.Nodes[0])
	assert.True(t, snap.Nodes[1].Standby)
}

func TestParseCrmMonXML_DocumentOrder(t *testing.T) {
	snap := loadFixture(t)

	var got []string
	for _, r := range snap.Resources {
		got = append(got, string(r.Kind())+"/"+r.Key().String())
	}
	assert.Equal(t, []string{
		"primitive/fence-node1",
		"group/web",
		"clone/db-clone",
		"clone/app-clone",
		"bundle/httpd-bundle",
	}, got)
}

func TestParseCrmMonXML_Primitive(t *testing.T) {
	snap := loadFixture(t)

	fence, ok := snap.Resources[0].(*types.Primitive)
	require.True(t, ok)
	assert.Equal(t, "stonith:fence_xvm", fence.Agent)
	assert.Equal(t, types.RoleStarted, fence.Role)
	assert.True(t, fence.Active)
	assert.True(t, fence.Managed)
	assert.Equal(t, []string{"node2"}, fence.Nodes)
}

func TestParseCrmMonXML_Group(t *testing.T) {
	snap := loadFixture(t)

	web, ok := snap.Resources[1].(*types.Group)
	require.True(t, ok)
	require.Len(t, web.Members, 2)
	assert.Equal(t, "web-ip", web.Members[0].ResourceID)
	assert.Equal(t, "web-server", web.Members[1].ResourceID)
	assert.Equal(t, types.RoleStopped, web.Members[1].TargetRole)
	assert.True(t, web.Members[1].Disabled())
	assert.Empty(t, web.Members[1].Nodes)
}

func TestParseCrmMonXML_Clones(t *testing.T) {
	snap := loadFixture(t)

	db, ok := snap.Resources[2].(*types.Clone)
	require.True(t, ok)
	assert.True(t, db.Promotable)
	assert.False(t, db.Unique)
	require.Len(t, db.Instances, 2)
	assert.Equal(t, types.RolePromoted, db.Instances[0].(*types.Primitive).Role)
	assert.Equal(t, types.RoleUnpromoted, db.Instances[1].(*types.Primitive).Role)
	assert.Equal(t, "Monitoring", db.Instances[1].(*types.Primitive).Pending)

	app, ok := snap.Resources[3].(*types.Clone)
	require.True(t, ok)
	assert.Equal(t, types.KindGroup, app.InstanceKind())
	g := app.Instances[1].(*types.Group)
	assert.Equal(t, types.ResourceKey{ResourceID: "app", InstanceID: "1"}, g.Key())
	assert.Equal(t, types.ResourceKey{ResourceID: "app-svc", InstanceID: "1"}, g.Members[0].Key())
	assert.Equal(t, "node1", app.Instances[0].(*types.Group).Members[0].LockedTo)
}

func TestParseCrmMonXML_Bundle(t *testing.T) {
	snap := loadFixture(t)

	b, ok := snap.Resources[4].(*types.Bundle)
	require.True(t, ok)
	assert.Equal(t, "podman", b.ContainerType)
	assert.Equal(t, "localhost/httpd:latest", b.Image)
	require.Len(t, b.Replicas, 2)

	r0 := b.Replicas[0]
	assert.Equal(t, "httpd-bundle-podman-0", r0.Container.ResourceID)
	assert.Equal(t, "httpd-bundle-0", r0.Remote.ResourceID)
	assert.Equal(t, "httpd-bundle-ip-192.168.122.131", r0.IPAddress.ResourceID)
	assert.Equal(t, "httpd", r0.Member.ResourceID)
	assert.Equal(t, []string{"httpd-bundle-0"}, r0.Member.Nodes)

	r1 := b.Replicas[1]
	assert.Nil(t, r1.Member)
	assert.Nil(t, r1.Remote)
	assert.Same(t, r1.Container, r1.Effective())
}

func TestParseCrmMonXML_Errors(t *testing.T) {
	tests := []struct {
		name string
		xml  string
	}{
		{
			name: "malformed",
			xml:  `<pacemaker-result><resources>`,
		},
		{
			name: "unknown role",
			xml:  `<pacemaker-result><resources><resource id="a" role="Dancing"/></resources></pacemaker-result>`,
		},
		{
			name: "mixed clone",
			xml: `<pacemaker-result><resources><clone id="c">
				<resource id="a" role="Started"/><group id="g"/>
			</clone></resources></pacemaker-result>`,
		},
		{
			name: "replica without container",
			xml: `<pacemaker-result><resources><bundle id="b" type="docker">
				<replica id="0"><resource id="m" resource_agent="ocf:pacemaker:Dummy" role="Started"/></replica>
			</bundle></resources></pacemaker-result>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCrmMonXML(strings.NewReader(tt.xml))
			assert.Error(t, err)
		})
	}
}

func TestParseCrmMonXML_LegacyRoot(t *testing.T) {
	doc := `<crm_mon version="2.0.5">
  <nodes><node name="n1" online="true"/></nodes>
  <resources>
    <resource id="a" resource_agent="ocf:pacemaker:Dummy" role="Started" managed="true"/>
  </resources>
</crm_mon>`

	snap, err := ParseCrmMonXML(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, snap.Resources, 1)
	assert.Equal(t, "n1", snap.Nodes[0].Name)
}
