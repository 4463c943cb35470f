package query

import (
	"errors"
	"testing"

	"github.com/cuemby/resource-status/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequiresDefaults(t *testing.T) {
	_, err := New(clusterSnapshot(), Defaults{})
	assert.Error(t, err)

	_, err = New(nil, testDefaults)
	assert.Error(t, err)
}

func TestExists(t *testing.T) {
	f := newFacade(t, clusterSnapshot())

	tests := []struct {
		id       string
		expected bool
	}{
		{"fence-node1", true},
		{"web", true},
		{"web-server", true},
		{"db-clone", true},
		{"db", true},
		{"app:1", true},
		{"app-svc:0", true},
		{"app-svc", true},
		{"uniq:2", true},
		{"uniq:7", false},
		{"missing", false},
		{"web:0", false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.expected, f.Exists(key(tt.id)))
		})
	}
}

func TestExistsMatchesIndex(t *testing.T) {
	snap := clusterSnapshot()
	f := newFacade(t, snap)

	for k := range f.idx.byKey {
		assert.True(t, f.Exists(k), k.String())
		assert.True(t, f.Exists(types.ResourceKey{ResourceID: k.ResourceID}), k.ResourceID)
	}
}

func TestType(t *testing.T) {
	f := newFacade(t, clusterSnapshot())

	tests := []struct {
		id       string
		expected types.ResourceKind
	}{
		{"fence-node1", types.KindPrimitive},
		{"web", types.KindGroup},
		{"db-clone", types.KindClone},
		{"app:0", types.KindGroup},
		{"app-svc:1", types.KindPrimitive},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			kind, err := f.Type(key(tt.id))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, kind)
		})
	}

	_, err := f.Type(key("missing"))
	var notFound *NonExistentError
	assert.ErrorAs(t, err, &notFound)

	kind, err := newFacade(t, bundleSnapshot()).Type(key("httpd-bundle"))
	require.NoError(t, err)
	assert.Equal(t, types.KindBundle, kind)
}

func TestUniqueInstanceResolution(t *testing.T) {
	f := newFacade(t, clusterSnapshot())

	// without an instance id the first recorded instance represents the id
	first, err := f.resolveOne(key("uniq"))
	require.NoError(t, err)
	assert.Equal(t, key("uniq:0"), first.Key())

	seen := make(map[*types.Primitive]bool)
	for _, id := range []string{"uniq:0", "uniq:1", "uniq:2"} {
		r, err := f.resolveOne(key(id))
		require.NoError(t, err)
		assert.Equal(t, key(id), r.Key())
		p := r.(*types.Primitive)
		assert.False(t, seen[p], "instances must resolve to distinct records")
		seen[p] = true
	}

	on1, err := f.IsState(key("uniq:0"), StateStarted, Policy{})
	require.NoError(t, err)
	assert.True(t, on1)
	on2, err := f.IsState(key("uniq:1"), StateStarted, Policy{})
	require.NoError(t, err)
	assert.False(t, on2)
}

func TestIsUniqueAndPromotable(t *testing.T) {
	f := newFacade(t, clusterSnapshot())

	unique, err := f.IsUnique(key("app-clone"))
	require.NoError(t, err)
	assert.True(t, unique)

	unique, err = f.IsUnique(key("db-clone"))
	require.NoError(t, err)
	assert.False(t, unique)

	promotable, err := f.IsPromotable(key("db-clone"))
	require.NoError(t, err)
	assert.True(t, promotable)

	_, err = f.IsUnique(key("web"))
	var typeErr *UnexpectedTypeError
	require.ErrorAs(t, err, &typeErr)
	assert.Equal(t, types.KindGroup, typeErr.Actual)
	assert.Equal(t, []types.ResourceKind{types.KindClone, types.KindBundle}, typeErr.Expected)

	_, err = f.IsPromotable(key("fence-node1"))
	assert.ErrorAs(t, err, &typeErr)

	bf := newFacade(t, bundleSnapshot())
	promotable, err = bf.IsPromotable(key("httpd-bundle"))
	require.NoError(t, err)
	assert.False(t, promotable)
}

func TestIsStonith(t *testing.T) {
	f := newFacade(t, clusterSnapshot())

	stonith, err := f.IsStonith(key("fence-node1"))
	require.NoError(t, err)
	assert.True(t, stonith)

	stonith, err = f.IsStonith(key("web-ip"))
	require.NoError(t, err)
	assert.False(t, stonith)

	stonith, err = f.IsStonith(key("web"))
	require.NoError(t, err)
	assert.False(t, stonith)

	_, err = f.IsStonith(key("missing"))
	assert.Error(t, err)
}

func TestParentLookups(t *testing.T) {
	f := newFacade(t, clusterSnapshot())

	parent, ok, err := f.ParentGroupID(key("web-fs"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, key("web"), parent)

	// cloned groups answer with the id, not the instance
	parent, ok, err = f.ParentGroupID(key("app-svc:1"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, key("app"), parent)

	_, ok, err = f.ParentGroupID(key("fence-node1"))
	require.NoError(t, err)
	assert.False(t, ok)

	// a cloned primitive has a parent, but not a group
	_, ok, err = f.ParentGroupID(key("uniq:0"))
	require.NoError(t, err)
	assert.False(t, ok)

	parent, ok, err = f.ParentCloneID(key("app:0"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, key("app-clone"), parent)

	parent, ok, err = f.ParentCloneID(key("db"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, key("db-clone"), parent)

	// members of a cloned group report the clone above their group
	parent, ok, err = f.ParentCloneID(key("app-svc:0"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, key("app-clone"), parent)

	_, ok, err = f.ParentBundleID(key("app-svc:0"))
	require.NoError(t, err)
	assert.False(t, ok)

	var typeErr *UnexpectedTypeError
	_, _, err = f.ParentGroupID(key("web"))
	require.ErrorAs(t, err, &typeErr)
	assert.Equal(t, []types.ResourceKind{types.KindPrimitive}, typeErr.Expected)

	_, _, err = f.ParentCloneID(key("db-clone"))
	assert.ErrorAs(t, err, &typeErr)

	_, _, err = f.ParentBundleID(key("web"))
	assert.ErrorAs(t, err, &typeErr)

	bf := newFacade(t, bundleSnapshot())
	parent, ok, err = bf.ParentBundleID(key("httpd"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, key("httpd-bundle"), parent)

	_, ok, err = bf.ParentBundleID(key("vip"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMembers(t *testing.T) {
	f := newFacade(t, clusterSnapshot())

	members, err := f.Members(key("web"))
	require.NoError(t, err)
	assert.Equal(t, []types.ResourceKey{key("web-ip"), key("web-fs"), key("web-server")}, members)

	members, err = f.Members(key("db-clone"))
	require.NoError(t, err)
	assert.Equal(t, []types.ResourceKey{key("db")}, members, "anonymous instances collapse")

	members, err = f.Members(key("app-clone"))
	require.NoError(t, err)
	assert.Equal(t, []types.ResourceKey{key("app:0"), key("app:1")}, members)

	members, err = f.Members(key("empty-group"))
	require.NoError(t, err)
	assert.Empty(t, members)

	_, err = f.Members(key("web-ip"))
	var typeErr *UnexpectedTypeError
	assert.ErrorAs(t, err, &typeErr)

	bf := newFacade(t, bundleSnapshot())
	members, err = bf.Members(key("httpd-bundle"))
	require.NoError(t, err)
	assert.Equal(t, []types.ResourceKey{key("httpd")}, members)

	members, err = bf.Members(key("empty-bundle"))
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestNodes(t *testing.T) {
	f := newFacade(t, clusterSnapshot())

	tests := []struct {
		id       string
		expected []string
	}{
		{"fence-node1", []string{"node2"}},
		{"web", []string{"node1"}},
		{"web-server", []string{}},
		{"db-clone", []string{"node1", "node2"}},
		{"db", []string{"node1", "node2"}},
		{"uniq:2", []string{"node2"}},
		{"app-clone", []string{"node1"}},
		{"empty-clone", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			nodes, err := f.Nodes(key(tt.id))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, nodes)
		})
	}
}

func TestNodesBundleMemberOverride(t *testing.T) {
	f := newFacade(t, bundleSnapshot())

	nodes, err := f.Nodes(key("httpd"))
	require.NoError(t, err)
	assert.Equal(t, []string{"node1"}, nodes)

	nodes, err = f.Nodes(key("httpd-bundle"))
	require.NoError(t, err)
	assert.Equal(t, []string{"node1"}, nodes)

	nodes, err = f.Nodes(key("empty-bundle"))
	require.NoError(t, err)
	assert.Equal(t, []string{"node2"}, nodes)
}

func TestIndexInGroup(t *testing.T) {
	snap := clusterSnapshot()
	f := newFacade(t, snap)

	web := snap.Resources[1].(*types.Group)
	for i, m := range web.Members {
		idx, err := f.IndexInGroup(m.Key())
		require.NoError(t, err)
		assert.Equal(t, i, idx)
	}

	idx, err := f.IndexInGroup(key("app-svc:1"))
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
}

func TestIndexInGroupErrors(t *testing.T) {
	f := newFacade(t, clusterSnapshot())

	_, err := f.IndexInGroup(key("fence-node1"))
	var notInGroup *NotInGroupError
	require.ErrorAs(t, err, &notInGroup)
	assert.Equal(t, key("fence-node1"), notInGroup.Key)

	_, err = f.IndexInGroup(key("uniq:0"))
	assert.ErrorAs(t, err, &notInGroup)

	_, err = f.IndexInGroup(key("web"))
	var typeErr *UnexpectedTypeError
	assert.ErrorAs(t, err, &typeErr)

	_, err = f.IndexInGroup(key("missing"))
	var notFound *NonExistentError
	assert.ErrorAs(t, err, &notFound)
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		err      error
		expected string
	}{
		{&NonExistentError{Key: key("a:1")}, "resource 'a:1' does not exist"},
		{
			&UnexpectedTypeError{Key: key("g"), Actual: types.KindGroup, Expected: []types.ResourceKind{types.KindClone, types.KindBundle}},
			"resource 'g' is a group, expected clone or bundle",
		},
		{&NotInGroupError{Key: key("p")}, "resource 'p' is not in a group"},
		{&StateValueUnsupportedError{State: StateStarted}, "state 'started' does not carry a value"},
	}

	for _, tt := range tests {
		assert.EqualError(t, tt.err, tt.expected)
	}
	assert.True(t, errors.Is(ErrCloneStateWithBundles, ErrCloneStateWithBundles))
}
