package cache

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3aro/go-cpg/pkg/graph"
)

func unit(name string) *graph.Export {
	return &graph.Export{
		Unit: name,
		Nodes: []graph.ExportNode{
			{ID: 1, Kind: "TranslationUnitDeclaration", File: name},
			{ID: 2, Kind: "VariableDeclaration", Name: "x", Type: "int"},
		},
		Edges: []graph.ExportEdge{{Source: 1, Target: 2, Kind: graph.EdgeAST}},
	}
}

func TestExportCache_Basic(t *testing.T) {
	c := New(Options{MaxSize: 3})

	c.Set("a", unit("a.cpp"))
	c.Set("b", unit("b.cpp"))

	assert.Equal(t, 2, c.Len())

	got, found := c.Get("a")
	require.True(t, found)
	assert.Equal(t, "a.cpp", got.Unit)
}

func TestExportCache_LRU_Eviction(t *testing.T) {
	c := New(Options{MaxSize: 3})

	c.Set("a", unit("a.cpp"))
	c.Set("b", unit("b.cpp"))
	c.Set("c", unit("c.cpp"))

	// access 'a' to make it most recently used
	c.Get("a")

	// adding a fourth entry evicts 'b'
	c.Set("d", unit("d.cpp"))

	assert.Equal(t, 3, c.Len())

	_, found := c.Get("b")
	assert.False(t, found, "b should have been evicted")

	_, found = c.Get("a")
	assert.True(t, found, "a should still be present")
}

func TestExportCache_OnEvict(t *testing.T) {
	var evicted []string
	c := New(Options{
		MaxSize: 1,
		OnEvict: func(key string, _ *graph.Export) { evicted = append(evicted, key) },
	})

	c.Set("a", unit("a.cpp"))
	c.Set("b", unit("b.cpp"))

	assert.Equal(t, []string{"a"}, evicted)
}

func TestExportCache_SaveLoadRoundTrip(t *testing.T) {
	c := New(Options{MaxSize: 10})
	c.Set("a", unit("a.cpp"))
	c.Set("b", unit("b.cpp"))

	var buf bytes.Buffer
	require.NoError(t, c.Save(&buf))

	restored := New(Options{MaxSize: 10})
	require.NoError(t, restored.Load(&buf))

	assert.Equal(t, 2, restored.Len())

	got, found := restored.Get("b")
	require.True(t, found)
	assert.Equal(t, "b.cpp", got.Unit)
	assert.Len(t, got.Nodes, 2)
	assert.Equal(t, graph.EdgeAST, got.Edges[0].Kind)
}

func TestExportCache_LoadMissingFileIsNoop(t *testing.T) {
	c := New(Options{MaxSize: 10})
	require.NoError(t, c.LoadFile(t.TempDir()+"/missing.msgpack"))
	assert.Equal(t, 0, c.Len())
}

func TestKey_IsContentAddressed(t *testing.T) {
	assert.Equal(t, Key([]byte("int x;")), Key([]byte("int x;")))
	assert.NotEqual(t, Key([]byte("int x;")), Key([]byte("int y;")))
}
