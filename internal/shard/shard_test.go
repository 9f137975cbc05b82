package shard

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPath_Deterministic(t *testing.T) {
	assert.Equal(t, Path(1044760, 1000), Path(1044760, 1000))
	assert.Equal(t, "1044000-1044999", Path(1044760, 1000))
	assert.Equal(t, "0-999", Path(0, 1000))
	assert.Equal(t, "0-999", Path(999, 1000))
}

func TestPath_AdjacentBoundaries(t *testing.T) {
	// id = unit*k-1 and id = unit*k land in different buckets.
	for _, k := range []int64{1, 7, 1044} {
		unit := int64(1000)
		assert.NotEqual(t, Path(unit*k-1, unit), Path(unit*k, unit))
	}
}

func TestPath_EveryIDHasExactlyOneBucket(t *testing.T) {
	unit := int64(100)
	seen := map[string]int64{}
	for id := int64(0); id < 500; id++ {
		p := Path(id, unit)
		if lower, ok := seen[p]; ok {
			// Same bucket implies same floor.
			assert.Equal(t, lower, (id/unit)*unit)
		}
		seen[p] = (id / unit) * unit
	}
	assert.Len(t, seen, 5)
}

func TestHierarchicalPath(t *testing.T) {
	p := HierarchicalPath(1044760, []int64{1000000, 100000, 10000})
	assert.Equal(t, filepath.Join("1000000-1999999", "1000000-1099999", "1040000-1049999"), p)
}

func TestHierarchicalPath_SkipsNonDecreasing(t *testing.T) {
	p := HierarchicalPath(5, []int64{100, 100, 10})
	assert.Equal(t, filepath.Join("0-99", "0-9"), p)
}

func TestMaterialize_Idempotent(t *testing.T) {
	base := t.TempDir()

	dir, err := Materialize(base, 1044760, 1000)
	require.NoError(t, err)

	again, err := Materialize(base, 1044760, 1000)
	require.NoError(t, err)
	assert.Equal(t, dir, again)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
