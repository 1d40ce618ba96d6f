package packidx

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListing(t *testing.T) {
	objs := []idxObject{
		{id: mustHash(t, "0200000000000000000000000000000000000000"), offset: 7},
		{id: mustHash(t, "0100000000000000000000000000000000000000"), offset: 42},
	}
	ix, err := parse(bytes.NewReader(buildV2Index(t, objs)))
	require.NoError(t, err)

	want := "0100000000000000000000000000000000000000 42\n" +
		"0200000000000000000000000000000000000000 7\n"
	assert.Equal(t, want, Listing(ix))
}

func TestDiff(t *testing.T) {
	kept := idxObject{id: mustHash(t, "0100000000000000000000000000000000000000"), offset: 42}
	dropped := idxObject{id: mustHash(t, "0200000000000000000000000000000000000000"), offset: 7}

	full, err := parse(bytes.NewReader(buildV2Index(t, []idxObject{kept, dropped})))
	require.NoError(t, err)
	partial, err := parse(bytes.NewReader(buildV2Index(t, []idxObject{kept})))
	require.NoError(t, err)

	t.Run("identical indexes", func(t *testing.T) {
		assert.Empty(t, Diff("a", "b", full, full))
	})

	t.Run("dropped object shows as deletion", func(t *testing.T) {
		out := Diff("before", "after", full, partial)
		assert.Contains(t, out, "-"+dropped.id.String())
		assert.NotContains(t, out, "-"+kept.id.String())
	})
}
