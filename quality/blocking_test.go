package quality

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockKey(t *testing.T) {
	tests := []struct {
		name, city, expected string
	}{
		{"acme corporation", "springfield", "acme_s"},
		{"ab", "", "ab_"},
		{"", "springfield", "_s"},
		{"", "", "_"},
		{"acme", "x", "acme_x"},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.expected, BlockKey(tc.name, tc.city))
	}
}

func TestBuildBlocksPartitionsRecords(t *testing.T) {
	records := recordsFromValues(
		FieldValues{CustomerName: "acme corporation", City: "springfield"},
		FieldValues{CustomerName: "zenith limited", City: "springfield"},
		FieldValues{CustomerName: "acme company", City: "shelbyville"},
		FieldValues{CustomerName: "acme", City: "boston"},
		FieldValues{CustomerName: "zenith", City: "springfield"},
		FieldValues{CustomerName: "", City: ""},
	)

	blocks, stats := BuildBlocks(records)

	require.Len(t, blocks, 4)
	assert.Equal(t, "acme_s", blocks[0].Key)
	assert.Equal(t, []int{0, 2}, blocks[0].Positions)
	assert.Equal(t, "zeni_s", blocks[1].Key)
	assert.Equal(t, []int{1, 4}, blocks[1].Positions)
	assert.Equal(t, "acme_b", blocks[2].Key)
	assert.Equal(t, []int{3}, blocks[2].Positions)
	assert.Equal(t, "_", blocks[3].Key)
	assert.Equal(t, []int{5}, blocks[3].Positions)

	var all []int
	for _, block := range blocks {
		all = append(all, block.Positions...)
	}
	sort.Ints(all)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, all)

	assert.Equal(t, BlockStats{
		TotalBlocks:         4,
		MaxBlockSize:        2,
		AvgBlockSize:        1.5,
		TotalRecordsBlocked: 6,
		SingletonBlocks:     2,
		CandidatePairs:      2,
	}, stats)
}

func TestBuildBlocksEmpty(t *testing.T) {
	blocks, stats := BuildBlocks(nil)

	assert.Empty(t, blocks)
	assert.Equal(t, BlockStats{}, stats)
}
