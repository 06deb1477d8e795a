package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKmeans_SeparatesObviousGroups(t *testing.T) {
	vectors := [][]float64{
		{1, 0, 0}, {1, 0, 0}, {1, 0, 0},
		{0, 0, 1}, {0, 0, 1}, {0, 0, 1},
	}

	assign := kmeans(vectors, 2, 42, 100)
	require.Len(t, assign, 6)

	assert.Equal(t, assign[0], assign[1])
	assert.Equal(t, assign[1], assign[2])
	assert.Equal(t, assign[3], assign[4])
	assert.Equal(t, assign[4], assign[5])
	assert.NotEqual(t, assign[0], assign[3])
}

func TestKmeans_SameSeedSameAssignments(t *testing.T) {
	vectors := [][]float64{
		{1, 1, 0, 0}, {1, 0, 0, 0}, {0, 1, 0, 0},
		{0, 0, 1, 1}, {0, 0, 1, 0}, {0, 0, 0, 1},
		{1, 0, 1, 0}, {0, 1, 0, 1},
	}

	first := kmeans(vectors, 3, 42, 100)
	second := kmeans(vectors, 3, 42, 100)
	assert.Equal(t, first, second)
}

func TestKmeans_ClampsKToVectorCount(t *testing.T) {
	assign := kmeans([][]float64{{1, 0}, {0, 1}}, 5, 42, 100)
	require.Len(t, assign, 2)
	for _, c := range assign {
		assert.Less(t, c, 2)
	}
}

func TestKmeans_Empty(t *testing.T) {
	assert.Nil(t, kmeans(nil, 3, 42, 100))
	assert.Nil(t, kmeans([][]float64{{1}}, 0, 42, 100))
}
