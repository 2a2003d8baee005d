package rerank

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/listingrec/core"
)

func items(neighbourhoods ...string) []*core.Item {
	out := make([]*core.Item, len(neighbourhoods))
	for i, n := range neighbourhoods {
		out[i] = core.NewItem(&core.Listing{ID: int64(i + 1), Neighbourhood: n})
	}
	return out
}

func ids(items []*core.Item) []int64 {
	out := make([]int64, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestTopNNode(t *testing.T) {
	ctx := context.Background()
	in := items("a", "b", "c", "d")

	out, err := (&TopNNode{N: 2}).Process(ctx, nil, in)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids(out))

	out, err = (&TopNNode{}).Process(ctx, &core.RecommendContext{MaxResults: 3}, in)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids(out))

	out, err = (&TopNNode{N: 10}).Process(ctx, nil, in)
	require.NoError(t, err)
	assert.Len(t, out, 4)
}

func TestDiversity(t *testing.T) {
	in := items("Centrum", "centrum", "Oost", "Centrum", "", "", "Oost")
	out, err := (&Diversity{MaxPerGroup: 1}).Process(context.Background(), nil, in)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3, 5, 6}, ids(out))

	out, err = (&Diversity{}).Process(context.Background(), nil, in)
	require.NoError(t, err)
	assert.Len(t, out, len(in))
}
