package merge

import (
	"testing"

	"github.com/dmitrijs2005/devcms/internal/client/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(posts []models.Post) []models.ID {
	out := make([]models.ID, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.ID)
	}
	return out
}

func TestMergeAndSort_RemoteSupersedesLocal(t *testing.T) {
	local := []models.Post{{ID: "1", Title: "offline", CreatedAt: "1970-01-01T00:00:00.010Z", Source: models.SourceLocal}}
	remote := []models.Post{{ID: "1", Title: "confirmed", CreatedAt: "1970-01-01T00:00:00.020Z", Source: models.SourceAPI}}

	got := MergeAndSort(local, remote)
	require.Len(t, got, 1)
	assert.Equal(t, remote[0], got[0])
}

func TestMergeAndSort_RemoteWinsEvenWhenOlder(t *testing.T) {
	local := []models.Post{{ID: "1", CreatedAt: "2024-06-01T00:00:00Z", Source: models.SourceOffline}}
	remote := []models.Post{{ID: "1", CreatedAt: "2024-01-01T00:00:00Z", Source: models.SourceAPI}}

	got := MergeAndSort(local, remote)
	require.Len(t, got, 1)
	assert.Equal(t, models.SourceAPI, got[0].Source)
}

func TestDedupAndSort_OrdersNewestFirstMissingLast(t *testing.T) {
	in := []models.Post{
		{ID: "none"},
		{ID: "old", CreatedAt: "2023-01-01"},
		{ID: "bad", CreatedAt: "not a date"},
		{ID: "new", CreatedAt: "2024-05-01T10:00:00.000Z"},
		{ID: "mid", CreatedAt: "2024-01-01T00:00:00+02:00"},
	}
	got := DedupAndSort(in)
	assert.Equal(t, []models.ID{"new", "mid", "old", "none", "bad"}, ids(got))

	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].CreatedUnixMilli(), got[i].CreatedUnixMilli())
	}
}

func TestDedupAndSort_LastWinsByPosition(t *testing.T) {
	in := []models.Post{
		{ID: "a", Title: "first", CreatedAt: "2024-01-02"},
		{ID: "b", CreatedAt: "2024-01-01"},
		{ID: "a", Title: "second", CreatedAt: "2023-01-01"},
	}
	got := DedupAndSort(in)
	want := []models.Post{
		{ID: "b", CreatedAt: "2024-01-01"},
		{ID: "a", Title: "second", CreatedAt: "2023-01-01"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DedupAndSort mismatch (-want +got):\n%s", diff)
	}
}

func TestDedupAndSort_Empty(t *testing.T) {
	assert.Empty(t, DedupAndSort(nil))
	assert.Empty(t, MergeAndSort(nil, nil))
}

func TestMergeAndSort_DoesNotMutateInputs(t *testing.T) {
	existing := make([]models.Post, 1, 4)
	existing[0] = models.Post{ID: "x", CreatedAt: "2024-01-01"}
	incoming := []models.Post{{ID: "y", CreatedAt: "2025-01-01"}}

	_ = MergeAndSort(existing, incoming)
	assert.Equal(t, models.ID("x"), existing[0].ID)
	assert.Len(t, existing, 1)
}
