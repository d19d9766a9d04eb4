// Package merge reconciles content records of different provenance into
// one ordered view.
//
// The conflict rule is positional: when two records share an id the later
// one in the input wins. MergeAndSort appends incoming records after
// existing ones, so a confirmed remote copy always replaces a local or
// offline-created record with the same id, whatever their timestamps.
package merge

import (
	"sort"

	"github.com/dmitrijs2005/devcms/internal/client/models"
)

// DedupAndSort keeps the last record per id and orders the result by
// CreatedAt, newest first. Records without a usable timestamp go last;
// ties keep their first-seen order.
func DedupAndSort(posts []models.Post) []models.Post {
	index := make(map[models.ID]int, len(posts))
	out := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		if i, ok := index[p.ID]; ok {
			out[i] = p
			continue
		}
		index[p.ID] = len(out)
		out = append(out, p)
	}

	ts := make(map[models.ID]int64, len(out))
	for _, p := range out {
		ts[p.ID] = p.CreatedUnixMilli()
	}
	sort.SliceStable(out, func(i, j int) bool { return ts[out[i].ID] > ts[out[j].ID] })
	return out
}

// MergeAndSort is DedupAndSort(existing ++ incoming).
func MergeAndSort(existing, incoming []models.Post) []models.Post {
	all := make([]models.Post, 0, len(existing)+len(incoming))
	all = append(all, existing...)
	all = append(all, incoming...)
	return DedupAndSort(all)
}
