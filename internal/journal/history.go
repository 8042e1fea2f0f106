package journal

import (
	"iter"
	"sort"
	"strings"

	"github.com/thebtf/journalcoach/pkg/models"
)

// History collects records, newest first, keeping those that contain query
// (case-insensitive) in any field. An empty query keeps everything.
func History(records iter.Seq[models.Record], query string) []models.Record {
	q := strings.ToLower(strings.TrimSpace(query))

	var result []models.Record
	for rec := range records {
		if rec.Matches(q) {
			result = append(result, rec)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].SortKey() > result[j].SortKey()
	})
	return result
}
