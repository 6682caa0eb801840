package diary

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ids(recs []Record) []int64 {
	out := make([]int64, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.ID)
	}
	return out
}

func TestProjectPreservesOrder(t *testing.T) {
	d := "done"
	recs := []Record{
		{ID: 1},
		{ID: 2, Completed: true, CompletedDate: &d},
		{ID: 3},
		{ID: 4, Completed: true, CompletedDate: &d},
		{ID: 5},
	}

	pending, completed := Project(recs)
	assert.Equal(t, []int64{1, 3, 5}, ids(pending))
	assert.Equal(t, []int64{2, 4}, ids(completed))
}

func TestProjectEmpty(t *testing.T) {
	pending, completed := Project(nil)
	assert.Empty(t, pending)
	assert.Empty(t, completed)
}
