package merger

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

type scored struct {
	id    int
	score float64
}

func byScoreDesc(a, b scored) bool { return a.score > b.score }

func TestMergeKeepsRunOrderOnTies(t *testing.T) {
	runs := [][]scored{
		{{1, 0.9}, {2, 0.5}, {3, 0.5}},
		{{4, 0.7}, {5, 0.5}},
		{{6, 0.5}, {7, 0.1}},
	}
	got := Merge(runs, byScoreDesc, 0)
	ids := make([]int, len(got))
	for i, s := range got {
		ids[i] = s.id
	}
	assert.Equal(t, []int{1, 4, 2, 3, 5, 6, 7}, ids)
}

func TestMergeEqualsStableSort(t *testing.T) {
	all := make([]scored, 0, 100)
	for i := 0; i < 100; i++ {
		all = append(all, scored{id: i, score: float64((i * 37) % 11)})
	}
	want := append([]scored(nil), all...)
	sort.SliceStable(want, func(i, j int) bool { return byScoreDesc(want[i], want[j]) })

	var runs [][]scored
	for lo := 0; lo < len(all); lo += 13 {
		run := append([]scored(nil), all[lo:min(lo+13, len(all))]...)
		sort.SliceStable(run, func(i, j int) bool { return byScoreDesc(run[i], run[j]) })
		runs = append(runs, run)
	}
	assert.Equal(t, want, Merge(runs, byScoreDesc, 0))
}

func TestMergeLimit(t *testing.T) {
	runs := [][]scored{{{1, 3}, {2, 1}}, {{3, 2}}}
	got := Merge(runs, byScoreDesc, 2)
	assert.Equal(t, []scored{{1, 3}, {3, 2}}, got)
	assert.Len(t, Merge(runs, byScoreDesc, 50), 3)
}

func TestMergeEmpty(t *testing.T) {
	assert.Empty(t, Merge[scored](nil, byScoreDesc, 10))
	assert.Empty(t, Merge([][]scored{{}, {}}, byScoreDesc, 0))
}
