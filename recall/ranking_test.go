package recall

import (
	"fmt"
	"math"
	"testing"
)

func TestTakeTopOrder(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		name string
		in   []scored
		k    int
		want []string
	}{
		{
			name: "descending by score",
			in: []scored{
				{row: 0, id: "A1", score: 0.2},
				{row: 1, id: "A2", score: 0.9},
				{row: 2, id: "A3", score: 0.5},
			},
			k:    0,
			want: []string{"A2", "A3", "A1"},
		},
		{
			name: "ties broken by original row order",
			in: []scored{
				{row: 3, id: "D", score: 0.5},
				{row: 1, id: "B", score: 0.5},
				{row: 2, id: "C", score: 0.5},
				{row: 0, id: "A", score: 0.5},
			},
			k:    0,
			want: []string{"A", "B", "C", "D"},
		},
		{
			name: "nan sorts last",
			in: []scored{
				{row: 0, id: "A", score: nan},
				{row: 1, id: "B", score: -1},
				{row: 2, id: "C", score: nan},
				{row: 3, id: "D", score: 2},
			},
			k:    0,
			want: []string{"D", "B", "A", "C"},
		},
		{
			name: "truncates to k",
			in: []scored{
				{row: 0, id: "A", score: 1},
				{row: 1, id: "B", score: 3},
				{row: 2, id: "C", score: 2},
			},
			k:    2,
			want: []string{"B", "C"},
		},
		{
			name: "k larger than list",
			in: []scored{
				{row: 0, id: "A", score: 1},
			},
			k:    10,
			want: []string{"A"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := takeTop(tt.in, tt.k)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d entries, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i].id != tt.want[i] {
					t.Errorf("position %d = %s, want %s", i, got[i].id, tt.want[i])
				}
			}
		})
	}
}

func TestMergeRankedMatchesFullSort(t *testing.T) {
	// 20 条数据，含并列分与 NaN；任意切分取局部 Top-K 后合并，应与整体排序一致。
	all := make([]scored, 0, 20)
	for i := 0; i < 20; i++ {
		s := float64((i * 7) % 5)
		if i%6 == 5 {
			s = math.NaN()
		}
		all = append(all, scored{row: i, id: fmt.Sprintf("P%02d", i), score: s})
	}
	full := takeTop(append([]scored(nil), all...), 8)

	for _, split := range [][]int{{20}, {10, 10}, {3, 7, 10}, {1, 1, 18}} {
		parts := make([][]scored, 0, len(split))
		off := 0
		for _, n := range split {
			seg := append([]scored(nil), all[off:off+n]...)
			parts = append(parts, takeTop(seg, 8))
			off += n
		}
		got := mergeRanked(parts, 8)
		if len(got) != len(full) {
			t.Fatalf("split %v: got %d entries, want %d", split, len(got), len(full))
		}
		for i := range full {
			if got[i].id != full[i].id || got[i].row != full[i].row {
				t.Fatalf("split %v: position %d = %s(row %d), want %s(row %d)",
					split, i, got[i].id, got[i].row, full[i].id, full[i].row)
			}
		}
	}
}

func TestBuildItemsCarriesLabels(t *testing.T) {
	items := buildItems([]scored{{row: 4, id: "A9", score: 1.5}}, "recall.test")
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	it := items[0]
	if it.ID != "A9" || it.Score != 1.5 {
		t.Errorf("item = %s/%v, want A9/1.5", it.ID, it.Score)
	}
	if lbl, ok := it.GetLabel("recall_source"); !ok || lbl.Value != "recall.test" {
		t.Errorf("recall_source = %+v, want recall.test", lbl)
	}
	if lbl, ok := it.GetLabel("row_index"); !ok || lbl.Value != "4" {
		t.Errorf("row_index = %+v, want 4", lbl)
	}
}
