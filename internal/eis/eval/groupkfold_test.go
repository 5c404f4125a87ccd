package eval

import (
	"errors"
	"reflect"
	"testing"

	"github.com/banshee-data/impedance.report/internal/eis"
)

func repeatGroups(perGroup int, names ...string) []string {
	var out []string
	for _, name := range names {
		for i := 0; i < perGroup; i++ {
			out = append(out, name)
		}
	}
	return out
}

func TestGroupKFold_BalancedAndDisjoint(t *testing.T) {
	groups := repeatGroups(4, "c1", "c2", "c3", "c4", "c5", "c6")

	folds, err := GroupKFold(groups, 3, 42)
	if err != nil {
		t.Fatalf("GroupKFold failed: %v", err)
	}
	if len(folds) != 3 {
		t.Fatalf("expected 3 folds, got %d", len(folds))
	}

	seen := make(map[int]int)
	for f, fold := range folds {
		// 6 groups over 3 folds: exactly 2 groups, 8 rows, per fold.
		if len(fold) != 8 {
			t.Errorf("fold %d has %d rows, want 8", f, len(fold))
		}
		groupFold := make(map[string]bool)
		for _, row := range fold {
			seen[row]++
			groupFold[groups[row]] = true
		}
		if len(groupFold) != 2 {
			t.Errorf("fold %d spans %d groups, want 2", f, len(groupFold))
		}
	}
	if len(seen) != len(groups) {
		t.Errorf("folds cover %d rows, want %d", len(seen), len(groups))
	}
	for row, count := range seen {
		if count != 1 {
			t.Errorf("row %d appears in %d folds", row, count)
		}
	}

	// No group may straddle folds.
	foldOf := make(map[string]int)
	for f, fold := range folds {
		for _, row := range fold {
			g := groups[row]
			if prev, ok := foldOf[g]; ok && prev != f {
				t.Errorf("group %s split across folds %d and %d", g, prev, f)
			}
			foldOf[g] = f
		}
	}
}

func TestGroupKFold_SeedDeterminism(t *testing.T) {
	groups := repeatGroups(3, "a", "b", "c", "d", "e")

	a, err := GroupKFold(groups, 2, 7)
	if err != nil {
		t.Fatalf("GroupKFold failed: %v", err)
	}
	b, err := GroupKFold(groups, 2, 7)
	if err != nil {
		t.Fatalf("GroupKFold failed: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("same seed produced different folds")
	}

	c, err := GroupKFold(groups, 2, 8)
	if err != nil {
		t.Fatalf("GroupKFold failed: %v", err)
	}
	if reflect.DeepEqual(a, c) {
		t.Log("different seeds produced identical folds; possible but unlikely")
	}
}

func TestGroupKFold_TooFewGroups(t *testing.T) {
	groups := repeatGroups(5, "only", "two")

	_, err := GroupKFold(groups, 3, 1)
	var ige *eis.InsufficientGroupsError
	if !errors.As(err, &ige) {
		t.Fatalf("expected InsufficientGroupsError, got %v", err)
	}
	if ige.Groups != 2 || ige.Folds != 3 {
		t.Errorf("error carries groups=%d folds=%d, want 2 and 3", ige.Groups, ige.Folds)
	}
	if ige.Stage != "outer" {
		t.Errorf("stage = %q, want outer", ige.Stage)
	}
}

func TestComplement(t *testing.T) {
	got := complement(6, []int{1, 4})
	want := []int{0, 2, 3, 5}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("complement = %v, want %v", got, want)
	}
}
