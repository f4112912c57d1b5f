package itemdb

import (
	"context"
	"path/filepath"
	"slices"
	"testing"

	"github.com/goccy/go-json"

	apperrors "github.com/matzehuels/craftree/pkg/errors"
	"github.com/matzehuels/craftree/pkg/recipe"
)

// seed creates the four base elements and a handful of crafted items.
func seed(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()
	db, err := OpenMemory(ctx)
	if err != nil {
		t.Fatalf("OpenMemory() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	items := []Item{
		{1, "Water", "💧"},
		{2, "Fire", "🔥"},
		{3, "Wind", "🌬️"},
		{4, "Earth", "🌍"},
		{5, "Steam", "💨"},
		{6, "Mud", "🟫"},
		{7, "Geyser", "⛲"},
		{8, "Lava", "🌋"},
	}
	for _, it := range items {
		if err := db.AddItem(ctx, it); err != nil {
			t.Fatalf("AddItem(%v) error = %v", it, err)
		}
	}
	recipes := [][3]int{
		{5, 1, 2},
		{5, 2, 2}, // higher first ingredient, never chosen
		{6, 1, 4},
		{7, 5, 6},
		{8, 2, 4},
	}
	for _, r := range recipes {
		if err := db.AddRecipe(ctx, r[0], r[1], r[2]); err != nil {
			t.Fatalf("AddRecipe(%v) error = %v", r, err)
		}
	}
	return db
}

func TestTotalItems(t *testing.T) {
	db := seed(t)
	n, err := db.TotalItems(context.Background())
	if err != nil {
		t.Fatalf("TotalItems() error = %v", err)
	}
	if n != 8 {
		t.Errorf("TotalItems() = %v, want 8", n)
	}
}

func TestItem(t *testing.T) {
	db := seed(t)
	it, err := db.Item(context.Background(), 5)
	if err != nil {
		t.Fatalf("Item() error = %v", err)
	}
	if it.Label() != "💨 Steam" {
		t.Errorf("Label() = %q, want %q", it.Label(), "💨 Steam")
	}

	_, err = db.Item(context.Background(), 404)
	if !apperrors.Is(err, apperrors.ErrCodeNotFound) {
		t.Errorf("Item(404) code = %v, want %v", apperrors.GetCode(err), apperrors.ErrCodeNotFound)
	}
}

func TestItemBatch(t *testing.T) {
	db := seed(t)
	ctx := context.Background()

	tests := []struct {
		limit, after int
		want         []int
	}{
		{3, 0, []int{1, 2, 3}},
		{3, 3, []int{4, 5, 6}},
		{3, 6, []int{7, 8}},
		{3, 8, []int{}},
	}
	for _, tt := range tests {
		got, err := db.ItemBatch(ctx, tt.limit, tt.after)
		if err != nil {
			t.Fatalf("ItemBatch(%d, %d) error = %v", tt.limit, tt.after, err)
		}
		ids := []int{}
		for _, e := range got {
			ids = append(ids, e.ID)
		}
		if !slices.Equal(ids, tt.want) {
			t.Errorf("ItemBatch(%d, %d) = %v, want %v", tt.limit, tt.after, ids, tt.want)
		}
	}
}

func TestSearchItems(t *testing.T) {
	db := seed(t)
	ctx := context.Background()

	got, err := db.SearchItems(ctx, "WA", 50)
	if err != nil {
		t.Fatalf("SearchItems() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != 1 {
		t.Errorf("SearchItems(WA) = %v, want [Water]", got)
	}

	got, err = db.SearchItems(ctx, "e", 2)
	if err != nil {
		t.Fatalf("SearchItems() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("SearchItems(e, 2) returned %d entries, want 2", len(got))
	}

	if _, err := db.SearchItems(ctx, "", 50); !apperrors.Is(err, apperrors.ErrCodeInvalidInput) {
		t.Errorf("SearchItems(\"\") code = %v, want %v", apperrors.GetCode(err), apperrors.ErrCodeInvalidInput)
	}
}

func TestRecipe(t *testing.T) {
	db := seed(t)
	rows, err := db.Recipe(context.Background(), 7)
	if err != nil {
		t.Fatalf("Recipe() error = %v", err)
	}
	want := []recipe.Row{
		{ID: 7, Text: "⛲ Geyser", Parent: -1},
		{ID: 5, Text: "💨 Steam", Parent: 7},
		{ID: 1, Text: "💧 Water", Parent: 5},
		{ID: 2, Text: "🔥 Fire", Parent: 5},
		{ID: 6, Text: "🟫 Mud", Parent: 7},
		{ID: 1, Text: "💧 Water", Parent: 6},
		{ID: 4, Text: "🌍 Earth", Parent: 6},
	}
	if !slices.Equal(rows, want) {
		t.Errorf("Recipe(7) =\n%v\nwant\n%v", rows, want)
	}
}

func TestRecipeSharedItemExpandedOnce(t *testing.T) {
	db := seed(t)
	ctx := context.Background()
	// Volcano = Lava + Lava
	if err := db.AddItem(ctx, Item{9, "Volcano", "🏔️"}); err != nil {
		t.Fatal(err)
	}
	if err := db.AddRecipe(ctx, 9, 8, 8); err != nil {
		t.Fatal(err)
	}

	rows, err := db.Recipe(ctx, 9)
	if err != nil {
		t.Fatalf("Recipe() error = %v", err)
	}
	var lavaChildren int
	for _, r := range rows {
		if r.Parent == 8 {
			lavaChildren++
		}
	}
	if len(rows) != 5 || lavaChildren != 2 {
		t.Errorf("Recipe(9) = %v, want root, Lava expanded once, second Lava leaf", rows)
	}
}

func TestRecipeBaseItem(t *testing.T) {
	db := seed(t)
	rows, err := db.Recipe(context.Background(), 2)
	if err != nil {
		t.Fatalf("Recipe() error = %v", err)
	}
	if len(rows) != 1 || !rows[0].IsRoot() {
		t.Errorf("Recipe(2) = %v, want only the root row", rows)
	}
}

func TestRecipeUnknownItem(t *testing.T) {
	db := seed(t)
	if _, err := db.Recipe(context.Background(), 999); !apperrors.Is(err, apperrors.ErrCodeNotFound) {
		t.Errorf("Recipe(999) code = %v, want %v", apperrors.GetCode(err), apperrors.ErrCodeNotFound)
	}
}

func TestEntryJSON(t *testing.T) {
	data, err := json.Marshal([]Entry{{ID: 1, Label: "💧 Water"}})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(data), `[[1,"💧 Water"]]`; got != want {
		t.Errorf("Marshal() = %s, want %s", got, want)
	}
	var back []Entry
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if back[0].ID != 1 || back[0].Label != "💧 Water" {
		t.Errorf("Unmarshal() = %v", back)
	}
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.db"))
	if err == nil {
		t.Fatal("Open() error = nil, want error")
	}
}

func TestCreateThenOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "Items.db")

	db, err := Create(ctx, path)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := db.AddItem(ctx, Item{1, "Water", "💧"}); err != nil {
		t.Fatal(err)
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}

	ro, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer ro.Close()
	if n, err := ro.TotalItems(ctx); err != nil || n != 1 {
		t.Errorf("TotalItems() = %v, %v, want 1", n, err)
	}
	if err := ro.AddItem(ctx, Item{2, "Fire", "🔥"}); err == nil {
		t.Error("AddItem() on read-only database error = nil, want error")
	}
	if ro.Path() != path {
		t.Errorf("Path() = %q, want %q", ro.Path(), path)
	}
}
