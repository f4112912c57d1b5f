package itemdb

import (
	"context"
	"database/sql"
	"errors"

	apperrors "github.com/matzehuels/craftree/pkg/errors"
	"github.com/matzehuels/craftree/pkg/recipe"
)

// Recipe returns the full recipe tree of an item as rows: the item itself
// with parent -1, followed depth-first by the ingredients of every item
// that has a recipe.
//
// Only the recipe with the lowest ingredient IDs is used for each item, and
// each item is expanded at most once. Later occurrences of an item are
// listed but not expanded again.
func (d *DB) Recipe(ctx context.Context, id int) ([]recipe.Row, error) {
	root, err := d.Item(ctx, id)
	if err != nil {
		return nil, err
	}

	rows := []recipe.Row{{ID: root.ID, Text: root.Label(), Parent: recipe.NoParent}}
	expanded := make(map[int]bool)
	for i := 1; i <= BaseItems; i++ {
		expanded[i] = true
	}

	var expand func(parent int) error
	expand = func(parent int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		parts, err := d.components(ctx, parent)
		if err != nil {
			return err
		}
		for _, p := range parts {
			rows = append(rows, recipe.Row{ID: p.ID, Text: p.Label(), Parent: parent})
			if expanded[p.ID] {
				continue
			}
			expanded[p.ID] = true
			if err := expand(p.ID); err != nil {
				return err
			}
		}
		return nil
	}

	if !expanded[root.ID] {
		expanded[root.ID] = true
		if err := expand(root.ID); err != nil {
			return nil, err
		}
	}
	return rows, nil
}

// components returns the two ingredients of the preferred recipe for id, or
// nothing if the item has no recipe.
func (d *DB) components(ctx context.Context, id int) ([]Item, error) {
	var (
		firstID, secondID       sql.NullInt64
		firstText, secondText   sql.NullString
		firstEmoji, secondEmoji sql.NullString
	)
	err := d.db.QueryRowContext(ctx,
		`SELECT
			C1.id, C1.text, C1.emoji,
			C2.id, C2.text, C2.emoji
		FROM recipes AS R
		LEFT JOIN items AS C1 ON C1.id = R.first
		LEFT JOIN items AS C2 ON C2.id = R.second
		WHERE R.result = ?
		ORDER BY R.first, R.second DESC
		LIMIT 1`,
		id,
	).Scan(&firstID, &firstText, &firstEmoji, &secondID, &secondText, &secondEmoji)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "query recipe of item %d", id)
	}

	var items []Item
	// Ingredients missing from the items table are dropped.
	if firstID.Valid {
		items = append(items, Item{ID: int(firstID.Int64), Text: firstText.String, Emoji: firstEmoji.String})
	}
	if secondID.Valid {
		items = append(items, Item{ID: int(secondID.Int64), Text: secondText.String, Emoji: secondEmoji.String})
	}
	return items, nil
}
