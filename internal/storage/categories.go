package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ledger/internal/core"
	"ledger/internal/store"
)

const categoryColumns = `id, profile_id, name, type, icon, created_at, updated_at`

type categoryRepo struct {
	db *sql.DB
}

func (c *categoryRepo) FindByID(ctx context.Context, id int64) (core.Category, error) {
	row := c.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id)
	cat, err := scanCategory(row)
	if err != nil {
		return core.Category{}, fmt.Errorf("find category %d: %w", id, err)
	}
	return cat, nil
}

func (c *categoryRepo) FindByIDForUser(ctx context.Context, user core.UserID, id int64) (core.Category, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = ? AND profile_id = ?`, id, int64(user))
	cat, err := scanCategory(row)
	if err != nil {
		return core.Category{}, fmt.Errorf("find category %d: %w", id, err)
	}
	return cat, nil
}

func (c *categoryRepo) FindAllForUser(ctx context.Context, user core.UserID) ([]core.Category, error) {
	return c.list(ctx, `SELECT `+categoryColumns+` FROM categories WHERE profile_id = ? ORDER BY id`, int64(user))
}

func (c *categoryRepo) FindByTypeForUser(ctx context.Context, user core.UserID, t core.TransactionType) ([]core.Category, error) {
	return c.list(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE profile_id = ? AND type = ? ORDER BY id`,
		int64(user), string(t))
}

func (c *categoryRepo) ExistsByNameAndType(ctx context.Context, user core.UserID, name string, t core.TransactionType) (bool, error) {
	return c.exists(ctx,
		`SELECT EXISTS(SELECT 1 FROM categories WHERE profile_id = ? AND name = ? AND type = ?)`,
		int64(user), name, string(t))
}

func (c *categoryRepo) ExistsByNameTypeIconExcluding(ctx context.Context, user core.UserID, name string, t core.TransactionType, icon string, excludeID int64) (bool, error) {
	return c.exists(ctx,
		`SELECT EXISTS(SELECT 1 FROM categories WHERE profile_id = ? AND name = ? AND type = ? AND icon = ? AND id <> ?)`,
		int64(user), name, string(t), icon, excludeID)
}

func (c *categoryRepo) ExistsByNameExcluding(ctx context.Context, user core.UserID, name string, excludeID int64) (bool, error) {
	return c.exists(ctx,
		`SELECT EXISTS(SELECT 1 FROM categories WHERE profile_id = ? AND name = ? AND id <> ?)`,
		int64(user), name, excludeID)
}

func (c *categoryRepo) Save(ctx context.Context, cat core.Category) (core.Category, error) {
	if cat.ID == 0 {
		res, err := c.db.ExecContext(ctx,
			`INSERT INTO categories (profile_id, name, type, icon, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
			int64(cat.UserID), cat.Name, string(cat.Type), cat.Icon,
			formatTimestamp(cat.CreatedAt), formatTimestamp(cat.UpdatedAt))
		if err != nil {
			return core.Category{}, fmt.Errorf("insert category: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return core.Category{}, fmt.Errorf("read category id: %w", err)
		}
		return c.FindByID(ctx, id)
	}

	res, err := c.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, type = ?, icon = ?, updated_at = ? WHERE id = ?`,
		cat.Name, string(cat.Type), cat.Icon, formatTimestamp(cat.UpdatedAt), cat.ID)
	if err != nil {
		return core.Category{}, fmt.Errorf("update category %d: %w", cat.ID, err)
	}
	if err := requireAffected(res); err != nil {
		return core.Category{}, fmt.Errorf("update category %d: %w", cat.ID, err)
	}
	return c.FindByID(ctx, cat.ID)
}

func (c *categoryRepo) Delete(ctx context.Context, id int64) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete category %d: %w", id, err)
	}
	if err := requireAffected(res); err != nil {
		return fmt.Errorf("delete category %d: %w", id, err)
	}
	return nil
}

func (c *categoryRepo) list(ctx context.Context, query string, args ...any) ([]core.Category, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	out := []core.Category{}
	for rows.Next() {
		cat, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return out, nil
}

func (c *categoryRepo) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var found bool
	if err := c.db.QueryRowContext(ctx, query, args...).Scan(&found); err != nil {
		return false, fmt.Errorf("check category existence: %w", err)
	}
	return found, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCategory(s scanner) (core.Category, error) {
	var (
		cat                  core.Category
		user                 int64
		typ                  string
		createdAt, updatedAt string
	)
	if err := s.Scan(&cat.ID, &user, &cat.Name, &typ, &cat.Icon, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Category{}, store.ErrNotFound
		}
		return core.Category{}, fmt.Errorf("scan category: %w", err)
	}
	cat.UserID = core.UserID(user)
	cat.Type = core.TransactionType(typ)

	var err error
	if cat.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return core.Category{}, err
	}
	if cat.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return core.Category{}, err
	}
	return cat, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
