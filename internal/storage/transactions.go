package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
	"ledger/internal/store"
)

// sortColumns maps accepted sort keys to columns. Anything outside this map
// never reaches SQL. Amounts are stored as decimal text, so amount order is
// applied in Go with exact comparison; the SQL order is only by id.
var sortColumns = map[core.SortField]string{
	core.SortByDate:      "t.date",
	core.SortByName:      "t.name",
	core.SortByAmount:    "t.id",
	core.SortByCreatedAt: "t.created_at",
	core.SortByUpdatedAt: "t.updated_at",
}

// transactionRepo serves one kind; table is either incomes or expenses.
type transactionRepo struct {
	db    *sql.DB
	kind  core.TransactionType
	table string
}

func (r *transactionRepo) selectSQL() string {
	return `SELECT t.id, t.profile_id, t.category_id, c.name, t.name, t.icon, t.amount, t.date, t.created_at, t.updated_at
		FROM ` + r.table + ` t LEFT JOIN categories c ON c.id = t.category_id`
}

func (r *transactionRepo) FindByID(ctx context.Context, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, r.selectSQL()+` WHERE t.id = ?`, id)
	t, err := r.scan(row)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("find %s %d: %w", r.kind, id, err)
	}
	return t, nil
}

func (r *transactionRepo) FindAllForUser(ctx context.Context, user core.UserID) ([]core.Transaction, error) {
	return r.list(ctx, r.selectSQL()+` WHERE t.profile_id = ? ORDER BY t.date DESC, t.created_at DESC, t.id DESC`,
		int64(user))
}

func (r *transactionRepo) FindTopNByDateDesc(ctx context.Context, user core.UserID, n int) ([]core.Transaction, error) {
	return r.list(ctx, r.selectSQL()+` WHERE t.profile_id = ? ORDER BY t.date DESC, t.created_at DESC, t.id DESC LIMIT ?`,
		int64(user), n)
}

func (r *transactionRepo) FindInDateRange(ctx context.Context, user core.UserID, start, end core.Date) ([]core.Transaction, error) {
	return r.list(ctx, r.selectSQL()+` WHERE t.profile_id = ? AND t.date BETWEEN ? AND ? ORDER BY t.date DESC, t.created_at DESC, t.id DESC`,
		int64(user), start.String(), end.String())
}

func (r *transactionRepo) Search(ctx context.Context, q core.TransactionQuery) ([]core.Transaction, error) {
	column, ok := sortColumns[q.Sort.Field]
	if !ok {
		return nil, fmt.Errorf("unsupported sort field %q", q.Sort.Field)
	}
	direction := "ASC"
	if q.Sort.Direction == core.Descending {
		direction = "DESC"
	}
	query := r.selectSQL() + ` WHERE t.profile_id = ? AND t.date BETWEEN ? AND ?
		AND (? = '' OR instr(` + foldFunc + `(t.name), ` + foldFunc + `(?)) > 0)
		ORDER BY ` + column + ` ` + direction + `, t.id ASC`
	out, err := r.list(ctx, query, int64(q.UserID), q.Start.String(), q.End.String(), q.Keyword, q.Keyword)
	if err != nil {
		return nil, err
	}
	if q.Sort.Field == core.SortByAmount {
		slices.SortStableFunc(out, q.Sort.Compare)
	}
	return out, nil
}

// SumAmount adds amounts in Go so the total stays exact.
func (r *transactionRepo) SumAmount(ctx context.Context, user core.UserID) (decimal.Decimal, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT amount FROM `+r.table+` WHERE profile_id = ?`, int64(user))
	if err != nil {
		return decimal.Zero, fmt.Errorf("query %s amounts: %w", r.kind, err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return decimal.Zero, fmt.Errorf("scan %s amount: %w", r.kind, err)
		}
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return decimal.Zero, fmt.Errorf("parse %s amount %q: %w", r.kind, raw, err)
		}
		total = total.Add(amount)
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, fmt.Errorf("iterate %s amounts: %w", r.kind, err)
	}
	return total, nil
}

func (r *transactionRepo) Save(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	var category sql.NullInt64
	if t.CategoryID != nil {
		category = sql.NullInt64{Int64: *t.CategoryID, Valid: true}
	}

	if t.ID == 0 {
		res, err := r.db.ExecContext(ctx,
			`INSERT INTO `+r.table+` (profile_id, category_id, name, icon, amount, date, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			int64(t.UserID), category, t.Name, t.Icon, t.Amount.String(), t.Date.String(),
			formatTimestamp(t.CreatedAt), formatTimestamp(t.UpdatedAt))
		if err != nil {
			return core.Transaction{}, fmt.Errorf("insert %s: %w", r.kind, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return core.Transaction{}, fmt.Errorf("read %s id: %w", r.kind, err)
		}
		return r.FindByID(ctx, id)
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE `+r.table+` SET category_id = ?, name = ?, icon = ?, amount = ?, date = ?, updated_at = ? WHERE id = ?`,
		category, t.Name, t.Icon, t.Amount.String(), t.Date.String(), formatTimestamp(t.UpdatedAt), t.ID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update %s %d: %w", r.kind, t.ID, err)
	}
	if err := requireAffected(res); err != nil {
		return core.Transaction{}, fmt.Errorf("update %s %d: %w", r.kind, t.ID, err)
	}
	return r.FindByID(ctx, t.ID)
}

func (r *transactionRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM `+r.table+` WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete %s %d: %w", r.kind, id, err)
	}
	if err := requireAffected(res); err != nil {
		return fmt.Errorf("delete %s %d: %w", r.kind, id, err)
	}
	return nil
}

func (r *transactionRepo) list(ctx context.Context, query string, args ...any) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", r.table, err)
	}
	defer rows.Close()

	out := []core.Transaction{}
	for rows.Next() {
		t, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", r.table, err)
	}
	return out, nil
}

func (r *transactionRepo) scan(s scanner) (core.Transaction, error) {
	var (
		t                    core.Transaction
		user                 int64
		categoryID           sql.NullInt64
		categoryName         sql.NullString
		amount, date         string
		createdAt, updatedAt string
	)
	err := s.Scan(&t.ID, &user, &categoryID, &categoryName, &t.Name, &t.Icon, &amount, &date, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Transaction{}, store.ErrNotFound
		}
		return core.Transaction{}, fmt.Errorf("scan %s: %w", r.kind, err)
	}

	t.Kind = r.kind
	t.UserID = core.UserID(user)
	if categoryID.Valid {
		id := categoryID.Int64
		t.CategoryID = &id
	}
	t.CategoryName = categoryName.String

	if t.Amount, err = decimal.NewFromString(amount); err != nil {
		return core.Transaction{}, fmt.Errorf("parse %s amount %q: %w", r.kind, amount, err)
	}
	if t.Date, err = core.ParseDate(date); err != nil {
		return core.Transaction{}, fmt.Errorf("parse %s date %q: %w", r.kind, date, err)
	}
	if t.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return core.Transaction{}, err
	}
	if t.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}
