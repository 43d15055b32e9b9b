package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Relation names a table of the identity store.
type Relation string

const (
	Identities Relation = "identities"
	Phones     Relation = "phones"
	Cards      Relation = "cards"
	Operators  Relation = "operators"
)

// relationColumns is the whitelist every query is checked against.
var relationColumns = map[Relation][]string{
	Identities: {"id", "handle", "fifty", "proof", "created_at", "updated_at"},
	Phones:     {"value", "identity_id"},
	Cards:      {"value", "identity_id"},
	Operators:  {"id", "added_at"},
}

// Fields maps column names to values for an insert.
type Fields map[string]any

// Row is one result row keyed by column name.
type Row map[string]any

// Eq is a single equality comparison. A nil Value compares with IS NULL.
type Eq struct {
	Column string
	Value  any
}

// Predicate is a list of equality comparisons joined by one Combinator.
type Predicate []Eq

// Combinator joins the comparisons of a Predicate.
type Combinator string

const (
	And Combinator = "AND"
	Or  Combinator = "OR"
)

// ErrInvalidQuery reports a relation, column, or combinator outside the schema.
var ErrInvalidQuery = errors.New("invalid query")

// Where builds a predicate from alternating column/value pairs.
func Where(pairs ...any) Predicate {
	pred := make(Predicate, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		col, _ := pairs[i].(string)
		pred = append(pred, Eq{Column: col, Value: pairs[i+1]})
	}
	return pred
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// ops implements the query layer over either the pool or a transaction.
// Only pool-level calls retry on SQLITE_BUSY; inside a transaction the
// retry belongs to WithTx.
type ops struct {
	q     querier
	retry bool
}

func (o ops) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ensureContext(ctx)
	if !o.retry {
		return o.q.ExecContext(ctx, query, args...)
	}
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = o.q.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

func (o ops) query(ctx context.Context, columns []string, query string, args ...any) ([]Row, error) {
	ctx = ensureContext(ctx)
	var out []Row
	run := func() error {
		out = nil
		rows, err := o.q.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			values := make([]any, len(columns))
			dest := make([]any, len(columns))
			for i := range values {
				dest[i] = &values[i]
			}
			if err := rows.Scan(dest...); err != nil {
				return err
			}
			row := make(Row, len(columns))
			for i, col := range columns {
				row[col] = values[i]
			}
			out = append(out, row)
		}
		return rows.Err()
	}
	if o.retry {
		return out, retryOnBusy(ctx, run)
	}
	return out, run()
}

func checkColumn(rel Relation, col string) error {
	cols, ok := relationColumns[rel]
	if !ok {
		return fmt.Errorf("%w: unknown relation %q", ErrInvalidQuery, rel)
	}
	for _, c := range cols {
		if c == col {
			return nil
		}
	}
	return fmt.Errorf("%w: unknown column %q on %s", ErrInvalidQuery, col, rel)
}

func whereClause(rel Relation, pred Predicate, comb Combinator) (string, []any, error) {
	if len(pred) == 0 {
		return "", nil, nil
	}
	if comb == "" {
		comb = And
	}
	if comb != And && comb != Or {
		return "", nil, fmt.Errorf("%w: combinator %q", ErrInvalidQuery, comb)
	}
	parts := make([]string, 0, len(pred))
	args := make([]any, 0, len(pred))
	for _, eq := range pred {
		if err := checkColumn(rel, eq.Column); err != nil {
			return "", nil, err
		}
		if eq.Value == nil {
			parts = append(parts, eq.Column+" IS NULL")
			continue
		}
		parts = append(parts, eq.Column+" = ?")
		args = append(args, eq.Value)
	}
	return " WHERE " + strings.Join(parts, " "+string(comb)+" "), args, nil
}

func buildSelect(rel Relation, columns []string, pred Predicate, comb Combinator) (string, []any, error) {
	if len(columns) == 0 {
		columns = relationColumns[rel]
	}
	if len(columns) == 0 {
		return "", nil, fmt.Errorf("%w: unknown relation %q", ErrInvalidQuery, rel)
	}
	for _, col := range columns {
		if err := checkColumn(rel, col); err != nil {
			return "", nil, err
		}
	}
	where, args, err := whereClause(rel, pred, comb)
	if err != nil {
		return "", nil, err
	}
	return "SELECT " + strings.Join(columns, ", ") + " FROM " + string(rel) + where + " ORDER BY rowid", args, nil
}

func buildInsert(rel Relation, fields Fields, orIgnore bool) (string, []any, error) {
	if len(fields) == 0 {
		return "", nil, fmt.Errorf("%w: empty insert into %s", ErrInvalidQuery, rel)
	}
	cols := make([]string, 0, len(fields))
	for col := range fields {
		if err := checkColumn(rel, col); err != nil {
			return "", nil, err
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)
	args := make([]any, len(cols))
	marks := make([]string, len(cols))
	for i, col := range cols {
		args[i] = fields[col]
		marks[i] = "?"
	}
	verb := "INSERT"
	if orIgnore {
		verb = "INSERT OR IGNORE"
	}
	query := fmt.Sprintf("%s INTO %s (%s) VALUES (%s)", verb, rel, strings.Join(cols, ", "), strings.Join(marks, ", "))
	return query, args, nil
}

// Insert adds one row to rel.
func (o ops) Insert(ctx context.Context, rel Relation, fields Fields) error {
	query, args, err := buildInsert(rel, fields, false)
	if err != nil {
		return err
	}
	if _, err := o.exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert into %s: %w", rel, err)
	}
	return nil
}

// insertIgnore adds one row unless it violates a uniqueness constraint.
func (o ops) insertIgnore(ctx context.Context, rel Relation, fields Fields) (bool, error) {
	query, args, err := buildInsert(rel, fields, true)
	if err != nil {
		return false, err
	}
	res, err := o.exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("insert into %s: %w", rel, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert into %s: %w", rel, err)
	}
	return n > 0, nil
}

// SelectWhere returns the requested columns (all columns when none are
// given) of every row of rel matching pred, in insertion order.
func (o ops) SelectWhere(ctx context.Context, rel Relation, columns []string, pred Predicate, comb Combinator) ([]Row, error) {
	query, args, err := buildSelect(rel, columns, pred, comb)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		columns = relationColumns[rel]
	}
	rows, err := o.query(ctx, columns, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select from %s: %w", rel, err)
	}
	return rows, nil
}

// ExistsWhere reports whether any row of rel matches pred (AND-joined).
func (o ops) ExistsWhere(ctx context.Context, rel Relation, pred Predicate) (bool, error) {
	where, args, err := whereClause(rel, pred, And)
	if err != nil {
		return false, err
	}
	if _, ok := relationColumns[rel]; !ok {
		return false, fmt.Errorf("%w: unknown relation %q", ErrInvalidQuery, rel)
	}
	query := "SELECT EXISTS(SELECT 1 FROM " + string(rel) + where + ")"
	rows, err := o.query(ctx, []string{"exists"}, query, args...)
	if err != nil {
		return false, fmt.Errorf("exists in %s: %w", rel, err)
	}
	if len(rows) == 0 {
		return false, nil
	}
	return asInt64(rows[0]["exists"]) != 0, nil
}

// UpdateHandle sets the handle of an identity. It reports whether the
// stored handle changed; setting the handle it already has is a no-op.
func (o ops) UpdateHandle(ctx context.Context, identityID int64, handle string) (bool, error) {
	res, err := o.exec(ctx,
		`UPDATE identities SET handle = ?, updated_at = ? WHERE id = ? AND handle IS NOT ?`,
		nullableString(handle), formatTime(now()), identityID, nullableString(handle),
	)
	if err != nil {
		return false, fmt.Errorf("update handle for %d: %w", identityID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update handle for %d: %w", identityID, err)
	}
	return n > 0, nil
}

// deleteWhere removes matching rows of rel and returns the count removed.
func (o ops) deleteWhere(ctx context.Context, rel Relation, pred Predicate) (int64, error) {
	where, args, err := whereClause(rel, pred, And)
	if err != nil {
		return 0, err
	}
	if where == "" {
		return 0, fmt.Errorf("%w: unconditional delete from %s", ErrInvalidQuery, rel)
	}
	res, err := o.exec(ctx, "DELETE FROM "+string(rel)+where, args...)
	if err != nil {
		return 0, fmt.Errorf("delete from %s: %w", rel, err)
	}
	return res.RowsAffected()
}

// count returns the number of rows of rel matching pred.
func (o ops) count(ctx context.Context, rel Relation, pred Predicate) (int, error) {
	if _, ok := relationColumns[rel]; !ok {
		return 0, fmt.Errorf("%w: unknown relation %q", ErrInvalidQuery, rel)
	}
	where, args, err := whereClause(rel, pred, And)
	if err != nil {
		return 0, err
	}
	rows, err := o.query(ctx, []string{"n"}, "SELECT COUNT(1) FROM "+string(rel)+where, args...)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", rel, err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return int(asInt64(rows[0]["n"])), nil
}
