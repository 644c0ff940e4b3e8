package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/shadwattai/miniwallet/internal/apperrors"
)

// Column describes one column of a table.
type Column struct {
	Name       string
	Nullable   bool
	HasDefault bool
	Type       string
	Position   int
	PrimaryKey bool
}

// ConstraintGroup is a named set of columns that must be unique together.
type ConstraintGroup struct {
	Name    string
	Columns []string
	Primary bool
}

// Table is the cached metadata of one table.
type Table struct {
	Name    string
	Columns []Column
	Groups  []ConstraintGroup
	// KeyColumn is the declared surrogate key: the single-column primary key,
	// or an explicit override registered with WithKeyColumn.
	KeyColumn string

	index map[string]int
}

// Has reports whether the table has the named column.
func (t *Table) Has(column string) bool {
	_, ok := t.index[column]
	return ok
}

// Column returns the named column.
func (t *Table) Column(name string) (Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return Column{}, false
	}
	return t.Columns[i], true
}

// ColumnNames returns the column names in ordinal order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// SoftDeletes reports whether rows are soft-deleted rather than removed.
func (t *Table) SoftDeletes() bool { return t.Has("deleted_at") }

// Versioned reports whether the table carries an explicit version counter.
func (t *Table) Versioned() bool { return t.Has("version") }

// Querier is satisfied by *sql.DB, *sql.Tx and *sql.Conn.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithKeyColumn declares the surrogate key column of a table explicitly.
func WithKeyColumn(table, column string) Option {
	return func(c *Catalog) {
		c.keyOverrides[table] = column
	}
}

// Catalog reads table metadata from the storage engine and caches it per table.
// Metadata is treated as immutable for the lifetime of the process.
type Catalog struct {
	db           Querier
	dialect      Dialect
	keyOverrides map[string]string

	mu    sync.RWMutex
	cache map[string]*Table
}

// New creates a Catalog reading metadata through db.
func New(db Querier, dialect Dialect, opts ...Option) *Catalog {
	c := &Catalog{
		db:           db,
		dialect:      dialect,
		keyOverrides: make(map[string]string),
		cache:        make(map[string]*Table),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dialect returns the dialect the catalog was built with.
func (c *Catalog) Dialect() Dialect { return c.dialect }

// GetColumns returns the ordered columns of table.
func (c *Catalog) GetColumns(ctx context.Context, table string) ([]Column, error) {
	t, err := c.Table(ctx, table)
	if err != nil {
		return nil, err
	}
	return t.Columns, nil
}

// GetUniqueConstraintGroups returns the unique and primary key groups of table.
func (c *Catalog) GetUniqueConstraintGroups(ctx context.Context, table string) ([]ConstraintGroup, error) {
	t, err := c.Table(ctx, table)
	if err != nil {
		return nil, err
	}
	return t.Groups, nil
}

// Table returns the full cached metadata of table, loading it on first use.
func (c *Catalog) Table(ctx context.Context, table string) (*Table, error) {
	return c.TableVia(ctx, c.db, table)
}

// TableVia is Table with the metadata read through q on a cache miss. Callers
// holding an open transaction pass it here so the load does not need a second
// connection.
func (c *Catalog) TableVia(ctx context.Context, q Querier, table string) (*Table, error) {
	c.mu.RLock()
	t, ok := c.cache[table]
	c.mu.RUnlock()
	if ok {
		return t, nil
	}

	t, err := c.load(ctx, q, table)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if existing, ok := c.cache[table]; ok {
		t = existing
	} else {
		c.cache[table] = t
	}
	c.mu.Unlock()
	return t, nil
}

// Invalidate drops the cached metadata of table.
func (c *Catalog) Invalidate(table string) {
	c.mu.Lock()
	delete(c.cache, table)
	c.mu.Unlock()
}

func (c *Catalog) load(ctx context.Context, q Querier, table string) (*Table, error) {
	cols, err := c.loadColumns(ctx, q, table)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, &apperrors.SchemaError{Table: table, Reason: "table does not exist"}
	}

	groups, err := c.loadGroups(ctx, q, table)
	if err != nil {
		return nil, err
	}

	t := &Table{Name: table, Columns: cols, Groups: groups, index: make(map[string]int, len(cols))}
	for i, col := range cols {
		t.index[col.Name] = i
	}

	if key, ok := c.keyOverrides[table]; ok {
		if !t.Has(key) {
			return nil, &apperrors.SchemaError{Table: table, Reason: fmt.Sprintf("declared key column %s does not exist", key)}
		}
		t.KeyColumn = key
	} else {
		var pk []string
		for _, col := range cols {
			if col.PrimaryKey {
				pk = append(pk, col.Name)
			}
		}
		if len(pk) == 1 {
			t.KeyColumn = pk[0]
		}
	}
	return t, nil
}

func (c *Catalog) loadColumns(ctx context.Context, q Querier, table string) ([]Column, error) {
	rows, err := q.QueryContext(ctx, c.dialect.ColumnsQuery(), table)
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var col Column
		var dataType sql.NullString
		if err := rows.Scan(&col.Name, &col.Nullable, &col.HasDefault, &dataType, &col.PrimaryKey); err != nil {
			return nil, fmt.Errorf("failed to scan column of %s: %w", table, err)
		}
		col.Type = dataType.String
		col.Position = len(cols) + 1
		cols = append(cols, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate columns of %s: %w", table, err)
	}
	return cols, nil
}

func (c *Catalog) loadGroups(ctx context.Context, q Querier, table string) ([]ConstraintGroup, error) {
	rows, err := q.QueryContext(ctx, c.dialect.ConstraintsQuery(), table)
	if err != nil {
		return nil, fmt.Errorf("failed to read constraints of %s: %w", table, err)
	}
	defer rows.Close()

	var groups []ConstraintGroup
	for rows.Next() {
		var name, column string
		var primary bool
		if err := rows.Scan(&name, &primary, &column); err != nil {
			return nil, fmt.Errorf("failed to scan constraint of %s: %w", table, err)
		}
		// Rows arrive ordered by constraint name, so a group is always the last one appended.
		if n := len(groups); n > 0 && groups[n-1].Name == name {
			groups[n-1].Columns = append(groups[n-1].Columns, column)
			continue
		}
		groups = append(groups, ConstraintGroup{Name: name, Columns: []string{column}, Primary: primary})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate constraints of %s: %w", table, err)
	}
	return groups, nil
}
