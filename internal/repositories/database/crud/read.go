package crud

import (
	"context"
	"fmt"
	"strings"

	"github.com/shadwattai/miniwallet/internal/apperrors"
	"github.com/shadwattai/miniwallet/internal/core/domain"
	"github.com/shadwattai/miniwallet/internal/repositories/database/catalog"
	"github.com/shadwattai/miniwallet/internal/utils/pagination"
)

const (
	defaultSearchLimit = 100
	defaultPerPage     = 15
	maxGetAll          = 1000
	defaultCursorLimit = 50
	maxCursorLimit     = 200
	streamChunkSize    = 500
)

// Criterion is one search condition.
type Criterion struct {
	Field string `json:"field"`
	Op    string `json:"op"`
	Value any    `json:"value"`
}

var searchOperators = map[string]string{
	"=": "=", "!=": "<>", "<>": "<>", "<": "<", "<=": "<=", ">": ">", ">=": ">=", "like": "LIKE",
}

// Page is one page of Paginate.
type Page struct {
	Rows     []domain.Record `json:"rows"`
	Total    int64           `json:"total"`
	Page     int             `json:"page"`
	PerPage  int             `json:"perPage"`
	LastPage int             `json:"lastPage"`
}

// CursorPage is one page of Cursor. NextToken is nil on the last page.
type CursorPage struct {
	Rows      []domain.Record `json:"rows"`
	NextToken *string         `json:"nextToken,omitempty"`
}

// CursorQuery selects rows for Cursor. Filters are ANDed equality terms,
// AnyOf are ORed equality terms.
type CursorQuery struct {
	Filters map[string]any
	AnyOf   map[string]any
	Limit   int
	Token   string
}

// TableStats summarises a table.
type TableStats struct {
	Table       string   `json:"table"`
	Total       int64    `json:"total"`
	Active      int64    `json:"active"`
	SoftDeleted int64    `json:"softDeleted"`
	Columns     []string `json:"columns"`
}

func (e *Engine) auditRead(ctx context.Context, actor domain.Actor, opts ReadOptions, action domain.AuditAction, table string, shape any, count int) {
	if opts.NoAudit {
		return
	}
	e.audit(ctx, actor, action, fmt.Sprintf("%s on %s returned %d rows", action, table, count), table,
		nil, map[string]any{"query": shape, "count": count})
}

// GetSingle returns the first row matching filters, or NotFoundError.
func (e *Engine) GetSingle(ctx context.Context, actor domain.Actor, table string, filters map[string]any, opts ...ReadOptions) (domain.Record, error) {
	o := mergeReadOptions(opts)
	t, err := e.table(ctx, table)
	if err != nil {
		return nil, err
	}

	b := &binder{dialect: e.dialect}
	conds, err := e.equalityWhere(t, b, filters)
	if err != nil {
		return nil, err
	}
	conds = append(conds, e.liveCondition(t, o.IncludeDeleted)...)
	query := "SELECT " + e.selectList(t) + " FROM " + e.q(t.Name) + whereClause(conds) +
		" ORDER BY " + e.q(t.KeyColumn) + " LIMIT 1"

	recs, err := e.queryRecords(ctx, query, b.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", table, err)
	}
	e.auditRead(ctx, actor, o, domain.ActionRead, table, sortedKeys(filters), len(recs))
	if len(recs) == 0 {
		return nil, &apperrors.NotFoundError{Table: table, Key: describeFilters(filters)}
	}
	return recs[0], nil
}

// GetByKey returns the row with the given surrogate key.
func (e *Engine) GetByKey(ctx context.Context, actor domain.Actor, table, key string, opts ...ReadOptions) (domain.Record, error) {
	o := mergeReadOptions(opts)
	t, err := e.table(ctx, table)
	if err != nil {
		return nil, err
	}
	rec, err := e.fetchByKey(ctx, t, key, o.IncludeDeleted)
	count := 1
	if err != nil {
		count = 0
	}
	e.auditRead(ctx, actor, o, domain.ActionRead, table, []string{t.KeyColumn}, count)
	return rec, err
}

// GetByField returns the first row whose field equals value.
func (e *Engine) GetByField(ctx context.Context, actor domain.Actor, table, field string, value any, opts ...ReadOptions) (domain.Record, error) {
	return e.GetSingle(ctx, actor, table, map[string]any{field: value}, opts...)
}

// Search returns up to limit rows matching every criterion, ordered by key.
func (e *Engine) Search(ctx context.Context, actor domain.Actor, table string, criteria []Criterion, limit int, opts ...ReadOptions) ([]domain.Record, error) {
	o := mergeReadOptions(opts)
	t, err := e.table(ctx, table)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	b := &binder{dialect: e.dialect}
	conds := make([]string, 0, len(criteria)+1)
	for _, c := range criteria {
		if !t.Has(c.Field) {
			return nil, &apperrors.SchemaError{Table: table, Reason: fmt.Sprintf("unknown column %s", c.Field)}
		}
		op, ok := searchOperators[strings.ToLower(strings.TrimSpace(c.Op))]
		if !ok {
			return nil, fmt.Errorf("%w: unsupported operator %q", apperrors.ErrValidation, c.Op)
		}
		col := e.q(c.Field)
		if op == "LIKE" {
			col = "CAST(" + col + " AS TEXT)"
		}
		conds = append(conds, col+" "+op+" "+b.bind(c.Value))
	}
	conds = append(conds, e.liveCondition(t, o.IncludeDeleted)...)
	query := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s LIMIT %d",
		e.selectList(t), e.q(t.Name), whereClause(conds), e.q(t.KeyColumn), limit)

	recs, err := e.queryRecords(ctx, query, b.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", table, err)
	}
	shape := make([]map[string]string, len(criteria))
	for i, c := range criteria {
		shape[i] = map[string]string{"field": c.Field, "op": c.Op}
	}
	e.auditRead(ctx, actor, o, domain.ActionSearch, table, shape, len(recs))
	return recs, nil
}

// Paginate returns one page of rows whose columns contain the filter values,
// newest first.
func (e *Engine) Paginate(ctx context.Context, actor domain.Actor, table string, filters map[string]any, page, perPage int, opts ...ReadOptions) (*Page, error) {
	o := mergeReadOptions(opts)
	t, err := e.table(ctx, table)
	if err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = defaultPerPage
	}

	b := &binder{dialect: e.dialect}
	conds := make([]string, 0, len(filters)+1)
	for _, f := range sortedKeys(filters) {
		if !t.Has(f) {
			return nil, &apperrors.SchemaError{Table: table, Reason: fmt.Sprintf("unknown column %s", f)}
		}
		conds = append(conds, "CAST("+e.q(f)+" AS TEXT) LIKE "+b.bind("%"+fmt.Sprint(filters[f])+"%"))
	}
	conds = append(conds, e.liveCondition(t, o.IncludeDeleted)...)

	total, err := e.count(ctx, t, conds, b.args)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s LIMIT %d OFFSET %d",
		e.selectList(t), e.q(t.Name), whereClause(conds), e.newestFirst(t), perPage, (page-1)*perPage)
	recs, err := e.queryRecords(ctx, query, b.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to paginate %s: %w", table, err)
	}
	e.auditRead(ctx, actor, o, domain.ActionSearch, table, sortedKeys(filters), len(recs))

	lastPage := int((total + int64(perPage) - 1) / int64(perPage))
	if lastPage < 1 {
		lastPage = 1
	}
	if recs == nil {
		recs = []domain.Record{}
	}
	return &Page{Rows: recs, Total: total, Page: page, PerPage: perPage, LastPage: lastPage}, nil
}

func (e *Engine) newestFirst(t *catalog.Table) string {
	if t.Has(colCreatedAt) {
		return e.q(colCreatedAt) + " DESC, " + e.q(t.KeyColumn) + " DESC"
	}
	return e.q(t.KeyColumn) + " DESC"
}

// CountRows counts live rows matching filters.
func (e *Engine) CountRows(ctx context.Context, actor domain.Actor, table string, filters map[string]any, opts ...ReadOptions) (int64, error) {
	o := mergeReadOptions(opts)
	t, err := e.table(ctx, table)
	if err != nil {
		return 0, err
	}
	b := &binder{dialect: e.dialect}
	conds, err := e.equalityWhere(t, b, filters)
	if err != nil {
		return 0, err
	}
	conds = append(conds, e.liveCondition(t, o.IncludeDeleted)...)
	n, err := e.count(ctx, t, conds, b.args)
	if err != nil {
		return 0, err
	}
	e.auditRead(ctx, actor, o, domain.ActionRead, table, map[string]any{"count": sortedKeys(filters)}, int(n))
	return n, nil
}

// Chunk walks the table in key order, size rows at a time.
func (e *Engine) Chunk(ctx context.Context, actor domain.Actor, table string, size int, fn func([]domain.Record) error, opts ...ReadOptions) error {
	o := mergeReadOptions(opts)
	t, err := e.table(ctx, table)
	if err != nil {
		return err
	}
	if size <= 0 {
		size = streamChunkSize
	}

	total := 0
	after := ""
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		b := &binder{dialect: e.dialect}
		var conds []string
		if after != "" {
			conds = append(conds, e.q(t.KeyColumn)+" > "+b.bind(after))
		}
		conds = append(conds, e.liveCondition(t, o.IncludeDeleted)...)
		query := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s LIMIT %d",
			e.selectList(t), e.q(t.Name), whereClause(conds), e.q(t.KeyColumn), size)

		recs, err := e.queryRecords(ctx, query, b.args...)
		if err != nil {
			return fmt.Errorf("failed to read chunk of %s: %w", table, err)
		}
		if len(recs) == 0 {
			break
		}
		total += len(recs)
		if err := fn(recs); err != nil {
			return err
		}
		if len(recs) < size {
			break
		}
		after = keyString(recs[len(recs)-1][t.KeyColumn])
	}

	e.auditRead(ctx, actor, o, domain.ActionRead, table, map[string]any{"chunk": size}, total)
	return nil
}

// Stream calls fn for every row in key order and audits once at the end.
func (e *Engine) Stream(ctx context.Context, actor domain.Actor, table string, fn func(domain.Record) error, opts ...ReadOptions) error {
	o := mergeReadOptions(opts)
	total := 0
	err := e.Chunk(ctx, actor, table, streamChunkSize, func(recs []domain.Record) error {
		for _, r := range recs {
			if err := fn(r); err != nil {
				return err
			}
			total++
		}
		return nil
	}, ReadOptions{IncludeDeleted: o.IncludeDeleted, NoAudit: true})
	if err != nil {
		return err
	}
	e.auditRead(ctx, actor, o, domain.ActionRead, table, "stream", total)
	return nil
}

// GetAll returns up to limit live rows in key order. limit is capped at 1000.
func (e *Engine) GetAll(ctx context.Context, actor domain.Actor, table string, limit int, opts ...ReadOptions) ([]domain.Record, error) {
	o := mergeReadOptions(opts)
	t, err := e.table(ctx, table)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > maxGetAll {
		limit = maxGetAll
	}
	query := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s LIMIT %d",
		e.selectList(t), e.q(t.Name), whereClause(e.liveCondition(t, o.IncludeDeleted)), e.q(t.KeyColumn), limit)
	recs, err := e.queryRecords(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", table, err)
	}
	e.auditRead(ctx, actor, o, domain.ActionRead, table, "all", len(recs))
	return recs, nil
}

// WhereIn returns the live rows whose field is one of values.
func (e *Engine) WhereIn(ctx context.Context, actor domain.Actor, table, field string, values []any, opts ...ReadOptions) ([]domain.Record, error) {
	o := mergeReadOptions(opts)
	t, err := e.table(ctx, table)
	if err != nil {
		return nil, err
	}
	if !t.Has(field) {
		return nil, &apperrors.SchemaError{Table: table, Reason: fmt.Sprintf("unknown column %s", field)}
	}
	if len(values) == 0 {
		return []domain.Record{}, nil
	}

	b := &binder{dialect: e.dialect}
	marks := make([]string, len(values))
	for i, v := range values {
		marks[i] = b.bind(v)
	}
	conds := append([]string{e.q(field) + " IN (" + joinComma(marks) + ")"}, e.liveCondition(t, o.IncludeDeleted)...)
	query := "SELECT " + e.selectList(t) + " FROM " + e.q(t.Name) + whereClause(conds) + " ORDER BY " + e.q(t.KeyColumn)

	recs, err := e.queryRecords(ctx, query, b.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", table, err)
	}
	e.auditRead(ctx, actor, o, domain.ActionSearch, table, map[string]any{"in": field, "values": len(values)}, len(recs))
	return recs, nil
}

// GetSoftDeleted returns soft-deleted rows, most recently deleted first.
func (e *Engine) GetSoftDeleted(ctx context.Context, actor domain.Actor, table string, limit int, opts ...ReadOptions) ([]domain.Record, error) {
	o := mergeReadOptions(opts)
	t, err := e.table(ctx, table)
	if err != nil {
		return nil, err
	}
	if !t.SoftDeletes() {
		return nil, &apperrors.SchemaError{Table: table, Reason: "table does not support soft deletes"}
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s IS NOT NULL ORDER BY %s DESC, %s LIMIT %d",
		e.selectList(t), e.q(t.Name), e.q(colDeletedAt), e.q(colDeletedAt), e.q(t.KeyColumn), limit)
	recs, err := e.queryRecords(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read deleted rows of %s: %w", table, err)
	}
	e.auditRead(ctx, actor, o, domain.ActionRead, table, "soft_deleted", len(recs))
	return recs, nil
}

// TableStats counts the table's rows by state.
func (e *Engine) TableStats(ctx context.Context, actor domain.Actor, table string) (*TableStats, error) {
	t, err := e.table(ctx, table)
	if err != nil {
		return nil, err
	}
	total, err := e.count(ctx, t, nil, nil)
	if err != nil {
		return nil, err
	}
	var deleted int64
	if t.SoftDeletes() {
		deleted, err = e.count(ctx, t, []string{e.q(colDeletedAt) + " IS NOT NULL"}, nil)
		if err != nil {
			return nil, err
		}
	}
	e.auditRead(ctx, actor, ReadOptions{}, domain.ActionRead, table, "stats", int(total))
	return &TableStats{
		Table:       table,
		Total:       total,
		Active:      total - deleted,
		SoftDeleted: deleted,
		Columns:     t.ColumnNames(),
	}, nil
}

// Cursor returns a keyset page ordered by (created_at, key) descending.
func (e *Engine) Cursor(ctx context.Context, actor domain.Actor, table string, cq CursorQuery, opts ...ReadOptions) (*CursorPage, error) {
	o := mergeReadOptions(opts)
	t, err := e.table(ctx, table)
	if err != nil {
		return nil, err
	}
	if !t.Has(colCreatedAt) {
		return nil, &apperrors.SchemaError{Table: table, Reason: "table has no created_at column"}
	}
	limit := cq.Limit
	if limit <= 0 {
		limit = defaultCursorLimit
	}
	if limit > maxCursorLimit {
		limit = maxCursorLimit
	}

	b := &binder{dialect: e.dialect}
	conds, err := e.equalityWhere(t, b, cq.Filters)
	if err != nil {
		return nil, err
	}
	if len(cq.AnyOf) > 0 {
		anyConds, err := e.equalityWhere(t, b, cq.AnyOf)
		if err != nil {
			return nil, err
		}
		conds = append(conds, "("+strings.Join(anyConds, " OR ")+")")
	}
	if cq.Token != "" {
		at, key, err := pagination.DecodeCursor(cq.Token)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid page token: %v", apperrors.ErrValidation, err)
		}
		created, keyCol := e.q(colCreatedAt), e.q(t.KeyColumn)
		conds = append(conds, fmt.Sprintf("(%s < %s OR (%s = %s AND %s < %s))",
			created, b.bind(at), created, b.bind(at), keyCol, b.bind(key)))
	}
	conds = append(conds, e.liveCondition(t, o.IncludeDeleted)...)

	query := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s LIMIT %d",
		e.selectList(t), e.q(t.Name), whereClause(conds), e.newestFirst(t), limit+1)
	recs, err := e.queryRecords(ctx, query, b.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", table, err)
	}

	page := &CursorPage{Rows: recs}
	if len(recs) > limit {
		page.Rows = recs[:limit]
		last := page.Rows[limit-1]
		createdAt, _ := asTime(last[colCreatedAt])
		token := pagination.EncodeCursor(createdAt, keyString(last[t.KeyColumn]))
		page.NextToken = &token
	}
	if page.Rows == nil {
		page.Rows = []domain.Record{}
	}
	e.auditRead(ctx, actor, o, domain.ActionSearch, table, map[string]any{"filters": sortedKeys(cq.Filters), "any": sortedKeys(cq.AnyOf)}, len(page.Rows))
	return page, nil
}

func describeFilters(filters map[string]any) string {
	parts := make([]string, 0, len(filters))
	for _, k := range sortedKeys(filters) {
		parts = append(parts, fmt.Sprintf("%s=%v", k, filters[k]))
	}
	return strings.Join(parts, ",")
}

func joinComma(parts []string) string { return strings.Join(parts, ", ") }
