package mapping

import (
	"errors"
	"fmt"
	"time"

	"github.com/shadwattai/miniwallet/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// recordReader converts loosely typed driver values of a Record into domain
// types, collecting every conversion failure.
type recordReader struct {
	r    domain.Record
	errs []error
}

func newReader(r domain.Record) *recordReader {
	return &recordReader{r: r}
}

func (rr *recordReader) fail(col string, v any, err error) {
	rr.errs = append(rr.errs, fmt.Errorf("column %s (%T): %w", col, v, err))
}

func (rr *recordReader) str(col string) string {
	v := rr.r[col]
	if v == nil {
		return ""
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		rr.fail(col, v, err)
	}
	return s
}

func (rr *recordReader) dec(col string) decimal.Decimal {
	v := rr.r[col]
	switch d := v.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return d
	case float64:
		return decimal.NewFromFloat(d)
	}
	d, err := decimal.NewFromString(cast.ToString(v))
	if err != nil {
		rr.fail(col, v, err)
		return decimal.Zero
	}
	return d
}

func (rr *recordReader) boolean(col string) bool {
	v := rr.r[col]
	if v == nil {
		return false
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		rr.fail(col, v, err)
	}
	return b
}

func (rr *recordReader) int64(col string) int64 {
	v := rr.r[col]
	if v == nil {
		return 0
	}
	n, err := cast.ToInt64E(v)
	if err != nil {
		rr.fail(col, v, err)
	}
	return n
}

func (rr *recordReader) time(col string) time.Time {
	v := rr.r[col]
	if v == nil {
		return time.Time{}
	}
	t, err := cast.ToTimeE(v)
	if err != nil {
		rr.fail(col, v, err)
	}
	return t.UTC()
}

func (rr *recordReader) timePtr(col string) *time.Time {
	if rr.r[col] == nil {
		return nil
	}
	t := rr.time(col)
	return &t
}

func (rr *recordReader) err() error {
	return errors.Join(rr.errs...)
}

// ToDomainAuditFields reads the system columns of a record.
func ToDomainAuditFields(r domain.Record) (domain.AuditFields, error) {
	rr := newReader(r)
	f := auditFields(rr)
	return f, rr.err()
}

func auditFields(rr *recordReader) domain.AuditFields {
	return domain.AuditFields{
		CreatedAt: rr.time("created_at"),
		CreatedBy: rr.str("created_by"),
		UpdatedAt: rr.time("updated_at"),
		UpdatedBy: rr.str("updated_by"),
		DeletedAt: rr.timePtr("deleted_at"),
		DeletedBy: rr.str("deleted_by"),
	}
}
