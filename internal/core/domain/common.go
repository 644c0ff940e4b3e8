package domain

import "time"

// AuditFields holds the system columns every record carries.
type AuditFields struct {
	CreatedAt time.Time  `json:"createdAt"`
	CreatedBy string     `json:"createdBy"` // Actor UserKey
	UpdatedAt time.Time  `json:"updatedAt"`
	UpdatedBy string     `json:"updatedBy"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"` // Non-nil means soft-deleted
	DeletedBy string     `json:"deletedBy,omitempty"`
}

// IsDeleted reports whether the record has been soft-deleted.
func (a AuditFields) IsDeleted() bool {
	return a.DeletedAt != nil
}

// Record is a generic row in any table, keyed by column name.
type Record map[string]any

// Get returns the value of a column and whether it was present.
func (r Record) Get(column string) (any, bool) {
	v, ok := r[column]
	return v, ok
}

// Has reports whether the column is present with a non-nil value.
func (r Record) Has(column string) bool {
	v, ok := r[column]
	return ok && v != nil
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
