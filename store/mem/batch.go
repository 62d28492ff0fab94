package mem

// A Batch is a contiguous horizontal slice of a table: an ordered
// list of equal-length columns sharing a row space. Batches are
// borrowed immutably by queries and may be shared across sequential
// queries.
type Batch struct {
	cols []Column
}

// NewBatch returns a batch over the provided columns. Callers should
// not subsequently modify cols.
func NewBatch(cols []Column) *Batch { return &Batch{cols: cols} }

// Cols returns the batch's columns in batch order. The caller must
// not modify the result.
func (b *Batch) Cols() []Column { return b.cols }

// Col returns the named column, or nil if the batch has no such
// column.
func (b *Batch) Col(name string) Column {
	for _, c := range b.cols {
		if c.Name() == name {
			return c
		}
	}
	return nil
}
