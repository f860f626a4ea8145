// internal/counting/rows.go
package counting

import (
	"math"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/javajoker/stockcount/internal/apiclient"
)

const (
	InitialQuantity = 1.0
	MinQuantity     = 0.0001
	// MaxQuantity keeps converted quantities well inside int64.
	MaxQuantity = 1e9
)

// Row validation messages.
const (
	MsgProductRequired  = "Product is required"
	MsgDuplicateProduct = "Duplicate product"
	MsgUnitRequired     = "Unit is required"
	MsgQuantityInvalid  = "Quantity must be greater than 0"
	MsgQuantityTooLarge = "Quantity is too large"
)

// ProductSnapshot is the product data a row needs for unit conversion,
// copied from the product catalogue when the product is picked.
type ProductSnapshot struct {
	ID               string
	Code             string
	Description      string
	ConversionFactor decimal.Decimal
	InventoryUnitID  string
	PackagingUnitID  string
}

func SnapshotOf(p apiclient.Product) *ProductSnapshot {
	return &ProductSnapshot{
		ID:               p.ID,
		Code:             p.Code,
		Description:      p.Description,
		ConversionFactor: p.ConversionFactor,
		InventoryUnitID:  p.InventoryUnitID,
		PackagingUnitID:  p.PackagingUnitID,
	}
}

type ProductCountRow struct {
	RowID         string
	ProductID     string
	MeasureUnitID string
	Quantity      float64
	Product       *ProductSnapshot
}

// RowPatch holds the fields UpdateRow merges into a row. Nil fields are left untouched.
type RowPatch struct {
	ProductID     *string
	MeasureUnitID *string
	Quantity      *float64
	Product       *ProductSnapshot
}

// RowSet is the editable, ordered list of rows behind one submission.
// It is not safe for concurrent use.
type RowSet struct {
	rows   []ProductCountRow
	errors map[string]string
	newID  func() string
}

func NewRowSet() *RowSet {
	return &RowSet{
		errors: make(map[string]string),
		newID: func() string {
			return "row-" + uuid.NewString()
		},
	}
}

// AddRow appends an empty row and returns its id.
func (s *RowSet) AddRow() string {
	id := s.newID()
	s.rows = append(s.rows, ProductCountRow{
		RowID:    id,
		Quantity: InitialQuantity,
	})
	delete(s.errors, id)
	return id
}

// RemoveRow drops the row. Unknown ids are ignored.
func (s *RowSet) RemoveRow(rowID string) {
	for i, row := range s.rows {
		if row.RowID == rowID {
			s.rows = append(s.rows[:i], s.rows[i+1:]...)
			break
		}
	}
	delete(s.errors, rowID)
}

// UpdateRow merges patch into the row and clears the row's error.
// It reports whether the row exists.
func (s *RowSet) UpdateRow(rowID string, patch RowPatch) bool {
	delete(s.errors, rowID)
	for i := range s.rows {
		if s.rows[i].RowID != rowID {
			continue
		}
		row := &s.rows[i]
		if patch.ProductID != nil {
			row.ProductID = *patch.ProductID
		}
		if patch.MeasureUnitID != nil {
			row.MeasureUnitID = *patch.MeasureUnitID
		}
		if patch.Quantity != nil {
			row.Quantity = *patch.Quantity
		}
		if patch.Product != nil {
			row.Product = patch.Product
		}
		return true
	}
	return false
}

// Validate checks every row in insertion order, stopping at the first failing
// rule per row, and replaces the error map. It returns true when no row failed.
func (s *RowSet) Validate() bool {
	errs := make(map[string]string)
	seen := make(map[string]struct{}, len(s.rows))
	for _, row := range s.rows {
		if row.ProductID == "" {
			errs[row.RowID] = MsgProductRequired
			continue
		}
		if _, dup := seen[row.ProductID]; dup {
			errs[row.RowID] = MsgDuplicateProduct
			continue
		}
		seen[row.ProductID] = struct{}{}
		if row.MeasureUnitID == "" {
			errs[row.RowID] = MsgUnitRequired
			continue
		}
		if row.Quantity > MaxQuantity && !math.IsInf(row.Quantity, 1) {
			errs[row.RowID] = MsgQuantityTooLarge
			continue
		}
		if !validQuantity(row.Quantity) {
			errs[row.RowID] = MsgQuantityInvalid
		}
	}
	s.errors = errs
	return len(errs) == 0
}

// ValidRows returns the rows eligible for submission, in insertion order.
// A row without a product snapshot cannot be converted and is left out.
func (s *RowSet) ValidRows() []ProductCountRow {
	out := make([]ProductCountRow, 0, len(s.rows))
	for _, row := range s.rows {
		if row.ProductID != "" && row.MeasureUnitID != "" && row.Product != nil && validQuantity(row.Quantity) {
			out = append(out, row)
		}
	}
	return out
}

func (s *RowSet) Rows() []ProductCountRow {
	out := make([]ProductCountRow, len(s.rows))
	copy(out, s.rows)
	return out
}

func (s *RowSet) Row(rowID string) (ProductCountRow, bool) {
	for _, row := range s.rows {
		if row.RowID == rowID {
			return row, true
		}
	}
	return ProductCountRow{}, false
}

// Errors returns a copy of the errors recorded by the last Validate.
func (s *RowSet) Errors() map[string]string {
	out := make(map[string]string, len(s.errors))
	for k, v := range s.errors {
		out[k] = v
	}
	return out
}

func (s *RowSet) Len() int {
	return len(s.rows)
}

// Reset empties the set, as after a successful submission.
func (s *RowSet) Reset() {
	s.rows = nil
	s.errors = make(map[string]string)
}

func validQuantity(q float64) bool {
	return !math.IsNaN(q) && !math.IsInf(q, 0) && q >= MinQuantity && q <= MaxQuantity
}
