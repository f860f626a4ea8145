// internal/counting/importer.go
package counting

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/javajoker/stockcount/internal/apiclient"
)

// Catalog resolves the codes people type into backend ids.
type Catalog struct {
	products map[string]apiclient.Product
	units    map[string]apiclient.MeasureUnit
}

func NewCatalog(products []apiclient.Product, units []apiclient.MeasureUnit) *Catalog {
	c := &Catalog{
		products: make(map[string]apiclient.Product, len(products)),
		units:    make(map[string]apiclient.MeasureUnit, len(units)),
	}
	for _, p := range products {
		c.products[strings.ToUpper(strings.TrimSpace(p.Code))] = p
	}
	for _, u := range units {
		c.units[strings.ToUpper(strings.TrimSpace(u.Abbreviation))] = u
	}
	return c
}

func (c *Catalog) Product(code string) (apiclient.Product, bool) {
	p, ok := c.products[strings.ToUpper(strings.TrimSpace(code))]
	return p, ok
}

func (c *Catalog) Unit(abbreviation string) (apiclient.MeasureUnit, bool) {
	u, ok := c.units[strings.ToUpper(strings.TrimSpace(abbreviation))]
	return u, ok
}

// ImportCSV reads product_code,unit_abbreviation,quantity records into a new
// RowSet. A header line is skipped when its first column is product_code.
// Blank product or unit cells become empty rows so Validate reports them;
// codes that are not in the catalog are an error.
func ImportCSV(r io.Reader, catalog *Catalog) (*RowSet, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 3
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	rows := NewRowSet()
	for first := true; ; first = false {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if first && strings.EqualFold(strings.TrimSpace(record[0]), "product_code") {
			continue
		}

		patch, err := catalog.patch(record)
		if err != nil {
			line, _ := reader.FieldPos(0)
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows.UpdateRow(rows.AddRow(), patch)
	}
	return rows, nil
}

func (c *Catalog) patch(record []string) (RowPatch, error) {
	var patch RowPatch

	if code := strings.TrimSpace(record[0]); code != "" {
		product, ok := c.Product(code)
		if !ok {
			return patch, fmt.Errorf("unknown product %q", code)
		}
		patch.ProductID = &product.ID
		patch.Product = SnapshotOf(product)
	}

	if abbreviation := strings.TrimSpace(record[1]); abbreviation != "" {
		unit, ok := c.Unit(abbreviation)
		if !ok {
			return patch, fmt.Errorf("unknown unit %q", abbreviation)
		}
		patch.MeasureUnitID = &unit.ID
	}

	quantity, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
	if err != nil {
		return patch, fmt.Errorf("invalid quantity %q", record[2])
	}
	patch.Quantity = &quantity
	return patch, nil
}
