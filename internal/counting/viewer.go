// internal/counting/viewer.go
package counting

import (
	"context"
	"fmt"

	"github.com/javajoker/stockcount/internal/apiclient"
)

type ProductTotal struct {
	ProductID         string
	Code              string
	Description       string
	Entries           int
	PackagingQuantity int64
	TotalUnits        int64
}

type Summary struct {
	Entries           int
	PackagingQuantity int64
	TotalUnits        int64
	Products          []ProductTotal
}

// Summarize adds up server totals, grouping entries per product in order of
// first appearance.
func Summarize(counts []apiclient.Count) Summary {
	sum := Summary{Products: []ProductTotal{}}
	index := make(map[string]int)
	for _, c := range counts {
		sum.Entries++
		sum.PackagingQuantity += c.PackagingQuantity
		sum.TotalUnits += c.TotalUnits

		i, ok := index[c.Product.ID]
		if !ok {
			i = len(sum.Products)
			index[c.Product.ID] = i
			sum.Products = append(sum.Products, ProductTotal{
				ProductID:   c.Product.ID,
				Code:        c.Product.Code,
				Description: c.Product.Description,
			})
		}
		pt := &sum.Products[i]
		pt.Entries++
		pt.PackagingQuantity += c.PackagingQuantity
		pt.TotalUnits += c.TotalUnits
	}
	return sum
}

type CountsView struct {
	SessionID string
	Counts    []apiclient.Count
	Summary   Summary
}

// Empty reports a session without counts, which is not an error.
func (v *CountsView) Empty() bool {
	return len(v.Counts) == 0
}

type Viewer struct {
	api CountsLister
}

func NewViewer(api CountsLister) *Viewer {
	return &Viewer{api: api}
}

func (v *Viewer) Load(ctx context.Context, creds apiclient.Credentials, sessionID string) (*CountsView, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session id is required")
	}
	counts, err := v.api.ListCounts(ctx, creds, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load counts for session %s: %w", sessionID, err)
	}
	if counts == nil {
		counts = []apiclient.Count{}
	}
	return &CountsView{
		SessionID: sessionID,
		Counts:    counts,
		Summary:   Summarize(counts),
	}, nil
}
