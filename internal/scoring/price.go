package scoring

import (
	"fmt"
	"math"
	"sort"

	"github.com/wonny/printdesk/backend/internal/contracts"
	"github.com/wonny/printdesk/backend/internal/scoringconfig"
)

// PriceComparison turns a price snapshot into a relative position for one supplier.
// position = (reference - price) / reference, so cheaper is positive.
type PriceComparison interface {
	Name() string
	RelativePosition(supplierID int64, snapshot *contracts.PriceSnapshot) (position, reference float64, ok bool)
}

// NewPriceComparison returns the strategy named in the scoring config
func NewPriceComparison(name string) (PriceComparison, error) {
	switch name {
	case scoringconfig.ComparisonExactMatch:
		return ExactMatchComparison{}, nil
	case scoringconfig.ComparisonCategoryAverage:
		return CategoryAverageComparison{}, nil
	default:
		return nil, fmt.Errorf("unknown price comparison %q", name)
	}
}

// ExactMatchComparison compares against the mean of competitors' prices
// for the exact product/quantity in the snapshot
type ExactMatchComparison struct{}

// Name returns the strategy name
func (ExactMatchComparison) Name() string { return scoringconfig.ComparisonExactMatch }

// RelativePosition implements PriceComparison
func (ExactMatchComparison) RelativePosition(supplierID int64, snapshot *contracts.PriceSnapshot) (float64, float64, bool) {
	price, ok := supplierPrice(supplierID, snapshot)
	if !ok {
		return 0, 0, false
	}

	reference, ok := meanPrice(snapshot.Prices, supplierID)
	if !ok {
		return 0, 0, false
	}

	pos, ok := position(price, reference)
	if !ok {
		return 0, 0, false
	}
	return pos, reference, true
}

// CategoryAverageComparison compares against the catalog's category average,
// falling back to the mean of every quoted price in the snapshot
type CategoryAverageComparison struct{}

// Name returns the strategy name
func (CategoryAverageComparison) Name() string { return scoringconfig.ComparisonCategoryAverage }

// RelativePosition implements PriceComparison
func (CategoryAverageComparison) RelativePosition(supplierID int64, snapshot *contracts.PriceSnapshot) (float64, float64, bool) {
	price, ok := supplierPrice(supplierID, snapshot)
	if !ok {
		return 0, 0, false
	}

	var reference float64
	if snapshot.CategoryAverage != nil && *snapshot.CategoryAverage > 0 {
		reference = *snapshot.CategoryAverage
	} else {
		reference, ok = meanPrice(snapshot.Prices, 0)
		if !ok {
			return 0, 0, false
		}
	}

	pos, ok := position(price, reference)
	if !ok {
		return 0, 0, false
	}
	return pos, reference, true
}

func supplierPrice(supplierID int64, snapshot *contracts.PriceSnapshot) (float64, bool) {
	if snapshot == nil || len(snapshot.Prices) == 0 {
		return 0, false
	}
	price, ok := snapshot.Prices[supplierID]
	if !ok || price <= 0 || math.IsInf(price, 0) {
		return 0, false
	}
	return price, true
}

// meanPrice averages positive prices, skipping exclude (0 = none).
// Ids are summed in ascending order so the result is reproducible.
func meanPrice(prices map[int64]float64, exclude int64) (float64, bool) {
	ids := make([]int64, 0, len(prices))
	for id := range prices {
		if id == exclude || prices[id] <= 0 {
			continue
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return 0, false
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	// 누적 평균: 큰 가격의 합이 +Inf로 넘치지 않도록
	mean := 0.0
	for n, id := range ids {
		mean += (prices[id] - mean) / float64(n+1)
	}
	return mean, true
}

// position is ok only when the result is finite
func position(price, reference float64) (float64, bool) {
	pos := (reference - price) / reference
	if math.IsNaN(pos) || math.IsInf(pos, 0) {
		return 0, false
	}
	return pos, true
}
