// backend/src/processors/aggregator.go
package processors

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/ledgerview/backend/src/models"
)

// Granularity is the width of a period bucket.
type Granularity string

const (
	Monthly   Granularity = "monthly"
	Quarterly Granularity = "quarterly"
)

// DefaultTrailingPeriods is the number of buckets charts render by default.
const DefaultTrailingPeriods = 6

var hundred = decimal.NewFromInt(100)

// ParseGranularity accepts "monthly" or "quarterly" (case-insensitive); empty means monthly.
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(Monthly):
		return Monthly, nil
	case string(Quarterly):
		return Quarterly, nil
	}
	return "", fmt.Errorf("unknown period granularity %q", s)
}

// PeriodKey formats the bucket a timestamp falls in: YYYY-MM or YYYY-Qn.
func PeriodKey(t time.Time, g Granularity) string {
	t = t.UTC()
	if g == Quarterly {
		return fmt.Sprintf("%04d-Q%d", t.Year(), (int(t.Month())-1)/3+1)
	}
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}

// TrailingPeriodKeys returns n period keys ending with the period containing now, oldest first.
func TrailingPeriodKeys(now time.Time, g Granularity, n int) []string {
	if n <= 0 {
		n = DefaultTrailingPeriods
	}
	now = now.UTC()
	step := 1
	startMonth := now.Month()
	if g == Quarterly {
		step = 3
		startMonth = time.Month((int(now.Month())-1)/3*3 + 1)
	}
	anchor := time.Date(now.Year(), startMonth, 1, 0, 0, 0, 0, time.UTC)

	keys := make([]string, n)
	for i := 0; i < n; i++ {
		keys[n-1-i] = PeriodKey(anchor.AddDate(0, -i*step, 0), g)
	}
	return keys
}

// Aggregator groups classified transactions into trailing period buckets.
type Aggregator struct {
	classifier *Classifier
	periods    int
}

// NewAggregator creates an aggregator producing the given number of trailing periods.
func NewAggregator(classifier *Classifier, periods int) *Aggregator {
	if periods <= 0 {
		periods = DefaultTrailingPeriods
	}
	return &Aggregator{classifier: classifier, periods: periods}
}

// Periods returns the configured number of trailing buckets.
func (a *Aggregator) Periods() int {
	return a.periods
}

// Aggregate returns one zero-filled bucket per trailing period, oldest first.
// Transactions outside the window are ignored.
func (a *Aggregator) Aggregate(txs []models.Transaction, g Granularity, now time.Time) []models.PeriodTotals {
	keys := TrailingPeriodKeys(now, g, a.periods)
	index := make(map[string]int, len(keys))
	result := make([]models.PeriodTotals, len(keys))
	for i, k := range keys {
		index[k] = i
		result[i] = models.PeriodTotals{PeriodKey: k, Totals: models.NewCategoryTotals()}
	}

	for _, tx := range txs {
		i, ok := index[PeriodKey(tx.BookingDateTime, g)]
		if !ok {
			continue
		}
		cl := a.classifier.Classify(tx)
		result[i].Totals.Add(cl.Category, cl.Contribution)
	}
	return result
}

// TotalsBetween classifies the transactions booked in [from, to) and sums them per category.
func (a *Aggregator) TotalsBetween(txs []models.Transaction, from, to time.Time) models.CategoryTotals {
	return a.classifier.Totals(bookedBetween(txs, from, to))
}

func bookedBetween(txs []models.Transaction, from, to time.Time) []models.Transaction {
	var out []models.Transaction
	for _, tx := range txs {
		if tx.BookingDateTime.Before(from) || !tx.BookingDateTime.Before(to) {
			continue
		}
		out = append(out, tx)
	}
	return out
}

// Percent returns part/whole*100 rounded to two places. A zero whole yields
// 0 when part is also zero and 100 otherwise, so no NaN or Inf reaches a report.
func Percent(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		if part.IsZero() {
			return decimal.Zero
		}
		return hundred
	}
	return part.Div(whole).Mul(hundred).Round(2)
}

// Delta is the growth from previous to current in percent.
// Delta(0, 0) == 0 and Delta(x, 0) == 100 for any non-zero x.
func Delta(current, previous decimal.Decimal) decimal.Decimal {
	return Percent(current.Sub(previous), previous)
}
