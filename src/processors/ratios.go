// backend/src/processors/ratios.go
package processors

import "github.com/shopspring/decimal"

// AllocationRatios are the fixed percentages used to estimate balance sheet
// lines for which no transaction-level data exists. Every field can be
// overridden from configuration so a real sub-ledger can replace one estimate
// without touching the builders.
type AllocationRatios struct {
	Inventory       decimal.Decimal // of cash + receivables
	PPE             decimal.Decimal // of current assets
	RightOfUse      decimal.Decimal // of current assets
	Intangibles     decimal.Decimal // of current assets
	OwnersCapital   decimal.Decimal // of total assets
	LongTermLoans   decimal.Decimal // of total assets
	NonCurrentLease decimal.Decimal // of total assets
	ShortTermLoans  decimal.Decimal // of total assets
	CurrentLease    decimal.Decimal // of total assets
	VATRate         decimal.Decimal // applied to recognized credits and debits
}

// DefaultRatios returns the stock allocation percentages.
func DefaultRatios() AllocationRatios {
	return AllocationRatios{
		Inventory:       decimal.RequireFromString("0.15"),
		PPE:             decimal.RequireFromString("0.30"),
		RightOfUse:      decimal.RequireFromString("0.10"),
		Intangibles:     decimal.RequireFromString("0.05"),
		OwnersCapital:   decimal.RequireFromString("0.40"),
		LongTermLoans:   decimal.RequireFromString("0.20"),
		NonCurrentLease: decimal.RequireFromString("0.10"),
		ShortTermLoans:  decimal.RequireFromString("0.15"),
		CurrentLease:    decimal.RequireFromString("0.05"),
		VATRate:         decimal.RequireFromString("0.05"),
	}
}

// NonCurrentAssets derives PP&E, right-of-use and intangibles from current assets.
func (r AllocationRatios) NonCurrentAssets(currentAssets decimal.Decimal) (ppe, rightOfUse, intangibles, total decimal.Decimal) {
	ppe = currentAssets.Mul(r.PPE)
	rightOfUse = currentAssets.Mul(r.RightOfUse)
	intangibles = currentAssets.Mul(r.Intangibles)
	total = ppe.Add(rightOfUse).Add(intangibles)
	return ppe, rightOfUse, intangibles, total
}
