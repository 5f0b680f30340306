// backend/src/processors/classifier.go
package processors

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"github.com/username/ledgerview/backend/src/models"
)

// Rule is one keyword group of the classification chain. Income is used for
// credits and Expense for debits; groups with a single category set both.
type Rule struct {
	Name     string
	Keywords []string
	// MatchCredit makes the rule match any credit, keywords or not.
	MatchCredit bool
	Income      models.Category
	Expense     models.Category
}

// DefaultRules is the classification chain in priority order. The first rule
// that matches wins; a transaction matching none falls into the operating
// catch-all chosen by direction.
var DefaultRules = []Rule{
	{Name: "depreciation", Keywords: []string{"depreciat", "depr."}, Income: models.Depreciation, Expense: models.Depreciation},
	{Name: "amortization", Keywords: []string{"amort", "intangible"}, Income: models.Amortization, Expense: models.Amortization},
	{Name: "interestExpense", Keywords: []string{"interest", "int.", "loan payment"}, Income: models.InterestExpense, Expense: models.InterestExpense},
	{Name: "accountsReceivable", Keywords: []string{"receivable", "ar", "account rec"}, Income: models.AccountsReceivable, Expense: models.AccountsReceivable},
	{Name: "inventory", Keywords: []string{"inventory", "stock", "goods"}, Income: models.Inventory, Expense: models.Inventory},
	{Name: "accountsPayable", Keywords: []string{"payable", "ap", "account pay"}, Income: models.AccountsPayable, Expense: models.AccountsPayable},
	{Name: "vatPayable", Keywords: []string{"vat", "tax", "duty"}, Income: models.VATPayable, Expense: models.VATPayable},
	{Name: "operating", Keywords: []string{"salary", "revenue", "sales", "income", "service"}, MatchCredit: true, Income: models.OperatingIncome, Expense: models.OperatingExpense},
	{Name: "investing", Keywords: []string{"equipment", "investment", "asset", "property", "machine"}, Income: models.InvestingIncome, Expense: models.InvestingExpense},
	{Name: "financing", Keywords: []string{"loan", "dividend", "capital", "share", "equity"}, Income: models.FinancingIncome, Expense: models.FinancingExpense},
}

// Keywords this short only match a whole word, so "ar" does not hit "salary".
const wholeWordMaxLen = 2

// Classification is the outcome of classifying one transaction.
type Classification struct {
	Category models.Category
	// Contribution is the signed amount added to the category total.
	Contribution decimal.Decimal
	// Rule names the rule that matched: "pending", a rule name, or "default".
	Rule string
}

// Classifier assigns every transaction to exactly one category.
type Classifier struct {
	rules []Rule
}

// NewClassifier builds a classifier over an ordered rule list. A nil list uses DefaultRules.
func NewClassifier(rules []Rule) *Classifier {
	if rules == nil {
		rules = DefaultRules
	}
	return &Classifier{rules: rules}
}

// Classify resolves the category of a transaction. Pending transactions are
// accruals: credits become receivables and debits payables, and they are never
// recognized as income or expense.
func (c *Classifier) Classify(tx models.Transaction) Classification {
	amount := tx.Amount.Amount
	if tx.IsPending() {
		if tx.Direction == models.Credit {
			return Classification{Category: models.AccountsReceivable, Contribution: amount, Rule: "pending"}
		}
		return Classification{Category: models.AccountsPayable, Contribution: amount, Rule: "pending"}
	}

	desc := strings.ToLower(tx.Description)
	words := tokenize(desc)
	for _, rule := range c.rules {
		if !rule.matches(desc, words, tx.Direction) {
			continue
		}
		category := rule.Expense
		if tx.Direction == models.Credit {
			category = rule.Income
		}
		return Classification{Category: category, Contribution: contribution(category, tx.Direction, amount), Rule: rule.Name}
	}

	if tx.Direction == models.Credit {
		return Classification{Category: models.OperatingIncome, Contribution: amount, Rule: "default"}
	}
	return Classification{Category: models.OperatingExpense, Contribution: amount, Rule: "default"}
}

// Totals classifies every transaction and sums the contributions per category.
func (c *Classifier) Totals(txs []models.Transaction) models.CategoryTotals {
	totals := models.NewCategoryTotals()
	for _, tx := range txs {
		cl := c.Classify(tx)
		totals.Add(cl.Category, cl.Contribution)
	}
	return totals
}

func (r Rule) matches(desc string, words map[string]struct{}, dir models.Direction) bool {
	if r.MatchCredit && dir == models.Credit {
		return true
	}
	for _, kw := range r.Keywords {
		if len(kw) <= wholeWordMaxLen {
			if _, ok := words[kw]; ok {
				return true
			}
			continue
		}
		if strings.Contains(desc, kw) {
			return true
		}
	}
	return false
}

// contribution applies the working capital sign convention: a credit reduces
// receivables and inventory but increases payables and VAT payable.
func contribution(category models.Category, dir models.Direction, amount decimal.Decimal) decimal.Decimal {
	switch category {
	case models.AccountsReceivable, models.Inventory:
		if dir == models.Credit {
			return amount.Neg()
		}
		return amount
	case models.AccountsPayable, models.VATPayable:
		if dir == models.Credit {
			return amount
		}
		return amount.Neg()
	}
	return amount
}

func tokenize(s string) map[string]struct{} {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	words := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		words[f] = struct{}{}
	}
	return words
}
