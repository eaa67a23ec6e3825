// Package finance turns a user document into report figures shared by the chat
// prompt and the spreadsheet export.
//
// Aggregate is pure: identical input yields identical output, and no I/O is
// performed. Map-valued fields are always read through the sorted helpers so
// that rendered output is stable.
package finance

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jimikki-app/backend/internal/model"
)

// OtherCategory labels transactions whose bucket cannot be resolved.
const OtherCategory = "Other"

var hundred = decimal.NewFromInt(100)

// Options tunes the ranked views.
type Options struct {
	// TopN bounds the top spending and top income lists.
	TopN int
	// SampleSize bounds the sample transactions kept per category.
	SampleSize int
}

// DefaultOptions returns the settings used by the chat prompt and the sheet.
func DefaultOptions() Options {
	return Options{TopN: 10, SampleSize: 5}
}

// Totals are the headline figures of a report.
type Totals struct {
	Wealth      decimal.Decimal
	Income      decimal.Decimal
	Spending    decimal.Decimal
	NetSavings  decimal.Decimal
	SavingsRate decimal.Decimal // percent, zero when there is no income

	IncomeCount      int
	SpendingCount    int
	TransferCount    int
	TransactionCount int
	DeletedCount     int

	AvgMonthlyIncome   decimal.Decimal
	AvgMonthlySpending decimal.Decimal
}

// CategoryStat summarises one spending category or income source.
type CategoryStat struct {
	Name    string
	Total   decimal.Decimal
	Count   int
	Average decimal.Decimal
	Samples []model.Transaction
}

// PeriodStat is a monthly or yearly rollup.
type PeriodStat struct {
	Key      string
	Income   decimal.Decimal
	Spending decimal.Decimal
	Net      decimal.Decimal
	TxnCount int
	// Months is the number of active months folded into a yearly rollup.
	Months int
}

// HolderStat is the activity attributed to one holder.
type HolderStat struct {
	Holder       model.Holder
	Income       decimal.Decimal
	Spending     decimal.Decimal
	TransfersIn  decimal.Decimal
	TransfersOut decimal.Decimal
	TxnCount     int
}

// DayTotal is the spending recorded on a single date.
type DayTotal struct {
	Date  string
	Total decimal.Decimal
}

// Report is everything derived from one document.
type Report struct {
	Holders      []model.Holder
	Transactions []model.Transaction
	ExpBuckets   []model.Bucket
	IncBuckets   []model.Bucket

	Totals    Totals
	FirstDate string
	LastDate  string

	SpendingByCategory map[string]*CategoryStat
	IncomeBySource     map[string]*CategoryStat
	Monthly            map[string]*PeriodStat
	Yearly             map[string]*PeriodStat

	HolderStats     []HolderStat
	TopSpending     []model.Transaction
	TopIncome       []model.Transaction
	HighestSpendDay *DayTotal
}

// Aggregate computes a Report over the non-deleted parts of doc.
func Aggregate(doc *model.UserDocument, opts Options) *Report {
	if doc == nil {
		doc = &model.UserDocument{}
	}
	if opts.SampleSize < 0 {
		opts.SampleSize = 0
	}

	r := &Report{
		Holders:            doc.ActiveHolders(),
		Transactions:       doc.ActiveTransactions(),
		ExpBuckets:         doc.ActiveExpBuckets(),
		IncBuckets:         doc.ActiveIncBuckets(),
		SpendingByCategory: map[string]*CategoryStat{},
		IncomeBySource:     map[string]*CategoryStat{},
		Monthly:            map[string]*PeriodStat{},
		Yearly:             map[string]*PeriodStat{},
	}
	r.Totals.DeletedCount = doc.DeletedTransactionCount()
	r.Totals.TransactionCount = len(r.Transactions)

	for _, h := range r.Holders {
		r.Totals.Wealth = r.Totals.Wealth.Add(h.Balance)
	}

	var spending, income []model.Transaction
	daily := map[string]decimal.Decimal{}

	for _, t := range r.Transactions {
		r.trackDate(t.Date)

		switch t.Type {
		case model.TypeIncome:
			r.Totals.Income = r.Totals.Income.Add(t.Amount)
			r.Totals.IncomeCount++
			addToCategory(r.IncomeBySource, r.IncBucketName(t.BucketID), t, opts.SampleSize)
			income = append(income, t)
		case model.TypeSpending:
			r.Totals.Spending = r.Totals.Spending.Add(t.Amount)
			r.Totals.SpendingCount++
			addToCategory(r.SpendingByCategory, r.ExpBucketName(t.BucketID), t, opts.SampleSize)
			spending = append(spending, t)
			if t.Date != "" {
				daily[t.Date] = daily[t.Date].Add(t.Amount)
			}
		case model.TypeSwap:
			r.Totals.TransferCount++
			continue
		default:
			continue
		}

		if len(t.Date) >= 7 {
			r.addToMonth(t.Date[:7], t)
		}
	}

	r.Totals.NetSavings = r.Totals.Income.Sub(r.Totals.Spending)
	if r.Totals.Income.IsPositive() {
		r.Totals.SavingsRate = r.Totals.NetSavings.Div(r.Totals.Income).Mul(hundred)
	}

	for _, c := range r.SpendingByCategory {
		c.Average = c.Total.Div(decimal.NewFromInt(int64(c.Count)))
	}
	for _, c := range r.IncomeBySource {
		c.Average = c.Total.Div(decimal.NewFromInt(int64(c.Count)))
	}

	r.rollUpYears()
	if months := int64(len(r.Monthly)); months > 0 {
		r.Totals.AvgMonthlyIncome = r.Totals.Income.Div(decimal.NewFromInt(months))
		r.Totals.AvgMonthlySpending = r.Totals.Spending.Div(decimal.NewFromInt(months))
	}

	r.HolderStats = holderStats(r.Holders, r.Transactions)
	r.TopSpending = TopN(spending, opts.TopN)
	r.TopIncome = TopN(income, opts.TopN)
	r.HighestSpendDay = highestDay(daily)

	return r
}

func (r *Report) trackDate(date string) {
	if date == "" {
		return
	}
	if r.FirstDate == "" || date < r.FirstDate {
		r.FirstDate = date
	}
	if date > r.LastDate {
		r.LastDate = date
	}
}

func (r *Report) addToMonth(key string, t model.Transaction) {
	m, ok := r.Monthly[key]
	if !ok {
		m = &PeriodStat{Key: key}
		r.Monthly[key] = m
	}
	if t.Type == model.TypeIncome {
		m.Income = m.Income.Add(t.Amount)
	} else {
		m.Spending = m.Spending.Add(t.Amount)
	}
	m.Net = m.Income.Sub(m.Spending)
	m.TxnCount++
}

// rollUpYears derives yearly rollups from the monthly ones so that both views
// always agree.
func (r *Report) rollUpYears() {
	for key, m := range r.Monthly {
		year := key[:4]
		y, ok := r.Yearly[year]
		if !ok {
			y = &PeriodStat{Key: year}
			r.Yearly[year] = y
		}
		y.Income = y.Income.Add(m.Income)
		y.Spending = y.Spending.Add(m.Spending)
		y.Net = y.Income.Sub(y.Spending)
		y.TxnCount += m.TxnCount
		y.Months++
	}
}

func addToCategory(dst map[string]*CategoryStat, name string, t model.Transaction, samples int) {
	c, ok := dst[name]
	if !ok {
		c = &CategoryStat{Name: name}
		dst[name] = c
	}
	c.Total = c.Total.Add(t.Amount)
	c.Count++
	if len(c.Samples) < samples {
		c.Samples = append(c.Samples, t)
	}
}

func holderStats(holders []model.Holder, txns []model.Transaction) []HolderStat {
	out := make([]HolderStat, 0, len(holders))
	for _, h := range holders {
		s := HolderStat{Holder: h}
		for _, t := range txns {
			if t.HolderID == h.ID {
				s.TxnCount++
			}
			switch t.Type {
			case model.TypeIncome:
				if t.HolderID == h.ID {
					s.Income = s.Income.Add(t.Amount)
				}
			case model.TypeSpending:
				if t.HolderID == h.ID {
					s.Spending = s.Spending.Add(t.Amount)
				}
			case model.TypeSwap:
				if t.FromHolderID == h.ID {
					s.TransfersOut = s.TransfersOut.Add(t.Amount)
				}
				if t.ToHolderID == h.ID {
					s.TransfersIn = s.TransfersIn.Add(t.Amount)
				}
			}
		}
		out = append(out, s)
	}
	return out
}

func highestDay(daily map[string]decimal.Decimal) *DayTotal {
	var best *DayTotal
	for _, date := range sortedKeys(daily) {
		total := daily[date]
		if best == nil || total.GreaterThan(best.Total) {
			best = &DayTotal{Date: date, Total: total}
		}
	}
	return best
}

// TopN returns up to n transactions ordered by amount, largest first. Equal
// amounts keep their input order. The input slice is not modified.
func TopN(txns []model.Transaction, n int) []model.Transaction {
	if n <= 0 || len(txns) == 0 {
		return []model.Transaction{}
	}
	sorted := make([]model.Transaction, len(txns))
	copy(sorted, txns)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Amount.GreaterThan(sorted[j].Amount)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// RankedSpending returns spending categories by total, largest first, then by name.
func (r *Report) RankedSpending() []*CategoryStat {
	return rankCategories(r.SpendingByCategory)
}

// RankedIncome returns income sources by total, largest first, then by name.
func (r *Report) RankedIncome() []*CategoryStat {
	return rankCategories(r.IncomeBySource)
}

func rankCategories(m map[string]*CategoryStat) []*CategoryStat {
	out := make([]*CategoryStat, 0, len(m))
	for _, c := range m {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Total.Equal(out[j].Total) {
			return out[i].Total.GreaterThan(out[j].Total)
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// MonthKeys returns the monthly rollup keys in ascending order.
func (r *Report) MonthKeys() []string {
	return sortedKeys(r.Monthly)
}

// YearKeys returns the yearly rollup keys in ascending order.
func (r *Report) YearKeys() []string {
	return sortedKeys(r.Yearly)
}

// Ledger returns every active transaction, newest date first. Entries sharing
// a date keep their input order.
func (r *Report) Ledger() []model.Transaction {
	out := make([]model.Transaction, len(r.Transactions))
	copy(out, r.Transactions)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date > out[j].Date
	})
	return out
}

// ExpBucketName resolves a spending bucket id, falling back to OtherCategory.
func (r *Report) ExpBucketName(id model.ID) string {
	return bucketName(r.ExpBuckets, id)
}

// IncBucketName resolves an income bucket id, falling back to OtherCategory.
func (r *Report) IncBucketName(id model.ID) string {
	return bucketName(r.IncBuckets, id)
}

// CategoryName resolves the bucket of t against the list matching its type.
func (r *Report) CategoryName(t model.Transaction) string {
	if t.Type == model.TypeIncome {
		return r.IncBucketName(t.BucketID)
	}
	return r.ExpBucketName(t.BucketID)
}

// LookupCategory resolves the bucket of t without a fallback.
func (r *Report) LookupCategory(t model.Transaction) (string, bool) {
	if t.Type == model.TypeIncome {
		return lookupBucket(r.IncBuckets, t.BucketID)
	}
	return lookupBucket(r.ExpBuckets, t.BucketID)
}

// HolderName resolves a holder id among active holders.
func (r *Report) HolderName(id model.ID) (string, bool) {
	for _, h := range r.Holders {
		if h.ID == id {
			return h.Name, true
		}
	}
	return "", false
}

// Share returns part as a percentage of whole, zero when whole is zero.
func Share(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred)
}

func bucketName(buckets []model.Bucket, id model.ID) string {
	if name, ok := lookupBucket(buckets, id); ok {
		return name
	}
	return OtherCategory
}

func lookupBucket(buckets []model.Bucket, id model.ID) (string, bool) {
	if id == "" {
		return "", false
	}
	for _, b := range buckets {
		if b.ID == id && b.Name != "" {
			return b.Name, true
		}
	}
	return "", false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
