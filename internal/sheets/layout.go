package sheets

import (
	"fmt"
	"time"

	"github.com/jimikki-app/backend/internal/finance"
	"github.com/jimikki-app/backend/internal/model"
)

// Grid geometry.
const (
	SheetTitle = "Finance"
	SheetID    = 0
	Columns    = 7
	// DataRange is the whole tab, so a shrinking ledger leaves nothing behind.
	DataRange  = "Finance"
	WriteRange = "Finance!A1"
)

// Fixed row indices of the header block.
const (
	titleRow         = 0
	subtitleRow      = 1
	summaryLabelRow  = 3
	summaryValueRow  = 4
	monthlySummaryN  = 12
	lastUpdateFormat = "2 Jan 2006, 3:04 pm"
)

// Layout is the rendered grid plus the row indices the formatter styles.
type Layout struct {
	Rows            [][]interface{}
	SectionRows     []int
	TableHeaderRows []int
	// TxnRows maps ledger row indices to the transaction type shown there.
	TxnRows map[int]model.TransactionType
}

type layoutBuilder struct {
	Layout
	money finance.Formatter
}

func (b *layoutBuilder) row(cells ...string) int {
	r := make([]interface{}, Columns)
	for i := range r {
		r[i] = ""
	}
	for i, c := range cells {
		if i < Columns {
			r[i] = c
		}
	}
	b.Rows = append(b.Rows, r)
	return len(b.Rows) - 1
}

func (b *layoutBuilder) blank() { b.row() }

func (b *layoutBuilder) section(title string) {
	b.SectionRows = append(b.SectionRows, b.row(title))
}

func (b *layoutBuilder) tableHeader(cells ...string) {
	b.TableHeaderRows = append(b.TableHeaderRows, b.row(cells...))
}

// BuildLayout renders the spreadsheet for email from r as of now.
func BuildLayout(email string, r *finance.Report, money finance.Formatter, now time.Time) *Layout {
	b := &layoutBuilder{
		Layout: Layout{TxnRows: make(map[int]model.TransactionType)},
		money:  money,
	}
	t := r.Totals

	b.row("JIMIKKI — PERSONAL FINANCE TRACKER")
	b.row("Account: "+email, "", "", "", "Last Updated: "+now.Format(lastUpdateFormat))
	b.blank()

	b.row("💰 TOTAL WEALTH", "📈 INCOME", "📉 SPENDING", "💚 NET SAVINGS")
	b.row(money.Money(t.Wealth), money.Money(t.Income), money.Money(t.Spending), money.Money(t.NetSavings))
	b.blank()

	b.section("💳 HOLDINGS")
	b.tableHeader("Holder Name", "Balance", "Primary")
	for _, h := range r.Holders {
		primary := "No"
		if h.IsPrimary {
			primary = "⭐ Yes"
		}
		b.row(h.Name, money.Money(h.Balance), primary)
	}
	if len(r.Holders) == 0 {
		b.row("No holders added yet")
	}
	b.blank()

	b.section("📊 SPENDING BY CATEGORY")
	b.tableHeader("Category", "Total Spent", "% of Total")
	for _, c := range r.RankedSpending() {
		b.row(c.Name, money.Money(c.Total), finance.Percent(finance.Share(c.Total, t.Spending))+"%")
	}
	b.blank()

	b.section("💰 INCOME BY SOURCE")
	b.tableHeader("Source", "Total Received", "% of Total")
	for _, c := range r.RankedIncome() {
		b.row(c.Name, money.Money(c.Total), finance.Percent(finance.Share(c.Total, t.Income))+"%")
	}
	b.blank()

	b.section(fmt.Sprintf("📅 MONTHLY SUMMARY (Last %d Months)", monthlySummaryN))
	b.tableHeader("Month", "Income", "Spending", "Net Savings")
	for _, month := range LastMonths(now, monthlySummaryN) {
		p := r.Monthly[month.Format("2006-01")]
		if p == nil {
			p = &finance.PeriodStat{}
		}
		b.row(month.Format("January 2006"), money.Money(p.Income), money.Money(p.Spending), money.Money(p.Net))
	}
	b.blank()

	b.section("📋 ALL TRANSACTIONS")
	b.tableHeader("Date", "Type", "Category / Source", "Note", "Amount", "Holder", "To Holder")
	ledger := r.Ledger()
	if len(ledger) == 0 {
		b.row("No transactions yet")
	}
	for _, txn := range ledger {
		idx := b.row(txn.Date, typeLabel(txn.Type), b.category(r, txn), txn.Note, b.amount(txn), holderName(r, txn.HolderID), holderName(r, txn.ToHolderID))
		b.TxnRows[idx] = txn.Type
	}

	return &b.Layout
}

// LastMonths returns the first day of each of the n months ending with the
// month of now, oldest first.
func LastMonths(now time.Time, n int) []time.Time {
	months := make([]time.Time, 0, n)
	for i := n - 1; i >= 0; i-- {
		months = append(months, time.Date(now.Year(), now.Month()-time.Month(i), 1, 0, 0, 0, 0, now.Location()))
	}
	return months
}

func typeLabel(t model.TransactionType) string {
	switch t {
	case model.TypeIncome:
		return "⬇️ Income"
	case model.TypeSpending:
		return "⬆️ Spending"
	default:
		return "↔️ Transfer"
	}
}

func (b *layoutBuilder) category(r *finance.Report, t model.Transaction) string {
	if t.Type == model.TypeSwap {
		return "Transfer"
	}
	name, _ := r.LookupCategory(t)
	return name
}

func (b *layoutBuilder) amount(t model.Transaction) string {
	switch t.Type {
	case model.TypeIncome:
		return b.money.Signed(t.Amount, "+")
	case model.TypeSpending:
		return b.money.Signed(t.Amount, "-")
	default:
		return b.money.Money(t.Amount)
	}
}

func holderName(r *finance.Report, id model.ID) string {
	name, _ := r.HolderName(id)
	return name
}
