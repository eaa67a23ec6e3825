// Package prompt renders a finance report and the conversation so far into
// the message list sent to a chat model.
package prompt

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jimikki-app/backend/internal/finance"
	"github.com/jimikki-app/backend/internal/model"
)

// Uncategorized labels ledger lines whose bucket cannot be resolved.
const Uncategorized = "Uncategorized"

// MaxHistory bounds the prior turns forwarded to the model.
const MaxHistory = 10

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

const (
	banner  = "════════════════════════════════════════════════════════════"
	section = "━━━"
)

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Builder renders prompts with a fixed layout.
type Builder struct {
	money      finance.Formatter
	maxHistory int
}

// NewBuilder creates a Builder formatting amounts with money.
func NewBuilder(money finance.Formatter) *Builder {
	return &Builder{money: money, maxHistory: MaxHistory}
}

// Messages returns the system prompt, the most recent user and assistant
// turns from history, and message as the final user turn.
func (b *Builder) Messages(email string, r *finance.Report, history []Message, message string) []Message {
	turns := TrimHistory(history, b.maxHistory)
	out := make([]Message, 0, len(turns)+2)
	out = append(out, Message{Role: RoleSystem, Content: b.SystemPrompt(email, r)})
	out = append(out, turns...)
	return append(out, Message{Role: RoleUser, Content: message})
}

// TrimHistory keeps only user and assistant turns and returns the last n.
func TrimHistory(history []Message, n int) []Message {
	kept := make([]Message, 0, len(history))
	for _, m := range history {
		if m.Role == RoleUser || m.Role == RoleAssistant {
			kept = append(kept, m)
		}
	}
	if n < 0 {
		n = 0
	}
	if len(kept) > n {
		kept = kept[len(kept)-n:]
	}
	return kept
}

// SystemPrompt renders the full report for email.
func (b *Builder) SystemPrompt(email string, r *finance.Report) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "You are Jimikki AI, a personal finance analyst. Below is the complete financial record of %s, loaded from the database. It lists every transaction they have saved.\n\n", email)
	sb.WriteString("HOW TO ANSWER:\n")
	for _, rule := range []string{
		"Use only the figures below and never invent numbers",
		"Work step by step and show calculations, e.g. \"" + b.money.Money(decimal.NewFromInt(5000)) + " + " + b.money.Money(decimal.NewFromInt(3200)) + " = " + b.money.Money(decimal.NewFromInt(8200)) + "\"",
		"For a question about a date, find every transaction on that date in the history",
		"Point out patterns, trends and anomalies, and compare periods when relevant",
		"Write amounts in " + b.money.Symbol + " with the same grouping as the data",
		"Be warm, precise and helpful",
	} {
		sb.WriteString("- " + rule + "\n")
	}

	first, last := orNA(r.FirstDate), orNA(r.LastDate)
	fmt.Fprintf(&sb, "\n%s\nFINANCIAL RECORD: %s\nData covers: %s to %s\n%s\n", banner, email, first, last, banner)

	b.writeAccounts(&sb, r)
	b.writeSummary(&sb, r)
	b.writeCategories(&sb, r)
	b.writePeriods(&sb, r)
	b.writeTop(&sb, "LARGEST SPENDING TRANSACTIONS", r, r.TopSpending)
	b.writeTop(&sb, "LARGEST INCOME TRANSACTIONS", r, r.TopIncome)
	writeBucketNames(&sb, "EXPENSE CATEGORIES CONFIGURED", r.ExpBuckets)
	writeBucketNames(&sb, "INCOME SOURCES CONFIGURED", r.IncBuckets)
	b.writeLedger(&sb, r)

	fmt.Fprintf(&sb, "\n%s\nEND OF RECORD. Answer carefully from the data above.\n%s", banner, banner)
	return sb.String()
}

func heading(sb *strings.Builder, title string) {
	fmt.Fprintf(sb, "\n%s %s %s\n", section, title, section)
}

func (b *Builder) writeAccounts(sb *strings.Builder, r *finance.Report) {
	heading(sb, "ACCOUNTS / WALLETS")
	if len(r.HolderStats) == 0 {
		sb.WriteString("• No accounts added yet\n")
		return
	}
	for _, h := range r.HolderStats {
		primary := ""
		if h.Holder.IsPrimary {
			primary = " [PRIMARY]"
		}
		fmt.Fprintf(sb, "• %s%s\n", h.Holder.Name, primary)
		fmt.Fprintf(sb, "   Current Balance: %s\n", b.money.Money(h.Holder.Balance))
		fmt.Fprintf(sb, "   Total Income Received: %s\n", b.money.Money(h.Income))
		fmt.Fprintf(sb, "   Total Spending: %s\n", b.money.Money(h.Spending))
		fmt.Fprintf(sb, "   Transfers In: %s | Transfers Out: %s\n", b.money.Money(h.TransfersIn), b.money.Money(h.TransfersOut))
		fmt.Fprintf(sb, "   Transactions: %d\n", h.TxnCount)
	}
}

func (b *Builder) writeSummary(sb *strings.Builder, r *finance.Report) {
	t := r.Totals
	heading(sb, "OVERALL FINANCIAL SUMMARY")
	fmt.Fprintf(sb, "• Total Current Wealth: %s\n", b.money.Money(t.Wealth))
	fmt.Fprintf(sb, "• All-Time Income: %s\n", b.money.Money(t.Income))
	fmt.Fprintf(sb, "• All-Time Spending: %s\n", b.money.Money(t.Spending))
	fmt.Fprintf(sb, "• Net Savings (all time): %s\n", b.money.Money(t.NetSavings))
	fmt.Fprintf(sb, "• Savings Rate: %s%%\n", finance.Percent(t.SavingsRate))
	fmt.Fprintf(sb, "• Total Transactions: %d (%d income, %d spending, %d transfers)\n",
		t.TransactionCount, t.IncomeCount, t.SpendingCount, t.TransferCount)
	fmt.Fprintf(sb, "• Deleted/Archived Transactions: %d\n", t.DeletedCount)
	fmt.Fprintf(sb, "• Avg Monthly Income: %s\n", b.money.Money(t.AvgMonthlyIncome))
	fmt.Fprintf(sb, "• Avg Monthly Spending: %s\n", b.money.Money(t.AvgMonthlySpending))
	if d := r.HighestSpendDay; d != nil {
		fmt.Fprintf(sb, "• Highest Single-Day Spending: %s (%s)\n", d.Date, b.money.Money(d.Total))
	} else {
		sb.WriteString("• Highest Single-Day Spending: N/A\n")
	}
}

func (b *Builder) writeCategories(sb *strings.Builder, r *finance.Report) {
	heading(sb, "SPENDING BY CATEGORY")
	spending := r.RankedSpending()
	if len(spending) == 0 {
		sb.WriteString("• No spending data\n")
	}
	for _, c := range spending {
		fmt.Fprintf(sb, "• %s: %s total | %d transactions | Avg %s each\n",
			c.Name, b.money.Money(c.Total), c.Count, b.money.Money(c.Average))
	}

	heading(sb, "INCOME BY SOURCE")
	income := r.RankedIncome()
	if len(income) == 0 {
		sb.WriteString("• No income data\n")
	}
	for _, c := range income {
		fmt.Fprintf(sb, "• %s: %s total | %d transactions\n", c.Name, b.money.Money(c.Total), c.Count)
	}
}

func (b *Builder) writePeriods(sb *strings.Builder, r *finance.Report) {
	heading(sb, "YEAR-BY-YEAR BREAKDOWN")
	years := r.YearKeys()
	if len(years) == 0 {
		sb.WriteString("• No yearly data\n")
	}
	for _, key := range years {
		y := r.Yearly[key]
		fmt.Fprintf(sb, "• %s: Income %s | Spending %s | Net %s | %d active months\n",
			key, b.money.Money(y.Income), b.money.Money(y.Spending), b.money.Money(y.Net), y.Months)
	}

	months := r.MonthKeys()
	heading(sb, fmt.Sprintf("MONTH-BY-MONTH BREAKDOWN (%d months)", len(months)))
	if len(months) == 0 {
		sb.WriteString("• No monthly data\n")
	}
	for _, key := range months {
		m := r.Monthly[key]
		fmt.Fprintf(sb, "• %s: IN %s | OUT %s | NET %s | %d txns\n",
			key, b.money.Money(m.Income), b.money.Money(m.Spending), b.money.Money(m.Net), m.TxnCount)
	}
}

func (b *Builder) writeTop(sb *strings.Builder, title string, r *finance.Report, txns []model.Transaction) {
	heading(sb, title)
	if len(txns) == 0 {
		sb.WriteString("• None\n")
		return
	}
	for _, t := range txns {
		fmt.Fprintf(sb, "• [%s] %s | %s | %s%s\n",
			t.Date, b.money.Money(t.Amount), r.CategoryName(t), holderOr(r, t.HolderID, "?"), noteSuffix(t.Note, " | "))
	}
}

func writeBucketNames(sb *strings.Builder, title string, buckets []model.Bucket) {
	heading(sb, title)
	names := make([]string, 0, len(buckets))
	for _, bk := range buckets {
		names = append(names, bk.Name)
	}
	if len(names) == 0 {
		sb.WriteString("None\n")
		return
	}
	sb.WriteString(strings.Join(names, ", ") + "\n")
}

func (b *Builder) writeLedger(sb *strings.Builder, r *finance.Report) {
	ledger := r.Ledger()
	heading(sb, fmt.Sprintf("COMPLETE TRANSACTION HISTORY (%d transactions, newest first)", len(ledger)))
	if len(ledger) == 0 {
		sb.WriteString("• No transactions yet\n")
		return
	}
	for _, t := range ledger {
		sb.WriteString(b.LedgerLine(r, t) + "\n")
	}
}

// LedgerLine renders one transaction for the history section.
func (b *Builder) LedgerLine(r *finance.Report, t model.Transaction) string {
	amount := b.money.Money(t.Amount)
	if t.Type == model.TypeSwap {
		from := holderOr(r, t.FromHolderID, holderOr(r, t.HolderID, "Unknown"))
		to := holderOr(r, t.ToHolderID, "?")
		return fmt.Sprintf("[%s] TRANSFER %s | %s → %s%s", t.Date, amount, from, to, noteSuffix(t.Note, " | Note: "))
	}
	category, ok := r.LookupCategory(t)
	if !ok {
		category = Uncategorized
	}
	return fmt.Sprintf("[%s] %s %s | Category: %s | Account: %s%s",
		t.Date, strings.ToUpper(string(t.Type)), amount, category,
		holderOr(r, t.HolderID, "Unknown"), noteSuffix(t.Note, " | Note: "))
}

func holderOr(r *finance.Report, id model.ID, fallback string) string {
	if name, ok := r.HolderName(id); ok {
		return name
	}
	return fallback
}

func noteSuffix(note, sep string) string {
	if note == "" {
		return ""
	}
	return sep + note
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
