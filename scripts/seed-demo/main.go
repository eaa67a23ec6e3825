// seed-demo saves a realistic demo ledger for one user through the running
// API, so the dashboard, the chat assistant and the sheet export have data to
// work with.
//
// The session cookie is minted locally, so SESSION_SECRET must match the
// server's.
//
// Usage:
//
//	export SESSION_SECRET=...
//	export API_URL=http://localhost:8111
//	go run ./scripts/seed-demo/ demo@example.com
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jimikki-app/backend/internal/auth"
	"github.com/jimikki-app/backend/internal/model"
)

const months = 6

func main() {
	apiURL := os.Getenv("API_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8111"
	}
	secret := os.Getenv("SESSION_SECRET")
	if secret == "" {
		log.Fatal("SESSION_SECRET environment variable is required")
	}
	email := "demo@example.com"
	if len(os.Args) > 1 {
		email = os.Args[1]
	}

	log.Println("🌱 Jimikki demo seed")
	log.Printf("👤 User: %s", email)
	log.Printf("📡 API URL: %s", apiURL)

	doc := demoDocument(time.Now())
	// The web client stores amounts as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
	body, err := json.Marshal(doc)
	if err != nil {
		log.Fatalf("Failed to encode document: %v", err)
	}

	token, err := auth.NewSessionCodec(secret).Issue(email, time.Hour)
	if err != nil {
		log.Fatalf("Failed to mint session: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, apiURL+"/api/data", bytes.NewReader(body))
	if err != nil {
		log.Fatalf("Failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: token})

	client := &http.Client{Timeout: 2 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		log.Fatalf("Failed to save document: %v", err)
	}
	defer resp.Body.Close()

	out, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("Save failed with %d: %s", resp.StatusCode, out)
	}

	var result struct {
		SheetURL *string `json:"sheetUrl"`
	}
	_ = json.Unmarshal(out, &result)

	log.Printf("✅ Saved %d holders and %d transactions", len(doc.Holders), len(doc.Transactions))
	if result.SheetURL != nil {
		log.Printf("📊 Sheet: %s", *result.SheetURL)
	}
}

func demoDocument(now time.Time) *model.UserDocument {
	doc := &model.UserDocument{
		Holders: []model.Holder{
			{ID: "hdfc", Name: "HDFC Savings", Balance: decimal.NewFromInt(184250), IsPrimary: true},
			{ID: "cash", Name: "Cash", Balance: decimal.NewFromInt(6400)},
			{ID: "upi", Name: "UPI Wallet", Balance: decimal.NewFromInt(2150)},
		},
		ExpBuckets: []model.Bucket{
			{ID: "food", Name: "Food", Color: "#f97316"},
			{ID: "rent", Name: "Rent", Color: "#6366f1"},
			{ID: "travel", Name: "Travel", Color: "#0ea5e9"},
			{ID: "bills", Name: "Bills", Color: "#eab308"},
			{ID: "fun", Name: "Entertainment", Color: "#ec4899"},
		},
		IncBuckets: []model.Bucket{
			{ID: "salary", Name: "Salary", Color: "#22c55e"},
			{ID: "freelance", Name: "Freelance", Color: "#14b8a6"},
		},
	}

	n := 0
	add := func(t model.Transaction) {
		n++
		t.ID = model.ID(fmt.Sprintf("demo-%03d", n))
		doc.Transactions = append(doc.Transactions, t)
	}

	for m := months - 1; m >= 0; m-- {
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -m, 0)
		day := func(d int) string { return first.AddDate(0, 0, d-1).Format("2006-01-02") }

		add(model.Transaction{Type: model.TypeIncome, Amount: decimal.NewFromInt(95000), Date: day(1), HolderID: "hdfc", BucketID: "salary", Note: "Monthly salary"})
		if m%2 == 0 {
			add(model.Transaction{Type: model.TypeIncome, Amount: decimal.NewFromInt(18000 + int64(m)*500), Date: day(12), HolderID: "hdfc", BucketID: "freelance", Note: "Design project"})
		}
		add(model.Transaction{Type: model.TypeSpending, Amount: decimal.NewFromInt(28000), Date: day(3), HolderID: "hdfc", BucketID: "rent", Note: "Rent"})
		add(model.Transaction{Type: model.TypeSpending, Amount: decimal.NewFromFloat(2345.50), Date: day(6), HolderID: "upi", BucketID: "bills", Note: "Electricity"})
		add(model.Transaction{Type: model.TypeSpending, Amount: decimal.NewFromInt(4200 + int64(m)*150), Date: day(9), HolderID: "upi", BucketID: "food", Note: "Groceries"})
		add(model.Transaction{Type: model.TypeSpending, Amount: decimal.NewFromInt(850), Date: day(15), HolderID: "cash", BucketID: "food", Note: "Dinner out"})
		add(model.Transaction{Type: model.TypeSwap, Amount: decimal.NewFromInt(5000), Date: day(16), FromHolderID: "hdfc", ToHolderID: "cash", Note: "ATM"})
		if m%3 == 1 {
			add(model.Transaction{Type: model.TypeSpending, Amount: decimal.NewFromInt(12600), Date: day(20), HolderID: "hdfc", BucketID: "travel", Note: "Train tickets"})
		}
		add(model.Transaction{Type: model.TypeSpending, Amount: decimal.NewFromInt(649), Date: day(22), HolderID: "upi", BucketID: "fun", Note: "Streaming"})
	}

	// One soft-deleted entry, as the client leaves behind after an undo.
	add(model.Transaction{Type: model.TypeSpending, Amount: decimal.NewFromInt(999), Date: now.Format("2006-01-02"), HolderID: "cash", BucketID: "fun", Deleted: true})
	return doc
}
