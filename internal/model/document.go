// Package model defines the per-user finance document and decodes it from the
// raw JSON the browser client saves.
package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInvalidDocument is returned when a saved payload is not a usable document.
var ErrInvalidDocument = errors.New("invalid user document")

// TransactionType distinguishes income, spending and internal transfers.
type TransactionType string

const (
	TypeIncome   TransactionType = "income"
	TypeSpending TransactionType = "spending"
	TypeSwap     TransactionType = "swap"
)

// ID is an identifier the client may send either as a JSON string or a number.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// Holder is a wallet or account. Balance is the client's running snapshot.
type Holder struct {
	ID        ID              `json:"id"`
	Name      string          `json:"name"`
	Balance   decimal.Decimal `json:"balance"`
	IsPrimary bool            `json:"isPrimary"`
	Deleted   bool            `json:"deleted"`
}

// Bucket is a named income or spending category.
type Bucket struct {
	ID      ID     `json:"id"`
	Name    string `json:"name"`
	Color   string `json:"color"`
	Deleted bool   `json:"deleted"`
}

// Transaction is a single ledger entry. BucketID refers to ExpBuckets for
// spending and to IncBuckets for income; swaps use FromHolderID/ToHolderID.
type Transaction struct {
	ID           ID              `json:"id"`
	Type         TransactionType `json:"type"`
	Amount       decimal.Decimal `json:"amount"`
	Date         string          `json:"date"`
	HolderID     ID              `json:"holderId"`
	BucketID     ID              `json:"bucketId,omitempty"`
	FromHolderID ID              `json:"fromHolderId,omitempty"`
	ToHolderID   ID              `json:"toHolderId,omitempty"`
	Note         string          `json:"note,omitempty"`
	Deleted      bool            `json:"deleted"`
}

func (t *Transaction) UnmarshalJSON(b []byte) error {
	type plain Transaction
	var aux struct {
		plain
		IncBucketID ID `json:"incBucketId"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*t = Transaction(aux.plain)
	// Older clients stored income categories under incBucketId.
	if t.BucketID == "" && t.Type == TypeIncome {
		t.BucketID = aux.IncBucketID
	}
	return nil
}

// UserDocument is everything stored for one user.
type UserDocument struct {
	Holders      []Holder      `json:"holders"`
	Transactions []Transaction `json:"transactions"`
	ExpBuckets   []Bucket      `json:"expBuckets"`
	IncBuckets   []Bucket      `json:"incBuckets"`
}

// Decode parses a raw saved document, normalises legacy fields and rejects
// payloads that are not a JSON object or carry negative amounts.
func Decode(raw []byte) (*UserDocument, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrInvalidDocument)
	}

	var doc UserDocument
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	for i := range doc.Transactions {
		t := &doc.Transactions[i]
		if t.Amount.IsNegative() {
			return nil, fmt.Errorf("%w: transaction %q has a negative amount", ErrInvalidDocument, t.ID)
		}
		if t.Type == TypeSwap && t.FromHolderID == "" {
			t.FromHolderID = t.HolderID
		}
	}
	return &doc, nil
}

// ActiveHolders returns non-deleted holders in input order.
func (d *UserDocument) ActiveHolders() []Holder {
	var out []Holder
	for _, h := range d.Holders {
		if !h.Deleted {
			out = append(out, h)
		}
	}
	return out
}

// ActiveTransactions returns non-deleted transactions in input order.
func (d *UserDocument) ActiveTransactions() []Transaction {
	var out []Transaction
	for _, t := range d.Transactions {
		if !t.Deleted {
			out = append(out, t)
		}
	}
	return out
}

// DeletedTransactionCount counts soft-deleted transactions.
func (d *UserDocument) DeletedTransactionCount() int {
	n := 0
	for _, t := range d.Transactions {
		if t.Deleted {
			n++
		}
	}
	return n
}

// ActiveExpBuckets returns non-deleted spending buckets.
func (d *UserDocument) ActiveExpBuckets() []Bucket {
	return activeBuckets(d.ExpBuckets)
}

// ActiveIncBuckets returns non-deleted income buckets.
func (d *UserDocument) ActiveIncBuckets() []Bucket {
	return activeBuckets(d.IncBuckets)
}

func activeBuckets(in []Bucket) []Bucket {
	var out []Bucket
	for _, b := range in {
		if !b.Deleted {
			out = append(out, b)
		}
	}
	return out
}
