package client

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tanveenambrose/EcoMoney/internal/domain"
	"github.com/tanveenambrose/EcoMoney/internal/pkg/id"
)

type TxType string

const (
	Income  TxType = "income"
	Expense TxType = "expense"
)

// Filter values accepted by TransactionStore.Filter.
const (
	FilterAll     = "all"
	FilterIncome  = string(Income)
	FilterExpense = string(Expense)
)

const dateLayout = "2006-01-02"

// Transaction is a client-side ledger entry. Amounts are non-negative; Type carries the sign.
type Transaction struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Category string       `json:"category"`
	Date     string       `json:"date"`
	Amount   domain.Money `json:"amount"`
	Note     string       `json:"note,omitempty"`
	Type     TxType       `json:"type"`
}

func (t Transaction) validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("transaction name is required: %w", domain.ErrBadRequest)
	}
	if t.Type != Income && t.Type != Expense {
		return fmt.Errorf("transaction type must be income or expense: %w", domain.ErrBadRequest)
	}
	if t.Amount.IsNegative() {
		return fmt.Errorf("transaction amount cannot be negative: %w", domain.ErrBadRequest)
	}
	if _, err := time.Parse(dateLayout, t.Date); err != nil {
		return fmt.Errorf("transaction date must be YYYY-MM-DD: %w", domain.ErrBadRequest)
	}
	return nil
}

// TransactionStore is the in-memory transaction list. Nothing in it is sent to the API.
type TransactionStore struct {
	mu  sync.RWMutex
	txs []Transaction
}

// NewTransactionStore returns a store seeded with the two sample expenses
// new users see on the dashboard.
func NewTransactionStore() *TransactionStore {
	return &TransactionStore{txs: []Transaction{
		{ID: "1", Name: "Rent", Category: "Housing", Date: "2025-11-24", Amount: domain.MoneyFromInt(1200), Type: Expense},
		{ID: "2", Name: "Groceries", Category: "Food", Date: "2025-11-23", Amount: domain.MoneyFromInt(250), Type: Expense},
	}}
}

// Add validates tx and puts it at the front of the list. A missing ID is generated.
func (s *TransactionStore) Add(tx Transaction) (Transaction, error) {
	if err := tx.validate(); err != nil {
		return Transaction{}, err
	}
	if tx.ID == "" {
		tx.ID = id.New()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs = append([]Transaction{tx}, s.txs...)
	return tx, nil
}

// List returns all transactions, newest addition first.
func (s *TransactionStore) List() []Transaction {
	return s.Filter(FilterAll)
}

// Filter returns the transactions of one type, or all of them for FilterAll.
// Unknown filters match nothing.
func (s *TransactionStore) Filter(kind string) []Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Transaction, 0, len(s.txs))
	for _, tx := range s.txs {
		if kind == FilterAll || string(tx.Type) == kind {
			out = append(out, tx)
		}
	}
	return out
}

// Search matches query case-insensitively against name, category and note.
func (s *TransactionStore) Search(query string) []Transaction {
	q := strings.ToLower(strings.TrimSpace(query))
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Transaction, 0)
	for _, tx := range s.txs {
		if q == "" ||
			strings.Contains(strings.ToLower(tx.Name), q) ||
			strings.Contains(strings.ToLower(tx.Category), q) ||
			strings.Contains(strings.ToLower(tx.Note), q) {
			out = append(out, tx)
		}
	}
	return out
}

// Totals sums income and expense amounts.
func (s *TransactionStore) Totals() (income, expense domain.Money) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, tx := range s.txs {
		if tx.Type == Income {
			income = income.Add(tx.Amount)
		} else {
			expense = expense.Add(tx.Amount)
		}
	}
	return income, expense
}

// ByCategory sums expense amounts per category.
func (s *TransactionStore) ByCategory() map[string]domain.Money {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := map[string]domain.Money{}
	for _, tx := range s.txs {
		if tx.Type == Expense {
			out[tx.Category] = out[tx.Category].Add(tx.Amount)
		}
	}
	return out
}
