package model

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"
)

// PIXDirection indicates which way a PIX transfer moved.
type PIXDirection string

const (
	PIXReceived PIXDirection = "received"
	PIXSent     PIXDirection = "sent"
)

// Transaction is a RawCandidate after enrichment: normalized timestamp,
// content hash, category and confidence attached. Persisted transactions use
// the same type with ID and UserID filled in by the store.
type Transaction struct {
	Date               time.Time
	NormalizedDatetime time.Time
	ID                 string
	UserID             string
	ContentHash        string
	Description        string
	Category           string
	Type               TransactionType
	Context            Context
	Source             SourceFormat
	DocumentType       DocumentType
	PIXDirection       PIXDirection
	PIXClientName      string
	TransferMethod     TransferMethod
	Tags               []string
	Outcome            *ReconciliationOutcome
	Amount             float64
	Confidence         float64
	QualityScore       float64
	ImportanceScore    float64
	LineIndex          int
	HasTime            bool
	IsTransfer         bool
}

// GenerateContentHash derives the duplicate-detection fingerprint from the
// tuple (amount, lower-cased trimmed description, date, type). Whitespace at
// the edges of the description does not change the hash; any change to
// amount, date or type does.
func GenerateContentHash(amount float64, description string, date time.Time, txType TransactionType) string {
	parts := []string{
		fmt.Sprintf("%.2f", amount),
		strings.ToLower(strings.TrimSpace(description)),
		date.Format("2006-01-02"),
		string(txType),
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return fmt.Sprintf("%x", sum)
}

// IsPIX reports whether the transaction description references the PIX rail
// or a generic transfer.
func (t *Transaction) IsPIX() bool {
	desc := strings.ToLower(t.Description)
	return strings.Contains(desc, "pix") || strings.Contains(desc, "transferencia") || strings.Contains(desc, "transferência")
}
