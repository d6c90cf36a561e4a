// Package model defines the core domain types used throughout the engine.
package model

import "time"

// TransactionType carries the direction of a financial event. Amounts are
// always non-negative; the sign lives here.
type TransactionType string

const (
	// TypeIncome represents money coming in.
	TypeIncome TransactionType = "income"
	// TypeExpense represents money going out.
	TypeExpense TransactionType = "expense"
)

// Context identifies which side of the user's finances a document belongs to.
type Context string

const (
	ContextBusiness  Context = "business"
	ContextPersonal  Context = "personal"
	ContextEcommerce Context = "ecommerce"
)

// SourceFormat identifies the extraction path that produced a candidate.
type SourceFormat string

const (
	SourcePDF         SourceFormat = "pdf"
	SourceOCR         SourceFormat = "ocr"
	SourceSpreadsheet SourceFormat = "spreadsheet"
	SourceOFX         SourceFormat = "ofx"
)

// DocumentType classifies the kind of financial document being processed,
// detected by keyword sniffing over the extracted text.
type DocumentType string

const (
	DocBankStatement       DocumentType = "bank_statement"
	DocCreditCardStatement DocumentType = "credit_card_statement"
	DocTransferReceipt     DocumentType = "transfer_receipt"
	DocReceipt             DocumentType = "receipt"
	DocGenericFinancial    DocumentType = "generic_financial"
)

// TransferMethod identifies the rail used by a transfer receipt.
type TransferMethod string

const (
	TransferPIX     TransferMethod = "pix"
	TransferTED     TransferMethod = "ted"
	TransferDOC     TransferMethod = "doc"
	TransferBank    TransferMethod = "bank_transfer"
	TransferUnknown TransferMethod = "unknown"
)

// RawCandidate is one parsed financial event before enrichment. It is the
// output of the extractors and the input to the enricher; later stages build
// new values instead of mutating it.
type RawCandidate struct {
	Date           time.Time
	Amount         float64
	Type           TransactionType
	Description    string
	Context        Context
	Source         SourceFormat
	DocumentType   DocumentType
	RawTimestamp   string
	RawLine        string
	CategoryHint   string
	TransferMethod TransferMethod
	Confidence     float64
	LineIndex      int
	HasTime        bool
	IsTransfer     bool
}
