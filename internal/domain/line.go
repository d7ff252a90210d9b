package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the canonical date format of statement lines and API payloads
const DateLayout = "2006-01-02"

// Line is a single normalised bank statement transaction.
// The sign convention of Amount is decided by the statement source.
type Line struct {
	Date     time.Time       `json:"date"`
	Merchant string          `json:"merchant"`
	Amount   decimal.Decimal `json:"amount"`
}
