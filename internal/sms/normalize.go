package sms

import (
	"regexp"
	"strconv"
	"strings"
)

type Classification string

const (
	ClassificationDeposit Classification = "deposit"
	ClassificationIgnored Classification = "ignored"
)

// Extraction patterns for provider deposit texts. All matching is
// best-effort: a miss leaves the field at its default, it never fails the
// ingestion.
var (
	reCurrencyAmount = regexp.MustCompile(`(?i)\b(AED|USD|SAR|OMR)\b\s*([0-9]+(?:[.,][0-9]+)?)`)
	reBalance        = regexp.MustCompile(`(?i)(?:New balance:|Check your new balance:)\s*([0-9]+(?:[.,][0-9]+)?)`)
	reTxn            = regexp.MustCompile(`(?i)(?:Transaction ID|Txn ID|Txn|Transaction #)[:\s]*([A-Za-z0-9-]+)`)
)

// Classify separates genuine deposit notifications from unrelated SMS. A
// message is a deposit only when it carries the positive phrase, a
// currency-amount token and an arrival or sender phrase; anything else is
// ignored and must not be persisted.
func Classify(raw string) Classification {
	if raw == "" {
		return ClassificationIgnored
	}
	low := strings.ToLower(raw)

	if !strings.Contains(low, "good news") {
		return ClassificationIgnored
	}
	if !reCurrencyAmount.MatchString(raw) {
		return ClassificationIgnored
	}
	if !strings.Contains(low, "landed") && !strings.Contains(low, "from") {
		return ClassificationIgnored
	}
	return ClassificationDeposit
}

// ExplicitFields are values supplied directly in the ingestion payload; when
// present and valid they win over anything extracted from the text.
type ExplicitFields struct {
	Amount   *float64
	Currency string
	TxnID    string
}

type NormalizedDeposit struct {
	Amount       float64
	Currency     string
	TxnID        string
	BalanceAfter *float64
}

// Parse normalizes a deposit text into structured fields, falling back to
// regex extraction for whatever the payload did not supply. Amount defaults
// to 0 and currency to defaultCurrency when nothing can be extracted.
func Parse(raw string, explicit ExplicitFields, defaultCurrency string) NormalizedDeposit {
	out := NormalizedDeposit{
		Currency: strings.ToUpper(strings.TrimSpace(explicit.Currency)),
		TxnID:    strings.TrimSpace(explicit.TxnID),
	}
	if explicit.Amount != nil && *explicit.Amount > 0 {
		out.Amount = *explicit.Amount
	}

	if m := reCurrencyAmount.FindStringSubmatch(raw); m != nil {
		if out.Amount == 0 {
			if v, err := parseDecimal(m[2]); err == nil {
				out.Amount = v
			}
		}
		if out.Currency == "" {
			out.Currency = strings.ToUpper(m[1])
		}
	}

	if out.TxnID == "" {
		if m := reTxn.FindStringSubmatch(raw); m != nil {
			out.TxnID = m[1]
		}
	}

	if m := reBalance.FindStringSubmatch(raw); m != nil {
		if v, err := parseDecimal(m[1]); err == nil {
			out.BalanceAfter = &v
		}
	}

	if out.Currency == "" {
		out.Currency = defaultCurrency
	}
	return out
}

// parseDecimal tolerates comma as the decimal separator.
func parseDecimal(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
}
