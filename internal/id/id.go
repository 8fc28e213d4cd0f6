package id

import (
	"crypto/md5"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CashBatchID is the fixed batch that collects every manual cash entry.
const CashBatchID = "CASH_INPUT"

// txIDLength is the number of characters kept from the digest.
const txIDLength = 16

// TxID returns the deterministic fingerprint used to deduplicate transactions.
// Identical inputs always yield the identical id. MD5 keeps ids compatible
// with rows already stored; collision resistance, not secrecy, is the goal.
func TxID(source, date string, amount float64, description, last4 string) string {
	desc := strings.TrimSpace(truncateRunes(description, 50))
	payload := strings.Join([]string{
		source,
		date,
		strconv.FormatFloat(amount, 'f', -1, 64),
		desc,
		last4,
	}, "|")

	sum := md5.Sum([]byte(payload))
	encoded := base64.StdEncoding.EncodeToString(sum[:])

	out := strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, encoded)
	if len(out) > txIDLength {
		out = out[:txIDLength]
	}
	return out
}

// NewBatchID returns a fresh import batch id like "BATCH_<uuid>".
func NewBatchID() string {
	return "BATCH_" + uuid.NewString()
}

// NewCheckID returns a fresh health finding id.
func NewCheckID() string {
	return uuid.NewString()
}

// NewRuleID returns a fresh rule id like "rule_<uuid>".
func NewRuleID() string {
	return "rule_" + uuid.NewString()
}

// CashRowID returns the per-entry row id of a manual cash entry.
func CashRowID(t time.Time) string {
	return fmt.Sprintf("CASH-%d", t.UnixMilli())
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
