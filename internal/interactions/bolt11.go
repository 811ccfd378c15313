package interactions

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
)

// invoiceAmountRe matches the human-readable amount prefix of a bolt11
// invoice: ln + network + digits + optional multiplier. Not anchored;
// invoices sometimes arrive with a "lightning:" URI prefix.
var invoiceAmountRe = regexp.MustCompile(`(?i)ln(?:bcrt|bc|tbs|tb)(\d+)([munp]?)`)

// Millisat multipliers per amount suffix. The whole-unit case is 1 BTC
// in millisats.
const (
	msatPerBtc   = 100_000_000_000
	msatPerMilli = 100_000_000
	msatPerMicro = 100_000
	msatPerNano  = 100
)

// ParseInvoiceSats extracts the amount in satoshis from a bolt11 invoice.
// The amount is computed exactly in millisats first, then floor-divided
// by 1000: only the pico multiplier can produce a fractional millisat
// value, and it is floored, not rounded. Any unrecognized multiplier
// suffix falls back to the whole-bitcoin scale, matching the original
// behavior. Returns 0 for anything that does not parse; never panics.
func ParseInvoiceSats(invoice string) int64 {
	matches := invoiceAmountRe.FindStringSubmatch(invoice)
	if matches == nil {
		return 0
	}

	amount, err := strconv.ParseInt(matches[1], 10, 64)
	if err != nil || amount < 0 {
		return 0
	}

	var msat int64
	switch matches[2] {
	case "m":
		msat = scaleAmount(amount, msatPerMilli)
	case "u":
		msat = scaleAmount(amount, msatPerMicro)
	case "n":
		msat = scaleAmount(amount, msatPerNano)
	case "p":
		// 1 pico-btc = 0.1 millisat; integer division floors
		msat = amount / 10
	default:
		msat = scaleAmount(amount, msatPerBtc)
	}

	return msat / 1000
}

// scaleAmount multiplies with an overflow guard; implausible amounts are
// treated as malformed and contribute nothing.
func scaleAmount(amount, multiplier int64) int64 {
	if amount > math.MaxInt64/multiplier {
		return 0
	}
	return amount * multiplier
}

// FormatSats formats satoshis for display
func FormatSats(sats int64) string {
	if sats == 0 {
		return "0 sats"
	}

	if sats < 1000 {
		return fmt.Sprintf("%d sats", sats)
	}

	if sats < 1000000 {
		return fmt.Sprintf("%.1fK sats", float64(sats)/1000)
	}

	return fmt.Sprintf("%.2fM sats", float64(sats)/1000000)
}
