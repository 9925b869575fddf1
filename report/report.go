package report

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/airchains-network/state-conformance/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Column widths of the differences table, without the padding spaces.
const (
	addressWidth = 14
	kindWidth    = 8
	valueWidth   = 16
)

const checkFailed = "Check failed"

var border = "+" + strings.Repeat("-", addressWidth+2) +
	"+" + strings.Repeat("-", kindWidth+2) +
	"+" + strings.Repeat("-", valueWidth+2) +
	"+" + strings.Repeat("-", valueWidth+2) + "+"

// VerificationFailed is the single error raised when the node state differs
// from the expected post-state. Message holds the summary and the table.
type VerificationFailed struct {
	Differences []types.Difference
	Message     string
}

func (e *VerificationFailed) Error() string {
	return e.Message
}

// Check returns a VerificationFailed for a non-empty diffs, or nil.
func Check(post types.PostState, diffs []types.Difference) error {
	if len(diffs) == 0 {
		return nil
	}
	return &VerificationFailed{Differences: diffs, Message: Message(post, diffs)}
}

// Message renders the free-text summary followed by the differences table.
func Message(post types.PostState, diffs []types.Difference) string {
	var b strings.Builder
	b.WriteString("\nState validation failed, found the following differences:\n")
	for _, d := range diffs {
		b.WriteString(Describe(d))
		b.WriteByte('\n')
	}
	b.WriteString("\nState Differences Table:\n")
	b.WriteString(Table(post, diffs))
	return b.String()
}

// Table renders diffs as a fixed-width table. Rows follow the address order
// of post; differences for addresses outside post come last.
func Table(post types.PostState, diffs []types.Difference) string {
	var b strings.Builder
	b.WriteString(border + "\n")
	b.WriteString(row("Address", "Type", "Expected", "Actual"))
	b.WriteString(border + "\n")

	written := make([]bool, len(diffs))
	for _, entry := range post {
		for i, d := range diffs {
			if !written[i] && d.Address == entry.Address {
				b.WriteString(diffRow(d))
				written[i] = true
			}
		}
	}
	for i, d := range diffs {
		if !written[i] {
			b.WriteString(diffRow(d))
		}
	}
	b.WriteString(border)
	return b.String()
}

// Describe is the one-line summary of d.
func Describe(d types.Difference) string {
	addr := d.Address.Hex()
	switch d.Kind {
	case types.KindCheckError:
		if d.Field == types.KindStorage {
			return fmt.Sprintf("Error checking storage slot %s for account %s: %s", slotLabel(d.Slot), addr, d.Err)
		}
		return fmt.Sprintf("Error checking %s for account %s: %s", d.Field, addr, d.Err)
	case types.KindStorage:
		return fmt.Sprintf("Account %s storage slot %s mismatch: expected=%s, actual=%s",
			addr, slotLabel(d.Slot), Value(d.Kind, d.Expected), Value(d.Kind, d.Actual))
	case types.KindCode:
		line := fmt.Sprintf("Account %s code mismatch: expected length=%d, actual length=%d",
			addr, codeLen(d.Expected), codeLen(d.Actual))
		if d.Absent {
			line = fmt.Sprintf("Non-existent account %s should have empty code, actual length=%d", addr, codeLen(d.Actual))
		}
		if d.Detail != "" {
			line += " (" + d.Detail + ")"
		}
		return line
	default:
		if d.Absent {
			return fmt.Sprintf("Non-existent account %s should have zero %s, actual=%s", addr, d.Kind, Value(d.Kind, d.Actual))
		}
		return fmt.Sprintf("Account %s %s mismatch: expected=%s, actual=%s",
			addr, d.Kind, Value(d.Kind, d.Expected), Value(d.Kind, d.Actual))
	}
}

// Value formats a field value of kind: decimal for nonces and balances, hex
// for storage slots and a byte count for code.
func Value(kind types.Kind, v interface{}) string {
	switch kind {
	case types.KindCode:
		return fmt.Sprintf("%d bytes", codeLen(v))
	case types.KindStorage:
		if h, ok := v.(common.Hash); ok {
			return hexutil.EncodeBig(h.Big())
		}
	case types.KindBalance:
		if n, ok := v.(*big.Int); ok && n != nil {
			return n.String()
		}
	}
	return fmt.Sprint(v)
}

// ShortAddress abbreviates addr to its first 6 and last 4 checksummed
// characters.
func ShortAddress(addr common.Address) string {
	s := addr.Hex()
	return s[:6] + "..." + s[len(s)-4:]
}

func diffRow(d types.Difference) string {
	kind := d.Kind.String()
	if d.Kind == types.KindStorage {
		kind = "slot " + slotLabel(d.Slot)
	}
	if d.Kind == types.KindCheckError {
		field := d.Field.String()
		if d.Field == types.KindStorage {
			field = "slot " + slotLabel(d.Slot)
		}
		return row(ShortAddress(d.Address), field, "-", checkFailed)
	}
	return row(ShortAddress(d.Address), kind, Value(d.Kind, d.Expected), Value(d.Kind, d.Actual))
}

func row(addr, kind, expected, actual string) string {
	return fmt.Sprintf("| %-*s | %-*s | %-*s | %-*s |\n",
		addressWidth, fit(addr, addressWidth),
		kindWidth, fit(kind, kindWidth),
		valueWidth, fit(expected, valueWidth),
		valueWidth, fit(actual, valueWidth))
}

// fit truncates s to width, marking the cut with "..".
func fit(s string, width int) string {
	if len(s) <= width {
		return s
	}
	return s[:width-2] + ".."
}

func slotLabel(slot common.Hash) string {
	return hexutil.EncodeBig(slot.Big())
}

func codeLen(v interface{}) int {
	if b, ok := v.([]byte); ok {
		return len(b)
	}
	return 0
}
