// Package numbering issues human-readable document numbers such as JOB-1A2B3C4D.
package numbering

import (
	"strings"

	"github.com/google/uuid"
)

// Prefixes
const (
	Job         = "JOB"
	Requisition = "REQ"
	Transfer    = "TRF"
	Return      = "RET"
	Adjustment  = "ADJ"
)

// New returns prefix followed by eight random upper-case hex digits
func New(prefix string) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + "-" + strings.ToUpper(id[:8])
}
