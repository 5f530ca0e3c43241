package outcome

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/quantmill/reversal/internal/types"
	"github.com/shopspring/decimal"
)

// AlertID derives the deterministic 32-hex-character id of an alert:
//
//	sha256(ts|symbol|timeframe|setup|direction|round(triggerClose, 4))[:32]
//
// The trigger close is rounded to four decimals before hashing so floating
// noise below 1e-4 maps to the same id, making re-derivation from stored
// alert fields stable.
func AlertID(ts time.Time, symbol string, timeframe types.Interval, setup string, direction types.Direction, triggerClose float64) string {
	rounded := decimal.NewFromFloat(triggerClose).Round(4).String()

	key := fmt.Sprintf("%s|%s|%s|%s|%s|%s",
		ts.UTC().Format(time.RFC3339), symbol, timeframe, setup, direction, rounded)

	sum := sha256.Sum256([]byte(key))

	return hex.EncodeToString(sum[:])[:32]
}
