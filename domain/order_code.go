package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// OrderCodeGenerator produces client-side order codes. It is a variable type so
// a server-issued identifier can be swapped in.
type OrderCodeGenerator func(now time.Time) string

// NewOrderCode returns ORD-<last 8 digits of unix millis>-<6 hex chars>.
// Uniqueness is probabilistic: two codes collide when generated in the same
// millisecond (mod 10^8) and draw the same 24 random bits.
func NewOrderCode(now time.Time) string {
	millis := fmt.Sprintf("%d", now.UnixMilli())
	if len(millis) > 8 {
		millis = millis[len(millis)-8:]
	}
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return fmt.Sprintf("ORD-%s-%s", millis, strings.ToUpper(random))
}
