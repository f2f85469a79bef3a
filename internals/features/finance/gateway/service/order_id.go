// file: internals/features/finance/gateway/service/order_id.go
package service

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenOrderID membuat order_id dengan prefix tertentu (dipakai di gateway).
func GenOrderID(prefix string, now time.Time) string {
	ts := now.UTC().Format("20060102-150405")
	u := uuid.New().String()
	if len(u) > 8 {
		u = u[:8]
	}
	return prefix + "-" + ts + "-" + strings.ToUpper(u)
}
