// file: internals/helpers/dbtime/dbtime.go
package dbtime

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Semua waktu di DB disimpan UTC. Tanggal tanpa jam = 00:00 UTC.
const DateLayout = "2006-01-02"

// ParseDate menerima YYYY-MM-DD atau RFC3339, hasil selalu UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD or RFC3339)", s)
	}
	return t.UTC(), nil
}

// ParseDateOr: string kosong → fallback (mis. "sekarang").
func ParseDateOr(s string, fallback time.Time) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return fallback.UTC(), nil
	}
	return ParseDate(s)
}

// QueryDate membaca ?key= sebagai tanggal. Query kosong → nil.
func QueryDate(c *fiber.Ctx, key string) (*time.Time, error) {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return nil, nil
	}
	t, err := ParseDate(v)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, key+": "+err.Error())
	}
	return &t, nil
}

// StartOfDay: potong ke 00:00 UTC.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
