package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/soltixdb/depotcast/internal/services"
)

// parseDay parses a YYYY-MM-DD value in loc. Empty input yields the zero time.
func parseDay(name, value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, value, loc)
	if err != nil {
		return time.Time{}, services.NewServiceErrorWithDetails(services.CodeInvalidParameter,
			name+" must be a date in YYYY-MM-DD format", map[string]interface{}{name: value})
	}
	return t, nil
}

// parseRange parses from/to and rejects inverted ranges
func parseRange(from, to string, loc *time.Location) (time.Time, time.Time, error) {
	start, err := parseDay("from", from, loc)
	if err != nil {
		return start, start, err
	}
	end, err := parseDay("to", to, loc)
	if err != nil {
		return start, end, err
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return start, end, services.NewServiceErrorWithDetails(services.CodeInvalidParameter,
			"to must not be before from", map[string]interface{}{"from": from, "to": to})
	}
	return start, end, nil
}

// queryInt reads an optional integer query parameter; absent means 0
func queryInt(c *fiber.Ctx, name string) (int, error) {
	n, err := queryOptionalInt(c, name)
	if err != nil || n == nil {
		return 0, err
	}
	return *n, nil
}

// queryOptionalInt reads an integer query parameter, returning nil when absent
func queryOptionalInt(c *fiber.Ctx, name string) (*int, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, services.NewServiceErrorWithDetails(services.CodeInvalidParameter,
			name+" must be an integer", map[string]interface{}{name: raw})
	}
	return &n, nil
}
