package server

import (
	"strings"
	"time"

	"github.com/smallbiznis/oilfield/pkg/daterange"
)

func parseRequiredDate(value, field string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, newValidationError(field, "required", field+" is required")
	}
	parsed, err := daterange.Parse(trimmed)
	if err != nil {
		return time.Time{}, newValidationError(field, "invalid_"+field, "invalid "+field)
	}
	return parsed, nil
}

func parseOptionalDate(value, field string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", nil
	}
	if _, err := daterange.Parse(trimmed); err != nil {
		return "", newValidationError(field, "invalid_"+field, "invalid "+field)
	}
	return trimmed, nil
}
