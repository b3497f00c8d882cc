package utils

import (
	"fmt"
	"net/url"
	"strconv"
	"time"
)

func invalidFieldMessage(key string) string {
	return fmt.Sprintf("Invalid field value for field %q.", key)
}

// ParseFloatParam retrieves a float64 value from the provided URL query parameters.
// If the key is not present or the value is invalid, it returns 0 and updates the fieldErrors map.
// - params: URL query parameters.
// - key: The key to look for in the query parameters.
// - fieldErrors: A map to collect validation errors for fields.
// Returns:
// - The parsed float64 value (or 0 if invalid).
// - The updated fieldErrors map containing any validation errors.
func ParseFloatParam(params url.Values, key string, fieldErrors map[string][]string) (float64, map[string][]string) {
	if fieldErrors == nil {
		fieldErrors = make(map[string][]string)
	}

	val := params.Get(key)
	if val == "" {
		return 0, fieldErrors
	}

	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		fieldErrors[key] = append(fieldErrors[key], invalidFieldMessage(key))
		return 0, fieldErrors
	}
	return f, fieldErrors
}

// ParseIntParam is ParseFloatParam for integers. Missing keys yield def.
func ParseIntParam(params url.Values, key string, def int, fieldErrors map[string][]string) (int, map[string][]string) {
	if fieldErrors == nil {
		fieldErrors = make(map[string][]string)
	}

	val := params.Get(key)
	if val == "" {
		return def, fieldErrors
	}

	n, err := strconv.Atoi(val)
	if err != nil {
		fieldErrors[key] = append(fieldErrors[key], invalidFieldMessage(key))
		return def, fieldErrors
	}
	return n, fieldErrors
}

// ParseBoolParam reports whether key is set to a true value. Unparseable
// values are recorded as field errors.
func ParseBoolParam(params url.Values, key string, fieldErrors map[string][]string) (bool, map[string][]string) {
	if fieldErrors == nil {
		fieldErrors = make(map[string][]string)
	}

	val := params.Get(key)
	if val == "" {
		return false, fieldErrors
	}

	b, err := strconv.ParseBool(val)
	if err != nil {
		fieldErrors[key] = append(fieldErrors[key], invalidFieldMessage(key))
		return false, fieldErrors
	}
	return b, fieldErrors
}

// ParseStartParameter parses the start-of-journey clock ("HH:MM"). An empty
// value means "now" in the given location.
func ParseStartParameter(value string, now time.Time) (float64, map[string][]string, bool) {
	if value == "" {
		return float64(now.Hour()*60 + now.Minute()), nil, true
	}

	seconds, err := ParseClock(value)
	if err != nil || seconds >= SecondsPerDay {
		return 0, map[string][]string{"start": {invalidFieldMessage("start")}}, false
	}
	return float64(seconds) / 60, nil, true
}
