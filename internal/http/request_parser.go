// Package http exposes the REST boundary of the finance tracker.
//
// This file implements request body decoding and field coercion. Clients are
// loose about numeric types, so numeric fields accept both JSON numbers and
// numeric strings; every failure mode produces a message naming the field.
package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const maxBodyBytes = 1 << 20 // 1MB

// decodeJSON parses the request body into dst, bounding the body size.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid request body")
	}
	return nil
}

// jsonValue captures a JSON field's raw token so it can be coerced after
// decoding, with an error message that names the field. It accepts both
// `"42"` and `42` for numeric fields.
type jsonValue struct {
	raw     string
	present bool
}

func (v *jsonValue) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		var unquoted string
		if err := json.Unmarshal(data, &unquoted); err != nil {
			return err
		}
		s = strings.TrimSpace(unquoted)
	}
	v.raw = s
	v.present = true
	return nil
}

// Int64 coerces the field to an int64.
func (v jsonValue) Int64(name string) (int64, error) {
	if !v.present || v.raw == "" {
		return 0, fmt.Errorf("missing required field: %s", name)
	}
	n, err := strconv.ParseInt(v.raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q", name, v.raw)
	}
	return n, nil
}

// Int coerces the field to an int.
func (v jsonValue) Int(name string) (int, error) {
	n, err := v.Int64(name)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// Decimal coerces the field to a decimal amount.
func (v jsonValue) Decimal(name string) (decimal.Decimal, error) {
	if !v.present || v.raw == "" {
		return decimal.Decimal{}, fmt.Errorf("missing required field: %s", name)
	}
	d, err := decimal.NewFromString(v.raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid value for %s: %q", name, v.raw)
	}
	return d, nil
}

// pathInt64 parses a numeric path parameter.
func pathInt64(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return n, nil
}

// queryInt parses a required numeric query parameter.
func queryInt(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, fmt.Errorf("missing required parameter: %s", name)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q", name, raw)
	}
	return n, nil
}
