package api

import (
	"encoding/json/v2"
	"net/http"
	"strconv"

	"github.com/daylistapp/daylist-server/internal/errors"
)

// decodeBody parses the JSON request body into dst using json/v2.
func decodeBody(r *http.Request, dst any) error {
	if err := json.UnmarshalRead(r.Body, dst); err != nil {
		return errors.Validation("invalid request body").WithCause(err)
	}
	return nil
}

// queryInt parses an integer query parameter with a default and cap.
func queryInt(r *http.Request, key string, def, max int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return def
	}
	if value > max {
		return max
	}
	return value
}

// clientIP returns the originating client address. chi's RealIP
// middleware has already folded X-Forwarded-For/X-Real-IP into
// RemoteAddr.
func clientIP(r *http.Request) string {
	return r.RemoteAddr
}
