package handler

import (
	"encoding/json"
	"net/http"
	"net/mail"
	"strconv"
	"strings"
	"unicode"
)

// envelope is the standard response shape: success plus either a payload
// merged at the top level or a human-readable failure message.
type envelope map[string]any

// writeJSON serializes v as JSON and writes it to the response with the given
// HTTP status code. The Content-Type header is set to application/json.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeOK writes a success envelope, merging extra fields at the top level.
func writeOK(w http.ResponseWriter, status int, extra envelope) {
	body := envelope{"success": true}
	for k, v := range extra {
		body[k] = v
	}
	writeJSON(w, status, body)
}

// writeFail writes a failure envelope with a human-readable message.
func writeFail(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{"success": false, "message": message})
}

// readJSON decodes the request body as JSON into v. The body is closed after
// decoding regardless of success or failure.
func readJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// queryInt extracts an integer query parameter, returning defaultVal if the
// parameter is missing or cannot be parsed.
func queryInt(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

// queryString extracts a string query parameter.
func queryString(r *http.Request, key string) string {
	return r.URL.Query().Get(key)
}

// pageWindow extracts page/limit query parameters with bounds applied.
func pageWindow(r *http.Request) (page, limit int) {
	page = queryInt(r, "page", 1)
	if page < 1 {
		page = 1
	}
	limit = queryInt(r, "limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

// normalizeEmail lowercases and trims an email address for lookup.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validEmail reports whether the address parses as an email.
func validEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}

// validPhone requires at least ten digits, ignoring separators.
func validPhone(phone string) bool {
	digits := 0
	for _, r := range phone {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	return digits >= 10
}
