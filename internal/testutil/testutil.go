package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"bookstore/internal/platform/crypto"

	"github.com/golang-jwt/jwt/v5"
)

const TestSecret = "test-secret"

// OperatorToken returns a signed operator token valid for an hour.
func OperatorToken(secret, subject string) string {
	token, _, _ := crypto.GenerateToken(secret, subject, crypto.RoleOperator, time.Hour)
	return token
}

func ExpiredToken(secret, subject string) string {
	c := crypto.Claims{
		Sub:  subject,
		Role: crypto.RoleOperator,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    crypto.Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		},
	}
	token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(secret))
	return token
}

// NewRequest builds a request with body JSON-encoded when non-nil.
func NewRequest(method, path string, body interface{}) *http.Request {
	if body == nil {
		return httptest.NewRequest(method, path, nil)
	}
	b, _ := json.Marshal(body)
	r := httptest.NewRequest(method, path, bytes.NewReader(b))
	r.Header.Set("Content-Type", "application/json")
	return r
}

func NewRequestWithAuth(method, path string, body interface{}, token string) *http.Request {
	r := NewRequest(method, path, body)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return r
}

type RecordResponse struct {
	Code   int
	Header http.Header
	Body   map[string]interface{}
}

// Data returns the envelope's data field.
func (r RecordResponse) Data() interface{} {
	return r.Body["data"]
}

// ErrorCode returns error.code from an error envelope, or "".
func (r RecordResponse) ErrorCode() string {
	e, ok := r.Body["error"].(map[string]interface{})
	if !ok {
		return ""
	}
	code, _ := e["code"].(string)
	return code
}

func RecordHTTPResponse(w *httptest.ResponseRecorder) RecordResponse {
	result := w.Result()
	defer result.Body.Close()

	raw, _ := io.ReadAll(result.Body)
	var body map[string]interface{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &body)
	}
	return RecordResponse{Code: result.StatusCode, Header: result.Header, Body: body}
}
