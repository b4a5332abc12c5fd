//go:build integration

package testutil

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"
)

// DecodeJSON reads and decodes a JSON response body into dst.
func DecodeJSON(t *testing.T, resp *http.Response, dst interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
}

// AssertStatus checks that the response has the expected HTTP status code.
func AssertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

// AssertErrorCode checks that the response body contains the expected error code.
func AssertErrorCode(t *testing.T, resp *http.Response, expectedCode string) {
	t.Helper()
	var errResp struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	DecodeJSON(t, resp, &errResp)
	if errResp.Code != expectedCode {
		t.Errorf("expected error code %q, got %q (message: %s)", expectedCode, errResp.Code, errResp.Message)
	}
}

// CountRows returns how many kv_store rows the env's namespace holds.
func CountRows(t *testing.T, env *TestEnv) int {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var n int
	err := env.Pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM kv_store WHERE namespace = $1", env.Namespace).Scan(&n)
	if err != nil {
		t.Fatalf("CountRows: query: %v", err)
	}
	return n
}

// RawValue returns the stored JSON document for key, or nil if absent.
func RawValue(t *testing.T, env *TestEnv, key string) []byte {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var value []byte
	err := env.Pool.QueryRow(ctx,
		"SELECT value FROM kv_store WHERE namespace = $1 AND key = $2", env.Namespace, key).Scan(&value)
	if err != nil {
		return nil
	}
	return value
}
