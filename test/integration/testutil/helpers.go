//go:build integration

package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
)

// GET performs a GET request against the test server.
func (env *TestEnv) GET(path string) *http.Response {
	env.t.Helper()
	resp, err := http.Get(env.Server.URL + path)
	if err != nil {
		env.t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

// POST performs a POST request with an optional JSON body.
func (env *TestEnv) POST(path string, body interface{}) *http.Response {
	env.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			env.t.Fatalf("POST %s: encode: %v", path, err)
		}
	}
	req, err := http.NewRequest("POST", env.Server.URL+path, &buf)
	if err != nil {
		env.t.Fatalf("POST %s: new request: %v", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		env.t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

// Track posts an interaction and returns the ids it unlocked.
func (env *TestEnv) Track(kind string, body interface{}) []string {
	env.t.Helper()
	resp := env.POST("/track/"+kind, body)
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		env.t.Fatalf("Track %s: expected 200, got %d", kind, resp.StatusCode)
	}
	var out struct {
		Unlocked []struct {
			ID string `json:"id"`
		} `json:"unlocked"`
	}
	DecodeJSON(env.t, resp, &out)
	ids := make([]string, len(out.Unlocked))
	for i, a := range out.Unlocked {
		ids[i] = a.ID
	}
	return ids
}
