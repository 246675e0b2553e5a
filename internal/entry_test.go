package internal

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
)

func TestReadyHandler_ReportsAPIKey(t *testing.T) {
	cases := []struct {
		name       string
		key        string
		configured bool
	}{
		{"key present", "test-key", true},
		{"key absent", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("GEMINI_API_KEY", tc.key)

			rec := httptest.NewRecorder()
			readyHandler(rec, httptest.NewRequest("GET", "/health/ready", nil))

			if rec.Code != 200 {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			var body struct {
				Status           string `json:"status"`
				APIKeyConfigured bool   `json:"api_key_configured"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body.Status != "ok" {
				t.Errorf("status = %q, want ok", body.Status)
			}
			if body.APIKeyConfigured != tc.configured {
				t.Errorf("api_key_configured = %v, want %v", body.APIKeyConfigured, tc.configured)
			}
		})
	}
}
