package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/Iloudia/planner-shop/backend/internal/app/apiapp"
	"github.com/Iloudia/planner-shop/backend/internal/config"
)

// stripeStub fakes the two checkout-session endpoints the backend talks to.
func stripeStub(t *testing.T) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/checkout/sessions":
			if err := r.ParseForm(); err != nil {
				t.Errorf("parse session form: %v", err)
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id":             "cs_smoke",
				"url":            "https://checkout.stripe.com/pay/cs_smoke",
				"payment_status": "unpaid",
				"metadata":       map[string]string{"product_id": r.Form.Get("metadata[product_id]")},
			})
		case r.Method == http.MethodGet && r.URL.Path == "/v1/checkout/sessions/cs_smoke":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id":             "cs_smoke",
				"payment_status": "paid",
				"metadata":       map[string]string{"product_id": "ebook-clarte"},
				"customer_details": map[string]string{
					"email": "buyer@example.com",
				},
			})
		default:
			http.NotFound(w, r)
		}
	}))
}

func newTestApp(t *testing.T, stripeURL string) *httptest.Server {
	t.Helper()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "ebook-clarte.pdf"), []byte("%PDF-1.7 smoke"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cfg := config.Default()
	cfg.HTTP.Addr = ":0"
	cfg.Redis.Addr = ""
	cfg.Stripe.SecretKey = "sk_test_smoke"
	cfg.Stripe.APIBase = stripeURL
	cfg.Download.Dir = dir
	cfg.Download.TokenSecret = "smoke-secret"

	app, err := apiapp.New(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("create app: %v", err)
	}

	ts := httptest.NewServer(app.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestHealthz(t *testing.T) {
	stripe := stripeStub(t)
	defer stripe.Close()
	ts := newTestApp(t, stripe.URL)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("get healthz: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", resp.StatusCode, http.StatusOK)
	}

	var payload struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Status != "ok" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestPurchaseFlowEndToEnd(t *testing.T) {
	stripe := stripeStub(t)
	defer stripe.Close()
	ts := newTestApp(t, stripe.URL)

	resp, err := http.Post(ts.URL+"/api/create-checkout-session", "application/json",
		strings.NewReader(`{"productId":"ebook-clarte"}`))
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	var created struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	resp.Body.Close()
	if created.URL != "https://checkout.stripe.com/pay/cs_smoke" {
		t.Fatalf("unexpected redirect url: %s", created.URL)
	}

	resp, err = http.Get(ts.URL + "/api/checkout-session?session_id=cs_smoke")
	if err != nil {
		t.Fatalf("verify session: %v", err)
	}
	var verified struct {
		Paid        bool   `json:"paid"`
		DownloadURL string `json:"downloadUrl"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&verified); err != nil {
		t.Fatalf("decode verify response: %v", err)
	}
	resp.Body.Close()
	if !verified.Paid || verified.DownloadURL == "" {
		t.Fatalf("expected paid session with download url, got %+v", verified)
	}

	// The download url embeds the configured base, rebase it onto the
	// test server.
	token := verified.DownloadURL[strings.Index(verified.DownloadURL, "token=")+len("token="):]
	resp, err = http.Get(ts.URL + "/api/download?token=" + token)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected download status: %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read download: %v", err)
	}
	if string(body) != "%PDF-1.7 smoke" {
		t.Fatalf("unexpected file body: %q", body)
	}
}

func TestDownloadWithoutTokenIsRejected(t *testing.T) {
	stripe := stripeStub(t)
	defer stripe.Close()
	ts := newTestApp(t, stripe.URL)

	resp, err := http.Get(ts.URL + "/api/download")
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}
