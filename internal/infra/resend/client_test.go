package resend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSendPostsEmailPayload(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/emails" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(Config{
		APIKey:  "re_test",
		From:    "Clarté <noreply@clarte.shop>",
		APIBase: server.URL,
	}, server.Client())

	err := client.Send(context.Background(), Email{
		To:      "buyer@example.com",
		Subject: "Votre téléchargement",
		HTML:    "<p>lien</p>",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if gotAuth != "Bearer re_test" {
		t.Fatalf("unexpected auth header: %s", gotAuth)
	}
	if gotBody["from"] != "Clarté <noreply@clarte.shop>" {
		t.Fatalf("unexpected from: %v", gotBody["from"])
	}
	to, ok := gotBody["to"].([]any)
	if !ok || len(to) != 1 || to[0] != "buyer@example.com" {
		t.Fatalf("unexpected to: %v", gotBody["to"])
	}
}

func TestSendWrapsUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "re_test", From: "a@b.c", APIBase: server.URL}, server.Client())

	err := client.Send(context.Background(), Email{To: "buyer@example.com", Subject: "x", HTML: "y"})
	if !errors.Is(err, ErrDelivery) {
		t.Fatalf("expected ErrDelivery, got %v", err)
	}
}

func TestSendValidatesInput(t *testing.T) {
	client := NewClient(Config{APIKey: "re_test", From: "a@b.c"}, nil)

	if err := client.Send(context.Background(), Email{To: "", Subject: "x"}); !errors.Is(err, ErrDelivery) {
		t.Fatalf("expected ErrDelivery for empty recipient, got %v", err)
	}

	missingKey := NewClient(Config{From: "a@b.c"}, nil)
	if err := missingKey.Send(context.Background(), Email{To: "a@b.c", Subject: "x"}); !errors.Is(err, ErrDelivery) {
		t.Fatalf("expected ErrDelivery for missing api key, got %v", err)
	}
}
