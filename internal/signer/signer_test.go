package signer

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestExtractTxHashShapes(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"bare string", `"0xabc"`, "0xabc"},
		{"camel top-level", `{"transactionHash":"0x1"}`, "0x1"},
		{"snake top-level", `{"transaction_hash":"0x2"}`, "0x2"},
		{"data envelope", `{"data":{"transactionHash":"0x3"}}`, "0x3"},
		{"data snake", `{"data":{"transaction_hash":"0x4"}}`, "0x4"},
		{"nested result", `{"result":{"result":{"transactionHash":"0x5"}}}`, "0x5"},
		{"empty object", `{}`, ""},
		{"garbage", `not json`, ""},
		{"empty body", ``, ""},
	}
	for _, c := range cases {
		if got := extractTxHash([]byte(c.body)); got != c.want {
			t.Fatalf("%s: got %q, want %q", c.name, got, c.want)
		}
	}
}

func TestWalletSignerExecute(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		if len(body) == 0 {
			t.Errorf("empty request body")
		}
		w.Write([]byte(`{"data":{"transactionHash":"0xfeed"}}`))
	}))
	defer srv.Close()

	s := NewWalletSigner(srv.URL, "secret", "0xme")
	hash, err := s.Execute(context.Background(), []Call{{ContractAddress: "0xc", Entrypoint: "play_move", Calldata: []string{"0x1", "0x4"}}}, true)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if hash != "0xfeed" {
		t.Fatalf("hash = %q", hash)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("api key not sent: %q", gotAuth)
	}
}

func TestWalletSignerNoHashIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	s := NewWalletSigner(srv.URL, "", "0xme")
	if _, err := s.Execute(context.Background(), nil, false); err != ErrNoTransactionHash {
		t.Fatalf("expected ErrNoTransactionHash, got %v", err)
	}
}

func TestRelaySignerExecute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"transaction_hash":"0xbeef"}`))
	}))
	defer srv.Close()

	s := NewRelaySigner(srv.URL, "0xme")
	hash, err := s.Execute(context.Background(), []Call{}, false)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if hash != "0xbeef" {
		t.Fatalf("hash = %q", hash)
	}
}

func TestRelaySignerHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "paymaster unavailable", http.StatusBadGateway)
	}))
	defer srv.Close()

	s := NewRelaySigner(srv.URL, "0xme")
	if _, err := s.Execute(context.Background(), nil, false); err == nil {
		t.Fatalf("expected error on 502")
	}
}
