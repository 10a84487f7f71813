package system

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCheckServerReachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	if err := CheckServerReachable(context.Background(), srv.URL); err != nil {
		srv.Close()
		t.Fatalf("expected reachable: %v", err)
	}

	url := srv.URL
	srv.Close()
	if err := CheckServerReachable(context.Background(), url); err == nil {
		t.Fatalf("expected error for closed server")
	}
}

func TestCheckServerReachableRejectsBadURL(t *testing.T) {
	if err := CheckServerReachable(context.Background(), "not a url"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestAvailableSpace(t *testing.T) {
	n, err := AvailableSpace(t.TempDir())
	if err != nil || n == 0 {
		t.Fatalf("available: %d %v", n, err)
	}
}
