package daemon

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewClient(t *testing.T) {
	if NewClient("  ") != nil {
		t.Error("empty addr should yield nil client")
	}
	tests := []struct {
		addr, want string
	}{
		{"127.0.0.1:8757", "http://127.0.0.1:8757"},
		{"http://localhost:9000/", "http://localhost:9000"},
	}
	for _, tt := range tests {
		if got := NewClient(tt.addr).baseURL; got != tt.want {
			t.Errorf("NewClient(%q).baseURL = %q, want %q", tt.addr, got, tt.want)
		}
	}
}

func TestClient_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	writeRollout(t, dir, baseLines...)
	_, srv := newTestService(t, dir)
	c := NewClient(srv.URL)
	ctx := context.Background()

	st, err := c.Status(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.Summary.Sessions != 1 || st.SessionsDir != dir {
		t.Errorf("status = %+v", st)
	}

	sessions, err := c.Sessions(ctx, "api")
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 1 || sessions[0].SessionID != testID {
		t.Fatalf("sessions = %+v", sessions)
	}
	if none, _ := c.Sessions(ctx, "no-such-project"); len(none) != 0 {
		t.Errorf("filtered sessions = %+v, want none", none)
	}

	tr, err := c.Transcript(ctx, testID, false)
	if err != nil {
		t.Fatal(err)
	}
	if tr.TotalTokens != 42 || len(tr.Messages) != 2 {
		t.Errorf("transcript = %+v", tr)
	}
	if _, err := c.Transcript(ctx, testID, true); err != nil {
		t.Errorf("reload: %v", err)
	}
}

func TestClient_Errors(t *testing.T) {
	_, srv := newTestService(t, t.TempDir())
	c := NewClient(srv.URL)

	_, err := c.Transcript(context.Background(), "missing", false)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound || apiErr.Message == "" {
		t.Errorf("api error = %+v", apiErr)
	}

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":"Unable to read the session file."}`))
	}))
	defer bad.Close()
	_, err = NewClient(bad.URL).Transcript(context.Background(), "x", false)
	if !errors.Is(err, ErrUnreadable) || err.Error() != "Unable to read the session file." {
		t.Errorf("err = %v", err)
	}
}
