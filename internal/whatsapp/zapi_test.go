package whatsapp_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/whatsapp"
)

func silentLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestZAPIClient_SendsCleanPhoneAndClientToken(t *testing.T) {
	var (
		gotPath  string
		gotToken string
		gotBody  map[string]string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotToken = r.Header.Get("Client-Token")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"zaapId":"z1","messageId":"m1"}`))
	}))
	defer srv.Close()

	c := whatsapp.NewZAPIClient(whatsapp.ZAPIConfig{
		BaseURL:     srv.URL + "/",
		Instance:    "INST",
		Token:       "TOK",
		ClientToken: "CT",
	}, srv.Client(), silentLogger())

	if err := c.Send(context.Background(), "+351 912 345 678", "olá"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if gotPath != "/instances/INST/token/TOK/send-text" {
		t.Errorf("path = %q", gotPath)
	}
	if gotToken != "CT" {
		t.Errorf("Client-Token = %q", gotToken)
	}
	if gotBody["phone"] != "351912345678" || gotBody["message"] != "olá" {
		t.Errorf("body = %+v", gotBody)
	}
	if !c.Status().Ready {
		t.Error("configured client should be ready")
	}
}

func TestZAPIClient_NonSuccessStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"instance not connected"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c := whatsapp.NewZAPIClient(whatsapp.ZAPIConfig{BaseURL: srv.URL, Instance: "I", Token: "T"}, srv.Client(), silentLogger())
	if err := c.Send(context.Background(), "351900000001", "x"); err == nil {
		t.Fatal("expected error on 400")
	}
}

func TestZAPIClient_RespectsContextDeadline(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := whatsapp.NewZAPIClient(whatsapp.ZAPIConfig{BaseURL: srv.URL, Instance: "I", Token: "T"}, srv.Client(), silentLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := c.Send(ctx, "351900000001", "x")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestZAPIClient_UnconfiguredRefusesToSend(t *testing.T) {
	c := whatsapp.NewZAPIClient(whatsapp.ZAPIConfig{}, nil, silentLogger())
	if err := c.Send(context.Background(), "351900000001", "x"); !errors.Is(err, whatsapp.ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
	if c.Status().Ready {
		t.Error("unconfigured client must not report ready")
	}
}

func TestCleanPhone(t *testing.T) {
	if got := whatsapp.CleanPhone("+351 912\t345 678"); got != "351912345678" {
		t.Errorf("CleanPhone = %q", got)
	}
}
