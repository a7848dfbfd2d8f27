package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/D-Abramoc/chatrelay/internal/common"
)

func TestRegister_Conflict(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	defer ts.Close()

	c := NewClient(ts.URL)
	err := c.Register(context.Background(), "a@b.c", "pw", "pw", nil)
	if !errors.Is(err, common.ErrorAlreadyExists) {
		t.Fatalf("err = %v, want %v", err, common.ErrorAlreadyExists)
	}
}

func TestLogin_OK(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"access_token":"tok"}`)
	}))
	defer ts.Close()

	c := NewClient(ts.URL)
	token, err := c.Login(context.Background(), "a@b.c", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token != "tok" {
		t.Errorf("token = %q", token)
	}
}

func TestLogin_Unauthorized(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	c := NewClient(ts.URL)
	_, err := c.Login(context.Background(), "a@b.c", "wrong")
	if !errors.Is(err, common.ErrorUnauthorized) {
		t.Fatalf("err = %v, want %v", err, common.ErrorUnauthorized)
	}
}

func TestHistory_OK(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/messages/42" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.URL.Query().Get("token") != "tok" {
			t.Errorf("token = %q", r.URL.Query().Get("token"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"id":1,"sender_id":7,"recipient_id":42,"content":"hi"}]`)
	}))
	defer ts.Close()

	c := NewClient(ts.URL)
	history, err := c.History(context.Background(), "tok", 42)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 1 || history[0].Content != "hi" {
		t.Errorf("history = %+v", history)
	}
}

func TestHistory_RedirectedToLogin(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/auth", http.StatusSeeOther)
	}))
	defer ts.Close()

	c := NewClient(ts.URL)
	if _, err := c.History(context.Background(), "expired", 42); err == nil {
		t.Fatal("expected error")
	}
}
