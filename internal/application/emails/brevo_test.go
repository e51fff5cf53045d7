package emails

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendInvite_PostsToBrevo(t *testing.T) {
	var got BrevoSendRequest
	var apiKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey = r.Header.Get("api-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := &BrevoClient{APIKey: "k", MailFrom: "team@example.com", Endpoint: srv.URL}
	err := c.SendInvite(context.Background(), Invite{
		To:        "bob@example.com",
		OrgName:   "Acme <Corp>",
		Role:      "MEMBER",
		Link:      "https://app.example.com/invite/abc",
		ExpiresAt: time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Equal(t, "k", apiKey)
	assert.Equal(t, "team@example.com", got.Sender.Email)
	require.Len(t, got.To, 1)
	assert.Equal(t, "bob@example.com", got.To[0].Email)
	assert.Contains(t, got.Subject, "Acme <Corp>")
	assert.Contains(t, got.HTMLContent, "Acme &lt;Corp&gt;")
	assert.Contains(t, got.HTMLContent, "https://app.example.com/invite/abc")
	assert.Contains(t, got.HTMLContent, "March 8, 2025")
}

func TestSend_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := &BrevoClient{APIKey: "k", Endpoint: srv.URL}
	assert.Error(t, c.SendWelcome(context.Background(), "a@example.com", ""))
}

func TestSend_NoAPIKeyIsNoop(t *testing.T) {
	c := &BrevoClient{Endpoint: "http://127.0.0.1:1"}
	assert.NoError(t, c.SendWelcome(context.Background(), "a@example.com", "Ann"))
}
