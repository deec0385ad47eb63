package mailer

import (
	"context"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidscribe/backend/config"
	"github.com/vidscribe/backend/internal/models"
)

func testConfig() config.EmailConfig {
	return config.EmailConfig{
		FromAddress: "noreply@example.com",
		FromName:    "Vidscribe",
		SMTPHost:    "smtp.example.com",
		SMTPPort:    587,
		Recipient:   "reviewer@example.com",
	}
}

func TestSendDraftNotification(t *testing.T) {
	m := New(testConfig(), "https://review.example.com/", nil)

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	m.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	post := &models.Post{
		VideoID:    "abc123",
		Title:      "Why queues matter",
		Content:    "Queues let stages fail independently.",
		VideoTitle: "Building Pipelines",
		VideoURL:   "https://www.youtube.com/watch?v=abc123",
	}
	require.NoError(t, m.SendDraftNotification(context.Background(), post))

	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, "noreply@example.com", gotFrom)
	assert.Equal(t, []string{"reviewer@example.com"}, gotTo)

	body := string(gotMsg)
	assert.Contains(t, body, "Subject: LinkedIn Post Draft for: Building Pipelines")
	assert.Contains(t, body, "Why queues matter")
	assert.Contains(t, body, "https://review.example.com/posts/abc123/edit")
	assert.Contains(t, body, "https://www.youtube.com/watch?v=abc123")
}

func TestSendSkipsWithoutRecipient(t *testing.T) {
	cfg := testConfig()
	cfg.Recipient = ""
	m := New(cfg, "https://review.example.com", nil)

	called := false
	m.send = func(string, smtp.Auth, string, []string, []byte) error {
		called = true
		return nil
	}

	require.NoError(t, m.SendDraftNotification(context.Background(), &models.Post{VideoID: "abc123"}))
	assert.False(t, called)
}

func TestEditLink(t *testing.T) {
	m := New(testConfig(), "https://review.example.com", nil)
	assert.Equal(t, "https://review.example.com/posts/abc123/edit", m.EditLink("abc123"))
}
