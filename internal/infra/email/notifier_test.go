package email

import (
	"context"
	"errors"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNotifyFailureSendsMessage(t *testing.T) {
	n := NewSMTPNotifier("mail", 25, "noreply@shortcut.local", zap.NewNop())

	var gotAddr string
	var gotTo []string
	var gotMsg string
	n.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, string(msg)
		return nil
	}

	err := n.NotifyFailure(context.Background(), "user@example.com", "job-1", "u/video.mp4", "decoder exited abnormally")
	require.NoError(t, err)

	assert.Equal(t, "mail:25", gotAddr)
	assert.Equal(t, []string{"user@example.com"}, gotTo)
	assert.Contains(t, gotMsg, "Subject: Shortcut - Cut Detection Failed [Job job-1]")
	assert.Contains(t, gotMsg, "Video: u/video.mp4")
	assert.Contains(t, gotMsg, "Error: decoder exited abnormally")
}

func TestNotifyFailureWrapsSendError(t *testing.T) {
	n := NewSMTPNotifier("mail", 25, "noreply@shortcut.local", zap.NewNop())
	boom := errors.New("connection refused")
	n.send = func(string, smtp.Auth, string, []string, []byte) error { return boom }

	err := n.NotifyFailure(context.Background(), "user@example.com", "job-1", "k", "e")
	assert.ErrorIs(t, err, boom)
}
