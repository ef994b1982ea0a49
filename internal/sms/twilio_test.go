package sms

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/fakhrymubarak/weather-text/internal/config"
	"github.com/fakhrymubarak/weather-text/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripperFunc func(*http.Request) *http.Response

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req), nil
}

type capturedRequest struct {
	method string
	path   string
	user   string
	pass   string
	form   url.Values
}

func newCapturingClient(t *testing.T, status int, body string, got *capturedRequest) *http.Client {
	t.Helper()
	return &http.Client{Transport: roundTripperFunc(func(req *http.Request) *http.Response {
		got.method = req.Method
		got.path = req.URL.Path
		got.user, got.pass, _ = req.BasicAuth()
		raw, _ := io.ReadAll(req.Body)
		got.form, _ = url.ParseQuery(string(raw))
		return &http.Response{
			StatusCode: status,
			Body:       io.NopCloser(strings.NewReader(body)),
			Header:     http.Header{"Content-Type": []string{"application/json"}},
			Request:    req,
		}
	})}
}

var testCfg = config.TwilioConfig{
	AccountSID: "AC123",
	AuthToken:  "secrettoken",
	FromNumber: "+15550000001",
}

func TestTwilioSender_Send(t *testing.T) {
	var got capturedRequest
	client := newCapturingClient(t, http.StatusCreated, `{"sid":"SM42","status":"queued"}`, &got)
	sender := NewTwilioSender(testCfg, client)

	receipt, err := sender.Send(context.Background(), model.OutboundMessage{To: "+15550000002", Body: "Good morning!"})
	require.NoError(t, err)
	assert.Equal(t, "SM42", receipt.SID)
	assert.Equal(t, "queued", receipt.Status)

	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/2010-04-01/Accounts/AC123/Messages.json", got.path)
	assert.Equal(t, "AC123", got.user)
	assert.Equal(t, "secrettoken", got.pass)
	assert.Equal(t, "+15550000002", got.form.Get("To"))
	assert.Equal(t, "+15550000001", got.form.Get("From"))
	assert.Equal(t, "Good morning!", got.form.Get("Body"))
}

func TestTwilioSender_APIKeyAuth(t *testing.T) {
	var got capturedRequest
	client := newCapturingClient(t, http.StatusCreated, `{"sid":"SM1"}`, &got)
	cfg := testCfg
	cfg.APIKey = "SK999"
	sender := NewTwilioSender(cfg, client)

	_, err := sender.Send(context.Background(), model.OutboundMessage{To: "+15550000002", Body: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "SK999", got.user)
	// the account still owns the message resource
	assert.Equal(t, "/2010-04-01/Accounts/AC123/Messages.json", got.path)
}

func TestTwilioSender_ProviderError(t *testing.T) {
	var got capturedRequest
	client := newCapturingClient(t, http.StatusBadRequest,
		`{"code":21212,"message":"The 'From' number TWILIO_PHONE_NUMBER is not a valid phone number","status":400}`, &got)
	sender := NewTwilioSender(testCfg, client)

	receipt, err := sender.Send(context.Background(), model.OutboundMessage{To: "+15550000002", Body: "hi"})
	require.Error(t, err)
	assert.Nil(t, receipt)
	assert.Contains(t, err.Error(), "twilio create message")
}

func TestTwilioSender_CredentialsMustBeAlphanumeric(t *testing.T) {
	called := false
	client := &http.Client{Transport: roundTripperFunc(func(req *http.Request) *http.Response {
		called = true
		return nil
	})}
	cfg := testCfg
	cfg.AuthToken = "secret-token"
	sender := NewTwilioSender(cfg, client)

	receipt, err := sender.Send(context.Background(), model.OutboundMessage{To: "+15550000002", Body: "hi"})
	require.Error(t, err)
	assert.Nil(t, receipt)
	assert.Contains(t, err.Error(), "twilio create message")
	assert.False(t, called, "the SDK rejects the credentials before any request")
}

func TestTwilioSender_Validation(t *testing.T) {
	called := false
	client := &http.Client{Transport: roundTripperFunc(func(req *http.Request) *http.Response {
		called = true
		return nil
	})}
	sender := NewTwilioSender(testCfg, client)

	_, err := sender.Send(context.Background(), model.OutboundMessage{Body: "hi"})
	assert.ErrorIs(t, err, ErrEmptyRecipient)

	_, err = sender.Send(context.Background(), model.OutboundMessage{To: "+15550000002"})
	assert.ErrorIs(t, err, ErrEmptyBody)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = sender.Send(ctx, model.OutboundMessage{To: "+15550000002", Body: "hi"})
	assert.ErrorIs(t, err, context.Canceled)

	assert.False(t, called)
}
