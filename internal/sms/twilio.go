package sms

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/fakhrymubarak/weather-text/internal/config"
	"github.com/fakhrymubarak/weather-text/internal/model"
	"github.com/twilio/twilio-go"
	twclient "github.com/twilio/twilio-go/client"
	twapi "github.com/twilio/twilio-go/rest/api/v2010"
)

var (
	ErrEmptyRecipient = errors.New("sms: empty recipient")
	ErrEmptyBody      = errors.New("sms: empty body")
)

// Sender delivers one outbound SMS.
type Sender interface {
	Send(ctx context.Context, msg model.OutboundMessage) (*Receipt, error)
}

// Receipt is the provider's confirmation of a created message.
type Receipt struct {
	SID    string
	Status string
}

// TwilioSender sends messages through the Twilio Programmable Messaging API.
type TwilioSender struct {
	client     *twilio.RestClient
	accountSID string
	from       string
}

// NewTwilioSender authenticates with the account SID and auth token, or with
// an API key (username) and secret (AuthToken) when APIKey is set.
// An optional http.Client replaces the transport used by the Twilio SDK.
func NewTwilioSender(cfg config.TwilioConfig, httpClient ...*http.Client) *TwilioSender {
	username := cfg.AccountSID
	if cfg.APIKey != "" {
		username = cfg.APIKey
	}

	base := &twclient.Client{
		Credentials: twclient.NewCredentials(username, cfg.AuthToken),
	}
	if len(httpClient) > 0 && httpClient[0] != nil {
		base.HTTPClient = httpClient[0]
	}
	base.SetAccountSid(cfg.AccountSID)

	return &TwilioSender{
		client:     twilio.NewRestClientWithParams(twilio.ClientParams{Client: base}),
		accountSID: cfg.AccountSID,
		from:       cfg.FromNumber,
	}
}

func (s *TwilioSender) Send(ctx context.Context, msg model.OutboundMessage) (*Receipt, error) {
	if msg.To == "" {
		return nil, ErrEmptyRecipient
	}
	if msg.Body == "" {
		return nil, ErrEmptyBody
	}
	// the SDK call itself takes no context
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	params := &twapi.CreateMessageParams{}
	params.SetPathAccountSid(s.accountSID)
	params.SetTo(msg.To)
	params.SetFrom(s.from)
	params.SetBody(msg.Body)

	resp, err := s.client.Api.CreateMessage(params)
	if err != nil {
		return nil, fmt.Errorf("twilio create message: %w", err)
	}

	receipt := &Receipt{}
	if resp.Sid != nil {
		receipt.SID = *resp.Sid
	}
	if resp.Status != nil {
		receipt.Status = *resp.Status
	}
	return receipt, nil
}
