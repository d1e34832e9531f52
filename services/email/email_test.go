package emailsvc

import (
	"bytes"
	"net/http"
	"net/mail"
	"testing"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Junosprite007/mod-equipmentcheckout/core"
	"github.com/Junosprite007/mod-equipmentcheckout/services/breaker"
	"github.com/Junosprite007/mod-equipmentcheckout/tests"
)

func newAccountMessage() *core.EmailMessage {
	return &core.EmailMessage{
		To:           []mail.Address{{Name: "Jane Doe", Address: "jane@example.com"}},
		Subject:      "Your new account",
		TemplateName: "newaccount",
		TemplateData: map[string]string{"FirstName": "Jane", "Username": "janedoe", "Password": "s3cret"},
	}
}

func TestConsoleService(t *testing.T) {
	var out bytes.Buffer
	logger := new(testutil.Logger)
	svc := newConsoleService(core.NewTestConfig(), logger, &out, true)

	svc.SendMessages(newAccountMessage(), &core.EmailMessage{Subject: "no recipients", BodyStr: "hi"})

	sent := svc.Sent()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].TextContent, "Username: janedoe")
	assert.Contains(t, sent[0].TextContent, "Password: s3cret")
	assert.Contains(t, out.String(), "Subject: [Equipment Checkout] Your new account")
	assert.Contains(t, out.String(), `To: "Jane Doe" <jane@example.com>`)
	assert.Empty(t, logger.Lines)
}

func TestConsoleService_renderError(t *testing.T) {
	logger := new(testutil.Logger)
	svc := newConsoleService(core.NewTestConfig(), logger, nil, true)

	msg := newAccountMessage()
	msg.TemplateData = map[string]string{"FirstName": "Jane"} // missing keys
	svc.SendMessages(msg)

	assert.Empty(t, svc.Sent())
	require.Len(t, logger.Lines, 1)
	assert.Contains(t, logger.Lines[0], `ERROR: rendering email "newaccount"`)
}

func TestSendgridService_prepare(t *testing.T) {
	svc := newSendgridService(core.NewTestConfig(), new(testutil.Logger))
	msg := newAccountMessage()
	require.NoError(t, msg.Render(svc.conf))

	m := svc.prepare(*msg)
	assert.Equal(t, "noreply@test.local", m.From.Address)
	assert.Equal(t, "Equipment Checkout", m.From.Name)
	require.Len(t, m.Personalizations, 1)
	assert.Equal(t, "[Equipment Checkout] Your new account", m.Personalizations[0].Subject)
	require.Len(t, m.Personalizations[0].To, 1)
	assert.Equal(t, "jane@example.com", m.Personalizations[0].To[0].Address)
	require.Len(t, m.Content, 2)
	assert.Equal(t, "text/plain", m.Content[0].Type)
	assert.Equal(t, "text/html", m.Content[1].Type)
}

func TestSendgridService_send(t *testing.T) {
	origAPI := sendgridAPI
	defer func() { sendgridAPI = origAPI }()

	tests := []struct {
		name    string
		res     *rest.Response
		err     error
		wantErr string
	}{
		{"accepted", &rest.Response{StatusCode: http.StatusAccepted}, nil, ""},
		{"rejected", &rest.Response{StatusCode: http.StatusBadRequest, Body: "bad from"}, nil, "calling sendgrid: status: 400 - body: bad from"},
		{"transport error", nil, errors.New("timeout"), "calling sendgrid: timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int
			sendgridAPI = func(req rest.Request) (*rest.Response, error) {
				calls++
				assert.Equal(t, http.MethodPost, string(req.Method))
				return tt.res, tt.err
			}
			svc := newSendgridService(core.NewTestConfig(), new(testutil.Logger))
			err := svc.sendMessage(newAccountMessage())
			assert.Equal(t, 1, calls)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.EqualError(t, err, tt.wantErr)
			}
		})
	}
}

func TestSendgridService_breakerOpens(t *testing.T) {
	origAPI := sendgridAPI
	defer func() { sendgridAPI = origAPI }()

	var calls int
	sendgridAPI = func(rest.Request) (*rest.Response, error) {
		calls++
		return nil, errors.New("timeout")
	}

	svc := newSendgridService(core.NewTestConfig(), new(testutil.Logger))
	for i := 0; i < breaker.MaxConsecutiveFailures+2; i++ {
		_ = svc.sendMessage(newAccountMessage())
	}
	assert.Equal(t, breaker.MaxConsecutiveFailures, calls)

	err := svc.sendMessage(newAccountMessage())
	assert.Equal(t, gobreaker.ErrOpenState, errors.Cause(err))
}
