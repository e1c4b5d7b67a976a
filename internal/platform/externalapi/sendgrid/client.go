package sendgrid

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/sendgrid/rest"
	sendgridapi "github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"task_backend/internal/platform/mail"
)

const mailSendEndpoint = "/v3/mail/send"

// Client sends mail through SendGrid.
type Client struct {
	cfg  Config
	rest *rest.Client
}

// Compile-time check to ensure Client implements mail.Sender.
var _ mail.Sender = (*Client)(nil)

// NewClient creates a Client that sends its requests through the given HTTP client.
func NewClient(cfg Config, client *http.Client) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{cfg: cfg, rest: &rest.Client{HTTPClient: client}}
}

// Send posts msg as a plain-text single email. Any non-2xx answer is an error.
func (s *Client) Send(ctx context.Context, msg mail.Message) error {
	email := sgmail.NewSingleEmail(
		sgmail.NewEmail("", s.cfg.From),
		msg.Subject,
		sgmail.NewEmail("", msg.To),
		msg.Text,
		"",
	)

	req := sendgridapi.GetRequest(s.cfg.APIKey, mailSendEndpoint, s.cfg.BaseURL)
	req.Method = rest.Post
	req.Body = sgmail.GetRequestBody(email)

	res, err := s.rest.SendWithContext(ctx, req)
	if err != nil {
		return err
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fmt.Errorf("sendgrid http %d%s", res.StatusCode, errorDetail(res.Body))
	}
	return nil
}

// errorDetail extracts the first error message of a SendGrid error body, if any.
func errorDetail(body string) string {
	var res struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal([]byte(body), &res); err != nil || len(res.Errors) == 0 {
		return ""
	}
	return ": " + res.Errors[0].Message
}
