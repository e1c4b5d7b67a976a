// Package sendgrid provides a mail.Sender backed by the SendGrid v3 API.
package sendgrid

import "time"

// Config holds configuration for the SendGrid client.
type Config struct {
	APIKey  string        // API key sent as a bearer token
	BaseURL string        // Base URL for the API (e.g., "https://api.sendgrid.com")
	From    string        // Sender address of every message
	Timeout time.Duration // HTTP request timeout
}
