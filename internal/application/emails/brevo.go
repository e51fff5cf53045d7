package emails

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const brevoAPI = "https://api.brevo.com/v3/smtp/email"

// BrevoSendRequest is the Brevo v3 transactional email body.
type BrevoSendRequest struct {
	Sender      BrevoContact   `json:"sender"`
	To          []BrevoContact `json:"to"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent"`
	Tags        []string       `json:"tags,omitempty"`
}

type BrevoContact struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Invite is the content of one invitation email.
type Invite struct {
	To        string
	OrgName   string
	Role      string
	Link      string
	InvitedBy string
	ExpiresAt time.Time
}

// Sender sends transactional emails.
type Sender interface {
	SendWelcome(ctx context.Context, toEmail, firstName string) error
	SendInvite(ctx context.Context, inv Invite) error
}

// BrevoClient sends emails through the Brevo (Sendinblue) API.
// With an empty APIKey every send is a no-op.
type BrevoClient struct {
	APIKey   string
	MailFrom string
	Endpoint string // defaults to the public Brevo API
	Client   *http.Client
}

func (c *BrevoClient) from() string {
	if c.MailFrom != "" {
		return c.MailFrom
	}
	return "noreply@taskdesk.app"
}

func (c *BrevoClient) endpoint() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	return brevoAPI
}

func (c *BrevoClient) send(ctx context.Context, toEmail, subject, html, tag string) error {
	if c.APIKey == "" {
		return nil
	}
	body := BrevoSendRequest{
		Sender:      BrevoContact{Email: c.from(), Name: "TaskDesk"},
		To:          []BrevoContact{{Email: toEmail}},
		Subject:     subject,
		HTMLContent: html,
		Tags:        []string{tag},
	}
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("api-key", c.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("brevo send failed: status %d", resp.StatusCode)
	}
	return nil
}

func (c *BrevoClient) SendWelcome(ctx context.Context, toEmail, firstName string) error {
	if firstName == "" {
		firstName = "there"
	}
	return c.send(ctx, toEmail, "Welcome to TaskDesk", EmailLayout(welcomeContent(firstName)), "welcome")
}

func (c *BrevoClient) SendInvite(ctx context.Context, inv Invite) error {
	subject := fmt.Sprintf("You have been invited to join %s", inv.OrgName)
	return c.send(ctx, inv.To, subject, EmailLayout(invitationContent(inv)), "invitation")
}

func welcomeContent(firstName string) string {
	return fmt.Sprintf(`
    <h1>Welcome, %s!</h1>
    <p>Your TaskDesk account is ready. Create an organization or accept an invitation to start tracking work with your team.</p>
    <p>If you did not sign up for this account, please contact support.</p>
`, EscapeHTML(firstName))
}

func invitationContent(inv Invite) string {
	from := ""
	if inv.InvitedBy != "" {
		from = fmt.Sprintf(" by <strong>%s</strong>", EscapeHTML(inv.InvitedBy))
	}
	return fmt.Sprintf(`
    <h1>Join %s on TaskDesk</h1>
    <p>You have been invited%s to join <strong>%s</strong> as <strong>%s</strong>.</p>
    <center>
      <a href="%s" class="button">Accept invitation</a>
    </center>
    <p class="muted">This link can be used once and expires on %s. If you were not expecting it, ignore this email.</p>
`, EscapeHTML(inv.OrgName), from, EscapeHTML(inv.OrgName), EscapeHTML(inv.Role),
		EscapeHTML(inv.Link), inv.ExpiresAt.UTC().Format("January 2, 2006"))
}
