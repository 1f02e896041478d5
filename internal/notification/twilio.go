package notification

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const twilioBaseURL = "https://api.twilio.com/2010-04-01"

// TwilioGateway sends SMS through the Twilio Messages REST endpoint.
type TwilioGateway struct {
	accountSID string
	authToken  string
	from       string
	client     *http.Client
	baseURL    string
}

type TwilioOption func(*TwilioGateway)

// WithTwilioBaseURL points the gateway at another host. Tests use it with
// httptest servers.
func WithTwilioBaseURL(baseURL string) TwilioOption {
	return func(g *TwilioGateway) {
		g.baseURL = strings.TrimRight(baseURL, "/")
	}
}

func WithHTTPClient(client *http.Client) TwilioOption {
	return func(g *TwilioGateway) {
		if client != nil {
			g.client = client
		}
	}
}

func NewTwilioGateway(accountSID, authToken, from string, opts ...TwilioOption) *TwilioGateway {
	g := &TwilioGateway{
		accountSID: strings.TrimSpace(accountSID),
		authToken:  strings.TrimSpace(authToken),
		from:       strings.TrimSpace(from),
		client:     &http.Client{Timeout: 10 * time.Second},
		baseURL:    twilioBaseURL,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Send posts one message. Any non-2xx status is an error; there is no retry.
func (g *TwilioGateway) Send(ctx context.Context, phone, message string) error {
	form := url.Values{}
	form.Set("To", phone)
	form.Set("From", g.from)
	form.Set("Body", message)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", g.baseURL, url.PathEscape(g.accountSID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(g.accountSID, g.authToken)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("twilio request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("twilio status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
