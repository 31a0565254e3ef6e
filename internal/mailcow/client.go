// Package mailcow is the gateway to the external mail-provider admin API.
// It is stateless: every method is a single HTTP call, authenticated with
// the static API key, whose response is classified into a tagged Result.
package mailcow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient builds a gateway for the given provider API base URL (ending in
// /api/v1) and API key. Configuration is injected here; nothing reads the
// environment at call time.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) CreateDomain(ctx context.Context, p DomainParams) Result {
	payload := map[string]any{
		"domain":       p.Name,
		"active":       1,
		"description":  p.Description,
		"restart_sogo": 10,
		"aliases":      p.Aliases,
		"mailboxes":    p.Mailboxes,
		"quota":        p.DomainQuotaMB,
		"defquota":     p.PerMailboxQuotaMB,
		"maxquota":     p.PerMailboxQuotaMB,
		"rl_value":     rateLimitValue,
		"rl_frame":     rateLimitFrame,
	}
	return c.post(ctx, "/add/domain", payload)
}

// EditDomain applies the full attribute set to an existing domain. The call
// is idempotent and serves both as the authoritative quota application after
// a create and as the resize operation.
func (c *Client) EditDomain(ctx context.Context, name string, p DomainParams) Result {
	payload := map[string]any{
		"items": []string{name},
		"attr": map[string]any{
			"active":    1,
			"aliases":   p.Aliases,
			"mailboxes": p.Mailboxes,
			"maxquota":  p.PerMailboxQuotaMB,
			"quota":     p.DomainQuotaMB,
			"defquota":  p.PerMailboxQuotaMB,
			"rl_value":  rateLimitValue,
			"rl_frame":  rateLimitFrame,
		},
	}
	return c.post(ctx, "/edit/domain", payload)
}

func (c *Client) CreateDomainAdmin(ctx context.Context, username, password string, domains []string) Result {
	payload := map[string]any{
		"username":  username,
		"password":  password,
		"password2": password,
		"active":    1,
		"domains":   domains,
	}
	return c.post(ctx, "/add/domain-admin", payload)
}

func (c *Client) CreateMailbox(ctx context.Context, p MailboxParams) Result {
	payload := map[string]any{
		"domain":     p.Domain,
		"local_part": p.LocalPart,
		"name":       p.Name,
		"password":   p.Password,
		"password2":  p.Password,
		"active":     1,
		"quota":      p.QuotaMB,
		"acl":        mailboxACL,
		"protocol":   mailboxProtocols,
	}
	return c.post(ctx, "/add/mailbox", payload)
}

func (c *Client) CreateAlias(ctx context.Context, address, target string) Result {
	payload := map[string]any{
		"address": address,
		"goto":    target,
		"active":  1,
	}
	return c.post(ctx, "/add/alias", payload)
}

func (c *Client) DeleteDomain(ctx context.Context, name string) Result {
	return c.post(ctx, "/delete/domain", []string{name})
}

func (c *Client) DeleteDomainAdmin(ctx context.Context, username string) Result {
	return c.post(ctx, "/delete/domain-admin", []string{username})
}

func (c *Client) DeleteMailbox(ctx context.Context, address string) Result {
	return c.post(ctx, "/delete/mailbox", []string{address})
}

func (c *Client) DeleteAlias(ctx context.Context, id string) Result {
	return c.post(ctx, "/delete/alias", []string{id})
}

func (c *Client) ListMailboxes(ctx context.Context, domain string) ([]Mailbox, error) {
	var mailboxes []Mailbox
	if err := c.get(ctx, "/get/mailbox/all/"+domain, &mailboxes); err != nil {
		return nil, err
	}
	return mailboxes, nil
}

func (c *Client) ListAliases(ctx context.Context, domain string) ([]Alias, error) {
	var aliases []Alias
	if err := c.get(ctx, "/get/alias/all/"+domain, &aliases); err != nil {
		return nil, err
	}
	return aliases, nil
}

func (c *Client) post(ctx context.Context, path string, body any) Result {
	payload, err := json.Marshal(body)
	if err != nil {
		return Result{Outcome: HardError, Msg: "encode request: " + err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return Result{Outcome: HardError, Msg: "build request: " + err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{Outcome: TransportError, Msg: "mail provider unreachable"}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{Outcome: TransportError, Msg: "mail provider returned an unreadable response"}
	}

	return classify(resp.StatusCode, respBody)
}

func (c *Client) get(ctx context.Context, path string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("mail provider request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mail provider %s: status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
