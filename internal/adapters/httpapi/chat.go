package httpapi

import (
	"context"
	"fmt"
	"net/http"

	domainauth "github.com/pharmapilot/pharmapilot-cli/internal/domain/auth"
	"github.com/pharmapilot/pharmapilot-cli/internal/domain/chat"
)

type generateRequest struct {
	Prompt    string `json:"prompt"`
	SessionID int64  `json:"session_id,omitempty"`
}

// generateResponse tolerates both response shapes the backend has shipped:
// {content} and the older {response}.
type generateResponse struct {
	Content  string       `json:"content"`
	Response string       `json:"response"`
	Charts   []chat.Chart `json:"charts"`
}

type auditLogsResponse struct {
	Logs  []domainauth.AuditEvent `json:"logs"`
	Count int                     `json:"count"`
}

// Generate asks the assistant for a reply to prompt within a chat session.
func (c *Client) Generate(ctx context.Context, accessToken, prompt string, sessionID int64) (chat.Response, error) {
	var body generateResponse
	err := c.doJSON(ctx, http.MethodPost, "/chat/generate", accessToken,
		generateRequest{Prompt: prompt, SessionID: sessionID}, &body, "Failed to generate response")
	if err != nil {
		return chat.Response{}, err
	}

	content := body.Content
	if content == "" {
		content = body.Response
	}
	return chat.Response{Content: content, Charts: body.Charts}, nil
}

// AuditLogs lists the caller's recent authentication audit events.
func (c *Client) AuditLogs(ctx context.Context, accessToken string, limit int) ([]domainauth.AuditEvent, error) {
	path := "/auth/audit-logs"
	if limit > 0 {
		path = fmt.Sprintf("%s?limit=%d", path, limit)
	}

	var body auditLogsResponse
	err := c.doJSON(ctx, http.MethodGet, path, accessToken, nil, &body, "Failed to fetch audit logs")
	if err != nil {
		return nil, err
	}
	return body.Logs, nil
}
