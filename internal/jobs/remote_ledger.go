package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sendgrid/rest"

	"chacara-backend/internal/domain"
	"chacara-backend/internal/logger"
	"chacara-backend/internal/security"
)

const markOverduePath = "/api/v1/jobs/mark-overdue"

// cronjobIdentity is the admin principal the cronjob authenticates as.
var cronjobIdentity = domain.User{
	Name:  "cronjob",
	Email: "cronjob@chacaras.local",
	Type:  domain.UserTypeAdmin,
}

// RemoteLedger triggers ledger jobs on the server that owns the state, so
// the cronjob process never writes the slot backend itself.
type RemoteLedger struct {
	baseURL string
	tokens  security.TokenManager
	client  *rest.Client
}

// NewRemoteLedger returns a client for the server at baseURL. Requests are
// signed with tokens, which must share the server's JWT secret.
func NewRemoteLedger(baseURL string, tokens security.TokenManager, timeout time.Duration) *RemoteLedger {
	return &RemoteLedger{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		client:  &rest.Client{HTTPClient: &http.Client{Timeout: timeout}},
	}
}

type markOverdueResult struct {
	Marked int    `json:"marked"`
	AsOf   string `json:"as_of"`
	Error  string `json:"error"`
}

func (l *RemoteLedger) MarkOverduePayments(ctx context.Context, today time.Time) (int, error) {
	token, _, err := l.tokens.GenerateAccessToken(cronjobIdentity)
	if err != nil {
		return 0, fmt.Errorf("failed to sign cronjob token: %w", err)
	}
	body, err := json.Marshal(map[string]string{"as_of": today.UTC().Format(domain.DateLayout)})
	if err != nil {
		return 0, err
	}

	logger.ExternalServiceCall("server", "MarkOverduePayments", "baseURL", l.baseURL)
	resp, err := l.client.SendWithContext(ctx, rest.Request{
		Method:  rest.Post,
		BaseURL: l.baseURL + markOverduePath,
		Headers: map[string]string{
			"Authorization": "Bearer " + token,
			"Content-Type":  "application/json",
		},
		Body: body,
	})
	if err != nil {
		logger.ExternalServiceResult("server", "MarkOverduePayments", err)
		return 0, fmt.Errorf("failed to reach server: %w", err)
	}

	var result markOverdueResult
	if err := json.Unmarshal([]byte(resp.Body), &result); err != nil {
		err = fmt.Errorf("unexpected response (status %d): %w", resp.StatusCode, err)
		logger.ExternalServiceResult("server", "MarkOverduePayments", err)
		return 0, err
	}
	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("server returned %d: %s", resp.StatusCode, result.Error)
		logger.ExternalServiceResult("server", "MarkOverduePayments", err)
		return 0, err
	}

	logger.ExternalServiceResult("server", "MarkOverduePayments", nil, "marked", result.Marked, "asOf", result.AsOf)
	return result.Marked, nil
}
