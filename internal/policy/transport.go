package policy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/sriinnu/chitragupta/pkg/models"
)

// NewHTTPClient builds an http.Client for talking to a remote approval
// service. When ts is non-nil every request authenticates with an
// OAuth2 bearer token minted from ts (client-credentials grant, typically);
// a nil ts yields a plain client for approval services that don't require auth.
func NewHTTPClient(ts oauth2.TokenSource) *http.Client {
	if ts == nil {
		return http.DefaultClient
	}
	return oauth2.NewClient(context.Background(), ts)
}

// HTTPApprover resolves a policy "ask" decision by posting the tool call
// to a remote approval service and polling for its verdict. It satisfies
// toolexec.Executor's Approver interface: Approve(ctx, call, reason) bool.
type HTTPApprover struct {
	BaseURL string
	// Client should be built with NewHTTPClient; nil uses http.DefaultClient.
	Client       *http.Client
	RiskLevel    func(call models.ToolCall) RiskLevel
	PollInterval time.Duration
	Timeout      time.Duration
}

type approvalCreateResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type approvalStatusResponse struct {
	Status string `json:"status"`
}

// Approve implements the toolexec.Approver contract.
func (a *HTTPApprover) Approve(ctx context.Context, call models.ToolCall, reason string) bool {
	client := a.Client
	if client == nil {
		client = http.DefaultClient
	}
	risk := RiskMedium
	if a.RiskLevel != nil {
		risk = a.RiskLevel(call)
	}

	body, err := json.Marshal(map[string]any{
		"tool":   call.Name,
		"args":   json.RawMessage(call.Arguments),
		"reason": reason,
		"risk":   risk,
	})
	if err != nil {
		return false
	}

	timeout := a.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.BaseURL+"/approvals", bytes.NewReader(body))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	var created approvalCreateResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&created)
	resp.Body.Close()
	if decodeErr != nil {
		return false
	}
	switch created.Status {
	case string(ApprovalStatusApproved):
		return true
	case string(ApprovalStatusDenied), string(ApprovalStatusExpired):
		return false
	}

	interval := a.PollInterval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			status, ok := a.poll(ctx, client, created.ID)
			if !ok {
				continue
			}
			switch status {
			case string(ApprovalStatusApproved):
				return true
			case string(ApprovalStatusDenied), string(ApprovalStatusExpired):
				return false
			}
		}
	}
}

func (a *HTTPApprover) poll(ctx context.Context, client *http.Client, id string) (string, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/approvals/%s", a.BaseURL, id), nil)
	if err != nil {
		return "", false
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", false
	}
	defer resp.Body.Close()
	var status approvalStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return "", false
	}
	return status.Status, true
}

// LocalApprover resolves a policy "ask" decision through an in-process
// ApprovalManager instead of a remote service: it registers a pending
// request and blocks until an operator-facing collaborator (wired via
// Manager.SetApprovalRequiredHandler) decides it or it expires.
type LocalApprover struct {
	Manager   *ApprovalManager
	RiskLevel func(call models.ToolCall) RiskLevel
}

// Approve implements the toolexec.Approver contract.
func (a *LocalApprover) Approve(ctx context.Context, call models.ToolCall, reason string) bool {
	risk := RiskMedium
	if a.RiskLevel != nil {
		risk = a.RiskLevel(call)
	}

	err := a.Manager.CheckApproval(ctx, call.Name, string(call.Arguments), "", "", risk)
	if err == nil {
		return true
	}
	if !errors.Is(err, ErrApprovalRequired) {
		return false
	}

	id := extractRequestID(err.Error())
	if id == "" {
		return false
	}
	return a.Manager.WaitForApproval(ctx, id) == nil
}

func extractRequestID(errMsg string) string {
	parts := strings.Split(errMsg, "request_id=")
	if len(parts) < 2 {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
