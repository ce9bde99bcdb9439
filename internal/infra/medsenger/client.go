package medsenger

import (
	"context"
	"fmt"
	"time"

	domain "github.com/roctbb/protocol-medsenger-bot/internal/domain/medsenger"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// AgentsClient implements the domain medsenger.Client against the
// agents HTTP API of the Medsenger core.
type AgentsClient struct {
	httpClient *resty.Client
	apiKey     string
	logger     *logrus.Logger
}

func NewAgentsClient(baseURL, apiKey string, timeout time.Duration, logger *logrus.Logger) *AgentsClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &AgentsClient{
		httpClient: client,
		apiKey:     apiKey,
		logger:     logger,
	}
}

type sendMessageRequest struct {
	ContractID int64           `json:"contract_id"`
	APIKey     string          `json:"api_key"`
	Message    *domain.Message `json:"message"`
}

// SendMessage posts a message into the consultation channel. The
// context bounds the call; failures are returned for the caller to log
// and absorb.
func (c *AgentsClient) SendMessage(ctx context.Context, contractID int64, msg *domain.Message) error {
	payload := sendMessageRequest{
		ContractID: contractID,
		APIKey:     c.apiKey,
		Message:    msg,
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(payload).
		Post("/api/agents/message")
	if err != nil {
		return fmt.Errorf("failed to call agents message API: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("agents message API returned %s", resp.Status())
	}

	c.logger.Debugf("Message delivered to contract %d", contractID)
	return nil
}
