package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// webhookRequest is the envelope the Medsenger core posts to every
// lifecycle hook.
type webhookRequest struct {
	APIKey     string `json:"api_key"`
	ContractID int64  `json:"contract_id"`
}

func (s *Server) bindWebhook(c echo.Context) (*webhookRequest, error) {
	req := &webhookRequest{}
	if err := c.Bind(req); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "malformed webhook payload")
	}
	if req.APIKey != s.apiKey {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid api key")
	}
	return req, nil
}

func (s *Server) initContract(c echo.Context) error {
	req, err := s.bindWebhook(c)
	if err != nil {
		return err
	}

	if _, err := s.contracts.InitContract(c.Request().Context(), req.ContractID); err != nil {
		return s.httpError(err)
	}

	// Catch up on events already due today without waiting for the
	// next scheduled cycle.
	s.kick()

	return c.String(http.StatusOK, "ok")
}

func (s *Server) removeContract(c echo.Context) error {
	req, err := s.bindWebhook(c)
	if err != nil {
		return err
	}

	if err := s.contracts.RemoveContract(c.Request().Context(), req.ContractID); err != nil {
		return s.httpError(err)
	}
	return c.String(http.StatusOK, "ok")
}

type agentStatusResponse struct {
	IsTrackingData     bool     `json:"is_tracking_data"`
	SupportedScenarios []string `json:"supported_scenarios"`
	TrackedContracts   []int64  `json:"tracked_contracts"`
}

func (s *Server) agentStatus(c echo.Context) error {
	if _, err := s.bindWebhook(c); err != nil {
		return err
	}

	ids, err := s.contracts.TrackedContractIDs(c.Request().Context())
	if err != nil {
		return s.httpError(err)
	}

	return c.JSON(http.StatusOK, agentStatusResponse{
		IsTrackingData:     true,
		SupportedScenarios: []string{},
		TrackedContracts:   ids,
	})
}

func (s *Server) contractActions(c echo.Context) error {
	req, err := s.bindWebhook(c)
	if err != nil {
		return err
	}

	actions, err := s.contracts.Actions(c.Request().Context(), req.ContractID)
	if err != nil {
		return s.httpError(err)
	}
	return c.JSON(http.StatusOK, actions)
}

// inboundMessage acknowledges the message webhook; the agent does not
// react to channel messages.
func (s *Server) inboundMessage(c echo.Context) error {
	if _, err := s.bindWebhook(c); err != nil {
		return err
	}
	return c.String(http.StatusOK, "ok")
}
