package httpapi

import (
	"net/http"
	"strconv"

	"github.com/roctbb/protocol-medsenger-bot/internal/domain/protocol"

	"github.com/labstack/echo/v4"
)

func contractIDParam(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.QueryParam("contract_id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid contract_id")
	}
	return id, nil
}

func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func roleParam(c echo.Context) (protocol.Role, error) {
	role, err := protocol.ParseRole(c.Param("role"))
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, "unknown role")
	}
	return role, nil
}

func (s *Server) protocolStatus(c echo.Context) error {
	contractID, err := contractIDParam(c)
	if err != nil {
		return err
	}
	protocolID, err := pathID(c)
	if err != nil {
		return err
	}

	view, err := s.contracts.ProtocolStatus(c.Request().Context(), contractID, protocolID)
	if err != nil {
		return s.httpError(err)
	}
	return c.JSON(http.StatusOK, view)
}

// openEvent is the tap-to-acknowledge entry point. Roles that need no
// comment get their confirmation recorded as today on the spot; the
// rest receive the form payload to fill in.
func (s *Server) openEvent(c echo.Context) error {
	role, err := roleParam(c)
	if err != nil {
		return err
	}
	contractID, err := contractIDParam(c)
	if err != nil {
		return err
	}
	eventID, err := pathID(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	acknowledged, err := s.confirmations.Acknowledge(ctx, role, contractID, eventID)
	if err != nil {
		return s.httpError(err)
	}
	if acknowledged {
		return c.JSON(http.StatusOK, map[string]bool{"confirmed": true})
	}

	form, err := s.confirmations.EventForm(ctx, role, contractID, eventID)
	if err != nil {
		return s.httpError(err)
	}
	return c.JSON(http.StatusOK, form)
}

func (s *Server) saveEvent(c echo.Context) error {
	role, err := roleParam(c)
	if err != nil {
		return err
	}
	contractID, err := contractIDParam(c)
	if err != nil {
		return err
	}
	eventID, err := pathID(c)
	if err != nil {
		return err
	}

	date := c.FormValue("date")
	comment := c.FormValue("comment")

	if err := s.confirmations.Record(c.Request().Context(), role, contractID, eventID, date, comment); err != nil {
		return s.httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"confirmed": true})
}

func (s *Server) getSettings(c echo.Context) error {
	contractID, err := contractIDParam(c)
	if err != nil {
		return err
	}

	views, err := s.contracts.Settings(c.Request().Context(), contractID)
	if err != nil {
		return s.httpError(err)
	}
	return c.JSON(http.StatusOK, views)
}

type settingsRequest struct {
	Protocols []struct {
		ProtocolID int64  `json:"protocol_id"`
		Subscribed bool   `json:"subscribed"`
		StartDate  string `json:"start_date"`
	} `json:"protocols"`
}

// saveSettings applies the enrollment form: subscribed protocols are
// upserted with their anchor date, unchecked ones are unsubscribed.
func (s *Server) saveSettings(c echo.Context) error {
	contractID, err := contractIDParam(c)
	if err != nil {
		return err
	}

	req := &settingsRequest{}
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed settings payload")
	}

	ctx := c.Request().Context()
	for _, p := range req.Protocols {
		if p.Subscribed {
			err = s.contracts.SetEnrollment(ctx, contractID, p.ProtocolID, p.StartDate)
		} else {
			err = s.contracts.RemoveEnrollment(ctx, contractID, p.ProtocolID)
		}
		if err != nil {
			return s.httpError(err)
		}
	}
	return c.String(http.StatusOK, "ok")
}
