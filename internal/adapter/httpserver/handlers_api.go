package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/paul-reitz/relate.io/internal/domain"
	apperrors "github.com/paul-reitz/relate.io/internal/platform/errors"
)

type createAdvisorRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Firm  string `json:"firm"`
}

func (s *Server) handleCreateAdvisor(c echo.Context) error {
	ctx := c.Request().Context()

	var req createAdvisorRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	advisor, err := s.app.CreateAdvisor(ctx, req.Email, req.Name, req.Firm)
	if err != nil {
		return err
	}

	if err := c.JSON(http.StatusCreated, advisor); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

type createClientRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	RiskProfile string `json:"risk_profile"`
	MomentumRef string `json:"momentum_ref"`
}

func (s *Server) handleCreateClient(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := advisorID(c)
	if err != nil {
		return err
	}

	var req createClientRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	client, err := s.app.CreateClient(ctx, id, req.Name, req.Email, req.RiskProfile, req.MomentumRef)
	if err != nil {
		return err
	}

	if err := c.JSON(http.StatusCreated, client); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleListClients(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := advisorID(c)
	if err != nil {
		return err
	}

	clients, err := s.app.ListClients(ctx, id)
	if err != nil {
		return err
	}
	if clients == nil {
		clients = []domain.Client{}
	}

	if err := c.JSON(http.StatusOK, clients); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

type submitFeedbackRequest struct {
	ClientID int64  `json:"client_id"`
	Channel  string `json:"channel"`
	Text     string `json:"text"`
}

func (s *Server) handleSubmitFeedback(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := advisorID(c)
	if err != nil {
		return err
	}

	var req submitFeedbackRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.ClientID <= 0 {
		return apperrors.ValidationError("client_id is required").WithContext("client_id", req.ClientID)
	}

	feedback, err := s.app.SubmitFeedback(ctx, id, req.ClientID, req.Channel, req.Text)
	if err != nil {
		if errors.Is(err, domain.ErrClientNotFound) {
			return apperrors.NotFoundError("client not found").WithContext("client_id", req.ClientID)
		}
		return err
	}

	if err := c.JSON(http.StatusCreated, feedback); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleGetPortfolio(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := advisorID(c)
	if err != nil {
		return err
	}

	clientID, err := strconv.ParseInt(c.Param("client_id"), 10, 64)
	if err != nil || clientID <= 0 {
		return apperrors.ValidationError("client_id must be a positive integer").
			WithContext("client_id", c.Param("client_id"))
	}

	portfolio, err := s.app.GetPortfolio(ctx, id, clientID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrClientNotFound):
			return apperrors.NotFoundError("client not found").WithContext("client_id", clientID)
		case errors.Is(err, domain.ErrPortfolioNotFound):
			return apperrors.NotFoundError("no portfolio synced for client").WithContext("client_id", clientID)
		}
		return err
	}

	if err := c.JSON(http.StatusOK, portfolio); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleSentimentTrends(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := advisorID(c)
	if err != nil {
		return err
	}

	days := 0
	if raw := c.QueryParam("days"); raw != "" {
		days, err = strconv.Atoi(raw)
		if err != nil || days <= 0 {
			return apperrors.ValidationError("days must be a positive integer").WithContext("days", raw)
		}
	}

	trends, err := s.app.SentimentTrends(ctx, id, days)
	if err != nil {
		return err
	}
	if trends == nil {
		trends = []domain.TrendPoint{}
	}

	if err := c.JSON(http.StatusOK, map[string]any{"trends": trends}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleSyncPortfolios(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := advisorID(c)
	if err != nil {
		return err
	}

	result, err := s.app.SyncPortfolios(ctx, id)
	if err != nil {
		return err
	}

	if err := c.JSON(http.StatusOK, result); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleIntegrationStatus(c echo.Context) error {
	ctx := c.Request().Context()

	if err := c.JSON(http.StatusOK, s.app.GetIntegrationStatus(ctx)); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

type personalizedContentRequest struct {
	ClientID int64  `json:"client_id"`
	Goal     string `json:"goal"`
}

func (s *Server) handlePersonalizedContent(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := advisorID(c)
	if err != nil {
		return err
	}

	var req personalizedContentRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.ClientID <= 0 {
		return apperrors.ValidationError("client_id is required").WithContext("client_id", req.ClientID)
	}

	draft, err := s.app.PersonalizedContent(ctx, id, req.ClientID, req.Goal)
	if err != nil {
		if errors.Is(err, domain.ErrClientNotFound) {
			return apperrors.NotFoundError("client not found").WithContext("client_id", req.ClientID)
		}
		return err
	}

	if err := c.JSON(http.StatusOK, map[string]string{"content": draft}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
