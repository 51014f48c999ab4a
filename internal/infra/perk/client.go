package perk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"perk-quiz-backend/internal/pkg/logger"
)

// Client awards loyalty points through the Perk API. One call per passing
// submission, no retry loop; the caller decides what a failure means.
type Client interface {
	AwardPoints(ctx context.Context, email string, points int, actionTitle string, completionLimit int) error
}

type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

type client struct {
	log  *logger.Logger
	cfg  Config
	http *http.Client
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing Perk API key")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://perk.studio/api/v2"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &client{
		log:  log.With("client", "PerkClient"),
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type awardRequest struct {
	Email                 string `json:"email"`
	Points                int    `json:"points"`
	ActionTitle           string `json:"action_title"`
	ActionSource          string `json:"action_source"`
	ActionCompletionLimit int    `json:"action_completion_limit"`
}

func (c *client) AwardPoints(ctx context.Context, email string, points int, actionTitle string, completionLimit int) error {
	body, err := json.Marshal(awardRequest{
		Email:                 email,
		Points:                points,
		ActionTitle:           actionTitle,
		ActionSource:          "Interactive Quiz",
		ActionCompletionLimit: completionLimit,
	})
	if err != nil {
		return fmt.Errorf("perk award encode: %w", err)
	}

	u := strings.TrimRight(c.cfg.BaseURL, "/") + "/participants/points"
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("X-API-Key", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("perk award points: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		c.log.Error("award rejected", "status", resp.StatusCode, "email", email, "action", actionTitle)
		return fmt.Errorf("perk award points http %d: %s", resp.StatusCode, string(raw))
	}

	c.log.Info("points awarded", "email", email, "points", points, "action", actionTitle)
	return nil
}
