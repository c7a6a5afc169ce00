package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// EmotionAnalysis is the classifier's answer for one diary text
type EmotionAnalysis struct {
	Emotion            string `json:"emotion"`
	ConsecutiveNegDays int    `json:"consecutive_neg_days"`
	Activity           string `json:"activity"`
	Music              string `json:"music"`
}

type analyzeEmotionRequest struct {
	Entry  string `json:"entry"`
	UserID string `json:"userId"`
}

// EmotionClassifier labels diary text with an emotion
type EmotionClassifier interface {
	Analyze(ctx context.Context, ownerID, text string) (*EmotionAnalysis, error)
}

// EmotionClient calls the external classifier over HTTP
type EmotionClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewEmotionClient creates a client for baseURL (e.g. http://localhost:5000)
func NewEmotionClient(baseURL string, timeout time.Duration) *EmotionClient {
	return &EmotionClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Analyze posts the text to /api/analyze-emotion
func (c *EmotionClient) Analyze(ctx context.Context, ownerID, text string) (*EmotionAnalysis, error) {
	body, err := json.Marshal(analyzeEmotionRequest{Entry: text, UserID: ownerID})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/analyze-emotion", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("emotion classifier request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("emotion classifier returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var analysis EmotionAnalysis
	if err := json.NewDecoder(resp.Body).Decode(&analysis); err != nil {
		return nil, fmt.Errorf("failed to decode emotion classifier response: %w", err)
	}
	if strings.TrimSpace(analysis.Emotion) == "" {
		return nil, fmt.Errorf("emotion classifier returned no label")
	}
	return &analysis, nil
}
