package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// Recommendation is one course suggested by the scoring service.
type Recommendation struct {
	CourseID uint    `json:"course_id"`
	Title    string  `json:"title,omitempty"`
	Score    float64 `json:"score,omitempty"`
}

// RecommendationClient asks the external scoring service for course
// suggestions. It never returns an error: any failure yields an empty list.
type RecommendationClient struct {
	url     string
	timeout time.Duration
	client  *http.Client
}

func NewRecommendationClient(url string, timeout time.Duration) *RecommendationClient {
	return &RecommendationClient{url: url, timeout: timeout, client: &http.Client{}}
}

func (r *RecommendationClient) Recommend(ctx context.Context, userID uint) []Recommendation {
	if r == nil || r.url == "" {
		return []Recommendation{}
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	recs, err := r.fetch(ctx, userID)
	if err != nil {
		log.Printf("recommendations for user %d: %v", userID, err)
		return []Recommendation{}
	}
	return recs
}

func (r *RecommendationClient) fetch(ctx context.Context, userID uint) ([]Recommendation, error) {
	payload, err := json.Marshal(map[string]uint{"user_id": userID})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}
	return decodeRecommendations(body)
}

// decodeRecommendations accepts either a bare array or an object with a
// "recommendations" array.
func decodeRecommendations(body []byte) ([]Recommendation, error) {
	var list []Recommendation
	if err := json.Unmarshal(body, &list); err == nil {
		if list == nil {
			list = []Recommendation{}
		}
		return list, nil
	}
	var wrapped struct {
		Recommendations []Recommendation `json:"recommendations"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if wrapped.Recommendations == nil {
		return []Recommendation{}, nil
	}
	return wrapped.Recommendations, nil
}
