package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmotionClient_Analyze(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/analyze-emotion", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "I feel low today", body["entry"])
		assert.Equal(t, "owner-1", body["userId"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"emotion":"sadness","consecutive_neg_days":3,"activity":"Try meditation, exercise, or talking to a friend.","music":"We recommend listening to calming, uplifting music."}`))
	}))
	defer srv.Close()

	client := NewEmotionClient(srv.URL+"/", time.Second)
	analysis, err := client.Analyze(context.Background(), "owner-1", "I feel low today")
	require.NoError(t, err)
	assert.Equal(t, "sadness", analysis.Emotion)
	assert.Equal(t, 3, analysis.ConsecutiveNegDays)
	assert.NotEmpty(t, analysis.Activity)
	assert.NotEmpty(t, analysis.Music)
}

func TestEmotionClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"model not loaded"}`))
	}))
	defer srv.Close()

	_, err := NewEmotionClient(srv.URL, time.Second).Analyze(context.Background(), "owner-1", "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
	assert.Contains(t, err.Error(), "model not loaded")
}

func TestEmotionClient_MissingLabel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"activity":"x"}`))
	}))
	defer srv.Close()

	_, err := NewEmotionClient(srv.URL, time.Second).Analyze(context.Background(), "owner-1", "text")
	assert.Error(t, err)
}

func TestEmotionClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	_, err := NewEmotionClient(srv.URL, 50*time.Millisecond).Analyze(context.Background(), "owner-1", "text")
	assert.Error(t, err)
}
