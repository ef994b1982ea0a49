package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fakhrymubarak/weather-text/internal/model"
	"github.com/fakhrymubarak/weather-text/internal/repository"
	"github.com/fakhrymubarak/weather-text/internal/service"
)

// Mock service for testing
type mockPreviewService struct {
	err      error
	mockData *model.Preview
}

func (m *mockPreviewService) Preview(ctx context.Context) (*model.Preview, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.mockData, nil
}

// Ensure mockPreviewService implements PreviewServiceInterface
var _ service.PreviewServiceInterface = (*mockPreviewService)(nil)

func TestPreviewHandler_HandlePreview(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		err            error
		mockData       *model.Preview
		expectedStatus int
		expectedError  string
	}{
		{
			name:   "Successful preview",
			method: http.MethodGet,
			mockData: &model.Preview{
				Reading: model.WeatherReading{Location: "Madison", Temperature: 5, Description: "Clear"},
				Message: "Good morning! The weather today is clear. It's cold outside, so make sure to wear warm clothes and a jacket.",
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Method not allowed",
			method:         http.MethodPost,
			expectedStatus: http.StatusMethodNotAllowed,
			expectedError:  "Method not allowed",
		},
		{
			name:           "Upstream failure",
			method:         http.MethodGet,
			err:            fmt.Errorf("%w: %w", service.ErrFetch, repository.ErrExternalAPI),
			expectedStatus: http.StatusInternalServerError,
			expectedError:  "Failed to fetch weather data",
		},
		{
			name:           "Location not found",
			method:         http.MethodGet,
			err:            fmt.Errorf("%w: %w", service.ErrFetch, repository.ErrLocationNotFound),
			expectedStatus: http.StatusNotFound,
			expectedError:  "Failed to fetch weather data",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewPreviewHandler(&mockPreviewService{err: tt.err, mockData: tt.mockData}, nil)

			req := httptest.NewRequest(tt.method, "/preview", nil)
			rr := httptest.NewRecorder()
			handler.HandlePreview(rr, req)

			if status := rr.Code; status != tt.expectedStatus {
				t.Errorf("handler returned wrong status code: got %v want %v", status, tt.expectedStatus)
			}
			if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected json content type, got %q", ct)
			}

			var resp struct {
				Data    *model.Preview `json:"data"`
				Error   *string        `json:"error"`
				Message string         `json:"message"`
			}
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode JSON response: %v", err)
			}

			if tt.expectedError != "" {
				if resp.Error == nil || *resp.Error != tt.expectedError {
					t.Errorf("expected error %q, got %v", tt.expectedError, resp.Error)
				}
				// upstream details must not leak
				if resp.Error != nil && strings.Contains(*resp.Error, "external") {
					t.Errorf("error leaked internals: %s", *resp.Error)
				}
				return
			}
			if resp.Data == nil {
				t.Fatal("expected data in success response")
			}
			if resp.Data.Message != tt.mockData.Message {
				t.Errorf("Expected message %q, got %q", tt.mockData.Message, resp.Data.Message)
			}
			if resp.Data.Reading.Location != "Madison" {
				t.Errorf("Expected location Madison, got %s", resp.Data.Reading.Location)
			}
		})
	}
}

func TestPreviewHandler_HandleHealth(t *testing.T) {
	handler := NewPreviewHandler(&mockPreviewService{}, nil)
	rr := httptest.NewRecorder()
	handler.HandleHealth(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"message":"ok"`) {
		t.Errorf("unexpected body %s", rr.Body.String())
	}
}
