package dataservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"wellness-step-by-step/client-form/models"
)

// HTTPService calls the client-records API over JSON.
type HTTPService struct {
	baseURL string
	client  *http.Client
}

func NewHTTPService(baseURL string, client *http.Client) *HTTPService {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPService{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

func (s *HTTPService) Get(ctx context.Context, id int64, endpoint string) (models.Record, error) {
	return s.do(ctx, http.MethodGet, s.url(endpoint)+"/"+strconv.FormatInt(id, 10), nil)
}

func (s *HTTPService) Create(ctx context.Context, endpoint string, record models.Record) (models.Record, error) {
	return s.do(ctx, http.MethodPost, s.url(endpoint), &record)
}

func (s *HTTPService) Update(ctx context.Context, endpoint string, record models.Record) (models.Record, error) {
	return s.do(ctx, http.MethodPut, s.url(endpoint), &record)
}

func (s *HTTPService) url(endpoint string) string {
	return s.baseURL + "/" + strings.TrimLeft(endpoint, "/")
}

func (s *HTTPService) do(ctx context.Context, method, url string, body *models.Record) (models.Record, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return models.Record{}, fmt.Errorf("failed to marshal client record: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return models.Record{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := s.client.Do(req)
	if err != nil {
		return models.Record{}, fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, res.Body)
		return models.Record{}, &StatusError{Code: res.StatusCode, Text: reasonPhrase(res)}
	}

	var record models.Record
	data, err := io.ReadAll(res.Body)
	if err != nil {
		return models.Record{}, fmt.Errorf("failed to read response: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return record, nil
	}
	if err := json.Unmarshal(data, &record); err != nil {
		return models.Record{}, &StatusError{Code: res.StatusCode, Text: InvalidBodyText}
	}
	return record, nil
}

// reasonPhrase strips the numeric code from res.Status ("404 Not Found").
func reasonPhrase(res *http.Response) string {
	prefix := strconv.Itoa(res.StatusCode) + " "
	if text := strings.TrimPrefix(res.Status, prefix); text != "" && text != res.Status {
		return text
	}
	return http.StatusText(res.StatusCode)
}
