package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/viper"

	"github.com/mdung/RentMaster-sub002/internal/models"
)

type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *APIClient) doRequest(method, path string, body interface{}) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}

	token := viper.GetString("token")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("API error: %s", string(respBody))
	}

	return respBody, nil
}

func (c *APIClient) Login(username, password string) (string, error) {
	body := map[string]string{
		"username": username,
		"password": password,
	}

	resp, err := c.doRequest("POST", "/api/v1/auth/login", body)
	if err != nil {
		return "", err
	}

	var result struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return "", err
	}

	return result.Token, nil
}

func (c *APIClient) ListContracts() ([]models.Contract, error) {
	resp, err := c.doRequest("GET", "/api/v1/contracts", nil)
	if err != nil {
		return nil, err
	}

	var contracts []models.Contract
	if err := json.Unmarshal(resp, &contracts); err != nil {
		return nil, err
	}
	return contracts, nil
}

func (c *APIClient) ListInvoiceSchedules() ([]models.RecurringInvoiceSchedule, error) {
	resp, err := c.doRequest("GET", "/api/v1/invoice-schedules", nil)
	if err != nil {
		return nil, err
	}

	var scheds []models.RecurringInvoiceSchedule
	if err := json.Unmarshal(resp, &scheds); err != nil {
		return nil, err
	}
	return scheds, nil
}

func (c *APIClient) ListReportSchedules() ([]models.ScheduledReportSchedule, error) {
	resp, err := c.doRequest("GET", "/api/v1/report-schedules", nil)
	if err != nil {
		return nil, err
	}

	var scheds []models.ScheduledReportSchedule
	if err := json.Unmarshal(resp, &scheds); err != nil {
		return nil, err
	}
	return scheds, nil
}

// TriggerNow fires a manual generation for the given schedule.
func (c *APIClient) TriggerNow(kind models.ScheduleKind, id uint) (*models.GenerationRecord, error) {
	action := "generate"
	group := "invoice-schedules"
	if kind == models.KindReport {
		action = "run"
		group = "report-schedules"
	}

	resp, err := c.doRequest("POST", fmt.Sprintf("/api/v1/%s/%d/%s", group, id, action), nil)
	if err != nil {
		return nil, err
	}

	var rec models.GenerationRecord
	if err := json.Unmarshal(resp, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *APIClient) SetActive(kind models.ScheduleKind, id uint, active bool) error {
	action := "deactivate"
	if active {
		action = "activate"
	}
	group := "invoice-schedules"
	if kind == models.KindReport {
		group = "report-schedules"
	}

	_, err := c.doRequest("PUT", fmt.Sprintf("/api/v1/%s/%d/%s", group, id, action), nil)
	return err
}

func (c *APIClient) ListGenerations(kind models.ScheduleKind, id uint) ([]models.GenerationRecord, error) {
	group := "invoice-schedules"
	if kind == models.KindReport {
		group = "report-schedules"
	}

	resp, err := c.doRequest("GET", fmt.Sprintf("/api/v1/%s/%d/generations", group, id), nil)
	if err != nil {
		return nil, err
	}

	var recs []models.GenerationRecord
	if err := json.Unmarshal(resp, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}
