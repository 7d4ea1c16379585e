package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/jx"
)

const (
	apiKeyHeader   = "X-API-Key"
	defaultTimeout = 30 * time.Second
)

// Client talks to the provider API of the cloud job service. All calls
// take a context and authenticate with the api-key header.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

func NewClient(endpoint, apiKey string) (*Client, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("endpoint is empty")
	}
	return &Client{
		endpoint:   strings.TrimSuffix(endpoint, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}, nil
}

type errorResponse struct {
	Message string `json:"message"`
}

func (c *Client) GetJobs(ctx context.Context, deviceID string, status JobStatus, maxResults int) ([]JobDef, error) {
	q := url.Values{}
	q.Set("device_id", deviceID)
	if status != "" {
		q.Set("status", string(status))
	}
	if maxResults > 0 {
		q.Set("max_results", strconv.Itoa(maxResults))
	}
	body, err := c.do(ctx, http.MethodGet, "/jobs?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	jobs := []JobDef{}
	if err := jsonIter.Unmarshal(body, &jobs); err != nil {
		return nil, fmt.Errorf("failed to decode jobs response: %s", err)
	}
	return jobs, nil
}

func (c *Client) PatchJobStatus(ctx context.Context, jobID string, status JobStatus) error {
	req := map[string]JobStatus{"status": status}
	_, err := c.do(ctx, http.MethodPatch, "/jobs/"+url.PathEscape(jobID), req)
	return err
}

type UpdateJobInfoRequest struct {
	OverwriteStatus *JobStatus     `json:"overwrite_status,omitempty"`
	ExecutionTime   *float64       `json:"execution_time,omitempty"`
	JobInfo         *UpdateJobInfo `json:"job_info,omitempty"`
}

type UpdateJobInfo struct {
	TranspileResult *TranspileResult `json:"transpile_result"`
	Result          *JobResult       `json:"result"`
	Message         *string          `json:"message,omitempty"`
}

func (c *Client) PatchJobInfo(ctx context.Context, jobID string, req *UpdateJobInfoRequest) error {
	_, err := c.do(ctx, http.MethodPatch, "/jobs/"+url.PathEscape(jobID)+"/job_info", req)
	return err
}

func (c *Client) UpdateJobTranspilerInfo(ctx context.Context, jobID string, ti map[string]jx.Raw) error {
	raw := encodeTranspilerInfo(ti)
	if raw == nil {
		raw = json.RawMessage("{}")
	}
	_, err := c.do(ctx, http.MethodPatch, "/jobs/"+url.PathEscape(jobID)+"/transpiler_info", raw)
	return err
}

func (c *Client) PatchDeviceStatus(ctx context.Context, deviceID, status string) error {
	req := map[string]string{"status": status}
	_, err := c.do(ctx, http.MethodPatch, "/devices/"+url.PathEscape(deviceID)+"/status", req)
	return err
}

type UpdateDeviceInfoRequest struct {
	DeviceInfo   string    `json:"device_info"`
	CalibratedAt time.Time `json:"calibrated_at"`
}

func (c *Client) PatchDeviceInfo(ctx context.Context, deviceID string, req *UpdateDeviceInfoRequest) error {
	_, err := c.do(ctx, http.MethodPatch, "/devices/"+url.PathEscape(deviceID)+"/device_info", req)
	return err
}

func (c *Client) PatchDevice(ctx context.Context, deviceID string, maxQubits int) error {
	req := map[string]int{"n_qubits": maxQubits}
	_, err := c.do(ctx, http.MethodPatch, "/devices/"+url.PathEscape(deviceID), req)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, reqBody interface{}) ([]byte, error) {
	var reader io.Reader
	if reqBody != nil {
		b, err := jsonIter.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %s", err)
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, reader)
	if err != nil {
		return nil, err
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		er := errorResponse{}
		if err := jsonIter.Unmarshal(body, &er); err == nil && er.Message != "" {
			return nil, fmt.Errorf("unexpected status %d from %s %s: %s",
				res.StatusCode, method, path, er.Message)
		}
		return nil, fmt.Errorf("unexpected status %d from %s %s", res.StatusCode, method, path)
	}
	return body, nil
}
