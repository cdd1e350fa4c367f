package inference

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

const (
	TroopWorkflow = "detect-count-and-visualize"
	CardWorkflow  = "custom-workflow"
)

var ErrWorkflow = errors.New("workflow request failed")

// Prediction is a single object detected by a workflow
type Prediction struct {
	Class      string  `json:"class"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Confidence float64 `json:"confidence"`
}

// Client talks to a workflow inference server
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 5 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   5 * time.Second,
				ResponseHeaderTimeout: timeout,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
	}
}

type workflowImage struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type workflowRequest struct {
	APIKey string                   `json:"api_key"`
	Inputs map[string]workflowImage `json:"inputs"`
}

type workflowResponse struct {
	Outputs []map[string]json.RawMessage `json:"outputs"`
}

// RunWorkflow sends the image through the workflow and returns the
// predictions of its first output
func (c *Client) RunWorkflow(ctx context.Context, workspace, workflow string, image []byte) ([]Prediction, error) {
	bs, err := json.Marshal(workflowRequest{
		APIKey: c.apiKey,
		Inputs: map[string]workflowImage{
			"image": {Type: "base64", Value: base64.StdEncoding.EncodeToString(image)},
		},
	})
	if err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/%s/workflows/%s", c.baseURL, workspace, workflow)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bs))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrWorkflow, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrWorkflow, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s: %s", ErrWorkflow, resp.Status, strings.TrimSpace(string(body)))
	}
	return parsePredictions(body)
}

// parsePredictions accepts both shapes a workflow output takes: a plain
// list of predictions or an object wrapping one
func parsePredictions(body []byte) ([]Prediction, error) {
	out := &workflowResponse{}
	if err := json.Unmarshal(body, out); err != nil {
		return nil, fmt.Errorf("%w: bad response: %s", ErrWorkflow, err)
	}
	if len(out.Outputs) == 0 {
		return nil, nil
	}
	raw, ok := out.Outputs[0]["predictions"]
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		wrapped := struct {
			Predictions []json.RawMessage `json:"predictions"`
		}{}
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return nil, fmt.Errorf("%w: bad predictions: %s", ErrWorkflow, err)
		}
		list = wrapped.Predictions
	}

	// entries that are not objects are dropped
	preds := make([]Prediction, 0, len(list))
	for _, r := range list {
		p := Prediction{}
		if err := json.Unmarshal(r, &p); err != nil {
			continue
		}
		preds = append(preds, p)
	}
	return preds, nil
}
