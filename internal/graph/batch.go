package graph

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/meridianops/rostersync/internal/logger"
)

// BatchLimit is the maximum number of sub-requests Microsoft Graph
// accepts in a single $batch envelope.
const BatchLimit = 20

// BatchOperation is one correlated sub-request inside a $batch envelope.
type BatchOperation struct {
	// ID correlates the operation with its sub-response.
	ID      string            `json:"id"`
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    json.RawMessage   `json:"body,omitempty"`
}

// BatchResponse is one correlated sub-response from a $batch envelope.
// A non-success Status is ordinary data for the caller to interpret,
// not an error.
type BatchResponse struct {
	ID      string            `json:"id"`
	Status  int               `json:"status"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    json.RawMessage   `json:"body,omitempty"`
}

// Failed reports whether the sub-request was rejected by Graph.
func (r BatchResponse) Failed() bool {
	return !IsSuccess(r.Status)
}

// ExecuteBatch runs the operations through POST /$batch in
// order-preserving chunks of at most BatchLimit. An envelope-level
// failure aborts immediately; later chunks are not attempted. On
// success the per-operation responses are returned in request order,
// re-associated by correlation id.
func (c *Client) ExecuteBatch(ctx context.Context, ops []BatchOperation) ([]BatchResponse, error) {
	if len(ops) == 0 {
		return nil, nil
	}

	responses := make([]BatchResponse, 0, len(ops))
	for start := 0; start < len(ops); start += BatchLimit {
		end := min(start+BatchLimit, len(ops))

		chunk, err := c.executeChunk(ctx, ops[start:end])
		if err != nil {
			return nil, err
		}
		responses = append(responses, chunk...)
	}

	return responses, nil
}

// executeChunk sends one envelope and returns its correlated responses
// in request order.
func (c *Client) executeChunk(ctx context.Context, chunk []BatchOperation) ([]BatchResponse, error) {
	payload, err := json.Marshal(struct {
		Requests []BatchOperation `json:"requests"`
	}{Requests: chunk})
	if err != nil {
		return nil, fmt.Errorf("encode batch payload: %w", err)
	}

	body, status, err := c.post(ctx, c.baseURL+"/$batch", payload)
	if err != nil {
		return nil, fmt.Errorf("batch request: %w", err)
	}
	if !IsSuccess(status) {
		logger.Debug("graph: batch envelope failed with status %d: %s", status, string(body))
		return nil, fmt.Errorf("%w: batch envelope status %d: %w",
			ErrTransport, status, WrapError(status))
	}

	var envelope struct {
		Responses []BatchResponse `json:"responses"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: decode batch envelope: %v", ErrMalformedResponse, err)
	}

	return correlate(chunk, envelope.Responses), nil
}

// correlate matches responses to requests by correlation id and returns
// them in request order. The backend contract for missing or surplus
// responses is undefined, so mismatches are logged and skipped rather
// than indexed blindly.
func correlate(chunk []BatchOperation, responses []BatchResponse) []BatchResponse {
	byID := make(map[string]BatchResponse, len(responses))
	for _, resp := range responses {
		byID[resp.ID] = resp
	}

	ordered := make([]BatchResponse, 0, len(chunk))
	seen := make(map[string]bool, len(chunk))
	for _, op := range chunk {
		seen[op.ID] = true
		resp, ok := byID[op.ID]
		if !ok {
			logger.Warn("graph: no batch response for operation %s (%s %s)", op.ID, op.Method, op.URL)
			continue
		}
		ordered = append(ordered, resp)
	}

	for _, resp := range responses {
		if !seen[resp.ID] {
			logger.Warn("graph: batch response with unknown correlation id %s", resp.ID)
		}
	}

	return ordered
}
