// Package dispatch is the network collaborator for HTTP descriptors: it fires
// discovered GET-JSON requests and delivers their responses as independent
// events. Dispatch is fire-and-forget; nothing in the core blocks on it.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/RoyalIcing/datadown-preview/internal/rpc"
)

// Deliver receives the response for a previously dispatched request.
type Deliver func(resp rpc.Response)

// Dispatcher performs "HTTP" method descriptors. Other methods (json-rpc,
// GraphQL) stay pending for external collaborators.
type Dispatcher struct {
	httpClient *http.Client
	log        *slog.Logger
}

func New(timeout time.Duration, log *slog.Logger) *Dispatcher {
	return &Dispatcher{
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// Dispatchable reports whether this dispatcher can perform the request.
func Dispatchable(req *rpc.Request) bool {
	if req.Method != "HTTP" {
		return false
	}
	_, ok := requestURL(req)
	return ok
}

// Dispatch fires the request in the background. The eventual response, success
// or error shape, reaches deliver as its own event.
func (d *Dispatcher) Dispatch(ctx context.Context, req *rpc.Request, deliver Deliver) {
	url, ok := requestURL(req)
	if !ok {
		return
	}
	go func() {
		resp := d.fetch(ctx, req.ID, url)
		deliver(resp)
	}()
}

func (d *Dispatcher) fetch(ctx context.Context, id, url string) rpc.Response {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errorResponse(id, -1, fmt.Sprintf("create request: %v", err), nil)
	}
	httpReq.Header.Set("Accept", "application/json")

	res, err := d.httpClient.Do(httpReq)
	if err != nil {
		d.log.Warn("dispatch failed", "id", id, "url", url, "error", err)
		return errorResponse(id, -1, err.Error(), nil)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 4<<20))
	if err != nil {
		return errorResponse(id, -1, fmt.Sprintf("read body: %v", err), nil)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return errorResponse(id, int64(res.StatusCode), res.Status, string(body))
	}

	var result any
	if err := json.Unmarshal(body, &result); err != nil {
		return errorResponse(id, -1, fmt.Sprintf("decode json: %v", err), nil)
	}
	return rpc.Response{ID: id, Result: result}
}

func errorResponse(id string, code int64, message string, data any) rpc.Response {
	return rpc.Response{ID: id, Error: &rpc.ErrorObject{
		Code:    code,
		Message: message,
		Data:    data,
	}}
}

func requestURL(req *rpc.Request) (string, bool) {
	params, ok := req.Params.(map[string]any)
	if !ok {
		return "", false
	}
	url, ok := params["url"].(string)
	return url, ok && url != ""
}
