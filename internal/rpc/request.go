// Package rpc models the remote-call contract: request descriptors discovered
// during resolution, responses delivered by the network collaborator, and the
// session-wide table joining the two by id. Nothing here performs I/O.
package rpc

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
)

// Request is a remote-call descriptor in json-rpc 2.0 shape.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
	ID      string `json:"id"`
}

// DeriveID computes the deterministic id for a request: two descriptors with
// identical method and params always carry the same id and therefore share one
// response entry.
func DeriveID(method string, params any) string {
	body, err := json.Marshal(params)
	if err != nil {
		body = []byte(fmt.Sprintf("%v", params))
	}
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{0})
	h.Write(body)
	return fmt.Sprintf("%x", h.Sum(nil))[:16]
}

// NewRequest builds a request with its derived id.
func NewRequest(method string, params any) *Request {
	return &Request{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      DeriveID(method, params),
	}
}

// NewHTTPGet builds the descriptor minted for a bare https literal or an
// HTTP.get_json expression: a GET expecting a JSON body.
func NewHTTPGet(url string) *Request {
	return NewRequest("HTTP", map[string]any{
		"method": "GET",
		"type":   "JSON",
		"url":    url,
	})
}

// NewGraphQL synthesizes a descriptor from a graphql-tagged code block. The id
// derives from the query text alone.
func NewGraphQL(query string) *Request {
	return NewRequest("GraphQL", map[string]any{
		"query": query,
	})
}

// FromJSON recognizes a decoded JSON value shaped like a request descriptor.
// An authored id is kept; a missing one is derived.
func FromJSON(v any) (*Request, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	if _, ok := m["jsonrpc"].(string); !ok {
		return nil, false
	}
	method, ok := m["method"].(string)
	if !ok || method == "" {
		return nil, false
	}
	req := &Request{
		JSONRPC: "2.0",
		Method:  method,
		Params:  m["params"],
	}
	if id, ok := m["id"].(string); ok && id != "" {
		req.ID = id
	} else {
		req.ID = DeriveID(method, m["params"])
	}
	return req, true
}

// JSON returns the request as a generic decoded value, the shape Reference
// key-paths read under "params".
func (r *Request) JSON() map[string]any {
	m := map[string]any{
		"jsonrpc": r.JSONRPC,
		"method":  r.Method,
		"id":      r.ID,
	}
	if r.Params != nil {
		m["params"] = r.Params
	}
	return m
}
