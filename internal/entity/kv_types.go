package entity

import jsoniter "github.com/json-iterator/go"

// KVResponse is the reply of the Upstash / Vercel KV REST API.
type KVResponse struct {
	Result jsoniter.RawMessage `json:"result"`
	Error  string              `json:"error,omitempty"`
}
