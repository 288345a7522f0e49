package snapcast

import "encoding/json"

// request is a JSON-RPC 2.0 request or notification (no ID).
type request struct {
	ID      uint64 `json:"id,omitempty"`
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// message is any inbound JSON-RPC message: a response (ID set) or a
// server notification (Method set).
type message struct {
	ID      uint64          `json:"id,omitempty"`
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// rpcError is the JSON-RPC error object.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Volume is the Snapcast volume object (percent + mute flag).
type Volume struct {
	Percent int  `json:"percent"`
	Muted   bool `json:"muted"`
}

// ClientHost describes the host a Snapcast client runs on.
type ClientHost struct {
	Name string `json:"name"`
	IP   string `json:"ip"`
}

// ClientConfig is the per-client configuration held by the server.
type ClientConfig struct {
	Name    string `json:"name"`
	Latency int    `json:"latency"`
	Volume  Volume `json:"volume"`
}

// ClientInfo is a Snapcast client as reported by the server.
type ClientInfo struct {
	ID        string       `json:"id"`
	Connected bool         `json:"connected"`
	Host      ClientHost   `json:"host"`
	Config    ClientConfig `json:"config"`
}

// Group is a Snapcast group: a set of clients playing one stream.
type Group struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	StreamID string       `json:"stream_id"`
	Muted    bool         `json:"muted"`
	Clients  []ClientInfo `json:"clients"`
}

// Stream is an audio source known to the server.
type Stream struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// ServerStatus is the result of Server.GetStatus.
type ServerStatus struct {
	Server struct {
		Groups  []Group  `json:"groups"`
		Streams []Stream `json:"streams"`
	} `json:"server"`
}

// Notification parameter shapes.

type volumeChangedParams struct {
	ID     string `json:"id"`
	Volume Volume `json:"volume"`
}

type clientEventParams struct {
	ID     string     `json:"id"`
	Client ClientInfo `json:"client"`
}

type streamChangedParams struct {
	ID       string `json:"id"`
	StreamID string `json:"stream_id"`
}
