package client

import "encoding/json"

type HealthResponse struct {
	OK             bool   `json:"ok"`
	Version        string `json:"version"`
	PID            int    `json:"pid"`
	ShellConnected bool   `json:"shell_connected"`
	Subscribers    int    `json:"subscribers"`
}

type MessageResponse struct {
	Channel string          `json:"channel"`
	Result  json.RawMessage `json:"result"`
}
