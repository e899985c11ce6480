package store

import (
	"bytes"
	"encoding/json"
)

// schemaVersion is written into every envelope. Bump it when a record shape changes
// and teach decode how to upgrade the previous version.
const schemaVersion = 1

type envelope struct {
	V    int             `json:"v"`
	Data json.RawMessage `json:"data"`
}

// Key layout matches the browser client's localStorage.
const (
	keyUsers       = "rr_users"
	keyChats       = "rr_chats"
	keyConfig      = "rr_admin_config"
	keyLogsPrefix  = "rr_logs_"
	keyCredsPrefix = "rr_auth_"
)

func logsKey(username string) string       { return keyLogsPrefix + username }
func credentialKey(username string) string { return keyCredsPrefix + username }

func encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{V: schemaVersion, Data: data})
}

// decode reads either a versioned envelope or a legacy bare value (version 0).
func decode(b []byte, out any) (int, error) {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var env envelope
		if err := json.Unmarshal(trimmed, &env); err == nil && env.V > 0 && len(env.Data) > 0 {
			return env.V, json.Unmarshal(env.Data, out)
		}
	}
	return 0, json.Unmarshal(trimmed, out)
}
