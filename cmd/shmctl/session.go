package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
)

// session is the REPL's saved-session snapshot: the last id used per
// menu pattern, so a user re-launching shmctl isn't retyping the same
// --id every time. It is not config (config.go's Config is
// operator-set defaults); this is session-local history the tool
// writes for itself, following cmd/sloty's convention of persisting
// small bits of REPL state between runs.
type session struct {
	LastID map[string]string `json:"last_id"`
}

func sessionFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".shmctl_session.json")
}

// loadSession reads the saved session snapshot, returning an empty one
// if none exists yet or it cannot be parsed.
func loadSession() session {
	s := session{LastID: make(map[string]string)}

	path := sessionFilePath()
	if path == "" {
		return s
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return s
	}

	var loaded session
	if err := json.Unmarshal(data, &loaded); err != nil {
		return s
	}
	if loaded.LastID == nil {
		loaded.LastID = make(map[string]string)
	}
	return loaded
}

// save writes the session snapshot atomically: a rename-into-place
// write, so a crash or a concurrent shmctl invocation never observes a
// half-written session file. Failures are non-fatal — session state is
// a convenience, not a durability guarantee.
func (s session) save() {
	path := sessionFilePath()
	if path == "" {
		return
	}

	data, err := json.Marshal(s)
	if err != nil {
		return
	}

	_ = atomic.WriteFile(path, bytes.NewReader(data))
}

// remember records the most recently used id for pattern.
func (s session) remember(pattern, id string) {
	if id == "" {
		return
	}
	s.LastID[pattern] = id
}
