package capture

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/runtime"
)

// ConsoleEntry is one message the page wrote to its console.
type ConsoleEntry struct {
	Level string
	Text  string
}

// ConsoleLog is an append-only, arrival-ordered record of console messages.
// Append may be called from the browser event goroutine while the
// sequence is running.
type ConsoleLog struct {
	mu      sync.Mutex
	entries []ConsoleEntry
}

// NewConsoleLog returns an empty log.
func NewConsoleLog() *ConsoleLog {
	return &ConsoleLog{}
}

// Append records an entry at the end of the log.
func (c *ConsoleLog) Append(e ConsoleEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, e)
}

// Entries returns a copy of the log in arrival order.
func (c *ConsoleLog) Entries() []ConsoleEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ConsoleEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Len returns the number of entries.
func (c *ConsoleLog) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// entryFromEvent renders a console API call the way the page author wrote
// it: string arguments unquoted, other values by their JSON or description,
// joined by spaces.
func entryFromEvent(e *runtime.EventConsoleAPICalled) ConsoleEntry {
	parts := make([]string, 0, len(e.Args))
	for _, arg := range e.Args {
		if arg == nil {
			continue
		}
		parts = append(parts, remoteObjectText(arg))
	}
	return ConsoleEntry{
		Level: string(e.Type),
		Text:  strings.Join(parts, " "),
	}
}

func remoteObjectText(arg *runtime.RemoteObject) string {
	if len(arg.Value) > 0 {
		var s string
		if err := json.Unmarshal([]byte(arg.Value), &s); err == nil {
			return s
		}
		return string(arg.Value)
	}
	if arg.UnserializableValue != "" {
		return string(arg.UnserializableValue)
	}
	if arg.Description != "" {
		return arg.Description
	}
	return string(arg.Type)
}
