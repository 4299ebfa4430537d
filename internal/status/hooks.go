package status

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/twistedxcom/woodeye/internal/logging"
)

var hooksLog = logging.ForComponent(logging.CompHooks)

// claudeHookEntry is a single hook entry in Claude Code settings.
type claudeHookEntry struct {
	Type    string `json:"type"`
	Command string `json:"command"`
}

// claudeHookMatcher is a matcher block (with optional matcher pattern) in settings.
type claudeHookMatcher struct {
	Matcher string            `json:"matcher,omitempty"`
	Hooks   []claudeHookEntry `json:"hooks"`
}

// Installer injects, checks, and removes the Claude Code hook entries that
// write status files. The status directory path inside each generated
// command doubles as the marker identifying our entries, so install/remove
// never touch unrelated hooks.
type Installer struct {
	configDir string // Claude config dir, e.g. ~/.claude
	statusDir string
}

// NewInstaller creates an installer targeting configDir/settings.json.
func NewInstaller(configDir, statusDir string) *Installer {
	return &Installer{configDir: configDir, statusDir: statusDir}
}

// hookEvents returns the events we subscribe to and the command for each.
// Session-key derivation in shell matches SessionKey: md5 of the project
// path (no trailing newline), first 16 hex chars.
func (i *Installer) hookEvents() []struct {
	Event   string
	Matcher string
	Command string
} {
	keyExpr := `$(printf %s "$CLAUDE_PROJECT_DIR" | md5sum | cut -c1-16)`

	write := func(fields string) string {
		return "mkdir -p " + i.statusDir +
			` && echo '{"project_path":"'"$CLAUDE_PROJECT_DIR"'",` + fields +
			`,"timestamp":'$(date +%s)'}' > ` + i.statusDir + "/" + keyExpr + ".json"
	}
	cleanup := "rm -f " + i.statusDir + "/" + keyExpr + ".json"

	return []struct {
		Event   string
		Matcher string
		Command string
	}{
		{Event: "PreToolUse", Matcher: "*", Command: write(`"state":"working","last_tool":"'"$CLAUDE_TOOL_NAME"'"`)},
		{Event: "PostToolUse", Matcher: "*", Command: write(`"state":"working","last_tool":"'"$CLAUDE_TOOL_NAME"'"`)},
		{Event: "PermissionRequest", Command: write(`"state":"waiting_for_approval","waiting_reason":"'"$CLAUDE_TOOL_NAME"'"`)},
		{Event: "Notification", Command: write(`"state":"waiting_for_input"`)},
		{Event: "SessionStart", Command: write(`"state":"working"`)},
		{Event: "Stop", Command: cleanup},
		{Event: "SessionEnd", Command: cleanup},
	}
}

// marker returns the substring identifying woodeye-owned hook entries.
func (i *Installer) marker() string {
	return i.statusDir
}

// Installed checks whether all woodeye hook events are present in settings.json.
func (i *Installer) Installed() bool {
	hooks, _, err := i.readHooks()
	if err != nil {
		return false
	}
	for _, cfg := range i.hookEvents() {
		raw, ok := hooks[cfg.Event]
		if !ok || !i.eventHasHook(raw) {
			return false
		}
	}
	return true
}

// Install merges woodeye hook entries into settings.json, preserving all
// existing settings and user hooks. Returns true if hooks were newly
// installed, false if already present. Idempotent.
func (i *Installer) Install() (bool, error) {
	settingsPath := filepath.Join(i.configDir, "settings.json")

	var rawSettings map[string]json.RawMessage
	data, err := os.ReadFile(settingsPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return false, fmt.Errorf("read settings.json: %w", err)
		}
		rawSettings = make(map[string]json.RawMessage)
	} else {
		if err := json.Unmarshal(data, &rawSettings); err != nil {
			return false, fmt.Errorf("parse settings.json: %w", err)
		}
	}

	var existingHooks map[string]json.RawMessage
	if raw, ok := rawSettings["hooks"]; ok {
		if err := json.Unmarshal(raw, &existingHooks); err != nil {
			// hooks key exists but isn't a valid object; start fresh for hooks
			existingHooks = make(map[string]json.RawMessage)
		}
	} else {
		existingHooks = make(map[string]json.RawMessage)
	}

	installed := true
	for _, cfg := range i.hookEvents() {
		raw, ok := existingHooks[cfg.Event]
		if !ok || !i.eventHasHook(raw) {
			installed = false
			break
		}
	}
	if installed {
		return false, nil
	}

	for _, cfg := range i.hookEvents() {
		existingHooks[cfg.Event] = i.mergeHookEvent(existingHooks[cfg.Event], cfg.Matcher, cfg.Command)
	}

	hooksRaw, err := json.Marshal(existingHooks)
	if err != nil {
		return false, fmt.Errorf("marshal hooks: %w", err)
	}
	rawSettings["hooks"] = hooksRaw

	if err := os.MkdirAll(i.statusDir, 0755); err != nil {
		return false, fmt.Errorf("create status dir: %w", err)
	}
	if err := writeSettings(i.configDir, settingsPath, rawSettings); err != nil {
		return false, err
	}

	hooksLog.Info("hooks_installed", slog.String("config_dir", i.configDir))
	return true, nil
}

// Remove strips woodeye hook entries from settings.json, leaving everything
// else byte-for-byte intact. Returns true if anything was removed.
func (i *Installer) Remove() (bool, error) {
	settingsPath := filepath.Join(i.configDir, "settings.json")

	data, err := os.ReadFile(settingsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read settings.json: %w", err)
	}

	var rawSettings map[string]json.RawMessage
	if err := json.Unmarshal(data, &rawSettings); err != nil {
		return false, fmt.Errorf("parse settings.json: %w", err)
	}

	hooksRaw, ok := rawSettings["hooks"]
	if !ok {
		return false, nil
	}

	var existingHooks map[string]json.RawMessage
	if err := json.Unmarshal(hooksRaw, &existingHooks); err != nil {
		return false, nil
	}

	removed := false
	for _, cfg := range i.hookEvents() {
		if raw, ok := existingHooks[cfg.Event]; ok {
			cleaned, didRemove := i.removeFromEvent(raw)
			if didRemove {
				removed = true
				if cleaned == nil {
					delete(existingHooks, cfg.Event)
				} else {
					existingHooks[cfg.Event] = cleaned
				}
			}
		}
	}

	if !removed {
		return false, nil
	}

	if len(existingHooks) == 0 {
		delete(rawSettings, "hooks")
	} else {
		hooksData, _ := json.Marshal(existingHooks)
		rawSettings["hooks"] = hooksData
	}

	if err := writeSettings(i.configDir, settingsPath, rawSettings); err != nil {
		return false, err
	}

	hooksLog.Info("hooks_removed", slog.String("config_dir", i.configDir))
	return true, nil
}

// readHooks loads the hooks section of settings.json.
func (i *Installer) readHooks() (map[string]json.RawMessage, map[string]json.RawMessage, error) {
	settingsPath := filepath.Join(i.configDir, "settings.json")
	data, err := os.ReadFile(settingsPath)
	if err != nil {
		return nil, nil, err
	}

	var rawSettings map[string]json.RawMessage
	if err := json.Unmarshal(data, &rawSettings); err != nil {
		return nil, nil, err
	}

	hooksRaw, ok := rawSettings["hooks"]
	if !ok {
		return nil, rawSettings, fmt.Errorf("no hooks section")
	}

	var hooks map[string]json.RawMessage
	if err := json.Unmarshal(hooksRaw, &hooks); err != nil {
		return nil, nil, err
	}
	return hooks, rawSettings, nil
}

// eventHasHook checks if a hook event's matcher array contains a woodeye entry.
func (i *Installer) eventHasHook(raw json.RawMessage) bool {
	var blocks []json.RawMessage
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return false
	}
	for _, b := range blocks {
		if bytes.Contains(b, []byte(i.marker())) {
			return true
		}
	}
	return false
}

// mergeHookEvent appends a woodeye-owned matcher block to an event's array.
// User blocks are carried as raw JSON and never re-marshaled, so fields we
// don't model (timeout, async, ...) survive untouched.
func (i *Installer) mergeHookEvent(existing json.RawMessage, matcher, command string) json.RawMessage {
	var blocks []json.RawMessage

	if existing != nil {
		if err := json.Unmarshal(existing, &blocks); err != nil {
			blocks = nil
		}
	}

	for _, b := range blocks {
		if bytes.Contains(b, []byte(i.marker())) {
			// Already present
			result, _ := json.Marshal(blocks)
			return result
		}
	}

	block, _ := json.Marshal(claudeHookMatcher{
		Matcher: matcher,
		Hooks:   []claudeHookEntry{{Type: "command", Command: command}},
	})
	blocks = append(blocks, json.RawMessage(block))
	result, _ := json.Marshal(blocks)
	return result
}

// removeFromEvent removes woodeye-owned matcher blocks from an event's array,
// leaving user blocks byte-for-byte intact. Returns cleaned JSON and whether
// any removal happened. Returns nil JSON if the array ends up empty.
func (i *Installer) removeFromEvent(raw json.RawMessage) (json.RawMessage, bool) {
	var blocks []json.RawMessage
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return raw, false
	}

	removed := false
	var kept []json.RawMessage

	for _, b := range blocks {
		if bytes.Contains(b, []byte(i.marker())) {
			removed = true
			continue
		}
		kept = append(kept, b)
	}

	if !removed {
		return raw, false
	}

	if len(kept) == 0 {
		return nil, true
	}

	result, _ := json.Marshal(kept)
	return result, true
}

// writeSettings writes settings.json atomically via temp file + rename.
func writeSettings(configDir, settingsPath string, settings map[string]json.RawMessage) error {
	finalData, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	tmpPath := settingsPath + ".tmp"
	if err := os.WriteFile(tmpPath, finalData, 0644); err != nil {
		return fmt.Errorf("write settings.json.tmp: %w", err)
	}
	if err := os.Rename(tmpPath, settingsPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename settings.json: %w", err)
	}
	return nil
}
