package logging

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitWritesToFile(t *testing.T) {
	dir := t.TempDir()
	Init(Config{LogDir: dir, Level: "debug", Debug: true})
	defer Shutdown()

	Logger().Info("hello", "key", "value")

	data, err := os.ReadFile(filepath.Join(dir, "woodeye.log"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}

	var record map[string]any
	line := strings.TrimSpace(string(data))
	if err := json.Unmarshal([]byte(line), &record); err != nil {
		t.Fatalf("log line not JSON: %v (%q)", err, line)
	}
	if record["msg"] != "hello" || record["key"] != "value" {
		t.Errorf("unexpected record %v", record)
	}
}

func TestForComponentBeforeInit(t *testing.T) {
	// Component loggers created before Init must pick up the real handler.
	log := ForComponent(CompStatus)

	dir := t.TempDir()
	Init(Config{LogDir: dir, Level: "debug", Debug: true})
	defer Shutdown()

	log.Debug("component_event")

	f, err := os.Open(filepath.Join(dir, "woodeye.log"))
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	defer f.Close()

	found := false
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var record map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
			continue
		}
		if record["msg"] == "component_event" && record["component"] == CompStatus {
			found = true
		}
	}
	if !found {
		t.Error("component log record not written")
	}
}

func TestDiscardWithoutDebugOrDir(t *testing.T) {
	Init(Config{})
	defer Shutdown()

	// Must not panic; output goes nowhere.
	Logger().Info("dropped")
	ForComponent(CompWeb).Warn("also dropped")
}
