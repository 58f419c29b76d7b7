package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-flappy/internal/config"
)

func TestNewLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(&buf, "warn", "test")
	if err != nil {
		t.Fatalf("newLogger: %v", err)
	}

	logger.Info("hidden")
	logger.Warn("shown", "key", "value")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "key=value") {
		t.Errorf("warn line missing: %q", out)
	}
}

func TestNewLoggerInvalidLevel(t *testing.T) {
	if _, err := newLogger(&bytes.Buffer{}, "loud", ""); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestOpenLogFileEmptyDiscards(t *testing.T) {
	w, err := openLogFile("")
	if err != nil {
		t.Fatalf("openLogFile: %v", err)
	}
	if _, err := w.Write([]byte("dropped")); err != nil {
		t.Errorf("write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("close: %v", err)
	}
}

func TestOpenLogFileCreatesParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "nested", "play.log")

	w, err := openLogFile(path)
	if err != nil {
		t.Fatalf("openLogFile: %v", err)
	}
	if _, err := w.Write([]byte("hello\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	w.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "hello\n" {
		t.Errorf("content = %q", data)
	}
}

func TestApplyServeFlags(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().StringVar(&flagAddr, "addr", "", "")
	cmd.Flags().StringVar(&flagSSHAddr, "ssh", "", "")
	cmd.Flags().StringVar(&flagHostKey, "host-key", "", "")

	if err := cmd.Flags().Parse([]string{"--addr", ":9000"}); err != nil {
		t.Fatalf("parse: %v", err)
	}

	scfg := config.ServerConfig{Address: ":8080", SSHAddress: ":23234", HostKeyPath: "/keys/host"}
	applyServeFlags(cmd, &scfg)

	if scfg.Address != ":9000" {
		t.Errorf("Address = %q, want :9000", scfg.Address)
	}
	if scfg.SSHAddress != ":23234" {
		t.Errorf("SSHAddress changed without flag: %q", scfg.SSHAddress)
	}
	if scfg.HostKeyPath != "/keys/host" {
		t.Errorf("HostKeyPath changed without flag: %q", scfg.HostKeyPath)
	}
}

func TestCommandsRegistered(t *testing.T) {
	want := map[string]bool{"play": false, "serve": false, "scores": false}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("command %q not registered", name)
		}
	}
}
