package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func noEnv(string) string { return "" }

func TestRunVersion(t *testing.T) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	err := run(context.Background(), []string{"--version"}, stdout, stderr, noEnv)

	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	output := stdout.String()
	if !strings.Contains(output, "jsxplay version") {
		t.Errorf("expected version output, got %q", output)
	}
}

func TestRunHelp(t *testing.T) {
	for _, arg := range []string{"--help", "-h"} {
		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}

		err := run(context.Background(), []string{arg}, stdout, stderr, noEnv)

		if err != nil {
			t.Errorf("%s: unexpected error: %v", arg, err)
		}

		output := stdout.String()
		for _, want := range []string{"jsxplay - A live playground", "--config", "--dev", "--as"} {
			if !strings.Contains(output, want) {
				t.Errorf("%s: expected %q in help, got %q", arg, want, output)
			}
		}
	}
}

func TestRunInvalidFlag(t *testing.T) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	err := run(context.Background(), []string{"--invalid-flag"}, stdout, stderr, noEnv)

	if err == nil {
		t.Error("expected error for invalid flag")
	}
	if !strings.Contains(stderr.String(), "Usage:") {
		t.Errorf("expected usage on stderr, got %q", stderr.String())
	}
}

func TestRunMissingConfig(t *testing.T) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	err := run(context.Background(), []string{"--config", "/nonexistent/config.yaml"}, stdout, stderr, noEnv)

	if err == nil {
		t.Fatal("expected error for missing config")
	}
	if !strings.Contains(err.Error(), "config file not found") {
		t.Errorf("expected 'config file not found' error, got %q", err.Error())
	}
}

func TestRunInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jsxplay.yaml")
	if err := os.WriteFile(path, []byte("editor:\n  style_prop: css\n"), 0644); err != nil {
		t.Fatal(err)
	}

	err := run(context.Background(), []string{"--config", path}, &bytes.Buffer{}, &bytes.Buffer{}, noEnv)

	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "configuration errors") || !strings.Contains(err.Error(), "style_prop") {
		t.Errorf("unexpected error %q", err.Error())
	}
}

func TestRunPortOverrideValidated(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jsxplay.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 3000\n"), 0644); err != nil {
		t.Fatal(err)
	}

	err := run(context.Background(), []string{"--config", path, "--port", "-1"}, &bytes.Buffer{}, &bytes.Buffer{}, noEnv)

	if err == nil || !strings.Contains(err.Error(), "invalid port: -1") {
		t.Errorf("expected invalid port error, got %v", err)
	}
}

func TestRunUnknownProfile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jsxplay.yaml")
	config := "developers:\n  alice:\n    port: 3001\n"
	if err := os.WriteFile(path, []byte(config), 0644); err != nil {
		t.Fatal(err)
	}

	err := run(context.Background(), []string{"--config", path, "--as", "bob"}, &bytes.Buffer{}, &bytes.Buffer{}, noEnv)

	if err == nil {
		t.Fatal("expected error for unknown profile")
	}
	if !strings.Contains(err.Error(), `unknown developer profile "bob"`) {
		t.Errorf("unexpected error %q", err.Error())
	}
}
