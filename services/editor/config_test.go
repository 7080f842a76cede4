// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package editor

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "12300", cfg.Port)
	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 64, cfg.MaxDocumentDepth)
	assert.Equal(t, 5<<20, cfg.MaxDocumentBytes)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("REDLINE_PORT", "9000")
	t.Setenv("REDLINE_LLM_PROVIDER", "ollama")
	t.Setenv("REDLINE_OLLAMA_URL", "http://localhost:11434")
	t.Setenv("REDLINE_SESSION_TTL", "2h")
	t.Setenv("REDLINE_MAX_DOCUMENT_DEPTH", "10")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "ollama", cfg.Provider)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 10, cfg.MaxDocumentDepth)
}

func TestLoadConfigYAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"port: \"8088\"\nprovider: ollama\nollama_url: http://ollama:11434\n"), 0600))
	t.Setenv("REDLINE_CONFIG_FILE", path)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "8088", cfg.Port)
	assert.Equal(t, "ollama", cfg.Provider)

	// Env still wins over the file.
	t.Setenv("REDLINE_PORT", "8089")
	cfg, err = LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "8089", cfg.Port)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	t.Setenv("REDLINE_LLM_PROVIDER", "carrier-pigeon")
	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigRejectsTTLOutOfRange(t *testing.T) {
	t.Setenv("REDLINE_SESSION_TTL", "5s")
	_, err := LoadConfig()
	assert.Error(t, err)
}
