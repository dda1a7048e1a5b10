package logger

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAppliesLevelAndFormat(t *testing.T) {
	log := New(LoggingConfig{Level: "debug", Format: "json"})
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	_, isJSON := log.Formatter.(*logrus.JSONFormatter)
	assert.True(t, isJSON)

	log = New(LoggingConfig{Level: "nonsense"})
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	_, isText := log.Formatter.(*logrus.TextFormatter)
	assert.True(t, isText)
}

func TestNewDefaultTagsComponent(t *testing.T) {
	log := NewDefault("users")
	log.SetFormatter(&logrus.JSONFormatter{})
	var buf bytes.Buffer
	log.SetOutput(&buf)

	log.WithField("user_id", 3).Info("user created")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "users", entry["component"])
	assert.Equal(t, float64(3), entry["user_id"])
	assert.Equal(t, "user created", entry["msg"])
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "svc.log")
	log := New(LoggingConfig{Output: path})
	log.Info("hello")
	assert.FileExists(t, path)
}
