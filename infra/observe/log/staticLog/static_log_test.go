package staticLog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWritesToRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.log")
	closer, err := Init(Options{Level: "debug", Format: "json", File: path})
	require.NoError(t, err)
	t.Cleanup(func() { _, _ = Init(Options{}) })

	assert.Equal(t, logrus.DebugLevel, Log.GetLevel())
	Log.Debugf("gwr: n=%d", 12)
	require.NoError(t, closer.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"msg":"gwr: n=12"`)
}

func TestInitDefaultsAndErrors(t *testing.T) {
	closer, err := Init(Options{})
	require.NoError(t, err)
	assert.NoError(t, closer.Close())
	assert.Equal(t, logrus.WarnLevel, Log.GetLevel())

	_, err = Init(Options{Level: "loud"})
	assert.Error(t, err)
}
