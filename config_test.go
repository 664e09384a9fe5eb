package mqtt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	opts, err := Load("")
	require.NoError(t, err)
	require.Equal(t, DefaultCapabilities(), opts.Capabilities)
	require.Len(t, opts.Listeners, 1)
	require.Equal(t, "tcp", opts.Listeners[0].Type)
	require.Equal(t, "0.0.0.0:1883", opts.Listeners[0].Address)
}

func TestLoadFromYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broker.yaml")
	yamlDoc := `
listeners:
  - type: tcp
    id: tcp1
    address: 127.0.0.1:1883
  - type: websocket
    id: ws1
    address: 127.0.0.1:8080
capabilities:
  receive_maximum: 100
`
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o644))

	opts, err := Load(path)
	require.NoError(t, err)
	require.Len(t, opts.Listeners, 2)
	require.Equal(t, "websocket", opts.Listeners[1].Type)
	require.Equal(t, uint16(100), opts.Capabilities.ReceiveMaximum)
	require.Equal(t, DefaultCapabilities().MaximumPacketSize, opts.Capabilities.MaximumPacketSize)
}

func TestEnsureDefaultsFillsZeroValues(t *testing.T) {
	opts := &Options{}
	opts.EnsureDefaults()

	require.Equal(t, DefaultCapabilities(), opts.Capabilities)
	require.NotEmpty(t, opts.Listeners)
}
