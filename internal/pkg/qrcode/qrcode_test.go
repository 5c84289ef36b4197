package qrcode

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func TestEncoder_DataURI(t *testing.T) {
	enc := NewEncoder(0)

	uri, err := enc.DataURI("http://localhost:8080/abcd1234")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:image/png;base64,"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, pngMagic))
}

func TestEncoder_EmptyContent(t *testing.T) {
	_, err := NewEncoder(128).DataURI("")
	assert.Error(t, err)
}
