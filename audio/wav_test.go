package audio

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWAVHeader(t *testing.T) {
	h := WAVHeader(32000, DefaultPCMFormat())
	require.Len(t, h, WAVHeaderSize)
	assert.Equal(t, "RIFF", string(h[0:4]))
	assert.Equal(t, uint32(36+32000), binary.LittleEndian.Uint32(h[4:8]))
	assert.Equal(t, "WAVE", string(h[8:12]))
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(h[22:24]))
	assert.Equal(t, uint32(16000), binary.LittleEndian.Uint32(h[24:28]))
	assert.Equal(t, uint32(32000), binary.LittleEndian.Uint32(h[28:32]))
	assert.Equal(t, uint16(2), binary.LittleEndian.Uint16(h[32:34]))
	assert.Equal(t, "data", string(h[36:40]))
	assert.Equal(t, uint32(32000), binary.LittleEndian.Uint32(h[40:44]))
}

func TestWriteWAV(t *testing.T) {
	p := filepath.Join(t.TempDir(), "out.wav")
	require.NoError(t, WriteWAV(p, []byte{1, 2, 3, 4}, PCMFormat{SampleRate: 22050, Channels: 2}))

	data, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Len(t, data, WAVHeaderSize+4)
	assert.Equal(t, uint16(16), binary.LittleEndian.Uint16(data[34:36]))
	assert.Equal(t, []byte{1, 2, 3, 4}, data[WAVHeaderSize:])
}
