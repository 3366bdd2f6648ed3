package audio

import (
	"encoding/binary"
	"fmt"
	"os"
)

// WAVHeaderSize 标准 PCM WAV 头长度
const WAVHeaderSize = 44

// PCMFormat 线性 PCM 参数
type PCMFormat struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
}

// DefaultPCMFormat 16 kHz 单声道 16 bit，whisper.cpp 的输入格式
func DefaultPCMFormat() PCMFormat {
	return PCMFormat{SampleRate: 16000, Channels: 1, BitsPerSample: 16}
}

// WAVHeader 生成 dataLen 字节 PCM 数据对应的 RIFF 头
func WAVHeader(dataLen int, f PCMFormat) []byte {
	if f.BitsPerSample == 0 {
		f.BitsPerSample = 16
	}
	blockAlign := f.Channels * f.BitsPerSample / 8
	byteRate := f.SampleRate * blockAlign

	h := make([]byte, WAVHeaderSize)
	copy(h[0:4], "RIFF")
	binary.LittleEndian.PutUint32(h[4:8], uint32(36+dataLen))
	copy(h[8:12], "WAVE")
	copy(h[12:16], "fmt ")
	binary.LittleEndian.PutUint32(h[16:20], 16)
	binary.LittleEndian.PutUint16(h[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(h[22:24], uint16(f.Channels))
	binary.LittleEndian.PutUint32(h[24:28], uint32(f.SampleRate))
	binary.LittleEndian.PutUint32(h[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(h[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(h[34:36], uint16(f.BitsPerSample))
	copy(h[36:40], "data")
	binary.LittleEndian.PutUint32(h[40:44], uint32(dataLen))
	return h
}

// WriteWAV 将 PCM 数据加上 WAV 头写入 path
func WriteWAV(path string, pcm []byte, f PCMFormat) error {
	data := append(WAVHeader(len(pcm), f), pcm...)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write wav %s: %w", path, err)
	}
	return nil
}
