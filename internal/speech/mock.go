package speech

import (
	"encoding/binary"
	"fmt"
	"os"
)

const (
	mockSampleRate    = 8000
	mockBitsPerSample = 16
	mockChannels      = 1
)

// WriteSilentWAV writes a minimal valid WAV file of silence lasting
// durationMs. Deterministic: the same duration always yields the same
// bytes.
func WriteSilentWAV(path string, durationMs int64) error {
	if durationMs < 0 {
		durationMs = 0
	}

	numSamples := durationMs * mockSampleRate / 1000
	dataSize := uint32(numSamples) * mockChannels * (mockBitsPerSample / 8)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	byteRate := uint32(mockSampleRate * mockChannels * (mockBitsPerSample / 8))
	blockAlign := uint16(mockChannels * (mockBitsPerSample / 8))

	var header [44]byte
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], 36+dataSize)
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16) // PCM fmt chunk size
	binary.LittleEndian.PutUint16(header[20:22], 1)  // PCM
	binary.LittleEndian.PutUint16(header[22:24], mockChannels)
	binary.LittleEndian.PutUint32(header[24:28], mockSampleRate)
	binary.LittleEndian.PutUint32(header[28:32], byteRate)
	binary.LittleEndian.PutUint16(header[32:34], blockAlign)
	binary.LittleEndian.PutUint16(header[34:36], mockBitsPerSample)
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], dataSize)

	if _, err := f.Write(header[:]); err != nil {
		return err
	}

	// Zero samples, written in chunks to keep memory flat.
	silence := make([]byte, 4096)
	remaining := int64(dataSize)
	for remaining > 0 {
		n := int64(len(silence))
		if remaining < n {
			n = remaining
		}
		if _, err := f.Write(silence[:n]); err != nil {
			return err
		}
		remaining -= n
	}

	return nil
}
