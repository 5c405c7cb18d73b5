package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// pcmFormat is the WAVE format tag for uncompressed PCM.
const pcmFormat = 1

var errNotWAV = errors.New("not a RIFF/WAVE stream")

// wavData holds decoded audio: mono samples normalized to [-1, 1].
type wavData struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Samples    []float64
}

// Duration returns the audio length in seconds.
func (w *wavData) Duration() float64 {
	if w.SampleRate == 0 {
		return 0
	}
	return float64(len(w.Samples)) / float64(w.SampleRate)
}

// decodeWAV parses a RIFF/WAVE byte stream. Only PCM (8/16-bit) is
// supported; compressed formats come back as errors. Multi-channel audio is
// mixed down to mono.
func decodeWAV(b []byte) (*wavData, error) {
	if len(b) < 12 || string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" {
		return nil, errNotWAV
	}

	var (
		w       wavData
		gotFmt  bool
		rawData []byte
	)

	// Walk RIFF chunks. Chunk payloads are padded to even lengths.
	for off := 12; off+8 <= len(b); {
		id := string(b[off : off+4])
		size := int(binary.LittleEndian.Uint32(b[off+4 : off+8]))
		body := b[off+8:]
		if size > len(body) {
			return nil, fmt.Errorf("truncated %q chunk: declared %d bytes, have %d", id, size, len(body))
		}
		body = body[:size]

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, fmt.Errorf("fmt chunk too short: %d bytes", size)
			}
			format := binary.LittleEndian.Uint16(body[0:2])
			if format != pcmFormat {
				return nil, fmt.Errorf("unsupported WAVE format tag %d: only PCM is supported", format)
			}
			w.Channels = int(binary.LittleEndian.Uint16(body[2:4]))
			w.SampleRate = int(binary.LittleEndian.Uint32(body[4:8]))
			w.BitDepth = int(binary.LittleEndian.Uint16(body[14:16]))
			gotFmt = true
		case "data":
			rawData = body
		}

		off += 8 + size
		if size%2 == 1 {
			off++
		}
	}

	if !gotFmt {
		return nil, errors.New("missing fmt chunk")
	}
	if rawData == nil {
		return nil, errors.New("missing data chunk")
	}
	if w.Channels <= 0 || w.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid fmt chunk: channels=%d sample_rate=%d", w.Channels, w.SampleRate)
	}

	switch w.BitDepth {
	case 8:
		w.Samples = decodePCM8(rawData, w.Channels)
	case 16:
		w.Samples = decodePCM16(rawData, w.Channels)
	default:
		return nil, fmt.Errorf("unsupported bit depth %d: only 8 and 16-bit PCM are supported", w.BitDepth)
	}

	return &w, nil
}

// decodePCM16 converts little-endian signed 16-bit frames to mono float64.
func decodePCM16(data []byte, channels int) []float64 {
	frameSize := 2 * channels
	frames := len(data) / frameSize
	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			off := i*frameSize + 2*c
			v := int16(binary.LittleEndian.Uint16(data[off : off+2]))
			sum += float64(v) / 32768
		}
		samples[i] = sum / float64(channels)
	}
	return samples
}

// decodePCM8 converts unsigned 8-bit frames to mono float64.
func decodePCM8(data []byte, channels int) []float64 {
	frames := len(data) / channels
	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += (float64(data[i*channels+c]) - 128) / 128
		}
		samples[i] = sum / float64(channels)
	}
	return samples
}
