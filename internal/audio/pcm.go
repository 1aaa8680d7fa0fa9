// Package audio converts raw PCM byte streams from the speech engine into
// normalized sample buffers and playable WAV containers.
package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"
)

// Defaults match the speech engine's output format.
const (
	DefaultSampleRate = 24000
	DefaultChannels   = 1
)

// Buffer holds decoded audio as interleaved float32 samples in [-1.0, 1.0).
type Buffer struct {
	SampleRate int
	Channels   int
	Samples    []float32
}

// Decode interprets raw as interleaved 16-bit signed little-endian PCM and
// normalizes each sample by dividing by 32768. It returns an error rather
// than a truncated buffer when the input length does not divide evenly into
// whole frames.
func Decode(raw []byte, sampleRate, channels int) (*Buffer, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}
	if channels <= 0 {
		return nil, fmt.Errorf("invalid channel count %d", channels)
	}
	frameSize := channels * 2
	if len(raw)%frameSize != 0 {
		return nil, fmt.Errorf("pcm data length %d is not a multiple of frame size %d", len(raw), frameSize)
	}

	samples := make([]float32, len(raw)/2)
	for i := range samples {
		s := int16(binary.LittleEndian.Uint16(raw[i*2:]))
		samples[i] = float32(s) / 32768.0
	}

	return &Buffer{
		SampleRate: sampleRate,
		Channels:   channels,
		Samples:    samples,
	}, nil
}

// Frames returns the number of sample frames in the buffer.
func (b *Buffer) Frames() int {
	return len(b.Samples) / b.Channels
}

// Duration returns the playback length of the buffer.
func (b *Buffer) Duration() time.Duration {
	if b.SampleRate == 0 {
		return 0
	}
	return time.Duration(b.Frames()) * time.Second / time.Duration(b.SampleRate)
}

// EncodeWAV renders the buffer as a 16-bit PCM RIFF/WAVE file so callers can
// hand the speech payload to any standard player.
func EncodeWAV(b *Buffer) []byte {
	dataLen := len(b.Samples) * 2
	byteRate := b.SampleRate * b.Channels * 2
	blockAlign := b.Channels * 2

	var out bytes.Buffer
	out.Grow(44 + dataLen)

	out.WriteString("RIFF")
	binary.Write(&out, binary.LittleEndian, uint32(36+dataLen))
	out.WriteString("WAVE")

	out.WriteString("fmt ")
	binary.Write(&out, binary.LittleEndian, uint32(16))
	binary.Write(&out, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&out, binary.LittleEndian, uint16(b.Channels))
	binary.Write(&out, binary.LittleEndian, uint32(b.SampleRate))
	binary.Write(&out, binary.LittleEndian, uint32(byteRate))
	binary.Write(&out, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&out, binary.LittleEndian, uint16(16)) // bits per sample

	out.WriteString("data")
	binary.Write(&out, binary.LittleEndian, uint32(dataLen))
	for _, s := range b.Samples {
		v := s * 32768.0
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		binary.Write(&out, binary.LittleEndian, int16(v))
	}

	return out.Bytes()
}
