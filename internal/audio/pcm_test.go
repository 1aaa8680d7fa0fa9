package audio

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"
)

// pcmBytes encodes int16 samples as little-endian bytes.
func pcmBytes(samples ...int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	return buf
}

func TestDecode(t *testing.T) {
	raw := pcmBytes(0, 16384, -16384, 32767, -32768)

	b, err := Decode(raw, DefaultSampleRate, DefaultChannels)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if b.SampleRate != 24000 {
		t.Errorf("SampleRate = %d, want 24000", b.SampleRate)
	}
	if b.Frames() != 5 {
		t.Errorf("Frames() = %d, want 5", b.Frames())
	}

	want := []float32{0, 0.5, -0.5, 32767.0 / 32768.0, -1.0}
	for i, w := range want {
		if b.Samples[i] != w {
			t.Errorf("Samples[%d] = %v, want %v", i, b.Samples[i], w)
		}
	}
}

func TestDecodeOddLength(t *testing.T) {
	raw := []byte{0x01, 0x02, 0x03}

	if _, err := Decode(raw, DefaultSampleRate, DefaultChannels); err == nil {
		t.Fatal("expected error for odd-length input, got nil")
	}
}

func TestDecodeStereoFrameValidation(t *testing.T) {
	// 6 bytes is 3 mono frames but 1.5 stereo frames.
	raw := pcmBytes(1, 2, 3)

	if _, err := Decode(raw, DefaultSampleRate, 2); err == nil {
		t.Fatal("expected error for partial stereo frame, got nil")
	}
	if _, err := Decode(pcmBytes(1, 2, 3, 4), DefaultSampleRate, 2); err != nil {
		t.Fatalf("unexpected error for whole stereo frames: %v", err)
	}
}

func TestDecodeRejectsBadParams(t *testing.T) {
	if _, err := Decode(nil, 0, 1); err == nil {
		t.Error("expected error for zero sample rate")
	}
	if _, err := Decode(nil, 24000, 0); err == nil {
		t.Error("expected error for zero channels")
	}
}

func TestDuration(t *testing.T) {
	raw := pcmBytes(make([]int16, 24000)...)

	b, err := Decode(raw, DefaultSampleRate, DefaultChannels)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Duration() != time.Second {
		t.Errorf("Duration() = %v, want 1s", b.Duration())
	}
}

func TestEncodeWAV(t *testing.T) {
	raw := pcmBytes(0, 16384, -16384)
	b, err := Decode(raw, DefaultSampleRate, DefaultChannels)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wav := EncodeWAV(b)

	if len(wav) != 44+len(raw) {
		t.Fatalf("wav length = %d, want %d", len(wav), 44+len(raw))
	}
	if !bytes.Equal(wav[:4], []byte("RIFF")) || !bytes.Equal(wav[8:12], []byte("WAVE")) {
		t.Error("missing RIFF/WAVE markers")
	}

	sampleRate := binary.LittleEndian.Uint32(wav[24:28])
	if sampleRate != 24000 {
		t.Errorf("header sample rate = %d, want 24000", sampleRate)
	}

	// Samples round-trip through the float normalization.
	if !bytes.Equal(wav[44:], raw) {
		t.Error("wav data section does not match original pcm")
	}
}
