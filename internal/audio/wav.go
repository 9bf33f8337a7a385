package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

var (
	ErrUnsupportedWAV = errors.New("unsupported wav format")
	ErrInvalidWAV     = errors.New("invalid wav file")
)

// Samples is decoded audio, normalized to [-1, 1] and down-mixed to mono.
type Samples struct {
	Data []float64
	Rate int
}

// DecodeWAV reads a RIFF/WAVE file and returns normalized mono samples.
// Multi-channel audio is down-mixed by averaging the channels of each
// frame. PCM sources are scaled per bit depth (8-bit unsigned, 16/24/32-bit
// signed); IEEE float sources pass through unchanged.
func DecodeWAV(path string) (Samples, error) {
	f, err := os.Open(path)
	if err != nil {
		return Samples{}, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()

	header := make([]byte, 12)
	if _, err := io.ReadFull(f, header); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Samples{}, fmt.Errorf("%w: %v", ErrInvalidWAV, err)
		}
		return Samples{}, fmt.Errorf("read wav header: %w", err)
	}

	if string(header[:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return Samples{}, ErrInvalidWAV
	}

	var (
		audioFormat   uint16
		channels      uint16
		sampleRate    uint32
		bitsPerSample uint16
		dataOffset    int64
		dataSize      uint32
		hasFmt        bool
		hasData       bool
	)

	for {
		chunkHeader := make([]byte, 8)
		if _, err := io.ReadFull(f, chunkHeader); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return Samples{}, fmt.Errorf("read wav chunk header: %w", err)
		}

		chunkID := string(chunkHeader[:4])
		chunkSize := binary.LittleEndian.Uint32(chunkHeader[4:8])

		chunkStart, err := f.Seek(0, io.SeekCurrent)
		if err != nil {
			return Samples{}, fmt.Errorf("seek wav chunk start: %w", err)
		}

		skip := int64(chunkSize)
		if chunkSize%2 != 0 {
			skip++
		}

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 {
				return Samples{}, ErrInvalidWAV
			}

			buf := make([]byte, chunkSize)
			if _, err := io.ReadFull(f, buf); err != nil {
				return Samples{}, fmt.Errorf("read wav fmt chunk: %w", err)
			}

			audioFormat = binary.LittleEndian.Uint16(buf[0:2])
			channels = binary.LittleEndian.Uint16(buf[2:4])
			sampleRate = binary.LittleEndian.Uint32(buf[4:8])
			bitsPerSample = binary.LittleEndian.Uint16(buf[14:16])
			hasFmt = true

			if chunkSize%2 != 0 {
				if _, err := f.Seek(1, io.SeekCurrent); err != nil {
					return Samples{}, fmt.Errorf("seek wav fmt padding: %w", err)
				}
			}
		case "data":
			dataOffset = chunkStart
			dataSize = chunkSize
			hasData = true
			if _, err := f.Seek(skip, io.SeekCurrent); err != nil {
				return Samples{}, fmt.Errorf("seek wav data chunk: %w", err)
			}
		default:
			if _, err := f.Seek(skip, io.SeekCurrent); err != nil {
				return Samples{}, fmt.Errorf("seek wav chunk %s: %w", chunkID, err)
			}
		}
	}

	if !hasFmt || !hasData {
		return Samples{}, ErrInvalidWAV
	}

	if channels == 0 || sampleRate == 0 {
		return Samples{}, ErrInvalidWAV
	}

	if err := validateFormat(audioFormat, bitsPerSample); err != nil {
		return Samples{}, err
	}

	if _, err := f.Seek(dataOffset, io.SeekStart); err != nil {
		return Samples{}, fmt.Errorf("seek wav data offset: %w", err)
	}

	data := make([]byte, dataSize)
	if _, err := io.ReadFull(f, data); err != nil {
		return Samples{}, fmt.Errorf("read wav data: %w", err)
	}

	decoded, err := decodeFrames(data, audioFormat, bitsPerSample, int(channels))
	if err != nil {
		return Samples{}, err
	}

	return Samples{Data: decoded, Rate: int(sampleRate)}, nil
}

func validateFormat(audioFormat, bitsPerSample uint16) error {
	if audioFormat != 1 && audioFormat != 3 {
		return ErrUnsupportedWAV
	}

	if audioFormat == 1 {
		switch bitsPerSample {
		case 8, 16, 24, 32:
			return nil
		default:
			return ErrUnsupportedWAV
		}
	}

	switch bitsPerSample {
	case 32, 64:
		return nil
	default:
		return ErrUnsupportedWAV
	}
}

func decodeFrames(data []byte, audioFormat, bitsPerSample uint16, channels int) ([]float64, error) {
	bytesPerSample := int(bitsPerSample / 8)
	if bytesPerSample <= 0 {
		return nil, ErrUnsupportedWAV
	}

	frameSize := bytesPerSample * channels
	frames := len(data) / frameSize
	out := make([]float64, 0, frames)

	for i := 0; i+frameSize <= len(data); i += frameSize {
		var sum float64
		for c := 0; c < channels; c++ {
			off := i + c*bytesPerSample
			value, err := decodeSample(data[off:off+bytesPerSample], audioFormat, bitsPerSample)
			if err != nil {
				return nil, err
			}
			sum += value
		}
		out = append(out, sum/float64(channels))
	}

	return out, nil
}

func decodeSample(sample []byte, audioFormat, bitsPerSample uint16) (float64, error) {
	if audioFormat == 3 {
		switch bitsPerSample {
		case 32:
			bits := binary.LittleEndian.Uint32(sample)
			return float64(math.Float32frombits(bits)), nil
		case 64:
			bits := binary.LittleEndian.Uint64(sample)
			return math.Float64frombits(bits), nil
		default:
			return 0, ErrUnsupportedWAV
		}
	}

	switch bitsPerSample {
	case 8:
		u := float64(sample[0])
		return (u - 128.0) / 128.0, nil
	case 16:
		v := int16(binary.LittleEndian.Uint16(sample))
		return float64(v) / 32768.0, nil
	case 24:
		v := int32(sample[0]) | int32(sample[1])<<8 | int32(sample[2])<<16
		if v&0x800000 != 0 {
			v |= ^0xFFFFFF
		}
		return float64(v) / 8388608.0, nil
	case 32:
		v := int32(binary.LittleEndian.Uint32(sample))
		return float64(v) / 2147483648.0, nil
	default:
		return 0, ErrUnsupportedWAV
	}
}
