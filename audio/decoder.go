package audio

import (
	"bytes"
	"dsss-steganography/models"
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/mewkiz/flac"
	"github.com/tosone/minimp3"
)

const (
	DefaultBitDepth = 16
	wavPCMFormat    = 1
)

// SupportedExtensions lists the carrier formats Decode understands
var SupportedExtensions = []string{".wav", ".mp3", ".flac"}

func IsSupported(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, e := range SupportedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Decode reads a carrier from data, picking the decoder by file extension
func Decode(filename string, data []byte) (*models.Signal, *models.AudioMetadata, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".wav":
		return DecodeWAV(data)
	case ".mp3":
		return DecodeMP3(data)
	case ".flac":
		return DecodeFLAC(data)
	default:
		return nil, nil, fmt.Errorf("unsupported audio format %q, expected one of %v", filepath.Ext(filename), SupportedExtensions)
	}
}

func DecodeFile(path string) (*models.Signal, *models.AudioMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read audio file: %v", err)
	}
	return Decode(path, data)
}

func DecodeWAV(data []byte) (*models.Signal, *models.AudioMetadata, error) {
	decoder := wav.NewDecoder(bytes.NewReader(data))
	if !decoder.IsValidFile() {
		return nil, nil, fmt.Errorf("failed to decode WAV: not a valid WAV file")
	}
	if decoder.WavAudioFormat != wavPCMFormat {
		return nil, nil, fmt.Errorf("failed to decode WAV: unsupported audio format %d, only integer PCM is supported", decoder.WavAudioFormat)
	}

	// 8-bit WAV is unsigned and is left out
	if d := int(decoder.BitDepth); d != 16 && d != 24 && d != 32 {
		return nil, nil, fmt.Errorf("failed to decode WAV: unsupported bit depth %d", decoder.BitDepth)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode WAV: %v", err)
	}

	channels := int(decoder.NumChans)
	signal := deinterleave(buf.Data, channels)
	metadata := &models.AudioMetadata{
		Format:       "wav",
		SampleRate:   int(decoder.SampleRate),
		Channels:     channels,
		BitDepth:     int(decoder.BitDepth),
		TotalSamples: signal.Len(),
	}
	metadata.Duration = duration(metadata)

	return signal, metadata, nil
}

func DecodeMP3(mp3Data []byte) (*models.Signal, *models.AudioMetadata, error) {
	decoder, data, err := minimp3.DecodeFull(mp3Data)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode MP3: %v", err)
	}
	defer decoder.Close()

	if decoder.Channels < 1 {
		return nil, nil, fmt.Errorf("failed to decode MP3: no audio channels")
	}

	// minimp3 yields interleaved little-endian 16-bit PCM
	samples := make([]int, len(data)/2)
	for i := range samples {
		samples[i] = int(int16(binary.LittleEndian.Uint16(data[i*2:])))
	}

	signal := deinterleave(samples, decoder.Channels)
	metadata := &models.AudioMetadata{
		Format:       "mp3",
		SampleRate:   decoder.SampleRate,
		Channels:     decoder.Channels,
		BitDepth:     16,
		TotalSamples: signal.Len(),
	}
	metadata.Duration = duration(metadata)

	tag, err := id3v2.ParseReader(bytes.NewReader(mp3Data), id3v2.Options{Parse: true})
	if err != nil {
		log.Printf("Warning: Could not parse MP3 metadata: %v", err)
	} else {
		metadata.Title = tag.Title()
		metadata.Artist = tag.Artist()
		tag.Close()
	}

	return signal, metadata, nil
}

func DecodeFLAC(data []byte) (*models.Signal, *models.AudioMetadata, error) {
	stream, err := flac.New(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode FLAC: %v", err)
	}
	defer stream.Close()

	info := stream.Info
	channels := int(info.NChannels)
	signal := models.NewSignal(channels, 0, true)

	for {
		frame, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to decode FLAC frame: %v", err)
		}

		for ch := 0; ch < channels && ch < len(frame.Subframes); ch++ {
			for _, sample := range frame.Subframes[ch].Samples {
				signal.Channels[ch] = append(signal.Channels[ch], float64(sample))
			}
		}
	}

	metadata := &models.AudioMetadata{
		Format:       "flac",
		SampleRate:   int(info.SampleRate),
		Channels:     channels,
		BitDepth:     int(info.BitsPerSample),
		TotalSamples: signal.Len(),
	}
	metadata.Duration = duration(metadata)

	return signal, metadata, nil
}

// EncodeWAV writes signal as an integer PCM WAV. metadata.BitDepth is the
// depth the samples are scaled for; the file is written at OutputBitDepth of
// that and preferredDepth, rescaling samples as needed.
func EncodeWAV(signal *models.Signal, metadata *models.AudioMetadata, preferredDepth int) ([]byte, error) {
	// wav.NewEncoder needs a WriteSeeker
	tempFile, err := os.CreateTemp("", "stego_*.wav")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %v", err)
	}
	defer os.Remove(tempFile.Name())
	defer tempFile.Close()

	if err := writeWAV(tempFile, signal, metadata, preferredDepth); err != nil {
		return nil, err
	}

	wavData, err := os.ReadFile(tempFile.Name())
	if err != nil {
		return nil, fmt.Errorf("failed to read WAV data: %v", err)
	}
	return wavData, nil
}

// WriteWAVFile writes the WAV to path, removing the file again if encoding fails
func WriteWAVFile(path string, signal *models.Signal, metadata *models.AudioMetadata, preferredDepth int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %v", err)
	}

	if err := writeWAV(f, signal, metadata, preferredDepth); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

func writeWAV(w io.WriteSeeker, signal *models.Signal, metadata *models.AudioMetadata, preferredDepth int) error {
	channels := signal.NumChannels()
	if channels == 0 {
		return fmt.Errorf("failed to encode WAV: signal has no channels")
	}

	srcDepth := metadata.BitDepth
	outDepth := OutputBitDepth(srcDepth, preferredDepth)
	if outDepth == 0 {
		return fmt.Errorf("failed to encode WAV: unsupported bit depth %d", srcDepth)
	}

	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: channels,
			SampleRate:  metadata.SampleRate,
		},
		Data:           Quantize(signal, srcDepth, outDepth),
		SourceBitDepth: outDepth,
	}

	encoder := wav.NewEncoder(w, metadata.SampleRate, outDepth, channels, wavPCMFormat)
	if err := encoder.Write(buf); err != nil {
		return fmt.Errorf("failed to encode WAV: %v", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("failed to close WAV encoder: %v", err)
	}
	return nil
}

// OutputBitDepth picks the smallest writable depth that holds both the
// source depth and the preferred one. Zero means nothing fits.
func OutputBitDepth(srcDepth, preferredDepth int) int {
	want := max(srcDepth, preferredDepth)
	if want <= 0 {
		want = DefaultBitDepth
	}
	for _, d := range []int{16, 24, 32} {
		if d >= want {
			return d
		}
	}
	return 0
}

// Quantize interleaves signal into integer samples, scaling from srcDepth to
// outDepth. A srcDepth of 0 means the samples are already at outDepth.
func Quantize(signal *models.Signal, srcDepth, outDepth int) []int {
	lo, hi := sampleRange(outDepth)
	scale := depthScale(srcDepth, outDepth)
	channels := signal.NumChannels()
	n := signal.Len()

	out := make([]int, n*channels)
	for i := 0; i < n; i++ {
		for ch := 0; ch < channels; ch++ {
			v := math.Round(signal.Channels[ch][i] * scale)
			if v < float64(lo) {
				v = float64(lo)
			} else if v > float64(hi) {
				v = float64(hi)
			}
			out[i*channels+ch] = int(v)
		}
	}
	return out
}

// CountClipped reports how many of the first n samples of each channel fall
// outside the outDepth range after scaling
func CountClipped(signal *models.Signal, srcDepth, outDepth, n int) int {
	lo, hi := sampleRange(outDepth)
	scale := depthScale(srcDepth, outDepth)

	var clipped int
	for _, samples := range signal.Channels {
		for _, s := range samples[:min(max(n, 0), len(samples))] {
			v := math.Round(s * scale)
			if v < float64(lo) || v > float64(hi) {
				clipped++
			}
		}
	}
	return clipped
}

func depthScale(srcDepth, outDepth int) float64 {
	if srcDepth <= 0 || srcDepth == outDepth {
		return 1
	}
	return math.Ldexp(1, outDepth-srcDepth)
}

func sampleRange(bitDepth int) (int, int) {
	hi := 1<<(bitDepth-1) - 1
	return -hi - 1, hi
}

func deinterleave(data []int, channels int) *models.Signal {
	if channels < 1 {
		channels = 1
	}
	n := len(data) / channels
	signal := models.NewSignal(channels, n, true)
	for i := 0; i < n; i++ {
		for ch := 0; ch < channels; ch++ {
			signal.Channels[ch][i] = float64(data[i*channels+ch])
		}
	}
	return signal
}

func duration(metadata *models.AudioMetadata) float64 {
	if metadata.SampleRate == 0 {
		return 0
	}
	return float64(metadata.TotalSamples) / float64(metadata.SampleRate)
}
