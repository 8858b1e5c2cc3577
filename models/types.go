// Package models contain needed models
package models

// EmbedResponse represents the response after a failed embed. A successful
// embed streams the stego WAV directly.
type EmbedResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}

// ExtractResponse represents the response after extracting a hidden message
type ExtractResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	SecretMessage string `json:"secret_message,omitempty"`
	ID            string `json:"id,omitempty"`
}

// CapacityResponse reports how much text a carrier can hold
type CapacityResponse struct {
	Success         bool    `json:"success"`
	Message         string  `json:"message"`
	SpreadingFactor int     `json:"spreading_factor,omitempty"`
	Samples         int     `json:"samples,omitempty"`
	MaxMessageBytes int     `json:"max_message_bytes"`
	Duration        float64 `json:"duration,omitempty"`
}

// AudioMetadata represents metadata about an audio file
type AudioMetadata struct {
	Format       string
	SampleRate   int
	Channels     int
	BitDepth     int
	Duration     float64
	TotalSamples int
	Title        string
	Artist       string
}

// DSSSConfig holds the protocol parameters both embedder and extractor must
// agree on out of band. The seed is passed per call.
type DSSSConfig struct {
	// SpreadingFactor is the number of carrier samples (chips) per message bit.
	// Larger values trade capacity for robustness.
	SpreadingFactor int
	// StrengthWeight divides the carrier's peak amplitude to give the
	// payload amplitude.
	StrengthWeight float64
	// MinStrength replaces a strength factor of zero, which happens on
	// silent carriers or when rounding a quiet integer carrier.
	MinStrength float64
}

func DefaultDSSSConfig() *DSSSConfig {
	return &DSSSConfig{
		SpreadingFactor: 6,
		StrengthWeight:  500,
		MinStrength:     1,
	}
}

// Signal is a multi-channel sample buffer. Channels must all have the same
// length. Integer marks samples that came from an integer-quantized source.
type Signal struct {
	Channels [][]float64
	Integer  bool
}

func NewSignal(channels, samples int, integer bool) *Signal {
	s := &Signal{
		Channels: make([][]float64, channels),
		Integer:  integer,
	}
	for ch := range s.Channels {
		s.Channels[ch] = make([]float64, samples)
	}
	return s
}

// Len returns the number of samples per channel
func (s *Signal) Len() int {
	if s == nil || len(s.Channels) == 0 {
		return 0
	}
	return len(s.Channels[0])
}

func (s *Signal) NumChannels() int {
	if s == nil {
		return 0
	}
	return len(s.Channels)
}

// Clone returns a deep copy
func (s *Signal) Clone() *Signal {
	out := &Signal{
		Channels: make([][]float64, len(s.Channels)),
		Integer:  s.Integer,
	}
	for ch, samples := range s.Channels {
		out.Channels[ch] = append([]float64(nil), samples...)
	}
	return out
}
