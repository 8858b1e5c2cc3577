// Package stego hides text in audio with direct-sequence spread spectrum
package stego

import (
	"bytes"
	"dsss-steganography/models"
	"fmt"
	"math"
)

// DSSS embeds and extracts messages. It only holds immutable configuration
// and is safe for concurrent use.
type DSSS struct {
	config models.DSSSConfig
}

func NewDSSS(config *models.DSSSConfig) (*DSSS, error) {
	if config == nil {
		config = models.DefaultDSSSConfig()
	}
	if config.SpreadingFactor < 1 {
		return nil, fmt.Errorf("%w: spreading factor must be at least 1, got %d", ErrInvalidConfig, config.SpreadingFactor)
	}
	if config.StrengthWeight <= 0 || math.IsNaN(config.StrengthWeight) || math.IsInf(config.StrengthWeight, 0) {
		return nil, fmt.Errorf("%w: strength weight must be positive, got %v", ErrInvalidConfig, config.StrengthWeight)
	}
	if config.MinStrength < 0 || math.IsNaN(config.MinStrength) {
		return nil, fmt.Errorf("%w: min strength cannot be negative, got %v", ErrInvalidConfig, config.MinStrength)
	}

	return &DSSS{config: *config}, nil
}

func (d *DSSS) SpreadingFactor() int {
	return d.config.SpreadingFactor
}

// Capacity returns the longest message, in bytes, that fits a carrier with
// the given number of samples per channel.
func (d *DSSS) Capacity(samples int) int {
	symbols := samples / d.config.SpreadingFactor
	maxBytes := symbols/8 - 1
	if maxBytes < 0 {
		return 0
	}
	return maxBytes
}

// PayloadLen returns how many samples at the start of the carrier the
// modulated message occupies
func (d *DSSS) PayloadLen(message string) int {
	return 8 * (len(message) + 1) * d.config.SpreadingFactor
}

// StrengthFactor scales the payload relative to the carrier's peak
// amplitude. It must be computed on the unmodified carrier.
func (d *DSSS) StrengthFactor(carrier *models.Signal) float64 {
	var peak float64
	for _, samples := range carrier.Channels {
		for _, v := range samples {
			if a := math.Abs(v); a > peak {
				peak = a
			}
		}
	}

	strength := peak / d.config.StrengthWeight
	if carrier.Integer {
		strength = math.RoundToEven(strength)
	}
	if strength == 0 {
		strength = d.config.MinStrength
	}
	return strength
}

// Embed spreads message over the carrier and returns a new stego signal.
// The carrier is not modified. The result is verified by extracting the
// message again before it is returned.
func (d *DSSS) Embed(carrier *models.Signal, message string, seed int64) (*models.Signal, error) {
	if err := validateSignal(carrier); err != nil {
		return nil, err
	}
	if i := bytes.IndexByte([]byte(message), terminator); i >= 0 {
		return nil, fmt.Errorf("%w: NUL byte at offset %d", ErrInvalidMessage, i)
	}

	symbols := EncodeMessage(message)
	sf := d.config.SpreadingFactor
	nsamples := carrier.Len()
	// written as a division so a huge spreading factor cannot overflow
	if len(symbols) > nsamples/sf {
		return nil, fmt.Errorf("%w: need %d symbols of %d samples, have %d samples",
			ErrCapacityExceeded, len(symbols), sf, nsamples)
	}

	pn := GeneratePN(seed, sf)
	strength := d.StrengthFactor(carrier)

	payload := modulate(symbols, pn, strength, nsamples)

	stego := &models.Signal{
		Channels: make([][]float64, len(carrier.Channels)),
		Integer:  carrier.Integer,
	}
	for ch, samples := range carrier.Channels {
		out := make([]float64, nsamples)
		for i, v := range samples {
			out[i] = v + payload[i]
		}
		stego.Channels[ch] = out
	}

	if err := d.verify(stego, message, seed); err != nil {
		return nil, err
	}
	return stego, nil
}

// Extract recovers a message from channel 0 of signal. Every channel carries
// the same payload, so one is enough.
func (d *DSSS) Extract(signal *models.Signal, seed int64) (string, error) {
	if err := validateSignal(signal); err != nil {
		return "", err
	}

	// not even one symbol fits, so don't allocate the PN sequence
	if d.config.SpreadingFactor > signal.Len() {
		return "", fmt.Errorf("%w: spreading factor %d exceeds %d samples", ErrDecode, d.config.SpreadingFactor, signal.Len())
	}

	pn := GeneratePN(seed, d.config.SpreadingFactor)
	return DecodeBits(demodulate(signal.Channels[0], pn))
}

func (d *DSSS) verify(stego *models.Signal, message string, seed int64) error {
	extracted, err := d.Extract(stego, seed)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEmbedVerificationFailed, err)
	}
	if extracted != message {
		return fmt.Errorf("%w: extracted %q", ErrEmbedVerificationFailed, extracted)
	}
	return nil
}

// modulate builds the flattened outer product of symbols and pn, scaled by
// strength and zero padded to n samples.
func modulate(symbols []int8, pn []int8, strength float64, n int) []float64 {
	payload := make([]float64, n)
	sf := len(pn)
	for i, s := range symbols {
		for j, c := range pn {
			payload[i*sf+j] = float64(s) * float64(c) * strength
		}
	}
	return payload
}

// demodulate correlates each full group of len(pn) samples with pn. Leftover
// samples are ignored. A correlation of exactly zero gives bit 0.
func demodulate(samples []float64, pn []int8) []byte {
	sf := len(pn)
	if sf == 0 {
		return nil
	}

	nsymbols := len(samples) / sf
	bits := make([]byte, nsymbols)
	for i := 0; i < nsymbols; i++ {
		if correlate(samples[i*sf:(i+1)*sf], pn) > 0 {
			bits[i] = 1
		}
	}
	return bits
}

func correlate(group []float64, pn []int8) float64 {
	var z float64
	for j, c := range pn {
		z += group[j] * float64(c)
	}
	return z
}

func validateSignal(s *models.Signal) error {
	if s == nil || len(s.Channels) == 0 {
		return fmt.Errorf("%w: no channels", ErrInvalidSignal)
	}
	n := len(s.Channels[0])
	for ch, samples := range s.Channels {
		if len(samples) != n {
			return fmt.Errorf("%w: channel %d has %d samples, channel 0 has %d", ErrInvalidSignal, ch, len(samples), n)
		}
	}
	return nil
}
