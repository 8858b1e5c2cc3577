// Package audio reads carriers from audio files, writes stego WAVs and
// measures how audible the embedding is
package audio

import (
	"dsss-steganography/models"
	"math"
)

// FullScale returns the peak sample value for an integer bit depth, or 1.0
// for normalized float audio (bitDepth 0)
func FullScale(bitDepth int) float64 {
	if bitDepth <= 0 {
		return 1.0
	}
	return float64(int64(1)<<(bitDepth-1) - 1)
}

// CalculatePSNR compares two signals of the same shape over every channel
func CalculatePSNR(original, stego *models.Signal, peak float64) float64 {
	if original.NumChannels() != stego.NumChannels() || original.Len() != stego.Len() {
		return 0.0
	}

	var mse float64
	var count int
	for ch := range original.Channels {
		for i, v := range original.Channels[ch] {
			diff := v - stego.Channels[ch][i]
			mse += diff * diff
			count++
		}
	}
	if count == 0 {
		return 0.0
	}
	mse /= float64(count)

	return psnr(mse, peak)
}

func psnr(mse, peak float64) float64 {
	// If MSE is 0, signals are identical
	if mse == 0 {
		return math.Inf(1)
	}

	// PSNR = 20 * log10(MAX_SIGNAL_VALUE / sqrt(MSE))
	return 20 * math.Log10(peak/math.Sqrt(mse))
}

func ValidatePSNR(psnr float64, threshold float64) bool {
	if math.IsInf(psnr, 1) {
		return true // Infinite PSNR is always good
	}
	return psnr >= threshold
}
