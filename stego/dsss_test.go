package stego

import (
	"dsss-steganography/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDSSS(t *testing.T, sf int) *DSSS {
	t.Helper()
	d, err := NewDSSS(&models.DSSSConfig{SpreadingFactor: sf, StrengthWeight: 500, MinStrength: 1})
	require.NoError(t, err)
	return d
}

func TestNewDSSSValidation(t *testing.T) {
	_, err := NewDSSS(&models.DSSSConfig{SpreadingFactor: 0, StrengthWeight: 500})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewDSSS(&models.DSSSConfig{SpreadingFactor: 6, StrengthWeight: 0})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewDSSS(&models.DSSSConfig{SpreadingFactor: 6, StrengthWeight: 100, MinStrength: -1})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	d, err := NewDSSS(nil)
	require.NoError(t, err)
	assert.Equal(t, 6, d.SpreadingFactor())
}

func TestEmbedExtractSilence(t *testing.T) {
	d := newTestDSSS(t, 6)

	for _, integer := range []bool{true, false} {
		carrier := models.NewSignal(1, 100000, integer)
		stego, err := d.Embed(carrier, "HI", 0)
		require.NoError(t, err)
		assert.Equal(t, carrier.Len(), stego.Len())

		text, err := d.Extract(stego, 0)
		require.NoError(t, err)
		assert.Equal(t, "HI", text)
	}
}

func TestEmbedDoesNotMutateCarrier(t *testing.T) {
	d := newTestDSSS(t, 6)
	carrier := models.NewSignal(2, 2000, true)
	carrier.Channels[0][1999] = 5000
	original := carrier.Clone()

	stego, err := d.Embed(carrier, "keep", 9)
	require.NoError(t, err)
	assert.Equal(t, original, carrier)
	assert.NotEqual(t, carrier.Channels[0], stego.Channels[0])
}

func TestEmbedStereoAddsSamePayload(t *testing.T) {
	d := newTestDSSS(t, 8)
	carrier := models.NewSignal(2, 4000, true)
	carrier.Channels[1][3999] = -2500

	stego, err := d.Embed(carrier, "stereo", 11)
	require.NoError(t, err)

	// channel 1 differs from channel 0 only by the carrier
	for i := 0; i < 3999; i++ {
		assert.Equal(t, stego.Channels[0][i], stego.Channels[1][i])
	}

	text, err := d.Extract(stego, 11)
	require.NoError(t, err)
	assert.Equal(t, "stereo", text)
}

func TestEmbedRoundTripMessages(t *testing.T) {
	d := newTestDSSS(t, 16)
	carrier := models.NewSignal(1, 50000, true)
	// a loud sample after the payload sets the strength factor to 20
	carrier.Channels[0][49999] = 10000

	messages := []string{"", "a", "Hello, World!", "ünïcødé ✓", "line one\nline two"}
	for _, msg := range messages {
		stego, err := d.Embed(carrier, msg, 1234)
		require.NoError(t, err, msg)

		text, err := d.Extract(stego, 1234)
		require.NoError(t, err, msg)
		assert.Equal(t, msg, text)
	}
}

func TestStrengthFactor(t *testing.T) {
	d := newTestDSSS(t, 6)

	carrier := &models.Signal{Channels: [][]float64{{0, 1500, -200}}, Integer: true}
	assert.Equal(t, 3.0, d.StrengthFactor(carrier))

	// 1250/500 = 2.5 rounds half to even
	carrier = &models.Signal{Channels: [][]float64{{0, -1250}}, Integer: true}
	assert.Equal(t, 2.0, d.StrengthFactor(carrier))

	carrier = &models.Signal{Channels: [][]float64{{0.5, -0.25}}, Integer: false}
	assert.InDelta(t, 0.001, d.StrengthFactor(carrier), 1e-12)

	carrier = &models.Signal{Channels: [][]float64{{0, 100}}, Integer: true}
	assert.Equal(t, 1.0, d.StrengthFactor(carrier))
}

func TestCapacityBoundary(t *testing.T) {
	d := newTestDSSS(t, 6)
	need := 8 * (len("HI") + 1) * 6

	stego, err := d.Embed(models.NewSignal(1, need, true), "HI", 0)
	require.NoError(t, err)
	text, err := d.Extract(stego, 0)
	require.NoError(t, err)
	assert.Equal(t, "HI", text)

	_, err = d.Embed(models.NewSignal(1, need-6, true), "HI", 0)
	assert.ErrorIs(t, err, ErrCapacityExceeded)
}

func TestCapacity(t *testing.T) {
	d := newTestDSSS(t, 6)
	assert.Equal(t, 2, d.Capacity(144))
	assert.Equal(t, 1, d.Capacity(143))
	assert.Equal(t, 0, d.Capacity(10))
	assert.Equal(t, 0, d.Capacity(0))
}

func TestCorrelationZeroDecodesAsZero(t *testing.T) {
	pn := GeneratePN(5, 6)
	group := make([]float64, len(pn))
	for j, c := range pn {
		if j%2 == 0 {
			group[j] = float64(c)
		} else {
			group[j] = -float64(c)
		}
	}
	require.Equal(t, 0.0, correlate(group, pn))
	assert.Equal(t, []byte{0}, demodulate(group, pn))

	positive := make([]float64, len(pn))
	for j, c := range pn {
		positive[j] = float64(c)
	}
	assert.Equal(t, []byte{1}, demodulate(positive, pn))
}

func TestDemodulateIgnoresRemainder(t *testing.T) {
	pn := GeneratePN(1, 4)
	samples := make([]float64, 10)
	assert.Len(t, demodulate(samples, pn), 2)
}

func TestExtractWrongSeed(t *testing.T) {
	d := newTestDSSS(t, 64)
	carrier := models.NewSignal(1, 20000, true)

	stego, err := d.Embed(carrier, "secret message", 1)
	require.NoError(t, err)

	// On a silent carrier a wrong key only decodes when its PN sequence
	// correlates positively with the right one, so pick one that doesn't.
	key := GeneratePN(1, 64)
	wrong := int64(2)
	for ; wrong < 1000; wrong++ {
		if pnDot(key, GeneratePN(wrong, 64)) <= 0 {
			break
		}
	}
	require.Less(t, wrong, int64(1000))

	text, err := d.Extract(stego, wrong)
	if err == nil {
		assert.NotEqual(t, "secret message", text)
	} else {
		assert.ErrorIs(t, err, ErrDecode)
	}
}

func pnDot(a, b []int8) int {
	var dot int
	for i := range a {
		dot += int(a[i]) * int(b[i])
	}
	return dot
}

func TestExtractUnrelatedSignal(t *testing.T) {
	d := newTestDSSS(t, 6)
	// every group correlates positively, so no terminator is ever found
	pn := GeneratePN(0, 6)
	signal := models.NewSignal(1, 600, false)
	for i := range signal.Channels[0] {
		signal.Channels[0][i] = float64(pn[i%6])
	}

	_, err := d.Extract(signal, 0)
	assert.ErrorIs(t, err, ErrDecode)
}

func TestExtractIsPure(t *testing.T) {
	d := newTestDSSS(t, 6)
	stego, err := d.Embed(models.NewSignal(1, 1000, true), "twice", 3)
	require.NoError(t, err)
	before := stego.Clone()

	first, err := d.Extract(stego, 3)
	require.NoError(t, err)
	second, err := d.Extract(stego, 3)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, before, stego)
}

func TestEmbedVerificationFailed(t *testing.T) {
	d := newTestDSSS(t, 6)
	pn := GeneratePN(4, 6)

	// A carrier that anti-correlates with the key and is louder than the
	// payload drives every bit to 0.
	carrier := models.NewSignal(1, 600, true)
	for i := range carrier.Channels[0] {
		carrier.Channels[0][i] = -1000 * float64(pn[i%6])
	}

	_, err := d.Embed(carrier, "HI", 4)
	assert.ErrorIs(t, err, ErrEmbedVerificationFailed)
	assert.NotErrorIs(t, err, ErrDecode)
}

func TestEmbedRejectsBadInput(t *testing.T) {
	d := newTestDSSS(t, 6)

	_, err := d.Embed(models.NewSignal(1, 1000, true), "a\x00b", 0)
	assert.ErrorIs(t, err, ErrInvalidMessage)

	_, err = d.Embed(&models.Signal{}, "a", 0)
	assert.ErrorIs(t, err, ErrInvalidSignal)

	ragged := &models.Signal{Channels: [][]float64{make([]float64, 1000), make([]float64, 999)}}
	_, err = d.Embed(ragged, "a", 0)
	assert.ErrorIs(t, err, ErrInvalidSignal)

	_, err = d.Extract(nil, 0)
	assert.ErrorIs(t, err, ErrInvalidSignal)
}

func TestHugeSpreadingFactor(t *testing.T) {
	d := newTestDSSS(t, 1<<40)
	_, err := d.Extract(models.NewSignal(1, 1000, true), 0)
	assert.ErrorIs(t, err, ErrDecode)

	d = newTestDSSS(t, 1<<61)
	_, err = d.Embed(models.NewSignal(1, 1000, true), "", 0)
	assert.ErrorIs(t, err, ErrCapacityExceeded)
}

func TestExtractSpreadingFactorEqualsLength(t *testing.T) {
	d := newTestDSSS(t, 8)
	// one symbol of silence decodes to a zero-padded terminator byte
	text, err := d.Extract(models.NewSignal(1, 8, true), 0)
	require.NoError(t, err)
	assert.Equal(t, "", text)
}

func TestPayloadLen(t *testing.T) {
	d := newTestDSSS(t, 6)
	assert.Equal(t, 144, d.PayloadLen("HI"))
}
