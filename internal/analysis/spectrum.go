// SPDX-License-Identifier: MIT
package analysis

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"

	"mixdown/internal/transport"
	"mixdown/pkg/bitint"
)

// workspace holds pre-allocated buffers for FFT calculations.
type workspace struct {
	input     []float64    // ...for real input samples (windowed, mono-folded)
	fftOutput []complex128 // ...for FFT complex output
	magnitude []float64    // ...for raw magnitude output
	window    []float64    // ...for Hann window coefficients
}

// Spectrum computes an FFT over each block it sees and ships the
// magnitudes to a Transport. It satisfies the engine's Processor
// interface as a pass-through: the samples are analyzed, never mutated,
// so it can sit anywhere in a processor chain.
type Spectrum struct {
	fftSize    int
	sampleRate float64
	channels   int
	workspace  workspace
	fftObj     *fourier.FFT
	transport  transport.Transport
}

// NewSpectrum creates a spectrum analyzer for blocks of fftSize frames.
// All buffers and the Hann window are pre-allocated here; Process stays
// allocation free.
func NewSpectrum(fftSize int, sampleRate float64, channels int, t transport.Transport) *Spectrum {
	if !bitint.IsPowerOfTwo(fftSize) {
		fftSize = bitint.NextPowerOfTwo(fftSize)
	}
	fftObj := fourier.NewFFT(fftSize)

	window := make([]float64, fftSize)
	for i := range fftSize {
		window[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(fftSize-1)))
	}

	outputSize := fftSize/2 + 1

	return &Spectrum{
		fftSize:    fftSize,
		sampleRate: sampleRate,
		channels:   channels,
		fftObj:     fftObj,
		transport:  t,

		workspace: workspace{
			input:     make([]float64, fftSize),
			fftOutput: make([]complex128, outputSize),
			magnitude: make([]float64, outputSize),
			window:    window,
		},
	}
}

// Process folds the interleaved block to mono, applies the Hann window,
// runs the FFT and sends the magnitudes. The block itself is untouched.
func (s *Spectrum) Process(samples []float32, frames int) {
	for i := range s.fftSize {
		if i < frames {
			var v float64
			base := i * s.channels
			for c := 0; c < s.channels; c++ {
				v += float64(samples[base+c])
			}
			v /= float64(s.channels)
			s.workspace.input[i] = v * s.workspace.window[i]
		} else {
			s.workspace.input[i] = 0 // zero-pad short blocks
		}
	}

	_ = s.fftObj.Coefficients(s.workspace.fftOutput, s.workspace.input)
	for i := range s.workspace.fftOutput {
		s.workspace.magnitude[i] = cmplx.Abs(s.workspace.fftOutput[i])
	}

	if s.transport != nil {
		_ = s.transport.Send(s.workspace.magnitude)
	}
}

// Magnitudes returns the magnitude buffer of the most recent block.
func (s *Spectrum) Magnitudes() []float64 {
	return s.workspace.magnitude
}

// FrequencyBin returns the frequency in Hz for a given FFT bin index.
func (s *Spectrum) FrequencyBin(i int) float64 {
	if i < 0 || i >= len(s.workspace.fftOutput) {
		return 0
	}
	return s.fftObj.Freq(i) * s.sampleRate
}
