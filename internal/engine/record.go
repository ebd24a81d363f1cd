package engine

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const recordBitDepth = 16

// StartRecording begins writing the final mixed output (after master
// volume and clamping) to a 16-bit WAV file. The tap runs inside the mix
// callback, guarded by an atomic flag like the rest of the hot path.
func (e *Engine) StartRecording(filename string) error {
	if e.recording.Load() == 1 {
		return fmt.Errorf("already recording")
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	e.recFile = file

	e.recEncoder = wav.NewEncoder(file, int(e.sampleRate),
		recordBitDepth, e.channels, 1)

	e.recBuf = &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: e.channels,
			SampleRate:  int(e.sampleRate),
		},
		SourceBitDepth: recordBitDepth,
		Data:           make([]int, e.frames*e.channels),
	}

	e.recording.Store(1)
	return nil
}

// StopRecording finalizes the WAV header and closes the file. Safe to
// call when not recording.
func (e *Engine) StopRecording() error {
	if e.recording.Swap(0) == 0 {
		return nil
	}

	// Let an in-flight tick finish its tap before tearing down.
	e.waitMixIdle()

	if e.recEncoder != nil {
		if err := e.recEncoder.Close(); err != nil {
			return err
		}
		e.recEncoder = nil
	}
	if e.recFile != nil {
		if err := e.recFile.Close(); err != nil {
			return err
		}
		e.recFile = nil
	}
	return nil
}

// record taps the mixed block into the WAV encoder. Called from the mix
// callback; the samples are already clamped to [-1,1].
func (e *Engine) record(out []float32, frames int) {
	if e.recording.Load() != 1 || e.recEncoder == nil {
		return
	}

	n := frames * e.channels
	e.recBuf.Data = e.recBuf.Data[:n]
	for i := 0; i < n; i++ {
		e.recBuf.Data[i] = int(out[i] * 32767)
	}

	if err := e.recEncoder.Write(e.recBuf); err != nil {
		// Drop the tap on write failure; playback is unaffected.
		e.recording.Store(0)
	}
}
