// SPDX-License-Identifier: MIT
package engine

import (
	"io"
	"testing"
)

// stubSource is a deterministic in-memory decode source for music tests.
type stubSource struct {
	rate     int
	channels int
	data     []float32 // interleaved
	pos      int       // in float32 values
	seekErr  error
	noLength bool
	closed   bool
}

func (s *stubSource) SampleRate() int { return s.rate }
func (s *stubSource) Channels() int   { return s.channels }

func (s *stubSource) ReadSamples(dst []float32) (int, error) {
	if s.pos >= len(s.data) {
		return 0, io.EOF
	}
	n := copy(dst, s.data[s.pos:])
	s.pos += n
	return n, nil
}

func (s *stubSource) Seek(seconds float64) error {
	if s.seekErr != nil {
		return s.seekErr
	}
	v := int(seconds*float64(s.rate)) * s.channels
	if v > len(s.data) {
		v = len(s.data)
	}
	s.pos = v
	return nil
}

func (s *stubSource) Length() float64 {
	if s.noLength {
		return -1
	}
	return float64(len(s.data)/s.channels) / float64(s.rate)
}

func (s *stubSource) Close() error {
	s.closed = true
	return nil
}

// rampSource returns a stub whose frame i carries the value i/frames on
// both channels, so positions are visible in the mixed output.
func rampSource(frames int) *stubSource {
	data := make([]float32, frames*2)
	for i := 0; i < frames; i++ {
		v := float32(i) / float32(frames)
		data[2*i] = v
		data[2*i+1] = v
	}
	return &stubSource{rate: testSampleRate, channels: 2, data: data}
}

func TestMusicPlaybackToEnd(t *testing.T) {
	const seconds = 3
	engine := newTestEngine()
	out := make([]float32, testFrames*2)

	src := &stubSource{
		rate:     testSampleRate,
		channels: 2,
		data:     constSamples(seconds*testSampleRate, 2, 0.25),
	}
	m, _ := engine.loadMusicSource(src)
	if !m.IsReady() {
		t.Fatal("music should be ready")
	}
	if got := m.TimeLength(); absFloat(got-seconds) > 1e-9 {
		t.Fatalf("TimeLength = %f, want %d", got, seconds)
	}

	m.Play()

	// Drive the producer/consumer loop to completion, bounded in case the
	// stream never stops.
	maxTicks := seconds*testSampleRate/testFrames + 16
	ticks := 0
	for m.IsPlaying() && ticks < maxTicks {
		m.Update()
		engine.mix(out)
		ticks++
	}

	if m.IsPlaying() {
		t.Fatal("music should stop itself at end of stream")
	}

	// The clock lands on the full length, give or take one buffer.
	bufSeconds := float64(testFrames) / testSampleRate
	if got := m.TimePlayed(); absFloat(got-seconds) > bufSeconds {
		t.Errorf("TimePlayed = %f, want %d +/- %f", got, seconds, bufSeconds)
	}
}

func TestMusicTimePlayedTracksTicks(t *testing.T) {
	engine := newTestEngine()
	out := make([]float32, testFrames*2)

	src := &stubSource{
		rate:     testSampleRate,
		channels: 2,
		data:     constSamples(4*testSampleRate, 2, 0.25),
	}
	m, _ := engine.loadMusicSource(src)
	m.Play()

	// Simulate one second of real time worth of ticks.
	ticksPerSecond := testSampleRate / testFrames
	for i := 0; i < ticksPerSecond; i++ {
		m.Update()
		engine.mix(out)
	}

	want := float64(ticksPerSecond*testFrames) / testSampleRate
	if got := m.TimePlayed(); absFloat(got-want) > 1e-6 {
		t.Errorf("TimePlayed = %f after %d ticks, want %f", got, ticksPerSecond, want)
	}
}

func TestMusicLooping(t *testing.T) {
	const frames = testFrames * 4
	engine := newTestEngine()
	out := make([]float32, testFrames*2)

	src := &stubSource{
		rate:     testSampleRate,
		channels: 2,
		data:     constSamples(frames, 2, 0.25),
	}
	m, _ := engine.loadMusicSource(src)
	m.SetLooping(true)
	if !m.Looping() {
		t.Fatal("Looping should report true after SetLooping(true)")
	}
	m.Play()

	length := m.TimeLength()
	bufSeconds := float64(testFrames) / testSampleRate

	// Ten times around the loop: never stops, clock wraps instead of
	// growing without bound.
	for i := 0; i < 40; i++ {
		m.Update()
		engine.mix(out)
		if !m.IsPlaying() {
			t.Fatalf("looping music stopped at tick %d", i)
		}
		if got := m.TimePlayed(); got > length+bufSeconds {
			t.Fatalf("TimePlayed = %f exceeds loop length %f", got, length)
		}
	}

	// Turning looping off lets the current pass run out.
	m.SetLooping(false)
	for i := 0; i < 16 && m.IsPlaying(); i++ {
		m.Update()
		engine.mix(out)
	}
	if m.IsPlaying() {
		t.Error("music should stop after looping is disabled")
	}
}

func TestMusicStopRewinds(t *testing.T) {
	engine := newTestEngine()
	out := make([]float32, testFrames*2)

	src := rampSource(testSampleRate)
	m, _ := engine.loadMusicSource(src)
	m.Play()

	for i := 0; i < 8; i++ {
		m.Update()
		engine.mix(out)
	}
	if m.TimePlayed() == 0 {
		t.Fatal("TimePlayed should advance during playback")
	}

	m.Stop()
	if m.IsPlaying() {
		t.Error("music should not be playing after Stop")
	}
	if got := m.TimePlayed(); got != 0 {
		t.Errorf("TimePlayed after Stop = %f, want 0", got)
	}
	if src.pos != 0 {
		t.Errorf("decoder position after Stop = %d, want 0", src.pos)
	}

	// Replay starts from the top: the first mixed frame is frame 0.
	m.Play()
	m.Update()
	engine.mix(out)
	if out[0] != 0 {
		t.Errorf("first frame after replay = %f, want 0 (ramp start)", out[0])
	}
}

func TestMusicSeek(t *testing.T) {
	const frames = testSampleRate * 2 // two seconds
	engine := newTestEngine()
	out := make([]float32, testFrames*2)

	src := rampSource(frames)
	m, _ := engine.loadMusicSource(src)
	m.Play()
	for i := 0; i < 4; i++ {
		m.Update()
		engine.mix(out)
	}

	// Seek while paused: the pending flush is consumed by Update.
	m.Pause()
	if err := m.Seek(1.0); err != nil {
		t.Fatalf("Seek failed: %v", err)
	}
	m.Update()
	m.Resume()
	engine.mix(out)

	wantFirst := float32(testSampleRate) / float32(frames) // ramp value at 1s
	if absF32(out[0]-wantFirst) > 1e-4 {
		t.Errorf("first frame after seek = %f, want %f", out[0], wantFirst)
	}

	bufSeconds := float64(testFrames) / testSampleRate
	if got := m.TimePlayed(); absFloat(got-1.0) > 2*bufSeconds {
		t.Errorf("TimePlayed after seek = %f, want about 1.0", got)
	}
}

func TestMusicSeekClamps(t *testing.T) {
	engine := newTestEngine()

	src := &stubSource{
		rate:     testSampleRate,
		channels: 2,
		data:     constSamples(testSampleRate*3, 2, 0.25), // three seconds
	}
	m, _ := engine.loadMusicSource(src)

	// Past the end clamps to the length.
	if err := m.Seek(1000); err != nil {
		t.Fatalf("Seek failed: %v", err)
	}
	if got := m.TimePlayed(); absFloat(got-3.0) > 1e-6 {
		t.Errorf("TimePlayed after over-length seek = %f, want 3.0", got)
	}

	// Negative clamps to zero.
	if err := m.Seek(-5); err != nil {
		t.Fatalf("Seek failed: %v", err)
	}
	if got := m.TimePlayed(); got != 0 {
		t.Errorf("TimePlayed after negative seek = %f, want 0", got)
	}
}

func TestMusicSeekUnknownLength(t *testing.T) {
	engine := newTestEngine()

	src := &stubSource{
		rate:     testSampleRate,
		channels: 2,
		data:     constSamples(testSampleRate, 2, 0.25),
		noLength: true,
	}
	m, _ := engine.loadMusicSource(src)

	if got := m.TimeLength(); got >= 0 {
		t.Errorf("TimeLength = %f for unknown-length source, want negative", got)
	}

	// Without a known length only the lower bound clamps.
	if err := m.Seek(0.5); err != nil {
		t.Fatalf("Seek failed: %v", err)
	}
	if got := m.TimePlayed(); absFloat(got-0.5) > 1e-6 {
		t.Errorf("TimePlayed = %f, want 0.5", got)
	}
}

func TestMusicPauseHoldsClock(t *testing.T) {
	engine := newTestEngine()
	out := make([]float32, testFrames*2)

	src := &stubSource{
		rate:     testSampleRate,
		channels: 2,
		data:     constSamples(testSampleRate, 2, 0.25),
	}
	m, _ := engine.loadMusicSource(src)
	m.Play()

	for i := 0; i < 4; i++ {
		m.Update()
		engine.mix(out)
	}

	m.Pause()
	paused := m.TimePlayed()
	for i := 0; i < 4; i++ {
		m.Update()
		engine.mix(out)
	}
	if got := m.TimePlayed(); got != paused {
		t.Errorf("TimePlayed advanced to %f while paused, want %f", got, paused)
	}

	m.Resume()
	m.Update()
	engine.mix(out)
	if got := m.TimePlayed(); got <= paused {
		t.Errorf("TimePlayed = %f after resume, want > %f", got, paused)
	}
}

func TestMusicNotReady(t *testing.T) {
	engine := newTestEngine()

	m, err := engine.LoadMusicStream("track.xyz")
	if err == nil {
		t.Fatal("expected error for unsupported extension")
	}
	if m.IsReady() {
		t.Error("failed load should produce a not-ready Music")
	}

	// The full control surface must be inert without a decoder,
	// including the controls promoted from the backing stream.
	m.Play()
	if m.IsPlaying() {
		t.Error("not-ready music must never report playing")
	}
	m.Pause()
	m.Resume()
	m.SetVolume(0.5)
	m.SetPitch(1.5)
	m.SetPan(0.2)
	m.SetLooping(true)
	m.Stop()
	m.Update()
	if err := m.Seek(1); err != nil {
		t.Errorf("Seek on not-ready music = %v, want nil", err)
	}
	if m.TimePlayed() != 0 || m.TimeLength() != 0 {
		t.Error("not-ready music should report zero times")
	}

	var nilMusic *Music
	if nilMusic.IsReady() {
		t.Error("nil Music should not be ready")
	}
}

func TestLoadMusicRejectsManyChannels(t *testing.T) {
	engine := newTestEngine()

	src := &stubSource{
		rate:     testSampleRate,
		channels: 6,
		data:     constSamples(testFrames, 6, 0.25),
	}
	m, err := engine.loadMusicSource(src)
	if err == nil {
		t.Error("expected error for a 6-channel source")
	}
	if m.IsReady() {
		t.Error("rejected source should produce a not-ready Music")
	}
	if !src.closed {
		t.Error("rejected source should be closed")
	}
	if engine.StreamCount() != 0 {
		t.Errorf("StreamCount = %d, want 0", engine.StreamCount())
	}

	// The rejected handle is inert like any other failed load.
	m.Play()
	if m.IsPlaying() {
		t.Error("rejected music must never report playing")
	}
	m.SetVolume(0.5)
	m.Stop()
}

func TestLoadMusicStreamUnsupportedFormat(t *testing.T) {
	engine := newTestEngine()

	m, err := engine.LoadMusicStream("track.xyz")
	if err == nil {
		t.Error("expected error for unsupported extension")
	}
	if m.IsReady() {
		t.Error("failed load should produce a not-ready Music")
	}

	m, err = engine.LoadMusicStreamFromMemory([]byte{1, 2, 3}, "xyz")
	if err == nil {
		t.Error("expected error for unsupported type hint")
	}
	if m.IsReady() {
		t.Error("failed load should produce a not-ready Music")
	}
}

func TestUnloadMusicStreamClosesDecoder(t *testing.T) {
	engine := newTestEngine()

	src := &stubSource{
		rate:     testSampleRate,
		channels: 2,
		data:     constSamples(testFrames, 2, 0.25),
	}
	m, _ := engine.loadMusicSource(src)
	if engine.StreamCount() != 1 {
		t.Fatalf("StreamCount = %d, want 1", engine.StreamCount())
	}

	engine.UnloadMusicStream(m)
	if engine.StreamCount() != 0 {
		t.Errorf("StreamCount = %d, want 0", engine.StreamCount())
	}
	if !src.closed {
		t.Error("unload should close the decode source")
	}

	engine.UnloadMusicStream(m) // double unload is harmless
	engine.UnloadMusicStream(nil)
}
