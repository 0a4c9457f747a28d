package tone

import (
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

const (
	sampleRate = beep.SampleRate(48000)
	fadeLength = 10 * time.Millisecond
	volume     = 0.25
)

// Speaker 倒计时提示音输出；Init 失败时 Tone 静默
type Speaker struct {
	mu          sync.Mutex
	mixer       *beep.Mixer
	initialized bool
}

func NewSpeaker() *Speaker {
	return &Speaker{mixer: &beep.Mixer{}}
}

// Init 打开音频设备
func (s *Speaker) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		return nil
	}
	if err := speaker.Init(sampleRate, sampleRate.N(50*time.Millisecond)); err != nil {
		return err
	}
	speaker.Play(s.mixer)
	s.initialized = true
	return nil
}

// Tone 播放一段正弦提示音，不阻塞
func (s *Speaker) Tone(freq float64, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return
	}
	speaker.Lock()
	s.mixer.Add(NewBeep(freq, d, sampleRate))
	speaker.Unlock()
}

// Close 停止全部声音
func (s *Speaker) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return
	}
	speaker.Lock()
	s.mixer.Clear()
	speaker.Unlock()
	speaker.Close()
	s.initialized = false
}

// beepStreamer 带淡入淡出的正弦波，避免爆音
type beepStreamer struct {
	freq  float64
	rate  beep.SampleRate
	total int
	fade  int
	pos   int
}

func NewBeep(freq float64, d time.Duration, rate beep.SampleRate) beep.Streamer {
	total := rate.N(d)
	return &beepStreamer{
		freq:  freq,
		rate:  rate,
		total: total,
		fade:  min(rate.N(fadeLength), total/2),
	}
}

func (b *beepStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if b.pos >= b.total {
			return i, i > 0
		}
		t := float64(b.pos) / float64(b.rate)
		v := math.Sin(2*math.Pi*b.freq*t) * volume * b.envelope()
		samples[i][0] = v
		samples[i][1] = v
		b.pos++
	}
	return len(samples), true
}

func (b *beepStreamer) envelope() float64 {
	if b.fade <= 0 {
		return 1
	}
	switch {
	case b.pos < b.fade:
		return float64(b.pos) / float64(b.fade)
	case b.pos >= b.total-b.fade:
		return float64(b.total-b.pos) / float64(b.fade)
	}
	return 1
}

func (b *beepStreamer) Err() error { return nil }
