package engine

import (
	"context"
	"errors"
	"io"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/sirupsen/logrus"
)

const (
	eventBufferSize = 16
	// Slots kept free for ready, end-of-stream and fault.
	reservedEvents = 3

	decodeChunk   = 4096
	levelInterval = 200 * time.Millisecond
)

var (
	speakerMu   sync.Mutex
	speakerRate beep.SampleRate
)

// initSpeaker opens the audio device once, at the first stream's rate.
// Later streams are resampled to it.
func initSpeaker(sr beep.SampleRate) (beep.SampleRate, error) {
	speakerMu.Lock()
	defer speakerMu.Unlock()
	if speakerRate != 0 {
		return speakerRate, nil
	}
	if err := speaker.Init(sr, sr.N(time.Second/10)); err != nil {
		return 0, err
	}
	speakerRate = sr
	return sr, nil
}

// StreamConfig configures a StreamPipeline.
type StreamConfig struct {
	// Client fetches the stream. When nil, one is built that gives up on a
	// server that sends no response headers within ResponseTimeout.
	Client          *http.Client
	ResponseTimeout time.Duration
	Prebuffer time.Duration // queued audio reported as 100%
	Ahead     time.Duration // decode-ahead capacity
	Volume    float64       // 0.0 to 1.0
	Log       logrus.FieldLogger
}

// StreamPipeline streams audio over HTTP into the beep speaker.
//
// Load starts a goroutine that opens the stream and decodes ahead into a PCM
// queue. A monitor goroutine reports the queue level. Lock order: never take
// the speaker lock while holding p.mu.
type StreamPipeline struct {
	cfg    StreamConfig
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu           sync.Mutex
	events       chan Event
	closed       bool
	terminalSent bool
	decoder      beep.StreamSeekCloser
	format       beep.Format
	queue        *pcmQueue
	ctrl         *beep.Ctrl
	volume       *effects.Volume
	duration     time.Duration

	seekMu      sync.Mutex
	seekTarget  int
	seekPending bool
	seekWake    chan struct{}
}

// NewStreamPipeline creates an unloaded pipeline.
func NewStreamPipeline(cfg StreamConfig) *StreamPipeline {
	if cfg.Client == nil {
		cfg.Client = newStreamClient(cfg.ResponseTimeout)
	}
	if cfg.Prebuffer <= 0 {
		cfg.Prebuffer = 2 * time.Second
	}
	if cfg.Ahead < cfg.Prebuffer {
		cfg.Ahead = 5 * cfg.Prebuffer
	}
	if cfg.Log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		cfg.Log = l
	}
	return &StreamPipeline{
		cfg:      cfg,
		events:   make(chan Event, eventBufferSize),
		seekWake: make(chan struct{}, 1),
	}
}

// StreamFactory returns a PipelineFactory building StreamPipelines from cfg.
// The pipelines share one HTTP client.
func StreamFactory(cfg StreamConfig) PipelineFactory {
	if cfg.Client == nil {
		cfg.Client = newStreamClient(cfg.ResponseTimeout)
	}
	return func() Pipeline { return NewStreamPipeline(cfg) }
}

// newStreamClient bounds the wait for response headers only. A whole-request
// timeout would cut off a book that is still downloading.
func newStreamClient(headerTimeout time.Duration) *http.Client {
	if headerTimeout <= 0 {
		headerTimeout = 30 * time.Second
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = headerTimeout
	return &http.Client{Transport: transport}
}

func (p *StreamPipeline) Load(src Source) error {
	c, err := detectCodec(src)
	if err != nil {
		return err
	}

	p.ctx, p.cancel = context.WithCancel(context.Background())
	p.wg.Add(1)
	go p.run(src, c)
	return nil
}

func (p *StreamPipeline) run(src Source, c codec) {
	defer p.wg.Done()
	log := p.cfg.Log.WithField("codec", c)

	source, err := openHTTPSource(p.ctx, p.cfg.Client, src.URL)
	if err != nil {
		p.fault(err)
		return
	}

	dec, format, err := openDecoder(c, source)
	if err != nil {
		source.Close()
		p.fault(err)
		return
	}

	rate, err := initSpeaker(format.SampleRate)
	if err != nil {
		dec.Close()
		p.fault(err)
		return
	}

	queue := newPCMQueue(format.SampleRate.N(p.cfg.Ahead))
	var out beep.Streamer = queue
	if format.SampleRate != rate {
		out = beep.Resample(4, format.SampleRate, rate, queue)
	}
	ctrl := &beep.Ctrl{Streamer: out, Paused: true}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		dec.Close()
		return
	}
	volume := &effects.Volume{Streamer: ctrl, Base: 2, Volume: levelToVolume(p.cfg.Volume)}
	p.decoder = dec
	p.format = format
	p.queue = queue
	p.ctrl = ctrl
	p.volume = volume
	p.duration = format.SampleRate.D(dec.Len())
	p.mu.Unlock()

	log.WithFields(logrus.Fields{
		"rate":     format.SampleRate,
		"duration": p.duration,
		"bytes":    source.Size(),
	}).Debug("stream opened")

	speaker.Play(beep.Seq(volume, beep.Callback(func() {
		p.emit(Event{Kind: EventEndOfStream}, true)
	})))
	p.emit(Event{Kind: EventReady}, false)

	p.wg.Add(1)
	go p.monitor(queue, format.SampleRate.N(p.cfg.Prebuffer))

	p.decodeLoop(dec, queue, log)
}

// decodeLoop keeps the queue filled and services seek requests.
func (p *StreamPipeline) decodeLoop(dec beep.StreamSeekCloser, queue *pcmQueue, log logrus.FieldLogger) {
	buf := make([][2]float64, decodeChunk)
	for {
		if target, ok := p.takeSeek(); ok {
			if err := dec.Seek(target); err != nil {
				log.WithError(err).Warn("decoder seek failed")
			}
			queue.reset(dec.Position())
		}

		if queue.finished() {
			select {
			case <-p.ctx.Done():
				return
			case <-p.seekWake:
				continue
			}
		}

		n, ok := dec.Stream(buf)
		if !ok {
			if err := dec.Err(); err != nil {
				if p.ctx.Err() == nil {
					p.fault(err)
				}
				return
			}
			queue.finish()
			continue
		}

		if !p.pushAll(queue, buf[:n]) {
			return
		}
	}
}

// pushAll waits for room in the queue. It returns false when the pipeline
// closes. Frames are dropped when a seek makes them stale.
func (p *StreamPipeline) pushAll(queue *pcmQueue, frames [][2]float64) bool {
	for {
		frames = frames[queue.push(frames):]
		if len(frames) == 0 {
			return true
		}
		select {
		case <-p.ctx.Done():
			return false
		case <-queue.space:
		case <-p.seekWake:
			if p.hasSeek() {
				return true
			}
		}
	}
}

func (p *StreamPipeline) monitor(queue *pcmQueue, prebuffer int) {
	defer p.wg.Done()
	ticker := time.NewTicker(levelInterval)
	defer ticker.Stop()

	last := -1
	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			lvl := queue.level(prebuffer)
			if lvl != last && p.emit(Event{Kind: EventBufferLevel, Percent: lvl}, false) {
				last = lvl
			}
		}
	}
}

func (p *StreamPipeline) fault(err error) {
	if p.ctx.Err() != nil {
		return
	}
	p.emit(Event{Kind: EventFault, Err: err}, true)
}

// emit sends without blocking. Buffer levels never take the reserved slots,
// and only the first terminal event is delivered.
func (p *StreamPipeline) emit(ev Event, terminal bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	if terminal {
		if p.terminalSent {
			return false
		}
		p.terminalSent = true
	}
	if ev.Kind == EventBufferLevel && len(p.events) >= cap(p.events)-reservedEvents {
		return false
	}
	select {
	case p.events <- ev:
		return true
	default:
		return false
	}
}

func (p *StreamPipeline) takeSeek() (int, bool) {
	p.seekMu.Lock()
	defer p.seekMu.Unlock()
	if !p.seekPending {
		return 0, false
	}
	p.seekPending = false
	return p.seekTarget, true
}

func (p *StreamPipeline) hasSeek() bool {
	p.seekMu.Lock()
	defer p.seekMu.Unlock()
	return p.seekPending
}

func (p *StreamPipeline) Play() {
	p.setPaused(false)
}

func (p *StreamPipeline) Pause() {
	p.setPaused(true)
}

func (p *StreamPipeline) setPaused(paused bool) {
	p.mu.Lock()
	ctrl := p.ctrl
	p.mu.Unlock()
	if ctrl == nil {
		return
	}
	speaker.Lock()
	ctrl.Paused = paused
	speaker.Unlock()
}

// Seek requests a jump. The newest request wins; older pending ones are dropped.
func (p *StreamPipeline) Seek(pos time.Duration) error {
	p.mu.Lock()
	queue, format := p.queue, p.format
	p.mu.Unlock()
	if queue == nil {
		return ErrNotReady
	}

	p.seekMu.Lock()
	p.seekTarget = format.SampleRate.N(pos)
	p.seekPending = true
	p.seekMu.Unlock()

	select {
	case p.seekWake <- struct{}{}:
	default:
	}
	return nil
}

func (p *StreamPipeline) Position() (time.Duration, error) {
	p.mu.Lock()
	queue, format := p.queue, p.format
	p.mu.Unlock()
	if queue == nil {
		return 0, ErrNotReady
	}

	p.seekMu.Lock()
	target, pending := p.seekTarget, p.seekPending
	p.seekMu.Unlock()
	if pending {
		return format.SampleRate.D(target), nil
	}
	return format.SampleRate.D(queue.position()), nil
}

func (p *StreamPipeline) Duration() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duration
}

// SetVolume sets the output level (0.0 to 1.0).
func (p *StreamPipeline) SetVolume(level float64) {
	p.mu.Lock()
	p.cfg.Volume = level
	volume := p.volume
	p.mu.Unlock()
	if volume == nil {
		return
	}
	speaker.Lock()
	volume.Volume = levelToVolume(level)
	speaker.Unlock()
}

func (p *StreamPipeline) Events() <-chan Event { return p.events }

// Close stops the goroutines, detaches from the speaker and closes Events.
func (p *StreamPipeline) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	ctrl, dec := p.ctrl, p.decoder
	p.mu.Unlock()

	if p.cancel != nil {
		p.cancel()
	}
	if ctrl != nil {
		// A nil streamer ends the sequence; the mixer drops it.
		speaker.Lock()
		ctrl.Streamer = nil
		speaker.Unlock()
	}
	p.wg.Wait()

	var err error
	if dec != nil {
		err = dec.Close()
	}

	p.mu.Lock()
	close(p.events)
	p.mu.Unlock()

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// levelToVolume maps a 0.0-1.0 level onto beep's base-2 volume scale:
// 1.0 -> 0, 0.5 -> -1, 0.25 -> -2, 0 -> -10 (effectively silent).
func levelToVolume(level float64) float64 {
	if level <= 0 {
		return -10
	}
	if level >= 1 {
		return 0
	}
	return math.Log2(level)
}

// Verify StreamPipeline implements Pipeline at compile time.
var _ Pipeline = (*StreamPipeline)(nil)
