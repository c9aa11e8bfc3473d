// Package devaudio is a reference audio-device adapter: it opens a
// PortAudio capture and playback stream pair and drives them from the
// mixing core's Tick via capture/playback goroutines reading and writing
// hardware-callback buffers.
//
// Nothing in the mixing core imports this package; it shows how a real
// desktop client would wire a live sound card into mixer.Mixer and
// inputpath.Path.
package devaudio

import (
	"fmt"
	"log"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// Device owns one open capture stream and one open playback stream at a
// fixed sample rate and frame size.
type Device struct {
	sampleRate float64
	frameSize  int

	captureBuf  []float32
	playbackBuf []float32

	captureStream  *portaudio.Stream
	playbackStream *portaudio.Stream

	mu      sync.Mutex
	stopCh  chan struct{}
	wg      sync.WaitGroup
	running bool
}

// New returns a Device configured for the given sample rate and frame
// size. It does not open any stream until Start is called.
func New(sampleRate float64, frameSize int) *Device {
	return &Device{
		sampleRate:  sampleRate,
		frameSize:   frameSize,
		captureBuf:  make([]float32, frameSize),
		playbackBuf: make([]float32, frameSize),
	}
}

// Init must be called once before any other function in this package,
// and Terminate once the caller is done with all audio devices.
func Init() error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("devaudio: initialize: %w", err)
	}
	return nil
}

// Terminate releases PortAudio's global state.
func Terminate() error {
	return portaudio.Terminate()
}

// Devices lists the available input and output device names, for UI
// device pickers.
func Devices() (inputs, outputs []string, err error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, nil, fmt.Errorf("devaudio: enumerate devices: %w", err)
	}
	for _, d := range devices {
		if d.MaxInputChannels > 0 {
			inputs = append(inputs, d.Name)
		}
		if d.MaxOutputChannels > 0 {
			outputs = append(outputs, d.Name)
		}
	}
	return inputs, outputs, nil
}

// Start opens the default input and output devices and begins pumping
// frames: onCapture is called once per frame with freshly captured
// samples, onPlayback is called once per frame to fill the next block
// handed to the sound card.
func (d *Device) Start(onCapture func([]float32), onPlayback func([]float32)) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return nil
	}

	inputDev, err := portaudio.DefaultInputDevice()
	if err != nil {
		return fmt.Errorf("devaudio: default input: %w", err)
	}
	outputDev, err := portaudio.DefaultOutputDevice()
	if err != nil {
		return fmt.Errorf("devaudio: default output: %w", err)
	}

	captureParams := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   inputDev,
			Channels: 1,
			Latency:  inputDev.DefaultLowInputLatency,
		},
		SampleRate:      d.sampleRate,
		FramesPerBuffer: d.frameSize,
	}
	captureStream, err := portaudio.OpenStream(captureParams, d.captureBuf)
	if err != nil {
		return fmt.Errorf("devaudio: open capture stream: %w", err)
	}

	playbackParams := portaudio.StreamParameters{
		Output: portaudio.StreamDeviceParameters{
			Device:   outputDev,
			Channels: 1,
			Latency:  outputDev.DefaultLowOutputLatency,
		},
		SampleRate:      d.sampleRate,
		FramesPerBuffer: d.frameSize,
	}
	playbackStream, err := portaudio.OpenStream(playbackParams, d.playbackBuf)
	if err != nil {
		captureStream.Close()
		return fmt.Errorf("devaudio: open playback stream: %w", err)
	}

	if err := captureStream.Start(); err != nil {
		captureStream.Close()
		playbackStream.Close()
		return fmt.Errorf("devaudio: start capture: %w", err)
	}
	if err := playbackStream.Start(); err != nil {
		captureStream.Stop()
		captureStream.Close()
		playbackStream.Close()
		return fmt.Errorf("devaudio: start playback: %w", err)
	}

	d.captureStream = captureStream
	d.playbackStream = playbackStream
	d.stopCh = make(chan struct{})
	d.running = true

	d.wg.Add(2)
	go d.captureLoop(onCapture)
	go d.playbackLoop(onPlayback)

	log.Printf("[devaudio] started capture=%s playback=%s", inputDev.Name, outputDev.Name)
	return nil
}

func (d *Device) captureLoop(onCapture func([]float32)) {
	defer d.wg.Done()
	for {
		select {
		case <-d.stopCh:
			return
		default:
		}
		if err := d.captureStream.Read(); err != nil {
			return
		}
		onCapture(d.captureBuf)
	}
}

func (d *Device) playbackLoop(onPlayback func([]float32)) {
	defer d.wg.Done()
	for {
		select {
		case <-d.stopCh:
			return
		default:
		}
		onPlayback(d.playbackBuf)
		if err := d.playbackStream.Write(); err != nil {
			return
		}
	}
}

// Stop closes both streams and waits for their loops to exit.
func (d *Device) Stop() error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return nil
	}
	close(d.stopCh)
	d.running = false
	captureStream := d.captureStream
	playbackStream := d.playbackStream
	d.mu.Unlock()

	d.wg.Wait()

	var firstErr error
	if err := captureStream.Stop(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := captureStream.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := playbackStream.Stop(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := playbackStream.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
