// Package denoise applies RNNoise-based ML noise suppression to captured
// audio frames, as an optional stage in the input path's preprocessor
// chain, between the noise gate and AGC.
package denoise

/*
#cgo pkg-config: rnnoise
#include <rnnoise.h>
#include <stdlib.h>
*/
import "C"
import (
	"sync"
	"unsafe"
)

// nativeFrameSize is RNNoise's native frame size; a 20 ms 48 kHz frame
// (960 samples) is processed as two consecutive halves.
const nativeFrameSize = 480

// Suppressor runs RNNoise over 960-sample frames by splitting each frame
// into two 480-sample halves, each with its own persistent denoiser
// state so the filter's internal history isn't disturbed by the split.
type Suppressor struct {
	mu      sync.Mutex
	st0     *C.DenoiseState
	st1     *C.DenoiseState
	level   float32
	enabled bool

	cIn  *C.float
	cOut *C.float
}

// New allocates two RNNoise state instances and the C scratch buffers
// they share, with suppression enabled at full strength.
func New() *Suppressor {
	cIn := (*C.float)(C.malloc(C.size_t(nativeFrameSize) * C.size_t(unsafe.Sizeof(C.float(0)))))
	cOut := (*C.float)(C.malloc(C.size_t(nativeFrameSize) * C.size_t(unsafe.Sizeof(C.float(0)))))
	return &Suppressor{
		st0:     C.rnnoise_create(nil),
		st1:     C.rnnoise_create(nil),
		level:   1.0,
		enabled: true,
		cIn:     cIn,
		cOut:    cOut,
	}
}

// SetEnabled turns suppression on or off.
func (s *Suppressor) SetEnabled(on bool) {
	s.mu.Lock()
	s.enabled = on
	s.mu.Unlock()
}

// Enabled reports the current enabled state.
func (s *Suppressor) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// SetLevel sets the suppression blend level, clamped to [0, 1]: 0 bypasses
// the filter entirely, 1 applies it at full strength.
func (s *Suppressor) SetLevel(level float32) {
	if level < 0 {
		level = 0
	}
	if level > 1 {
		level = 1
	}
	s.mu.Lock()
	s.level = level
	s.mu.Unlock()
}

// Process applies noise suppression in place to buf, which must be
// exactly 960 samples (two RNNoise native frames). No-op when disabled or
// the level is 0.
func (s *Suppressor) Process(buf []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enabled || s.level == 0 {
		return
	}

	inSlice := unsafe.Slice(s.cIn, nativeFrameSize)
	outSlice := unsafe.Slice(s.cOut, nativeFrameSize)
	level := s.level

	s.processHalf(s.st0, buf[0:nativeFrameSize], inSlice, outSlice, level)
	s.processHalf(s.st1, buf[nativeFrameSize:2*nativeFrameSize], inSlice, outSlice, level)
}

// processHalf runs one RNNoise frame over half, blending the denoised
// result back in at level. Must be called with s.mu held.
func (s *Suppressor) processHalf(st *C.DenoiseState, half []float32, inSlice, outSlice []C.float, level float32) {
	// RNNoise expects samples scaled to int16 range.
	for i := 0; i < nativeFrameSize; i++ {
		inSlice[i] = C.float(half[i] * 32767.0)
	}
	C.rnnoise_process_frame(st, s.cOut, s.cIn)
	for i := 0; i < nativeFrameSize; i++ {
		denoised := float32(outSlice[i]) / 32767.0
		half[i] = half[i]*(1-level) + denoised*level
	}
}

// Close frees the underlying C RNNoise state and scratch buffers. The
// Suppressor must not be used after Close.
func (s *Suppressor) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.st0 != nil {
		C.rnnoise_destroy(s.st0)
		s.st0 = nil
	}
	if s.st1 != nil {
		C.rnnoise_destroy(s.st1)
		s.st1 = nil
	}
	if s.cIn != nil {
		C.free(unsafe.Pointer(s.cIn))
		s.cIn = nil
	}
	if s.cOut != nil {
		C.free(unsafe.Pointer(s.cOut))
		s.cOut = nil
	}
}
