// Package registry implements the stream registry: the map from callsign
// to remote voice source that a radio's mixing tick reads from, plus the
// periodic maintenance sweep that prunes sources gone quiet.
//
// Each radio slot in package mixer owns one Registry. There are no
// separate headset and speaker maps: the mixer routes each radio's summed
// output to the headset or speaker buffer by that radio's OnHeadset flag.
package registry

import (
	"sync"
	"time"

	"github.com/xpilot-project/afv-native/voicesource"
)

// Registry is a callsign -> voice source map, generalizing the ring-buffer
// stale-pruning idiom of internal/jitter.Buffer across a whole map of
// streams rather than one per-sender ring.
type Registry struct {
	mu      sync.RWMutex
	streams map[string]*voicesource.Source
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{streams: make(map[string]*voicesource.Source)}
}

// RxVoicePacket appends a received compressed frame to the named
// callsign's source, creating the source if this is its first frame.
func (r *Registry) RxVoicePacket(callsign string, frame []byte) {
	r.mu.Lock()
	src, ok := r.streams[callsign]
	if !ok {
		src = voicesource.New()
		r.streams[callsign] = src
	}
	r.mu.Unlock()

	src.AppendAudioDTO(frame)
}

// Get returns the named callsign's source, if one exists.
func (r *Registry) Get(callsign string) (*voicesource.Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	src, ok := r.streams[callsign]
	return src, ok
}

// Callsigns returns a snapshot of the currently registered callsigns, in
// no particular order. Used by the mixing tick to iterate the stream map
// without holding the registry lock for the duration of the mix.
func (r *Registry) Callsigns() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.streams))
	for cs := range r.streams {
		out = append(out, cs)
	}
	return out
}

// Len returns the number of registered streams.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.streams)
}

// Prune removes streams that have been inactive for longer than timeout,
// returning the callsigns removed so the caller can emit stream-removed
// events.
func (r *Registry) Prune(timeout time.Duration) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed []string
	now := time.Now()
	for cs, src := range r.streams {
		last := src.LastActivityTime()
		if last.IsZero() || now.Sub(last) > timeout {
			if src.QueueLen() == 0 {
				delete(r.streams, cs)
				removed = append(removed, cs)
			}
		}
	}
	return removed
}

// Reset clears the entire registry (e.g. on disconnect or frequency change).
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.streams = make(map[string]*voicesource.Source)
}
