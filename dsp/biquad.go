package dsp

// sectionState holds the two-sample delay line for one cascaded biquad
// section (Direct Form I).
type sectionState struct {
	x1, x2 float64
	y1, y2 float64
}

// step pushes one input sample through a single biquad section and returns
// the filtered output, updating the section's delay line in place.
//
// One of the seven fixed sections in the design's coefficient table
// (VHFFilterSections[1]) carries A0 == 0 literally. A literal division by
// A0 there would produce +/-Inf on every sample, which cannot be what the
// cascade intends (and does not match "a0=1, normalized" in the design
// notes for the other sections). Resolved here, per Open Question
// handling: an A0 of exactly zero is treated as already-normalized (1),
// leaving the section's feed-forward/feedback coefficients to act
// directly. Every other section's A0 is used as given.
func (s Section) step(st *sectionState, x float64) float64 {
	a0 := s.A0
	if a0 == 0 {
		a0 = 1
	}
	y := (s.B0*x+s.B1*st.x1+s.B2*st.x2-s.A1*st.y1-s.A2*st.y2) / a0
	st.x2, st.x1 = st.x1, x
	st.y2, st.y1 = st.y1, y
	return y
}

// VHFFilter is the seven-section biquad cascade that band-limits a voice
// signal to telephone bandwidth before the compressor is applied. Each
// radio channel owns its own VHFFilter instance so the delay lines of
// concurrent radios never interfere.
type VHFFilter struct {
	sections []Section
	state    []sectionState
}

// NewVHFFilter returns a VHFFilter using the fixed design coefficients.
func NewVHFFilter() *VHFFilter {
	return &VHFFilter{
		sections: VHFFilterSections,
		state:    make([]sectionState, len(VHFFilterSections)),
	}
}

// Process filters buf in place, one frame at a time, running every sample
// through the full cascade before moving to the next sample.
func (f *VHFFilter) Process(buf []float32) {
	for i, x := range buf {
		v := float64(x)
		for s := range f.sections {
			v = f.sections[s].step(&f.state[s], v)
		}
		buf[i] = float32(v)
	}
}

// Reset clears the filter's delay lines, e.g. when a radio changes
// frequency and the effect chain is torn down and rebuilt.
func (f *VHFFilter) Reset() {
	for i := range f.state {
		f.state[i] = sectionState{}
	}
}
