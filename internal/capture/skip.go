package capture

// SkipFilter downsamples an input frame cadence to a target output rate by
// processing every Nth frame. Used by the callback-driven deployment where
// the capture loop runs at the camera's native rate but downstream processing
// wants fewer frames.
type SkipFilter struct {
	ratio uint32
	count uint32
}

// NewSkipFilter computes the skip ratio for the given input and output rates.
// An output rate at or above the input rate processes every frame.
func NewSkipFilter(inputFPS, outputFPS uint32) *SkipFilter {
	ratio := uint32(1)
	if outputFPS > 0 && outputFPS < inputFPS {
		ratio = (inputFPS + outputFPS/2) / outputFPS // round to nearest
	}
	return &SkipFilter{ratio: ratio}
}

// Ratio returns the computed skip ratio.
func (f *SkipFilter) Ratio() uint32 { return f.ratio }

// ShouldProcess counts a frame and reports whether it should be processed.
func (f *SkipFilter) ShouldProcess() bool {
	f.count++
	return f.count%f.ratio == 0
}

// Count returns the number of frames seen so far.
func (f *SkipFilter) Count() uint32 { return f.count }
