package img2wav

import (
	"errors"
	"testing"
)

func TestDefaultParamsValid(t *testing.T) {
	if err := DefaultParams().Validate(); err != nil {
		t.Fatalf("default params invalid: %v", err)
	}
}

func TestValidateRejectsOutOfRange(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*RenderParams)
	}{
		{"fft size", func(p *RenderParams) { p.FFTSize = 512 }},
		{"fft size not power of two", func(p *RenderParams) { p.FFTSize = 3000 }},
		{"hop size", func(p *RenderParams) { p.HopSize = 100 }},
		{"hop equals fft", func(p *RenderParams) { p.HopSize = p.FFTSize }},
		{"sample rate", func(p *RenderParams) { p.SampleRate = 22050 }},
		{"freq scale", func(p *RenderParams) { p.FreqScale = FrequencyScale(9) }},
		{"min freq zero", func(p *RenderParams) { p.MinFreqHz = 0 }},
		{"min above max", func(p *RenderParams) { p.MinFreqHz = 21000 }},
		{"max above nyquist", func(p *RenderParams) { p.MaxFreqHz = 30000 }},
		{"min db low", func(p *RenderParams) { p.MinDb = -130 }},
		{"min db high", func(p *RenderParams) { p.MinDb = -10 }},
		{"gamma low", func(p *RenderParams) { p.Gamma = 0.1 }},
		{"gamma high", func(p *RenderParams) { p.Gamma = 5 }},
		{"iterations low", func(p *RenderParams) { p.Iterations = 8 }},
		{"iterations high", func(p *RenderParams) { p.Iterations = 1000 }},
		{"normalize target high", func(p *RenderParams) { p.NormalizeTargetDbfs = 1 }},
		{"normalize target low", func(p *RenderParams) { p.NormalizeTargetDbfs = -7 }},
		{"gain low", func(p *RenderParams) { p.OutputGainDb = -30 }},
		{"gain high", func(p *RenderParams) { p.OutputGainDb = 13 }},
		{"bit depth", func(p *RenderParams) { p.BitDepth = BitDepth(9) }},
	}

	for _, tc := range cases {
		params := DefaultParams()
		tc.mutate(&params)

		err := params.Validate()
		if err == nil {
			t.Errorf("%s: expected validation error", tc.name)
			continue
		}
		if !errors.Is(err, ErrInvalidParameter) {
			t.Errorf("%s: error %v does not wrap ErrInvalidParameter", tc.name, err)
		}
	}
}

func TestValidateAcceptsAllHopDivisors(t *testing.T) {
	for _, fftSize := range []int{1024, 2048, 4096} {
		for _, div := range []int{2, 4, 8} {
			params := DefaultParams()
			params.FFTSize = fftSize
			params.HopSize = fftSize / div
			if err := params.Validate(); err != nil {
				t.Errorf("fft=%d hop=%d: %v", fftSize, params.HopSize, err)
			}
		}
	}
}

func TestValidateAcceptsMaxFreqAtNyquist(t *testing.T) {
	params := DefaultParams()
	params.MaxFreqHz = 22050
	if err := params.Validate(); err != nil {
		t.Errorf("max freq at Nyquist rejected: %v", err)
	}
}
