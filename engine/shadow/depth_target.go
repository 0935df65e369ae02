package shadow

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-csm/common"
)

// depthFrame holds the depth resources of one in-flight frame.
type depthFrame struct {
	texture    Texture
	layerViews []TextureView
	arrayView  TextureView
}

// DepthTargetManager owns one layered depth texture per in-flight frame, a single-layer
// view per cascade for rendering, an array view per frame for sampling, and one comparison
// sampler shared by all frames. Sizes are fixed for its lifetime.
type DepthTargetManager struct {
	resolution     uint32
	cascadeCount   int
	framesInFlight int
	frames         []depthFrame
	sampler        Sampler
}

// NewDepthTargetManager allocates all depth targets up front.
// On failure every resource created so far is released and a wrapped error is returned.
//
// Parameters:
//   - dev: the device to allocate from
//   - resolution: width and height of each layer in texels
//   - cascadeCount: layers per texture
//   - framesInFlight: number of textures
//
// Returns:
//   - *DepthTargetManager: the manager
//   - error: error if any texture, view, or sampler creation fails
func NewDepthTargetManager(dev Device, resolution uint32, cascadeCount, framesInFlight int) (*DepthTargetManager, error) {
	m := &DepthTargetManager{
		resolution:     resolution,
		cascadeCount:   cascadeCount,
		framesInFlight: framesInFlight,
		frames:         make([]depthFrame, 0, framesInFlight),
	}

	for f := range framesInFlight {
		frame, err := m.createFrame(dev, f)
		m.frames = append(m.frames, frame)
		if err != nil {
			m.Release()
			return nil, err
		}
	}

	sampler, err := dev.CreateSampler(common.ShadowComparisonSampler("shadow_comparison_sampler"))
	if err != nil {
		m.Release()
		return nil, fmt.Errorf("failed to create shadow comparison sampler: %w", err)
	}
	m.sampler = sampler

	common.Logger().Info("shadow depth targets created",
		"resolution", resolution, "cascades", cascadeCount, "frames", framesInFlight)
	return m, nil
}

// createFrame builds the texture and views for frame f. The returned frame holds whatever
// was created before a failure so Release can clean it up.
func (m *DepthTargetManager) createFrame(dev Device, f int) (depthFrame, error) {
	var frame depthFrame

	tex, err := dev.CreateDepthTexture(DepthTextureDescriptor{
		Label:  fmt.Sprintf("shadow_depth_frame_%d", f),
		Width:  m.resolution,
		Height: m.resolution,
		Layers: uint32(m.cascadeCount),
	})
	if err != nil {
		return frame, fmt.Errorf("failed to create shadow depth texture %d: %w", f, err)
	}
	frame.texture = tex

	for c := range m.cascadeCount {
		view, err := dev.CreateTextureView(tex, TextureViewDescriptor{
			Label:      fmt.Sprintf("shadow_depth_frame_%d_layer_%d", f, c),
			BaseLayer:  uint32(c),
			LayerCount: 1,
		})
		if err != nil {
			return frame, fmt.Errorf("failed to create shadow layer view %d/%d: %w", f, c, err)
		}
		frame.layerViews = append(frame.layerViews, view)
	}

	arrayView, err := dev.CreateTextureView(tex, TextureViewDescriptor{
		Label:      fmt.Sprintf("shadow_depth_frame_%d_array", f),
		BaseLayer:  0,
		LayerCount: uint32(m.cascadeCount),
		Array:      true,
	})
	if err != nil {
		return frame, fmt.Errorf("failed to create shadow array view %d: %w", f, err)
	}
	frame.arrayView = arrayView

	return frame, nil
}

// LayerView returns the render-attachment view of one cascade layer.
func (m *DepthTargetManager) LayerView(frameIndex, cascade int) TextureView {
	return m.frames[frameIndex].layerViews[cascade]
}

// ArrayView returns the sampled view covering every cascade layer of a frame.
func (m *DepthTargetManager) ArrayView(frameIndex int) TextureView {
	return m.frames[frameIndex].arrayView
}

// Sampler returns the shared comparison sampler.
func (m *DepthTargetManager) Sampler() Sampler {
	return m.sampler
}

// Resolution returns the width and height of each layer.
func (m *DepthTargetManager) Resolution() uint32 {
	return m.resolution
}

// CascadeCount returns the number of layers per texture.
func (m *DepthTargetManager) CascadeCount() int {
	return m.cascadeCount
}

// FramesInFlight returns the number of per-frame textures.
func (m *DepthTargetManager) FramesInFlight() int {
	return m.framesInFlight
}

// Release destroys every view, then every texture, then the sampler.
// It is safe on a partially constructed manager and idempotent.
func (m *DepthTargetManager) Release() {
	for i := range m.frames {
		f := &m.frames[i]
		for _, v := range f.layerViews {
			v.Release()
		}
		f.layerViews = nil
		if f.arrayView != nil {
			f.arrayView.Release()
			f.arrayView = nil
		}
	}
	for i := range m.frames {
		f := &m.frames[i]
		if f.texture != nil {
			f.texture.Release()
			f.texture = nil
		}
	}
	if m.sampler != nil {
		m.sampler.Release()
		m.sampler = nil
	}
}
