package light

import (
	_ "embed"
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// MaxGPULights is the maximum number of lights marshaled into the GPU storage
// buffer per frame. Enabled lights beyond this count are dropped in list order.
const MaxGPULights = 64

// GPULightSource is the canonical WGSL definition of the Light and LightBuffer structs.
//
//go:embed assets/light.wgsl
var GPULightSource string

// GPULight is the GPU-aligned representation of a single light source.
// Matches the WGSL Light struct layout exactly (see GPULightSource).
// Size: 64 bytes.
type GPULight struct {
	Position     [3]float32 // offset  0: world-space position (point) or unused (directional)
	LightType    uint32     // offset 12: 0 = directional, 1 = point
	Color        [3]float32 // offset 16: RGB color
	Intensity    float32    // offset 28: scalar multiplier
	Direction    [3]float32 // offset 32: normalized travel direction (directional) or unused (point)
	LightRange   float32    // offset 44: attenuation cutoff distance
	CastsShadows uint32     // offset 48: 1 = samples the cascades, 0 = does not
	_pad         [3]uint32  // offset 52: padding to 64 bytes
}

// NewGPULight converts a Light into its GPU representation.
//
// Parameters:
//   - l: the light to convert
//
// Returns:
//   - GPULight: the packed light
func NewGPULight(l Light) GPULight {
	g := GPULight{
		Position:   l.Position(),
		LightType:  uint32(l.Type()),
		Color:      l.Color(),
		Intensity:  l.Intensity(),
		Direction:  l.Direction(),
		LightRange: l.Range(),
	}
	if l.CastsShadows() && l.Type() == LightTypeDirectional {
		g.CastsShadows = 1
	}
	return g
}

// Size returns the size of the GPULight struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (64)
func (g *GPULight) Size() int {
	return 64
}

// MarshalInto serializes the light into dst, which must hold at least 64 bytes.
// Padding bytes are zeroed.
//
// Parameters:
//   - dst: destination buffer
func (g *GPULight) MarshalInto(dst []byte) {
	putVec3(dst[0:], g.Position)
	binary.LittleEndian.PutUint32(dst[12:16], g.LightType)
	putVec3(dst[16:], g.Color)
	binary.LittleEndian.PutUint32(dst[28:32], math.Float32bits(g.Intensity))
	putVec3(dst[32:], g.Direction)
	binary.LittleEndian.PutUint32(dst[44:48], math.Float32bits(g.LightRange))
	binary.LittleEndian.PutUint32(dst[48:52], g.CastsShadows)
	clear(dst[52:64])
}

// GPULightHeader is the header prepended to the light storage buffer.
// Contains the ambient color and the active light count.
// Size: 16 bytes.
type GPULightHeader struct {
	AmbientColor [3]float32 // offset 0: scene ambient RGB
	LightCount   uint32     // offset 12: number of active lights following the header
}

// Size returns the size of the GPULightHeader struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (16)
func (h *GPULightHeader) Size() int {
	return 16
}

// MarshalInto serializes the header into dst, which must hold at least 16 bytes.
func (h *GPULightHeader) MarshalInto(dst []byte) {
	putVec3(dst[0:], h.AmbientColor)
	binary.LittleEndian.PutUint32(dst[12:16], h.LightCount)
}

// SceneLightsBufferSize is the byte size of the light storage buffer: the header
// followed by MaxGPULights lights.
const SceneLightsBufferSize = 16 + MaxGPULights*64

// MarshalSceneLights packs the enabled lights into a SceneLightsBufferSize buffer
// with a header carrying the ambient color and the packed count.
//
// Parameters:
//   - ambient: scene ambient RGB
//   - lights: the scene's lights, disabled ones are skipped
//
// Returns:
//   - []byte: the buffer ready for upload
//   - int: number of lights packed
func MarshalSceneLights(ambient mgl32.Vec3, lights []Light) ([]byte, int) {
	buf := make([]byte, SceneLightsBufferSize)
	count := 0
	for _, l := range lights {
		if l == nil || !l.Enabled() {
			continue
		}
		if count == MaxGPULights {
			break
		}
		g := NewGPULight(l)
		g.MarshalInto(buf[16+count*64:])
		count++
	}
	h := GPULightHeader{AmbientColor: ambient, LightCount: uint32(count)}
	h.MarshalInto(buf)
	return buf, count
}

func putVec3(dst []byte, v [3]float32) {
	for i := range 3 {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(v[i]))
	}
}
