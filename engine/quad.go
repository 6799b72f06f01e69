package engine

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/gputypes"
)

// The full-screen quad drawn once per frame as a triangle strip.
var quadVertices = [...]float32{
	-1, -1,
	1, -1,
	-1, 1,
	1, 1,
}

const (
	quadVertexCount = uint32(len(quadVertices) / 2)
	quadStride      = 8
)

var quadLayout = gputypes.VertexBufferLayout{
	ArrayStride: quadStride,
	StepMode:    gputypes.VertexStepModeVertex,
	Attributes: []gputypes.VertexAttribute{
		{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
	},
}

func quadBytes() []byte {
	buf := make([]byte, len(quadVertices)*4)
	for i, v := range quadVertices {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}
