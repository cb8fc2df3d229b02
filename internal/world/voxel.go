package world

// Air is the reserved empty block id.
const Air uint8 = 0

// MaxLight is the brightest light level. One level is 1/16 of full scale.
const MaxLight uint8 = 15

// Voxel is a single cell of a chunk.
type Voxel struct {
	ID    uint8
	Light uint8
}

// VoxelMod is a deferred block write at an absolute world position.
type VoxelMod struct {
	Pos BlockPos
	ID  uint8
}

// Face indexes the six sides of a unit cube.
type Face int

const (
	FaceBack Face = iota
	FaceFront
	FaceTop
	FaceBottom
	FaceLeft
	FaceRight
)

// Faces lists every face in table order.
var Faces = [6]Face{FaceBack, FaceFront, FaceTop, FaceBottom, FaceLeft, FaceRight}

// FaceChecks holds the neighbor offset for each face.
var FaceChecks = [6]BlockPos{
	{0, 0, -1},
	{0, 0, 1},
	{0, 1, 0},
	{0, -1, 0},
	{-1, 0, 0},
	{1, 0, 0},
}

var opposite = [6]Face{FaceFront, FaceBack, FaceBottom, FaceTop, FaceRight, FaceLeft}

// Opposite returns the face pointing the other way.
func (f Face) Opposite() Face { return opposite[f] }

// Offset returns the neighbor offset for f.
func (f Face) Offset() BlockPos { return FaceChecks[f] }

func (f Face) String() string {
	switch f {
	case FaceBack:
		return "back"
	case FaceFront:
		return "front"
	case FaceTop:
		return "top"
	case FaceBottom:
		return "bottom"
	case FaceLeft:
		return "left"
	case FaceRight:
		return "right"
	}
	return "unknown"
}
