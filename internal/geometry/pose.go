package geometry

import (
	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// Pose places a shape in the world. The zero Pose is the identity at the origin:
// a zero quaternion is read as identity so Pose{} is usable without a constructor.
type Pose struct {
	Position rl.Vector3
	Rotation rl.Quaternion
}

// Identity returns the identity pose.
func Identity() Pose {
	return Pose{Rotation: rl.QuaternionIdentity()}
}

// At returns an unrotated pose at position.
func At(position rl.Vector3) Pose {
	return Pose{Position: position, Rotation: rl.QuaternionIdentity()}
}

// NewPose returns a pose with a normalized rotation.
func NewPose(position rl.Vector3, rotation rl.Quaternion) Pose {
	return Pose{Position: position, Rotation: normalizeQuat(rotation)}
}

func normalizeQuat(q rl.Quaternion) rl.Quaternion {
	l := math32.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
	if l < 1e-12 || math32.IsNaN(l) || math32.IsInf(l, 0) {
		return rl.QuaternionIdentity()
	}
	return rl.Quaternion{X: q.X / l, Y: q.Y / l, Z: q.Z / l, W: q.W / l}
}

func (p Pose) rotation() rl.Quaternion {
	q := p.Rotation
	if q.X == 0 && q.Y == 0 && q.Z == 0 && q.W == 0 {
		return rl.QuaternionIdentity()
	}
	return q
}

// Rotate rotates a local-space vector into world space.
func (p Pose) Rotate(v rl.Vector3) rl.Vector3 {
	return rl.Vector3RotateByQuaternion(v, p.rotation())
}

// InverseRotate rotates a world-space vector into local space.
func (p Pose) InverseRotate(v rl.Vector3) rl.Vector3 {
	q := p.rotation()
	return rl.Vector3RotateByQuaternion(v, rl.Quaternion{X: -q.X, Y: -q.Y, Z: -q.Z, W: q.W})
}

// Transform maps a local-space point into world space.
func (p Pose) Transform(local rl.Vector3) rl.Vector3 {
	return rl.Vector3Add(p.Position, p.Rotate(local))
}

// Mul composes p with a child pose expressed in p's local frame.
func (p Pose) Mul(child Pose) Pose {
	return Pose{
		Position: p.Transform(child.Position),
		Rotation: rl.QuaternionMultiply(p.rotation(), child.rotation()),
	}
}

// Translated returns p moved by d.
func (p Pose) Translated(d rl.Vector3) Pose {
	p.Position = rl.Vector3Add(p.Position, d)
	return p
}

// IsValid reports whether the pose holds only finite numbers.
func (p Pose) IsValid() bool {
	q := p.Rotation
	return IsFinite(p.Position) && finite(q.X) && finite(q.Y) && finite(q.Z) && finite(q.W)
}
