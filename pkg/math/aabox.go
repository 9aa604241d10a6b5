package math

// AABox is an axis-aligned bounding box. Decoders pass source data through
// unchecked, so Low/High ordering is not guaranteed; degenerate boxes are
// possible and left to consumers.
type AABox struct {
	Low  Vec3
	High Vec3
}

// Center returns the midpoint of the box.
func (b AABox) Center() Vec3 {
	return b.Low.Add(b.High).Scale(0.5)
}

// Size returns the edge lengths of the box.
func (b AABox) Size() Vec3 {
	return b.High.Sub(b.Low)
}

// Contains reports whether p lies inside or on the boundary of the box.
func (b AABox) Contains(p Vec3) bool {
	return p.X >= b.Low.X && p.X <= b.High.X &&
		p.Y >= b.Low.Y && p.Y <= b.High.Y &&
		p.Z >= b.Low.Z && p.Z <= b.High.Z
}
