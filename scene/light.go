package scene

import (
	"crypto/md5"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"

	"github.com/achilleasa/lighter/types"
	"github.com/chewxy/math32"
)

// The kind of a light source.
type LightKind uint8

const (
	PointLight LightKind = iota
	SpotLight
	DirectionalLight

	// A light propagated into a sector through a portal.
	ProxyLight
)

func (k LightKind) String() string {
	switch k {
	case PointLight:
		return "point"
	case SpotLight:
		return "spot"
	case DirectionalLight:
		return "directional"
	case ProxyLight:
		return "proxy"
	}
	return fmt.Sprintf("LightKind(%d)", k)
}

// The distance attenuation law of a light.
type AttenuationMode uint8

const (
	AttenuationNone AttenuationMode = iota
	AttenuationLinear
	AttenuationInverse
	AttenuationRealistic
	AttenuationCLQ
)

// Parse an attenuation mode name.
func ParseAttenuationMode(name string) (AttenuationMode, error) {
	switch name {
	case "none":
		return AttenuationNone, nil
	case "linear":
		return AttenuationLinear, nil
	case "inverse":
		return AttenuationInverse, nil
	case "realistic":
		return AttenuationRealistic, nil
	case "clq":
		return AttenuationCLQ, nil
	}
	return 0, fmt.Errorf("scene: unknown attenuation mode %q", name)
}

func (m AttenuationMode) String() string {
	switch m {
	case AttenuationNone:
		return "none"
	case AttenuationLinear:
		return "linear"
	case AttenuationInverse:
		return "inverse"
	case AttenuationRealistic:
		return "realistic"
	case AttenuationCLQ:
		return "clq"
	}
	return fmt.Sprintf("AttenuationMode(%d)", m)
}

// Light flags.
type LightFlags uint32

const (
	// The light is baked into its own set of lightmaps.
	LightPseudoDynamic LightFlags = 1 << iota
)

// A content derived light identifier.
type LightID [md5.Size]byte

func (id LightID) String() string {
	return hex.EncodeToString(id[:])
}

// A light source.
type Light struct {
	Name string
	Kind LightKind

	Position  types.Vec3
	Direction types.Vec3

	Color types.Color
	Power float32

	// Influence radius. A negative radius denotes an unbounded light.
	Radius float32

	Attenuation AttenuationMode

	// Constant, linear and quadratic terms for AttenuationCLQ.
	AttenuationConsts [3]float32

	// Cosines of the inner and outer spot cone angles.
	SpotInner float32
	SpotOuter float32

	Flags LightFlags

	// Proxy lights reference the light they were propagated from and the
	// portal polygon, in this light's sector space, that light must pass
	// through.
	Parent     *Light
	portalPoly []types.Vec3
	portalPl   Plane

	sector *Sector
	id     LightID
	hasID  bool
}

// A light sample as seen from a surface point.
type LightSample struct {
	// Unit vector from the surface point towards the light.
	Direction types.Vec3

	// Distance to the light. Used for attenuation.
	Distance float32

	// Length of the segment that needs to be unoccluded for the sample to
	// be visible. Usually equal to Distance.
	VisibilityDistance float32

	// Incident radiance before the cosine term.
	Color types.Color

	// Probability density of the sample. Zero means invalid.
	Pdf float32
}

// Create a point light.
func NewPointLight(name string, pos types.Vec3, color types.Color, power, radius float32, attenuation AttenuationMode) *Light {
	return &Light{
		Name:        name,
		Kind:        PointLight,
		Position:    pos,
		Color:       color,
		Power:       power,
		Radius:      radius,
		Attenuation: attenuation,
	}
}

// Get the light identifier. It is derived from the light contents and is
// stable across runs. Identifiers are fixed by Sector.Prepare; lights that
// have not been prepared get a freshly computed digest.
func (l *Light) ID() LightID {
	if l.hasID {
		return l.id
	}
	return l.digest()
}

// Fix the light identifier. Must not be called while the light is shared
// between goroutines.
func (l *Light) assignID() {
	l.id = l.digest()
	l.hasID = true
}

func (l *Light) digest() LightID {
	h := md5.New()
	fmt.Fprintf(h, "%s:%d:%d:%d", l.Name, l.Kind, l.Attenuation, l.Flags)
	floats := []float32{
		l.Position[0], l.Position[1], l.Position[2],
		l.Direction[0], l.Direction[1], l.Direction[2],
		l.Color[0], l.Color[1], l.Color[2],
		l.Power, l.Radius,
		l.AttenuationConsts[0], l.AttenuationConsts[1], l.AttenuationConsts[2],
		l.SpotInner, l.SpotOuter,
	}
	_ = binary.Write(h, binary.LittleEndian, floats)
	if l.Parent != nil {
		parentID := l.Parent.ID()
		h.Write(parentID[:])
	}

	var id LightID
	copy(id[:], h.Sum(nil))
	return id
}

// The kind of the light this light was propagated from. For lights that
// are not proxies this is the light kind itself.
func (l *Light) SourceKind() LightKind {
	for l.Kind == ProxyLight && l.Parent != nil {
		l = l.Parent
	}
	return l.Kind
}

// The sector containing this light.
func (l *Light) Sector() *Sector {
	return l.sector
}

// Returns true if the light has zero physical extent.
func (l *Light) IsDelta() bool {
	return true
}

// Returns true if the light is baked separately.
func (l *Light) IsPseudoDynamic() bool {
	return l.Flags&LightPseudoDynamic != 0
}

// The light bounding sphere.
func (l *Light) BoundingSphere() types.Sphere {
	if l.Kind == DirectionalLight || l.Radius < 0 {
		return types.Sphere{Center: l.Position, Radius: -1}
	}
	return types.Sphere{Center: l.Position, Radius: l.Radius}
}

// Returns true if the light may contribute to points inside the box.
func (l *Light) Affects(box types.BBox) bool {
	return l.BoundingSphere().IntersectsBBox(box)
}

// The average of the light color scaled by its power.
func (l *Light) LumenPower() float32 {
	return l.Color.Mul(l.Power).Mean()
}

// Evaluate the distance attenuation factor.
func (l *Light) Attenuate(d float32) float32 {
	switch l.Attenuation {
	case AttenuationLinear:
		if l.Radius <= 0 || d >= l.Radius {
			return 0
		}
		return 1 - d/l.Radius
	case AttenuationInverse:
		return 1 / d
	case AttenuationRealistic:
		return 1 / (d * d)
	case AttenuationCLQ:
		c := l.AttenuationConsts
		denom := c[0] + c[1]*d + c[2]*d*d
		if denom <= 0 {
			return 0
		}
		return 1 / denom
	}
	return 1
}

// Sample the light as seen from point p.
func (l *Light) Sample(p types.Vec3) LightSample {
	if l.Kind == DirectionalLight {
		dir := l.Direction.Neg().Normalize()
		if dir.IsZero() {
			return LightSample{}
		}
		return LightSample{
			Direction:          dir,
			Distance:           math.MaxFloat32,
			VisibilityDistance: math.MaxFloat32,
			Color:              l.Color.Mul(l.Power),
			Pdf:                1,
		}
	}

	toLight := l.Position.Sub(p)
	dist := toLight.Len()
	if dist < types.FloatCmpEpsilon {
		return LightSample{}
	}
	dir := toLight.Mul(1 / dist)

	atten := l.Attenuate(dist)
	if atten <= 0 {
		return LightSample{}
	}

	if l.SourceKind() == SpotLight {
		atten *= l.spotFalloff(dir.Neg())
		if atten <= 0 {
			return LightSample{}
		}
	}

	sample := LightSample{
		Direction:          dir,
		Distance:           dist,
		VisibilityDistance: dist,
		Color:              l.Color.Mul(l.Power * atten),
		Pdf:                1,
	}

	if l.Kind == ProxyLight {
		t, ok := intersectPolygon(l.portalPoly, l.portalPl, p, dir, dist)
		if !ok {
			return LightSample{}
		}
		sample.VisibilityDistance = t
	}

	return sample
}

// Find where a ray leaving the light along dir crosses the portal of a
// proxy light. Other lights return their position.
func (l *Light) EmissionOrigin(dir types.Vec3) (types.Vec3, bool) {
	if l.Kind != ProxyLight {
		return l.Position, true
	}
	t, ok := intersectPolygon(l.portalPoly, l.portalPl, l.Position, dir, math.MaxFloat32)
	if !ok {
		return types.Vec3{}, false
	}
	return l.Position.Add(dir.Mul(t)), true
}

func (l *Light) spotFalloff(lightToPoint types.Vec3) float32 {
	cosAngle := lightToPoint.Dot(l.Direction.Normalize())
	switch {
	case cosAngle >= l.SpotInner:
		return 1
	case cosAngle <= l.SpotOuter:
		return 0
	}
	t := (cosAngle - l.SpotOuter) / (l.SpotInner - l.SpotOuter)
	return t * t * (3 - 2*t)
}

// Intersect the segment [origin, origin + dir*maxDist] with a convex planar
// polygon and return the distance to the crossing point.
func intersectPolygon(poly []types.Vec3, pl Plane, origin, dir types.Vec3, maxDist float32) (float32, bool) {
	denom := pl.Normal.Dot(dir)
	if math32.Abs(denom) < types.FloatCmpEpsilon {
		return 0, false
	}
	t := -pl.Distance(origin) / denom
	if t < 0 || t > maxDist {
		return 0, false
	}

	hit := origin.Add(dir.Mul(t))
	sign := float32(0)
	for i := range poly {
		a, b := poly[i], poly[(i+1)%len(poly)]
		s := b.Sub(a).Cross(hit.Sub(a)).Dot(pl.Normal)
		if math32.Abs(s) < types.FloatCmpEpsilon {
			continue
		}
		if sign == 0 {
			sign = s
		} else if (s > 0) != (sign > 0) {
			return 0, false
		}
	}
	return t, true
}
