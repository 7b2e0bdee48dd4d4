package scene

import (
	"github.com/achilleasa/lighter/log"
	"github.com/achilleasa/lighter/types"
)

// A portal connects two sectors. Its polygon is convex and specified in
// the space of the sector owning it; its normal faces into that sector.
type Portal struct {
	Vertices []types.Vec3

	// The sector on the other side.
	Target *Sector

	// Maps points from the owning sector to the target sector space.
	Transform types.Transform

	plane Plane
	bbox  types.BBox
}

// Create a portal.
func NewPortal(vertices []types.Vec3, target *Sector, transform types.Transform) *Portal {
	p := &Portal{
		Vertices:  vertices,
		Target:    target,
		Transform: transform,
		bbox:      types.BBoxFromPoints(vertices...),
	}

	if len(vertices) >= 3 {
		normal := vertices[1].Sub(vertices[0]).Cross(vertices[2].Sub(vertices[0])).Normalize()
		p.plane = Plane{Normal: normal, Dist: normal.Dot(vertices[0])}
	}
	return p
}

// The portal plane.
func (p *Portal) Plane() Plane {
	return p.plane
}

// The portal AABB.
func (p *Portal) BBox() types.BBox {
	return p.bbox
}

// Create a proxy of light l in the target sector. Returns nil if the light
// cannot reach the portal.
func (p *Portal) proxyLight(l *Light) *Light {
	if len(p.Vertices) < 3 || p.Target == nil {
		return nil
	}
	if l.Kind == DirectionalLight || l.Kind == ProxyLight {
		return nil
	}
	if !l.Affects(p.bbox) || p.plane.Distance(l.Position) <= 0 {
		return nil
	}

	poly := make([]types.Vec3, len(p.Vertices))
	for i, v := range p.Vertices {
		poly[i] = p.Transform.Point(v)
	}
	normal := p.Transform.Direction(p.plane.Normal)

	proxy := *l
	proxy.Name = l.Name + "@" + p.Target.Name
	proxy.Kind = ProxyLight
	proxy.Position = p.Transform.Point(l.Position)
	proxy.Direction = p.Transform.Direction(l.Direction)
	proxy.Parent = l
	proxy.portalPoly = poly
	proxy.portalPl = Plane{Normal: normal, Dist: normal.Dot(poly[0])}
	proxy.sector = nil
	proxy.hasID = false
	return &proxy
}

// Propagate the lights of every sector one level through its portals. The
// created proxy lights are appended to the target sectors.
func (sc *Scene) PropagateLights() {
	if sc.lightsPropagated {
		return
	}
	sc.lightsPropagated = true

	logger := log.New("scene")
	var proxies []*Light
	for _, sector := range sc.Sectors {
		for _, light := range sector.Lights {
			for _, portal := range sector.Portals {
				proxy := portal.proxyLight(light)
				if proxy == nil {
					continue
				}
				logger.Debugf("propagating light %q from sector %q to %q", light.Name, sector.Name, portal.Target.Name)
				proxies = append(proxies, proxy)
				portal.Target.AddLight(proxy)
			}
		}
	}

	if len(proxies) > 0 {
		logger.Infof("propagated %d proxy lights through portals", len(proxies))
	}
}
