package photonmap

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

var (
	dumpMagic = [4]byte{'L', 'P', 'H', 'M'}

	ErrInvalidDump = errors.New("photonmap: invalid photon dump")
)

const (
	dumpVersion uint32 = 1

	// Split axis marker for photons of an unbalanced map.
	noSplitAxis uint16 = 3
)

type dumpHeader struct {
	Magic   [4]byte
	Version uint32
	Count   uint64
}

type dumpRecord struct {
	Position  [3]float32
	Direction [3]float32
	Power     [3]float32
	Depth     uint16

	// The kd-tree split axis of the photon's node.
	Axis uint16
}

// Write all stored photons to w as little-endian binary records. Photons of
// a balanced map are written in kd-tree order along with their split axis.
func (pm *PhotonMap) Dump(w io.Writer) error {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	bw := bufio.NewWriter(w)
	header := dumpHeader{Magic: dumpMagic, Version: dumpVersion, Count: uint64(len(pm.photons))}
	if err := binary.Write(bw, binary.LittleEndian, &header); err != nil {
		return err
	}

	for i, p := range pm.photons {
		rec := dumpRecord{
			Position:  p.Position,
			Direction: p.Direction,
			Power:     p.Power,
			Depth:     uint16(p.Depth),
			Axis:      noSplitAxis,
		}
		if pm.balanced {
			rec.Axis = uint16(pm.axes[i])
		}
		if err := binary.Write(bw, binary.LittleEndian, &rec); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Read a photon map previously written by Dump. The returned map is
// balanced.
func Load(r io.Reader) (*PhotonMap, error) {
	br := bufio.NewReader(r)
	var header dumpHeader
	if err := binary.Read(br, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("photonmap: reading header: %w", err)
	}
	if header.Magic != dumpMagic || header.Version != dumpVersion {
		return nil, ErrInvalidDump
	}

	pm := New()
	capacity := header.Count
	if capacity > 1<<20 {
		capacity = 1 << 20
	}
	pm.photons = make([]Photon, 0, capacity)
	pm.axes = make([]uint8, 0, capacity)
	balanced := true
	var rec dumpRecord
	for i := uint64(0); i < header.Count; i++ {
		if err := binary.Read(br, binary.LittleEndian, &rec); err != nil {
			return nil, fmt.Errorf("photonmap: reading photon %d: %w", i, err)
		}
		pm.photons = append(pm.photons, Photon{
			Position:  rec.Position,
			Direction: rec.Direction,
			Power:     rec.Power,
			Depth:     uint8(rec.Depth),
		})
		if rec.Axis >= noSplitAxis {
			balanced = false
		}
		pm.axes = append(pm.axes, uint8(rec.Axis))
	}

	// Balanced dumps are already in kd-tree order.
	pm.balanced = balanced
	if !balanced {
		pm.axes = nil
		pm.Balance()
	}
	return pm, nil
}
