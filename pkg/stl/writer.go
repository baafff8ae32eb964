package stl

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/printfarm/meshview/pkg/geometry"
)

// facet is the on-disk layout of one binary STL triangle
type facet struct {
	N, V1, V2, V3 [3]float32
	_             uint16 // attribute byte count, unused
}

// WriteBinary writes the model as binary STL. Facets without a normal get
// one computed from their winding.
func WriteBinary(w io.Writer, m *Model) error {
	bw := bufio.NewWriter(w)

	var header [headerSize]byte
	copy(header[:], m.Name)
	if _, err := bw.Write(header[:]); err != nil {
		return fmt.Errorf("error writing header: %w", err)
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(len(m.Triangles))); err != nil {
		return fmt.Errorf("error writing triangle count: %w", err)
	}

	for i, t := range m.Triangles {
		f := facet{
			N:  toFloat32(facetNormal(t)),
			V1: toFloat32(t.V1),
			V2: toFloat32(t.V2),
			V3: toFloat32(t.V3),
		}
		if err := binary.Write(bw, binary.LittleEndian, &f); err != nil {
			return fmt.Errorf("error writing triangle %d: %w", i, err)
		}
	}

	return bw.Flush()
}

// WriteASCII writes the model as ASCII STL
func WriteASCII(w io.Writer, m *Model) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "solid %s\n", m.Name)
	for _, t := range m.Triangles {
		n := facetNormal(t)
		fmt.Fprintf(bw, "  facet normal %g %g %g\n", n.X, n.Y, n.Z)
		fmt.Fprintf(bw, "    outer loop\n")
		for _, v := range t.Vertices() {
			fmt.Fprintf(bw, "      vertex %g %g %g\n", v.X, v.Y, v.Z)
		}
		fmt.Fprintf(bw, "    endloop\n")
		fmt.Fprintf(bw, "  endfacet\n")
	}
	fmt.Fprintf(bw, "endsolid %s\n", m.Name)

	return bw.Flush()
}

func facetNormal(t geometry.Triangle) geometry.Vector3 {
	if t.Normal.IsZero() {
		return t.CalculateNormal()
	}
	return t.Normal
}

func toFloat32(v geometry.Vector3) [3]float32 {
	return [3]float32{float32(v.X), float32(v.Y), float32(v.Z)}
}
