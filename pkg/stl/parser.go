package stl

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/printfarm/meshview/pkg/geometry"
)

const (
	headerSize       = 80
	binaryPrefixSize = headerSize + 4
	binaryFacetSize  = 50
)

// Format identifies the STL encoding of a byte stream
type Format int

const (
	FormatUnknown Format = iota
	FormatASCII
	FormatBinary
)

func (f Format) String() string {
	switch f {
	case FormatASCII:
		return "ascii"
	case FormatBinary:
		return "binary"
	default:
		return "unknown"
	}
}

var (
	// ErrUnrecognizedFormat is returned when a stream is neither ASCII nor binary STL
	ErrUnrecognizedFormat = errors.New("unrecognized STL format")
	// ErrTruncated is returned when a binary stream ends before its declared triangles
	ErrTruncated = errors.New("truncated binary STL")
	// ErrNonFinite is returned for a vertex coordinate that is NaN or infinite
	ErrNonFinite = errors.New("non-finite vertex coordinate")
)

// Parse reads an STL file and returns a Model
// It automatically detects whether the file is ASCII or binary format
func Parse(filename string) (*Model, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return ParseBytes(data)
}

// Read parses an STL stream of either encoding
func Read(r io.Reader) (*Model, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read STL stream: %w", err)
	}
	return ParseBytes(data)
}

// ParseBytes parses an in-memory STL file. The encoding is detected from
// the content, never from a file name.
func ParseBytes(data []byte) (*Model, error) {
	format, err := DetectFormat(data)
	if err != nil {
		return nil, err
	}

	var model *Model
	switch format {
	case FormatASCII:
		model, err = parseASCII(bytes.NewReader(data))
	default:
		model, err = parseBinary(data)
	}
	if err != nil {
		return nil, err
	}
	model.Format = format
	return model, nil
}

// DetectFormat decides between ASCII and binary STL.
//
// A stream whose size is exactly 84 + 50*count is binary even when its
// header starts with "solid", which many exporters write. Otherwise a stream
// starting with "solid" and containing facet keywords is ASCII. Binary files
// with trailing padding are accepted last.
func DetectFormat(data []byte) (Format, error) {
	if len(data) >= binaryPrefixSize {
		count := binary.LittleEndian.Uint32(data[headerSize:binaryPrefixSize])
		if binarySize(count) == uint64(len(data)) {
			return FormatBinary, nil
		}
	}

	if looksLikeASCII(data) {
		return FormatASCII, nil
	}

	if len(data) >= binaryPrefixSize {
		count := binary.LittleEndian.Uint32(data[headerSize:binaryPrefixSize])
		if binarySize(count) <= uint64(len(data)) {
			return FormatBinary, nil
		}
		return FormatUnknown, fmt.Errorf("%w: header declares %d triangles but stream has %d bytes", ErrUnrecognizedFormat, count, len(data))
	}

	return FormatUnknown, fmt.Errorf("%w: %d bytes is too short for binary STL", ErrUnrecognizedFormat, len(data))
}

func binarySize(count uint32) uint64 {
	return uint64(binaryPrefixSize) + uint64(count)*binaryFacetSize
}

func looksLikeASCII(data []byte) bool {
	trimmed := bytes.TrimLeft(data, " \t\r\n\ufeff")
	if !bytes.HasPrefix(trimmed, []byte("solid")) {
		return false
	}
	// Only sniff the beginning; a valid ASCII file names a facet early or is empty.
	probe := trimmed
	if len(probe) > 4096 {
		probe = probe[:4096]
	}
	return bytes.Contains(probe, []byte("facet")) || bytes.Contains(probe, []byte("endsolid"))
}

// parseASCII parses an ASCII STL file
func parseASCII(reader io.Reader) (*Model, error) {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	model := NewModel("")

	var currentNormal geometry.Vector3
	var vertices []geometry.Vector3
	inFacet := false
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())

		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "solid":
			if len(fields) > 1 {
				model.Name = strings.Join(fields[1:], " ")
			}

		case "facet":
			if inFacet {
				return nil, fmt.Errorf("line %d: facet opened before previous endfacet", lineNo)
			}
			inFacet = true
			currentNormal = geometry.Vector3{}
			if len(fields) >= 5 && fields[1] == "normal" {
				normal, err := parseVector(fields[2:5])
				if err != nil {
					return nil, fmt.Errorf("line %d: invalid facet normal: %w", lineNo, err)
				}
				currentNormal = normal
			}

		case "vertex":
			if !inFacet {
				return nil, fmt.Errorf("line %d: vertex outside of facet", lineNo)
			}
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: vertex needs 3 coordinates, got %d", lineNo, len(fields)-1)
			}
			vertex, err := parseVector(fields[1:4])
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid vertex: %w", lineNo, err)
			}
			if !vertex.IsFinite() {
				return nil, fmt.Errorf("line %d: %w %v", lineNo, ErrNonFinite, vertex)
			}
			vertices = append(vertices, vertex)

		case "endfacet":
			if len(vertices) != 3 {
				return nil, fmt.Errorf("line %d: facet has %d vertices, expected 3", lineNo, len(vertices))
			}
			triangle := geometry.NewTriangle(
				currentNormal,
				vertices[0],
				vertices[1],
				vertices[2],
			)
			model.AddTriangle(triangle)
			vertices = vertices[:0] // Clear vertices
			inFacet = false
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading ASCII STL: %w", err)
	}
	if inFacet {
		return nil, fmt.Errorf("line %d: unterminated facet", lineNo)
	}

	return model, nil
}

func parseVector(fields []string) (geometry.Vector3, error) {
	var c [3]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return geometry.Vector3{}, err
		}
		c[i] = v
	}
	return geometry.NewVector3(c[0], c[1], c[2]), nil
}

// parseBinary parses a binary STL file
func parseBinary(data []byte) (*Model, error) {
	model := NewModel("")

	// Extract name from header (if present)
	headerStr := strings.TrimSpace(string(bytes.TrimRight(data[:headerSize], "\x00")))
	if len(headerStr) > 0 {
		model.Name = headerStr
	}

	triangleCount := binary.LittleEndian.Uint32(data[headerSize:binaryPrefixSize])
	if expected := binarySize(triangleCount); expected > uint64(len(data)) {
		return nil, fmt.Errorf("%w: need %d bytes for %d triangles, have %d", ErrTruncated, expected, triangleCount, len(data))
	}

	model.Triangles = make([]geometry.Triangle, 0, triangleCount)
	for i := uint32(0); i < triangleCount; i++ {
		facet := data[binaryPrefixSize+int(i)*binaryFacetSize:]

		// normal, v1, v2, v3; the trailing attribute byte count is ignored
		var v [4]geometry.Vector3
		for j := range v {
			v[j] = readVector(facet[j*12:])
		}
		for _, vertex := range v[1:] {
			if !vertex.IsFinite() {
				return nil, fmt.Errorf("triangle %d: %w %v", i, ErrNonFinite, vertex)
			}
		}

		model.AddTriangle(geometry.NewTriangle(v[0], v[1], v[2], v[3]))
	}

	return model, nil
}

func readVector(b []byte) geometry.Vector3 {
	return geometry.NewVector3(
		float64(math.Float32frombits(binary.LittleEndian.Uint32(b[0:]))),
		float64(math.Float32frombits(binary.LittleEndian.Uint32(b[4:]))),
		float64(math.Float32frombits(binary.LittleEndian.Uint32(b[8:]))),
	)
}
