// Package trackdoc reads and writes the exported track document:
//
//	{
//	    "track": [
//	        {
//	            "latitude": 12.9,
//	            "longitude": 77.5
//	        }
//	    ]
//	}
package trackdoc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"backend-trailrecorder/internal/shared/geo"
)

const indent = "    "

var (
	ErrMalformedDocument = errors.New("malformed track document")
	ErrUnencodable       = errors.New("track point not representable in JSON")
)

// Document is a point-in-time copy of a recorded track.
type Document struct {
	Track []geo.Point `json:"track"`
}

// New copies points into a Document. The result never shares storage
// with the caller.
func New(points []geo.Point) Document {
	track := make([]geo.Point, len(points))
	copy(track, points)
	return Document{Track: track}
}

// Len reports the number of points in the document.
func (d Document) Len() int {
	return len(d.Track)
}

// Bytes serializes the document.
func (d Document) Bytes() ([]byte, error) {
	return Serialize(d.Track)
}

// Serialize renders points as an indented document. An empty or nil
// track is written as an empty list.
func Serialize(points []geo.Point) ([]byte, error) {
	for i, p := range points {
		if !finite(p.Latitude) || !finite(p.Longitude) {
			return nil, fmt.Errorf("%w: point %d (%v, %v)", ErrUnencodable, i, p.Latitude, p.Longitude)
		}
	}
	doc := Document{Track: points}
	if doc.Track == nil {
		doc.Track = []geo.Point{}
	}
	return json.MarshalIndent(doc, "", indent)
}

type rawPoint struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// Deserialize parses a document produced by Serialize. It fails with
// ErrMalformedDocument when "track" is absent or not a list, or when any
// element lacks a numeric latitude or longitude.
func Deserialize(data []byte) ([]geo.Point, error) {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	raw, ok := root["track"]
	if !ok {
		return nil, fmt.Errorf("%w: missing \"track\" field", ErrMalformedDocument)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, fmt.Errorf("%w: \"track\" is not a list", ErrMalformedDocument)
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	points := make([]geo.Point, 0, len(elems))
	for i, elem := range elems {
		elem = bytes.TrimSpace(elem)
		if len(elem) == 0 || elem[0] != '{' {
			return nil, fmt.Errorf("%w: element %d is not an object", ErrMalformedDocument, i)
		}
		var rp rawPoint
		if err := json.Unmarshal(elem, &rp); err != nil {
			return nil, fmt.Errorf("%w: element %d: %v", ErrMalformedDocument, i, err)
		}
		if rp.Latitude == nil || rp.Longitude == nil {
			return nil, fmt.Errorf("%w: element %d lacks latitude or longitude", ErrMalformedDocument, i)
		}
		points = append(points, geo.Point{Latitude: *rp.Latitude, Longitude: *rp.Longitude})
	}
	return points, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
