package mp4writer

import (
	"encoding/binary"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
)

// sphericalUUID identifies the Spherical Video V1 metadata box.
var sphericalUUID = [16]byte{
	0xff, 0xcc, 0x82, 0x63, 0xf8, 0x55, 0x4a, 0x93,
	0x88, 0x14, 0x58, 0x7a, 0x02, 0x52, 0x1f, 0xdd,
}

// sphericalMeta is the orientation tag attached to a spherical output.
type sphericalMeta struct {
	Projection string
	Yaw        float32
	Pitch      float32
	Roll       float32
}

// xmlPayload renders the RDF/XML document carried inside the uuid box.
func (s *sphericalMeta) xmlPayload() []byte {
	return []byte(fmt.Sprintf(`<?xml version="1.0"?>`+
		`<rdf:SphericalVideo xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"`+
		` xmlns:GSpherical="http://ns.google.com/videos/1.0/spherical/">`+
		`<GSpherical:Spherical>true</GSpherical:Spherical>`+
		`<GSpherical:Stitched>true</GSpherical:Stitched>`+
		`<GSpherical:ProjectionType>%s</GSpherical:ProjectionType>`+
		`<GSpherical:InitialViewHeadingDegrees>%g</GSpherical:InitialViewHeadingDegrees>`+
		`<GSpherical:InitialViewPitchDegrees>%g</GSpherical:InitialViewPitchDegrees>`+
		`<GSpherical:InitialViewRollDegrees>%g</GSpherical:InitialViewRollDegrees>`+
		`</rdf:SphericalVideo>`,
		s.Projection, s.Yaw, s.Pitch, s.Roll))
}

// encodeBox frames the XML payload as a top-level uuid box.
func (s *sphericalMeta) encodeBox(w io.Writer) error {
	payload := s.xmlPayload()
	size := uint32(8 + 16 + len(payload))
	var header [8]byte
	binary.BigEndian.PutUint32(header[:4], size)
	copy(header[4:], "uuid")
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	if _, err := w.Write(sphericalUUID[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// sphericalXML mirrors the fields read back out of the RDF document.
type sphericalXML struct {
	Spherical  string  `xml:"Spherical"`
	Projection string  `xml:"ProjectionType"`
	Heading    float32 `xml:"InitialViewHeadingDegrees"`
	Pitch      float32 `xml:"InitialViewPitchDegrees"`
	Roll       float32 `xml:"InitialViewRollDegrees"`
}

// ReadSphericalMetadata scans the top-level boxes of an MP4 stream for the
// Spherical Video V1 uuid box and surfaces its contents as reader metadata
// keys: spherical, spherical_projection, spherical_yaw, spherical_pitch,
// spherical_roll. A stream without the box yields an empty map.
func ReadSphericalMetadata(r io.ReadSeeker) (map[string]string, error) {
	meta := map[string]string{}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	var header [8]byte
	for {
		if _, err := io.ReadFull(r, header[:]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return meta, nil
			}
			return nil, err
		}
		size := int64(binary.BigEndian.Uint32(header[:4]))
		boxType := string(header[4:8])
		if size < 8 {
			return meta, nil
		}
		body := size - 8

		if boxType != "uuid" || body < 16 {
			if _, err := r.Seek(body, io.SeekCurrent); err != nil {
				return nil, err
			}
			continue
		}

		var uuid [16]byte
		if _, err := io.ReadFull(r, uuid[:]); err != nil {
			return nil, err
		}
		if uuid != sphericalUUID {
			if _, err := r.Seek(body-16, io.SeekCurrent); err != nil {
				return nil, err
			}
			continue
		}

		payload := make([]byte, body-16)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, err
		}
		var doc sphericalXML
		if err := xml.Unmarshal(payload, &doc); err != nil {
			return nil, fmt.Errorf("parse spherical metadata: %w", err)
		}
		if doc.Spherical == "true" {
			meta["spherical"] = "1"
		}
		meta["spherical_projection"] = doc.Projection
		meta["spherical_yaw"] = formatDeg(doc.Heading)
		meta["spherical_pitch"] = formatDeg(doc.Pitch)
		meta["spherical_roll"] = formatDeg(doc.Roll)
		return meta, nil
	}
}

func formatDeg(v float32) string {
	return strconv.FormatFloat(float64(v), 'f', -1, 32)
}
