// Package sicdmeta provides a minimal SICD-style metadata object model for
// complex SAR imagery.
//
// Only the fields the codec layer consumes are modeled: image extent, pixel
// type, and creation provenance. Full sensor and collection parameter trees
// are the concern of a schema-driven serialization layer outside this
// module. Values round-trip through the standard SICD XML element names.
package sicdmeta

import (
	"encoding/xml"
	"time"
)

// Pixel type identifiers, as recorded in SICD ImageData.
const (
	// RE32F_IM32F: one 32-bit float real and imaginary component per pixel.
	RE32FIM32F = "RE32F_IM32F"

	// RE16I_IM16I: one 16-bit signed integer real and imaginary component.
	RE16IIM16I = "RE16I_IM16I"

	// AMP8I_PHS8I: 8-bit amplitude and phase components.
	AMP8IPHS8I = "AMP8I_PHS8I"
)

// BytesPerPixel returns the storage size of one pixel for a known pixel
// type identifier, or 0 for an unknown identifier.
func BytesPerPixel(pixelType string) int {
	switch pixelType {
	case RE32FIM32F:
		return 8
	case RE16IIM16I:
		return 4
	case AMP8IPHS8I:
		return 2
	default:
		return 0
	}
}

// CollectionInfo identifies the collection an image belongs to.
type CollectionInfo struct {
	CollectorName string `xml:"CollectorName,omitempty"`
	CoreName      string `xml:"CoreName,omitempty"`
}

// ImageCreation records the provenance of the image file.
type ImageCreation struct {
	Application string    `xml:"Application,omitempty"`
	DateTime    time.Time `xml:"DateTime,omitempty"`
	Site        string    `xml:"Site,omitempty"`
	Profile     string    `xml:"Profile,omitempty"`
}

// ImageData describes the pixel array: its extent, sample encoding, and
// position within the full collected image.
type ImageData struct {
	PixelType string `xml:"PixelType"`
	NumRows   int    `xml:"NumRows"`
	NumCols   int    `xml:"NumCols"`
	FirstRow  int    `xml:"FirstRow"`
	FirstCol  int    `xml:"FirstCol"`
}

// Meta is the metadata object the codec layer consumes and produces.
type Meta struct {
	XMLName        xml.Name        `xml:"SICD"`
	CollectionInfo *CollectionInfo `xml:"CollectionInfo,omitempty"`
	ImageCreation  *ImageCreation  `xml:"ImageCreation,omitempty"`
	ImageData      *ImageData      `xml:"ImageData,omitempty"`
}

// Copy returns a deep copy of the metadata.
func (m *Meta) Copy() *Meta {
	if m == nil {
		return nil
	}
	out := &Meta{}
	if m.CollectionInfo != nil {
		ci := *m.CollectionInfo
		out.CollectionInfo = &ci
	}
	if m.ImageCreation != nil {
		ic := *m.ImageCreation
		out.ImageCreation = &ic
	}
	if m.ImageData != nil {
		id := *m.ImageData
		out.ImageData = &id
	}
	return out
}

// Marshal serializes metadata to indented XML.
func Marshal(m *Meta) ([]byte, error) {
	return xml.MarshalIndent(m, "", "  ")
}

// Unmarshal parses metadata from XML.
func Unmarshal(data []byte) (*Meta, error) {
	m := &Meta{}
	if err := xml.Unmarshal(data, m); err != nil {
		return nil, err
	}
	return m, nil
}
