package sicdmeta

import (
	"strings"
	"testing"
	"time"
)

func TestBytesPerPixel(t *testing.T) {
	tests := []struct {
		pixelType string
		want      int
	}{
		{RE32FIM32F, 8},
		{RE16IIM16I, 4},
		{AMP8IPHS8I, 2},
		{"RGB24I", 0},
		{"", 0},
	}
	for _, tt := range tests {
		if got := BytesPerPixel(tt.pixelType); got != tt.want {
			t.Errorf("BytesPerPixel(%q) = %d, want %d", tt.pixelType, got, tt.want)
		}
	}
}

func TestMetaCopyIsDeep(t *testing.T) {
	orig := &Meta{
		CollectionInfo: &CollectionInfo{CollectorName: "SENSOR-1", CoreName: "PASS-42"},
		ImageCreation:  &ImageCreation{Application: "upstream", Site: "lab"},
		ImageData:      &ImageData{PixelType: RE32FIM32F, NumRows: 100, NumCols: 50},
	}
	cp := orig.Copy()
	cp.CollectionInfo.CollectorName = "OTHER"
	cp.ImageCreation.Site = "elsewhere"
	cp.ImageData.NumRows = 1

	if orig.CollectionInfo.CollectorName != "SENSOR-1" {
		t.Error("CollectionInfo shared between copy and original")
	}
	if orig.ImageCreation.Site != "lab" {
		t.Error("ImageCreation shared between copy and original")
	}
	if orig.ImageData.NumRows != 100 {
		t.Error("ImageData shared between copy and original")
	}

	var nilMeta *Meta
	if nilMeta.Copy() != nil {
		t.Error("nil Copy = non-nil")
	}
	sparse := (&Meta{}).Copy()
	if sparse.CollectionInfo != nil || sparse.ImageData != nil {
		t.Error("empty Copy fabricated sections")
	}
}

func TestMetaXMLRoundTrip(t *testing.T) {
	created := time.Date(2024, 3, 15, 12, 30, 0, 0, time.UTC)
	orig := &Meta{
		CollectionInfo: &CollectionInfo{CollectorName: "SENSOR-1"},
		ImageCreation:  &ImageCreation{Application: "go-sicd", DateTime: created, Profile: "go-sicd 1.0.0"},
		ImageData:      &ImageData{PixelType: RE16IIM16I, NumRows: 2048, NumCols: 1024, FirstRow: 512},
	}
	data, err := Marshal(orig)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "<SICD>") {
		t.Errorf("missing root element:\n%s", data)
	}
	if !strings.Contains(string(data), "<PixelType>RE16I_IM16I</PixelType>") {
		t.Errorf("missing pixel type element:\n%s", data)
	}

	back, err := Unmarshal(data)
	if err != nil {
		t.Fatal(err)
	}
	if back.ImageData == nil || *back.ImageData != *orig.ImageData {
		t.Errorf("ImageData round trip: got %+v, want %+v", back.ImageData, orig.ImageData)
	}
	if back.CollectionInfo.CollectorName != "SENSOR-1" {
		t.Errorf("CollectorName round trip: got %q", back.CollectionInfo.CollectorName)
	}
	if !back.ImageCreation.DateTime.Equal(created) {
		t.Errorf("DateTime round trip: got %v, want %v", back.ImageCreation.DateTime, created)
	}
}

func TestUnmarshalRejectsMalformed(t *testing.T) {
	if _, err := Unmarshal([]byte("<SICD><ImageData>")); err == nil {
		t.Error("truncated XML accepted")
	}
}
