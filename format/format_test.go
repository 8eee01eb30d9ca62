/*
DESCRIPTION
  format_test.go tests the format registry lookups.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package format

import "testing"

func TestBytesPerFrame(t *testing.T) {
	cases := []struct {
		s    Standard
		cs   Colorspace
		want int
	}{
		{NTSC, RGB24, 1049760},
		{NTSC, YUV422, 699840},
		{NTSC, YUV420P, 524880},
		{PAL, RGB24, 1244160},
		{PAL, YUV422, 829440},
		{PAL, YUV420P, 622080},
	}
	for _, c := range cases {
		got, err := BytesPerFrame(c.s, c.cs)
		if err != nil {
			t.Fatalf("BytesPerFrame(%v,%v): %v", c.s, c.cs, err)
		}
		if got != c.want {
			t.Errorf("BytesPerFrame(%v,%v) = %d, want %d", c.s, c.cs, got, c.want)
		}
	}
}

func TestGeometry(t *testing.T) {
	w, h, err := Geometry(NTSC)
	if err != nil || w != 720 || h != 486 {
		t.Errorf("Geometry(NTSC) = (%d,%d,%v), want (720,486,nil)", w, h, err)
	}
	w, h, err = Geometry(PAL)
	if err != nil || w != 720 || h != 576 {
		t.Errorf("Geometry(PAL) = (%d,%d,%v), want (720,576,nil)", w, h, err)
	}
}

func TestParseStandardCaseInsensitive(t *testing.T) {
	for _, s := range []string{"ntsc", "NTSC", "Ntsc"} {
		got, err := ParseStandard(s)
		if err != nil || got != NTSC {
			t.Errorf("ParseStandard(%q) = (%v,%v), want (NTSC,nil)", s, got, err)
		}
	}
	if _, err := ParseStandard("SECAM"); err == nil {
		t.Error("ParseStandard(\"SECAM\") succeeded, want error")
	}
}

func TestParseColorspaceCaseInsensitive(t *testing.T) {
	for _, s := range []string{"yuv420p", "YUV420P"} {
		got, err := ParseColorspace(s)
		if err != nil || got != YUV420P {
			t.Errorf("ParseColorspace(%q) = (%v,%v), want (YUV420P,nil)", s, got, err)
		}
	}
}

func TestWireCodeRoundTrip(t *testing.T) {
	for _, cs := range []Colorspace{RGB24, YUV422, YUV420P} {
		got, err := ColorspaceFromWireCode(cs.WireCode())
		if err != nil || got != cs {
			t.Errorf("ColorspaceFromWireCode(%d.WireCode()) = (%v,%v), want (%v,nil)", cs, got, err, cs)
		}
	}
	if _, err := ColorspaceFromWireCode(99); err == nil {
		t.Error("ColorspaceFromWireCode(99) succeeded, want error")
	}
}
