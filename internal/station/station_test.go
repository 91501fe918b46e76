package station

import (
	"bytes"
	"errors"
	"image"
	_ "image/png"
	"testing"
	"time"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestPayloadStableWithinWindow(t *testing.T) {
	base := time.Date(2026, 8, 30, 10, 0, 3, 0, time.UTC)
	g := &Generator{StationID: "STATION-1", Material: MaterialPlastic, Now: fixedClock(base)}
	p1 := g.Current()

	g.Now = fixedClock(base.Add(20 * time.Second)) // still the same window
	p2 := g.Current()

	if p1 != p2 {
		t.Errorf("payload changed within a rotation window:\n%+v\n%+v", p1, p2)
	}
}

func TestPayloadRotatesAcrossWindows(t *testing.T) {
	base := time.Date(2026, 8, 30, 10, 0, 3, 0, time.UTC)
	g := &Generator{StationID: "STATION-1", Material: MaterialPlastic, Now: fixedClock(base)}
	p1 := g.Current()

	g.Now = fixedClock(base.Add(RotationInterval))
	p2 := g.Current()

	if p1.Signature == p2.Signature || p1.Timestamp == p2.Timestamp {
		t.Errorf("payload did not rotate: %+v vs %+v", p1, p2)
	}
}

func TestSignatureFormat(t *testing.T) {
	issued := time.UnixMilli(1700000000000)
	if got := Sign("STATION-1", issued); got != "ECO-STATION-1-1700000000000" {
		t.Errorf("Sign = %q", got)
	}
}

func TestEncodeParseRoundtrip(t *testing.T) {
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	g := &Generator{StationID: "STATION-2", Material: MaterialGlass, Now: fixedClock(now)}

	raw, err := g.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	p, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.StationID != "STATION-2" || p.MaterialType != MaterialGlass {
		t.Errorf("unexpected payload: %+v", p)
	}
	if err := p.Verify(now); err != nil {
		t.Errorf("fresh payload failed verification: %v", err)
	}
}

func TestVerifyExpired(t *testing.T) {
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	g := &Generator{StationID: "STATION-1", Material: MaterialPlastic, Now: fixedClock(now)}
	p := g.Current()

	if err := p.Verify(now.Add(2 * RotationInterval)); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected expired payload to fail, got %v", err)
	}
}

func TestVerifyTamperedSignature(t *testing.T) {
	now := time.Now()
	g := &Generator{StationID: "STATION-1", Material: MaterialPlastic, Now: fixedClock(now)}
	p := g.Current()
	p.Signature = "ECO-STATION-9-123"

	if err := p.Verify(now); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected tampered signature to fail, got %v", err)
	}
}

func TestParseGarbage(t *testing.T) {
	for _, raw := range []string{"", "not json", `{"stationId":""}`, `{"signature":"x"}`} {
		if _, err := Parse(raw); !errors.Is(err, ErrInvalid) {
			t.Errorf("Parse(%q) = %v, want ErrInvalid", raw, err)
		}
	}
}

func TestPoints(t *testing.T) {
	if Points(MaterialPlastic) != 25 {
		t.Errorf("plastic = %d, want 25", Points(MaterialPlastic))
	}
	if Points("unobtainium") != 0 {
		t.Error("unknown material must award nothing")
	}
}

func TestPNGRender(t *testing.T) {
	g := &Generator{StationID: "STATION-1", Material: MaterialPlastic}
	png, err := g.PNG(256)
	if err != nil {
		t.Fatalf("PNG: %v", err)
	}
	img, format, err := image.Decode(bytes.NewReader(png))
	if err != nil || format != "png" {
		t.Fatalf("decoding rendered image: %v (%s)", err, format)
	}
	if img.Bounds().Dx() != 256 {
		t.Errorf("width = %d, want 256", img.Bounds().Dx())
	}
}
