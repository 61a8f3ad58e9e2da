package corefont

import "testing"

func TestIsStandard14(t *testing.T) {
	if !IsStandard14("Helvetica") {
		t.Error("Helvetica should be a standard font")
	}
	if IsStandard14("Arial") {
		t.Error("Arial is not a standard font")
	}
}

func TestStandard14Count(t *testing.T) {
	if len(Standard14) != 14 {
		t.Fatalf("Standard14 has %d entries, want 14", len(Standard14))
	}
}

func TestCourierFixedPitch(t *testing.T) {
	for _, n := range []Name{Courier, CourierBold, CourierOblique, CourierBoldOblique} {
		if Width1000(n) != 600 {
			t.Errorf("%s width = %d, want 600 (fixed pitch)", n, Width1000(n))
		}
	}
}

func TestEstimateWidthScalesWithSize(t *testing.T) {
	w10 := EstimateWidth(Helvetica, "hello", 10)
	w20 := EstimateWidth(Helvetica, "hello", 20)
	if w20 != 2*w10 {
		t.Errorf("width should scale linearly with point size: w10=%v w20=%v", w10, w20)
	}
}
