package progressive

import (
	"testing"

	m "retroview_services/src/models"
)

func size(label string, w, h int) m.SizeDescriptor {
	return m.SizeDescriptor{Label: label, Width: w, Height: h, Source: "https://x/" + label + ".jpg"}
}

func labels(rungs []m.SizeDescriptor) []string {
	out := make([]string, len(rungs))
	for i, r := range rungs {
		out[i] = r.Label
	}
	return out
}

func equalLabels(a []string, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSelectRungs_ExcludesOffAspectAndDedups(t *testing.T) {
	// Ascending ladder where the 2.0-ratio pano crop must be excluded;
	// the remaining 4 collapse to 4 rungs via index de-duplication.
	sizes := []m.SizeDescriptor{
		size("a", 100, 75),  // 1.333
		size("b", 200, 150), // 1.333
		size("c", 400, 299), // 1.338, inside 5%
		size("d", 600, 300), // 2.0, excluded
		size("e", 800, 600), // 1.333, final
	}

	got := labels(SelectRungs(sizes))
	want := []string{"a", "b", "c", "e"}
	if !equalLabels(got, want) {
		t.Fatalf("rungs = %v, want %v", got, want)
	}
}

func TestSelectRungs_FiveOfMany(t *testing.T) {
	var sizes []m.SizeDescriptor
	for i := 1; i <= 10; i++ {
		sizes = append(sizes, size(string(rune('a'+i-1)), i*100, i*75))
	}

	got := labels(SelectRungs(sizes))
	// n=10: indices 0, 2, 5, 7, 9.
	want := []string{"a", "c", "f", "h", "j"}
	if !equalLabels(got, want) {
		t.Fatalf("rungs = %v, want %v", got, want)
	}
}

func TestSelectRungs_SquareCropsFallBackToFinal(t *testing.T) {
	sizes := []m.SizeDescriptor{
		size("sq", 75, 75),
		size("sq2", 150, 150),
		size("final", 800, 600),
	}

	got := labels(SelectRungs(sizes))
	// Only the final size matches its own ratio; every selection index
	// collapses onto it.
	want := []string{"final"}
	if !equalLabels(got, want) {
		t.Fatalf("rungs = %v, want %v", got, want)
	}
}

func TestSelectRungs_Degenerate(t *testing.T) {
	if got := SelectRungs(nil); got != nil {
		t.Fatalf("nil ladder: got %v", got)
	}
	single := []m.SizeDescriptor{size("only", 500, 375)}
	if got := labels(SelectRungs(single)); !equalLabels(got, []string{"only"}) {
		t.Fatalf("single ladder: got %v", got)
	}

	// Missing dimensions on the final size: return it as-is instead of
	// dividing by zero.
	broken := []m.SizeDescriptor{size("z", 500, 0)}
	if got := labels(SelectRungs(broken)); !equalLabels(got, []string{"z"}) {
		t.Fatalf("broken ladder: got %v", got)
	}
}

func TestSelectRungs_UnsortedInput(t *testing.T) {
	sizes := []m.SizeDescriptor{
		size("big", 800, 600),
		size("small", 100, 75),
		size("mid", 400, 300),
	}

	got := labels(SelectRungs(sizes))
	want := []string{"small", "mid", "big"}
	if !equalLabels(got, want) {
		t.Fatalf("rungs = %v, want %v", got, want)
	}
}
