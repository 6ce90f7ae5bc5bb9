package normalized

import "testing"

func TestNormalizedNew(t *testing.T) {
	if New("BiGbIrD") != New("bigbird") {
		t.Error("case folding mismatch")
	}

	if New("Big Bird\t") != New(" ᴮᴵᴳᴮᴵᴿᴰ") {
		t.Error("whitespace/case-fold mismatch")
	}

	ohm := "Ω"  // OHM SIGN
	omega := "Ω" // GREEK CAPITAL LETTER OMEGA
	if ohm == omega {
		t.Fatal("test fixture error: ohm == omega")
	}
	if New(ohm) != New(omega) {
		t.Error("NFKC fold of ohm sign should equal omega")
	}

	letters := "ffi"
	ligature := "ﬃ"
	if letters == ligature {
		t.Fatal("test fixture error: letters == ligature")
	}
	if New(letters) != New(ligature) {
		t.Error("NFKC fold of ffi ligature should equal ffi")
	}
}

func TestNormalizedString(t *testing.T) {
	if New("BiGbIrD").String() != New("bigbird").String() {
		t.Error("String() should agree after normalization")
	}
}
