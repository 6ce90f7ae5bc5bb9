package domain

import "testing"

func TestReferenceBasic(t *testing.T) {
	d, err := Reference("www.example.com")
	if err != nil {
		t.Fatalf("Reference: %v", err)
	}
	if d.IsWildcard() {
		t.Fatal("reference domain must not be a wildcard")
	}
	if got, want := d.String(), "www.example.com"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}

	labels := d.Labels()
	if len(labels) != 3 || labels[0] != "com" || labels[1] != "example" || labels[2] != "www" {
		t.Fatalf("Labels() = %v, want [com example www]", labels)
	}
}

func TestReferenceTrailingDot(t *testing.T) {
	d1, err := Reference("example.com.")
	if err != nil {
		t.Fatalf("Reference: %v", err)
	}
	d2, err := Reference("example.com")
	if err != nil {
		t.Fatalf("Reference: %v", err)
	}
	if d1 != d2 {
		t.Fatal("one trailing dot should be stripped and ignored")
	}
}

func TestReferenceRejectsWildcard(t *testing.T) {
	// '*' is not in the reference-identifier label alphabet, so a literal
	// wildcard is a parse error rather than ever producing is_wildcard=true.
	if _, err := Reference("*.example.com"); err == nil {
		t.Fatal("Reference should reject a literal '*' label")
	}
}

func TestLabelLengthBoundary(t *testing.T) {
	ok := make([]byte, LabelMaxLen)
	for i := range ok {
		ok[i] = 'a'
	}
	if _, err := NewLabelACE(string(ok)); err != nil {
		t.Errorf("63-char label should be accepted: %v", err)
	}

	tooLong := make([]byte, LabelMaxLen+1)
	for i := range tooLong {
		tooLong[i] = 'a'
	}
	if _, err := NewLabelACE(string(tooLong)); err == nil {
		t.Error("64-char label should be rejected")
	}
}

func TestDomainLengthBoundary(t *testing.T) {
	// 253 = 4 labels of 63 + 3 dots ((63*4)+3 = 255, too long) -- build an
	// exact 253-octet name instead: one 63-octet label repeated with dots
	// such that total == 253.
	label63 := make([]byte, LabelMaxLen)
	for i := range label63 {
		label63[i] = 'a'
	}
	l := string(label63)
	// 63*4 + 3 = 255; trim the last label to 61 to hit exactly 253.
	short := string(label63[:61])
	name253 := l + "." + l + "." + l + "." + short
	if len(name253) != MaxLen {
		t.Fatalf("test fixture error: built name is %d octets, want %d", len(name253), MaxLen)
	}
	if _, err := Reference(name253); err != nil {
		t.Errorf("253-octet domain should be accepted: %v", err)
	}

	name254 := name253 + "a"
	if _, err := Reference(name254); err == nil {
		t.Error("254-octet domain should be rejected")
	}
}

func TestPresentedWildcard(t *testing.T) {
	tail, err := Presented("example.com")
	if err != nil {
		t.Fatalf("Presented(tail): %v", err)
	}

	wild, err := Presented("*.example.com")
	if err != nil {
		t.Fatalf("Presented(wildcard): %v", err)
	}

	if !wild.IsWildcard() {
		t.Fatal("expected wildcard domain")
	}

	tailLabels, wildLabels := tail.Labels(), wild.Labels()
	if len(tailLabels) != len(wildLabels) {
		t.Fatalf("label count mismatch: %v vs %v", tailLabels, wildLabels)
	}
	for i := range tailLabels {
		if tailLabels[i] != wildLabels[i] {
			t.Fatalf("label %d mismatch: %v vs %v", i, tailLabels, wildLabels)
		}
	}
}

func TestMatches(t *testing.T) {
	ref, err := Reference("www.example.com")
	if err != nil {
		t.Fatalf("Reference: %v", err)
	}

	exact, err := Presented("www.example.com")
	if err != nil {
		t.Fatalf("Presented: %v", err)
	}
	if matched, ok := ref.Matches(exact); !ok || !matched {
		t.Errorf("exact match failed: matched=%v ok=%v", matched, ok)
	}

	wild, err := Presented("*.example.com")
	if err != nil {
		t.Fatalf("Presented: %v", err)
	}
	if matched, ok := ref.Matches(wild); !ok || !matched {
		t.Errorf("wildcard match failed: matched=%v ok=%v", matched, ok)
	}

	other, err := Reference("other.com")
	if err != nil {
		t.Fatalf("Reference: %v", err)
	}
	if matched, ok := other.Matches(wild); !ok || matched {
		t.Errorf("unrelated domain should not match wildcard: matched=%v ok=%v", matched, ok)
	}

	wildRef, err := Presented("*.example.com")
	if err != nil {
		t.Fatalf("Presented: %v", err)
	}
	if _, ok := wildRef.Matches(exact); ok {
		t.Error("calling Matches on a wildcard receiver should report ok=false")
	}
}

func TestMapNonWildcardWins(t *testing.T) {
	m := New[string]()

	wild, err := Presented("*.example.com")
	if err != nil {
		t.Fatalf("Presented: %v", err)
	}
	exact, err := Presented("host.example.com")
	if err != nil {
		t.Fatalf("Presented: %v", err)
	}

	// Insert wildcard first; non-wildcard must still win on lookup.
	m.Set(wild, "wildcard-cert")
	m.Set(exact, "exact-cert")

	ref, err := Reference("host.example.com")
	if err != nil {
		t.Fatalf("Reference: %v", err)
	}

	got, ok := m.Get(ref)
	if !ok || got != "exact-cert" {
		t.Fatalf("Get() = (%q, %v), want (exact-cert, true)", got, ok)
	}

	other, err := Reference("other.example.com")
	if err != nil {
		t.Fatalf("Reference: %v", err)
	}
	got, ok = m.Get(other)
	if !ok || got != "wildcard-cert" {
		t.Fatalf("Get() = (%q, %v), want (wildcard-cert, true)", got, ok)
	}
}

func TestMapSetSReplacesAndReturnsOld(t *testing.T) {
	m := New[int]()
	d, _ := Reference("example.com")

	if _, replaced := m.Set(d, 1); replaced {
		t.Fatal("first Set should not report a replacement")
	}
	old, replaced := m.Set(d, 2)
	if !replaced || old != 1 {
		t.Fatalf("Set() = (%d, %v), want (1, true)", old, replaced)
	}
	if m.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", m.Len())
	}
}
