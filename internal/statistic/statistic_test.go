package statistic

import (
	"strings"
	"testing"
	"time"
)

func TestTimeRoundTrip(t *testing.T) {
	now := Now()
	parsed, err := ParseTime(now.String())
	if err != nil {
		t.Fatalf("ParseTime: %v", err)
	}
	if parsed.Compare(now) != 0 {
		t.Fatalf("round trip mismatch: %v != %v", parsed, now)
	}
}

func TestTimeStringEndsInSecondsZero(t *testing.T) {
	if !strings.HasSuffix(Now().String(), ":00Z") {
		t.Fatalf("String() = %q, want trailing seconds of :00Z", Now().String())
	}
}

func TestTimeQuantizationVector(t *testing.T) {
	// 2022-09-30T15:24:38+02:00 => 2022-09-30T13:24:38Z => floor to
	// 2022-09-30T13:15:00Z.
	loc := time.FixedZone("test", 2*60*60)
	input := time.Date(2022, 9, 30, 15, 24, 38, 0, loc)

	got := FromTime(input).String()
	want := "2022-09-30T13:15:00Z"
	if got != want {
		t.Fatalf("FromTime(%v) = %q, want %q", input, got, want)
	}
}

func TestValueIncrementSaturates(t *testing.T) {
	v := Value(^uint64(0))
	if v.Increment() != v {
		t.Fatalf("Increment() at max should saturate, got %d", v.Increment())
	}

	var fresh Value
	for i := 0; i < 5; i++ {
		fresh = fresh.Increment()
	}
	if fresh != 5 {
		t.Fatalf("Increment() x5 from zero = %d, want 5", fresh)
	}
}

func TestDescriptionMatches(t *testing.T) {
	typ := Request
	desc := Description{Type: &typ}

	s := Statistic{Link: "example", Type: Request, Data: "", Time: Now()}
	if !desc.Matches(s) {
		t.Error("description with only Type set should match any link/data/time")
	}

	other := Statistic{Link: "example", Type: HostRequest, Data: "", Time: Now()}
	if desc.Matches(other) {
		t.Error("description should not match a different type")
	}
}

func TestTypeNameRoundTrip(t *testing.T) {
	for typ := Request; typ <= UserAgentPlatform; typ++ {
		name := typ.String()
		parsed, err := ParseType(name)
		if err != nil {
			t.Fatalf("ParseType(%q): %v", name, err)
		}
		if parsed != typ {
			t.Fatalf("ParseType(%q) = %v, want %v", name, parsed, typ)
		}
	}
}
