package linkspb_test

import (
	"testing"

	"github.com/janm-dev/links-go/internal/rpcapi/linkspb"
)

func roundTrip[M linkspb.Message](t *testing.T, m M, fresh func() M) M {
	t.Helper()
	data, err := m.MarshalWire()
	if err != nil {
		t.Fatalf("MarshalWire: %v", err)
	}
	out := fresh()
	if err := out.UnmarshalWire(data); err != nil {
		t.Fatalf("UnmarshalWire: %v", err)
	}
	return out
}

func TestGetRedirectRequestRoundTrip(t *testing.T) {
	in := &linkspb.GetRedirectRequest{Id: "abc123"}
	out := roundTrip(t, in, func() *linkspb.GetRedirectRequest { return new(linkspb.GetRedirectRequest) })
	if out.Id != in.Id {
		t.Fatalf("Id = %q, want %q", out.Id, in.Id)
	}
}

func TestSetRedirectResponseRoundTripWithBool(t *testing.T) {
	in := &linkspb.SetRedirectResponse{PreviousLink: "https://old.example/", Replaced: true}
	out := roundTrip(t, in, func() *linkspb.SetRedirectResponse { return new(linkspb.SetRedirectResponse) })
	if out.PreviousLink != in.PreviousLink || out.Replaced != in.Replaced {
		t.Fatalf("out = %+v, want %+v", out, in)
	}
}

func TestSetRedirectResponseRoundTripFalseBool(t *testing.T) {
	in := &linkspb.SetRedirectResponse{PreviousLink: "", Replaced: false}
	out := roundTrip(t, in, func() *linkspb.SetRedirectResponse { return new(linkspb.SetRedirectResponse) })
	if out.Replaced {
		t.Fatal("expected Replaced=false to round-trip as false")
	}
}

func TestStatEntryRoundTrip(t *testing.T) {
	in := &linkspb.StatEntry{Type: "status_code", Link: "abc", Data: "404", Time: 1700000000, Value: 42}
	out := roundTrip(t, in, func() *linkspb.StatEntry { return new(linkspb.StatEntry) })
	if *out != *in {
		t.Fatalf("out = %+v, want %+v", out, in)
	}
}

func TestStatisticsFilterRoundTripWithOptionalFields(t *testing.T) {
	link := "abc"
	typ := "request"
	in := &linkspb.StatisticsFilter{Link: &link, Type: &typ}
	out := roundTrip(t, in, func() *linkspb.StatisticsFilter { return new(linkspb.StatisticsFilter) })
	if out.Link == nil || *out.Link != link {
		t.Fatalf("Link = %v, want %q", out.Link, link)
	}
	if out.Type == nil || *out.Type != typ {
		t.Fatalf("Type = %v, want %q", out.Type, typ)
	}
	if out.Data != nil || out.Time != nil {
		t.Fatalf("unset fields should stay nil, got Data=%v Time=%v", out.Data, out.Time)
	}
}

func TestGetStatisticsRequestRoundTripNilFilter(t *testing.T) {
	in := &linkspb.GetStatisticsRequest{Filter: nil}
	out := roundTrip(t, in, func() *linkspb.GetStatisticsRequest { return new(linkspb.GetStatisticsRequest) })
	if out.Filter != nil {
		t.Fatalf("Filter = %v, want nil", out.Filter)
	}
}

func TestGetStatisticsResponseRoundTripWithEntries(t *testing.T) {
	in := &linkspb.GetStatisticsResponse{Entries: []*linkspb.StatEntry{
		{Type: "request", Link: "a", Time: 1, Value: 1},
		{Type: "request", Link: "b", Time: 2, Value: 2},
	}}
	out := roundTrip(t, in, func() *linkspb.GetStatisticsResponse { return new(linkspb.GetStatisticsResponse) })
	if len(out.Entries) != 2 {
		t.Fatalf("len(Entries) = %d, want 2", len(out.Entries))
	}
	if *out.Entries[0] != *in.Entries[0] || *out.Entries[1] != *in.Entries[1] {
		t.Fatalf("out.Entries = %+v, want %+v", out.Entries, in.Entries)
	}
}

func TestWireCodecMarshalUnmarshal(t *testing.T) {
	req := &linkspb.GetVanityRequest{Vanity: "example"}
	data, err := linkspb.WireCodec.Marshal(req)
	if err != nil {
		t.Fatalf("codec Marshal: %v", err)
	}

	out := new(linkspb.GetVanityRequest)
	if err := linkspb.WireCodec.Unmarshal(data, out); err != nil {
		t.Fatalf("codec Unmarshal: %v", err)
	}
	if out.Vanity != req.Vanity {
		t.Fatalf("Vanity = %q, want %q", out.Vanity, req.Vanity)
	}
}
