// Package linkspb defines the wire messages and gRPC service surface for
// the links RPC API (SPEC_FULL.md §4.15). Messages are encoded with the
// protocol buffers wire format directly via protowire, rather than
// generated from a .proto file by protoc: the field layout below is
// exactly what such a .proto would produce, kept in sync by hand.
//
// proto3 schema (informative, not consumed by any generator):
//
//	message GetRedirectRequest  { string id = 1; }
//	message GetRedirectResponse { string link = 1; bool found = 2; }
//	message SetRedirectRequest  { string id = 1; string link = 2; }
//	message SetRedirectResponse { string previous_link = 1; bool replaced = 2; }
//	message RemRedirectRequest  { string id = 1; }
//	message RemRedirectResponse { string link = 1; bool found = 2; }
//	message GetVanityRequest    { string vanity = 1; }
//	message GetVanityResponse   { string id = 1; bool found = 2; }
//	message SetVanityRequest    { string vanity = 1; string id = 2; }
//	message SetVanityResponse   { string previous_id = 1; bool replaced = 2; }
//	message RemVanityRequest    { string vanity = 1; }
//	message RemVanityResponse   { string id = 1; bool found = 2; }
//	message StatEntry {
//		string type = 1; string link = 2; string data = 3;
//		int64 time = 4; uint64 value = 5;
//	}
//	message StatisticsFilter {
//		optional string link = 1; optional string type = 2;
//		optional string data = 3; optional int64 time = 4;
//	}
//	message GetStatisticsRequest  { StatisticsFilter filter = 1; }
//	message GetStatisticsResponse { repeated StatEntry entries = 1; }
//	message RemStatisticsRequest  { StatisticsFilter filter = 1; }
//	message RemStatisticsResponse { repeated StatEntry entries = 1; }
package linkspb

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Message is implemented by every wire message in this package.
type Message interface {
	MarshalWire() ([]byte, error)
	UnmarshalWire([]byte) error
}

// --- GetRedirect ---

type GetRedirectRequest struct {
	Id string
}

func (m *GetRedirectRequest) MarshalWire() ([]byte, error) {
	var b []byte
	b = appendString(b, 1, m.Id)
	return b, nil
}

func (m *GetRedirectRequest) UnmarshalWire(data []byte) error {
	return forEachField(data, func(num protowire.Number, typ protowire.Type, v []byte) error {
		if num == 1 {
			m.Id = string(v)
		}
		return nil
	})
}

type GetRedirectResponse struct {
	Link  string
	Found bool
}

func (m *GetRedirectResponse) MarshalWire() ([]byte, error) {
	var b []byte
	b = appendString(b, 1, m.Link)
	b = appendBool(b, 2, m.Found)
	return b, nil
}

func (m *GetRedirectResponse) UnmarshalWire(data []byte) error {
	return forEachScalarField(data, func(num protowire.Number, dec fieldDecoder) error {
		switch num {
		case 1:
			m.Link = dec.str()
		case 2:
			m.Found = dec.boolean()
		}
		return nil
	})
}

// --- SetRedirect ---

type SetRedirectRequest struct {
	Id   string
	Link string
}

func (m *SetRedirectRequest) MarshalWire() ([]byte, error) {
	var b []byte
	b = appendString(b, 1, m.Id)
	b = appendString(b, 2, m.Link)
	return b, nil
}

func (m *SetRedirectRequest) UnmarshalWire(data []byte) error {
	return forEachScalarField(data, func(num protowire.Number, dec fieldDecoder) error {
		switch num {
		case 1:
			m.Id = dec.str()
		case 2:
			m.Link = dec.str()
		}
		return nil
	})
}

type SetRedirectResponse struct {
	PreviousLink string
	Replaced     bool
}

func (m *SetRedirectResponse) MarshalWire() ([]byte, error) {
	var b []byte
	b = appendString(b, 1, m.PreviousLink)
	b = appendBool(b, 2, m.Replaced)
	return b, nil
}

func (m *SetRedirectResponse) UnmarshalWire(data []byte) error {
	return forEachScalarField(data, func(num protowire.Number, dec fieldDecoder) error {
		switch num {
		case 1:
			m.PreviousLink = dec.str()
		case 2:
			m.Replaced = dec.boolean()
		}
		return nil
	})
}

// --- RemRedirect ---

type RemRedirectRequest struct {
	Id string
}

func (m *RemRedirectRequest) MarshalWire() ([]byte, error) {
	var b []byte
	b = appendString(b, 1, m.Id)
	return b, nil
}

func (m *RemRedirectRequest) UnmarshalWire(data []byte) error {
	return forEachScalarField(data, func(num protowire.Number, dec fieldDecoder) error {
		if num == 1 {
			m.Id = dec.str()
		}
		return nil
	})
}

type RemRedirectResponse struct {
	Link  string
	Found bool
}

func (m *RemRedirectResponse) MarshalWire() ([]byte, error) {
	var b []byte
	b = appendString(b, 1, m.Link)
	b = appendBool(b, 2, m.Found)
	return b, nil
}

func (m *RemRedirectResponse) UnmarshalWire(data []byte) error {
	return forEachScalarField(data, func(num protowire.Number, dec fieldDecoder) error {
		switch num {
		case 1:
			m.Link = dec.str()
		case 2:
			m.Found = dec.boolean()
		}
		return nil
	})
}

// --- GetVanity ---

type GetVanityRequest struct {
	Vanity string
}

func (m *GetVanityRequest) MarshalWire() ([]byte, error) {
	var b []byte
	b = appendString(b, 1, m.Vanity)
	return b, nil
}

func (m *GetVanityRequest) UnmarshalWire(data []byte) error {
	return forEachScalarField(data, func(num protowire.Number, dec fieldDecoder) error {
		if num == 1 {
			m.Vanity = dec.str()
		}
		return nil
	})
}

type GetVanityResponse struct {
	Id    string
	Found bool
}

func (m *GetVanityResponse) MarshalWire() ([]byte, error) {
	var b []byte
	b = appendString(b, 1, m.Id)
	b = appendBool(b, 2, m.Found)
	return b, nil
}

func (m *GetVanityResponse) UnmarshalWire(data []byte) error {
	return forEachScalarField(data, func(num protowire.Number, dec fieldDecoder) error {
		switch num {
		case 1:
			m.Id = dec.str()
		case 2:
			m.Found = dec.boolean()
		}
		return nil
	})
}

// --- SetVanity ---

type SetVanityRequest struct {
	Vanity string
	Id     string
}

func (m *SetVanityRequest) MarshalWire() ([]byte, error) {
	var b []byte
	b = appendString(b, 1, m.Vanity)
	b = appendString(b, 2, m.Id)
	return b, nil
}

func (m *SetVanityRequest) UnmarshalWire(data []byte) error {
	return forEachScalarField(data, func(num protowire.Number, dec fieldDecoder) error {
		switch num {
		case 1:
			m.Vanity = dec.str()
		case 2:
			m.Id = dec.str()
		}
		return nil
	})
}

type SetVanityResponse struct {
	PreviousId string
	Replaced   bool
}

func (m *SetVanityResponse) MarshalWire() ([]byte, error) {
	var b []byte
	b = appendString(b, 1, m.PreviousId)
	b = appendBool(b, 2, m.Replaced)
	return b, nil
}

func (m *SetVanityResponse) UnmarshalWire(data []byte) error {
	return forEachScalarField(data, func(num protowire.Number, dec fieldDecoder) error {
		switch num {
		case 1:
			m.PreviousId = dec.str()
		case 2:
			m.Replaced = dec.boolean()
		}
		return nil
	})
}

// --- RemVanity ---

type RemVanityRequest struct {
	Vanity string
}

func (m *RemVanityRequest) MarshalWire() ([]byte, error) {
	var b []byte
	b = appendString(b, 1, m.Vanity)
	return b, nil
}

func (m *RemVanityRequest) UnmarshalWire(data []byte) error {
	return forEachScalarField(data, func(num protowire.Number, dec fieldDecoder) error {
		if num == 1 {
			m.Vanity = dec.str()
		}
		return nil
	})
}

type RemVanityResponse struct {
	Id    string
	Found bool
}

func (m *RemVanityResponse) MarshalWire() ([]byte, error) {
	var b []byte
	b = appendString(b, 1, m.Id)
	b = appendBool(b, 2, m.Found)
	return b, nil
}

func (m *RemVanityResponse) UnmarshalWire(data []byte) error {
	return forEachScalarField(data, func(num protowire.Number, dec fieldDecoder) error {
		switch num {
		case 1:
			m.Id = dec.str()
		case 2:
			m.Found = dec.boolean()
		}
		return nil
	})
}

// --- statistics ---

// StatEntry mirrors store.StatEntry over the wire.
type StatEntry struct {
	Type  string
	Link  string
	Data  string
	Time  int64
	Value uint64
}

func (m *StatEntry) MarshalWire() ([]byte, error) {
	var b []byte
	b = appendString(b, 1, m.Type)
	b = appendString(b, 2, m.Link)
	b = appendString(b, 3, m.Data)
	b = appendInt64(b, 4, m.Time)
	b = appendUint64(b, 5, m.Value)
	return b, nil
}

func (m *StatEntry) UnmarshalWire(data []byte) error {
	return forEachScalarField(data, func(num protowire.Number, dec fieldDecoder) error {
		switch num {
		case 1:
			m.Type = dec.str()
		case 2:
			m.Link = dec.str()
		case 3:
			m.Data = dec.str()
		case 4:
			m.Time = dec.int64()
		case 5:
			m.Value = dec.uint64()
		}
		return nil
	})
}

// StatisticsFilter mirrors statistic.Description over the wire. A nil
// pointer field in the Go value means "unset" (matches any value), as
// proto3's `optional` keyword implies presence tracking.
type StatisticsFilter struct {
	Link *string
	Type *string
	Data *string
	Time *int64
}

func (m *StatisticsFilter) MarshalWire() ([]byte, error) {
	var b []byte
	if m.Link != nil {
		b = appendString(b, 1, *m.Link)
	}
	if m.Type != nil {
		b = appendString(b, 2, *m.Type)
	}
	if m.Data != nil {
		b = appendString(b, 3, *m.Data)
	}
	if m.Time != nil {
		b = appendInt64(b, 4, *m.Time)
	}
	return b, nil
}

func (m *StatisticsFilter) UnmarshalWire(data []byte) error {
	return forEachScalarField(data, func(num protowire.Number, dec fieldDecoder) error {
		switch num {
		case 1:
			s := dec.str()
			m.Link = &s
		case 2:
			s := dec.str()
			m.Type = &s
		case 3:
			s := dec.str()
			m.Data = &s
		case 4:
			v := dec.int64()
			m.Time = &v
		}
		return nil
	})
}

type GetStatisticsRequest struct {
	Filter *StatisticsFilter
}

func (m *GetStatisticsRequest) MarshalWire() ([]byte, error) {
	return marshalFilterRequest(m.Filter)
}

func (m *GetStatisticsRequest) UnmarshalWire(data []byte) error {
	f, err := unmarshalFilterRequest(data)
	if err != nil {
		return err
	}
	m.Filter = f
	return nil
}

type GetStatisticsResponse struct {
	Entries []*StatEntry
}

func (m *GetStatisticsResponse) MarshalWire() ([]byte, error) {
	return marshalEntries(m.Entries)
}

func (m *GetStatisticsResponse) UnmarshalWire(data []byte) error {
	entries, err := unmarshalEntries(data)
	if err != nil {
		return err
	}
	m.Entries = entries
	return nil
}

type RemStatisticsRequest struct {
	Filter *StatisticsFilter
}

func (m *RemStatisticsRequest) MarshalWire() ([]byte, error) {
	return marshalFilterRequest(m.Filter)
}

func (m *RemStatisticsRequest) UnmarshalWire(data []byte) error {
	f, err := unmarshalFilterRequest(data)
	if err != nil {
		return err
	}
	m.Filter = f
	return nil
}

type RemStatisticsResponse struct {
	Entries []*StatEntry
}

func (m *RemStatisticsResponse) MarshalWire() ([]byte, error) {
	return marshalEntries(m.Entries)
}

func (m *RemStatisticsResponse) UnmarshalWire(data []byte) error {
	entries, err := unmarshalEntries(data)
	if err != nil {
		return err
	}
	m.Entries = entries
	return nil
}

func marshalFilterRequest(f *StatisticsFilter) ([]byte, error) {
	if f == nil {
		return nil, nil
	}
	inner, err := f.MarshalWire()
	if err != nil {
		return nil, err
	}
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.BytesType)
	b = protowire.AppendBytes(b, inner)
	return b, nil
}

func unmarshalFilterRequest(data []byte) (*StatisticsFilter, error) {
	var f *StatisticsFilter
	err := forEachField(data, func(num protowire.Number, typ protowire.Type, v []byte) error {
		if num == 1 {
			f = &StatisticsFilter{}
			return f.UnmarshalWire(v)
		}
		return nil
	})
	return f, err
}

func marshalEntries(entries []*StatEntry) ([]byte, error) {
	var b []byte
	for _, e := range entries {
		inner, err := e.MarshalWire()
		if err != nil {
			return nil, err
		}
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendBytes(b, inner)
	}
	return b, nil
}

func unmarshalEntries(data []byte) ([]*StatEntry, error) {
	var entries []*StatEntry
	err := forEachField(data, func(num protowire.Number, typ protowire.Type, v []byte) error {
		if num == 1 {
			e := &StatEntry{}
			if err := e.UnmarshalWire(v); err != nil {
				return err
			}
			entries = append(entries, e)
		}
		return nil
	})
	return entries, err
}

// --- shared wire helpers ---

func appendString(b []byte, num protowire.Number, s string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendBool(b []byte, num protowire.Number, v bool) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	if v {
		return protowire.AppendVarint(b, 1)
	}
	return protowire.AppendVarint(b, 0)
}

func appendInt64(b []byte, num protowire.Number, v int64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(v))
}

func appendUint64(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

// fieldDecoder holds one decoded field's raw wire bytes, decoded lazily
// into whichever scalar type the caller asks for.
type fieldDecoder struct {
	typ protowire.Type
	raw []byte
}

func (d fieldDecoder) str() string {
	if d.typ != protowire.BytesType {
		return ""
	}
	return string(d.raw)
}

func (d fieldDecoder) boolean() bool {
	v, _ := protowire.ConsumeVarint(d.raw)
	return v != 0
}

func (d fieldDecoder) int64() int64 {
	v, _ := protowire.ConsumeVarint(d.raw)
	return int64(v)
}

func (d fieldDecoder) uint64() uint64 {
	v, _ := protowire.ConsumeVarint(d.raw)
	return v
}

// forEachField walks every top-level field in data, handing the raw
// (still wire-typed) payload to fn. Used for nested/repeated message
// fields, where the payload must itself be unmarshaled.
func forEachField(data []byte, fn func(num protowire.Number, typ protowire.Type, v []byte) error) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return fmt.Errorf("linkspb: invalid tag: %w", protowire.ParseError(n))
		}
		data = data[n:]

		var payload []byte
		switch typ {
		case protowire.VarintType:
			_, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return fmt.Errorf("linkspb: invalid varint: %w", protowire.ParseError(n))
			}
			payload = data[:n]
			data = data[n:]
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return fmt.Errorf("linkspb: invalid bytes field: %w", protowire.ParseError(n))
			}
			payload = v
			data = data[n:]
		case protowire.Fixed32Type:
			_, n := protowire.ConsumeFixed32(data)
			if n < 0 {
				return fmt.Errorf("linkspb: invalid fixed32: %w", protowire.ParseError(n))
			}
			payload = data[:n]
			data = data[n:]
		case protowire.Fixed64Type:
			_, n := protowire.ConsumeFixed64(data)
			if n < 0 {
				return fmt.Errorf("linkspb: invalid fixed64: %w", protowire.ParseError(n))
			}
			payload = data[:n]
			data = data[n:]
		default:
			return fmt.Errorf("linkspb: unsupported wire type %v", typ)
		}

		if err := fn(num, typ, payload); err != nil {
			return err
		}
	}
	return nil
}

// forEachScalarField is forEachField specialized for flat (non-nested)
// messages: fn receives a fieldDecoder instead of raw bytes.
func forEachScalarField(data []byte, fn func(num protowire.Number, dec fieldDecoder) error) error {
	return forEachField(data, func(num protowire.Number, typ protowire.Type, v []byte) error {
		return fn(num, fieldDecoder{typ: typ, raw: v})
	})
}
