// Package rpcapi implements the authenticated RPC service that manages
// redirects, vanity paths, and statistics (SPEC_FULL.md §4.15). The wire
// messages and gRPC plumbing live in the sibling [linkspb] package; this
// package holds the business logic, authentication, and access logging.
package rpcapi

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/janm-dev/links-go/internal/linkid"
	"github.com/janm-dev/links-go/internal/normalized"
	"github.com/janm-dev/links-go/internal/platform/logutil"
	"github.com/janm-dev/links-go/internal/rpcapi/linkspb"
	"github.com/janm-dev/links-go/internal/statistic"
	"github.com/janm-dev/links-go/internal/store"
	"github.com/janm-dev/links-go/internal/store/auditstore"
)

// AuditRecorder records a mutating RPC call. It is satisfied by
// [auditstore.Store]; kept as an interface so tests don't need SQLite.
type AuditRecorder interface {
	Record(ctx context.Context, e auditstore.Entry) error
}

// Service implements [linkspb.LinksServer] against a [store.Current]
// backend. Token is the single shared secret every call's "auth" metadata
// entry must match (SPEC_FULL.md §4.15); Audit, if set, receives one
// entry per successful mutation.
type Service struct {
	Store  *store.Current
	Token  string
	Audit  AuditRecorder
	Logger *slog.Logger
}

func (s *Service) logger() *slog.Logger {
	return logutil.NoopIfNil(s.Logger)
}

func (s *Service) record(ctx context.Context, caller, op, key, detail string) {
	if s.Audit == nil {
		return
	}
	if err := s.Audit.Record(ctx, auditstore.Entry{Caller: caller, Operation: op, Key: key, Detail: detail}); err != nil {
		s.logger().Warn("audit record failed", "operation", op, "key", key, "error", err)
	}
}

func (s *Service) GetRedirect(ctx context.Context, req *linkspb.GetRedirectRequest) (*linkspb.GetRedirectResponse, error) {
	id, err := linkid.Parse(req.Id)
	if err != nil {
		return nil, linkspb.Errors.InvalidArgument("invalid id: " + err.Error())
	}

	link, found, err := s.Store.Get().GetRedirect(ctx, id)
	if err != nil {
		return nil, linkspb.Errors.Internal(err.Error())
	}

	resp := &linkspb.GetRedirectResponse{Found: found}
	if found {
		resp.Link = link.String()
	}
	return resp, nil
}

func (s *Service) SetRedirect(ctx context.Context, req *linkspb.SetRedirectRequest) (*linkspb.SetRedirectResponse, error) {
	id, err := linkid.Parse(req.Id)
	if err != nil {
		return nil, linkspb.Errors.InvalidArgument("invalid id: " + err.Error())
	}
	link, err := normalized.NewLink(req.Link)
	if err != nil {
		return nil, linkspb.Errors.InvalidArgument("invalid link: " + err.Error())
	}

	prev, replaced, err := s.Store.Get().SetRedirect(ctx, id, link)
	if err != nil {
		return nil, linkspb.Errors.Internal(err.Error())
	}

	s.record(ctx, callerID(ctx), "set_redirect", id.String(), link.String())

	resp := &linkspb.SetRedirectResponse{Replaced: replaced}
	if replaced {
		resp.PreviousLink = prev.String()
	}
	return resp, nil
}

func (s *Service) RemRedirect(ctx context.Context, req *linkspb.RemRedirectRequest) (*linkspb.RemRedirectResponse, error) {
	id, err := linkid.Parse(req.Id)
	if err != nil {
		return nil, linkspb.Errors.InvalidArgument("invalid id: " + err.Error())
	}

	link, found, err := s.Store.Get().RemRedirect(ctx, id)
	if err != nil {
		return nil, linkspb.Errors.Internal(err.Error())
	}

	if found {
		s.record(ctx, callerID(ctx), "rem_redirect", id.String(), link.String())
	}

	resp := &linkspb.RemRedirectResponse{Found: found}
	if found {
		resp.Link = link.String()
	}
	return resp, nil
}

func (s *Service) GetVanity(ctx context.Context, req *linkspb.GetVanityRequest) (*linkspb.GetVanityResponse, error) {
	vanity := normalized.New(req.Vanity)

	id, found, err := s.Store.Get().GetVanity(ctx, vanity)
	if err != nil {
		return nil, linkspb.Errors.Internal(err.Error())
	}

	resp := &linkspb.GetVanityResponse{Found: found}
	if found {
		resp.Id = id.String()
	}
	return resp, nil
}

func (s *Service) SetVanity(ctx context.Context, req *linkspb.SetVanityRequest) (*linkspb.SetVanityResponse, error) {
	vanity := normalized.New(req.Vanity)
	id, err := linkid.Parse(req.Id)
	if err != nil {
		return nil, linkspb.Errors.InvalidArgument("invalid id: " + err.Error())
	}

	prev, replaced, err := s.Store.Get().SetVanity(ctx, vanity, id)
	if err != nil {
		return nil, linkspb.Errors.Internal(err.Error())
	}

	s.record(ctx, callerID(ctx), "set_vanity", vanity.String(), id.String())

	resp := &linkspb.SetVanityResponse{Replaced: replaced}
	if replaced {
		resp.PreviousId = prev.String()
	}
	return resp, nil
}

func (s *Service) RemVanity(ctx context.Context, req *linkspb.RemVanityRequest) (*linkspb.RemVanityResponse, error) {
	vanity := normalized.New(req.Vanity)

	id, found, err := s.Store.Get().RemVanity(ctx, vanity)
	if err != nil {
		return nil, linkspb.Errors.Internal(err.Error())
	}

	if found {
		s.record(ctx, callerID(ctx), "rem_vanity", vanity.String(), id.String())
	}

	resp := &linkspb.RemVanityResponse{Found: found}
	if found {
		resp.Id = id.String()
	}
	return resp, nil
}

func (s *Service) GetStatistics(ctx context.Context, req *linkspb.GetStatisticsRequest) (*linkspb.GetStatisticsResponse, error) {
	desc, err := toDescription(req.Filter)
	if err != nil {
		return nil, linkspb.Errors.InvalidArgument(err.Error())
	}

	entries, err := s.Store.Get().GetStatistics(ctx, desc)
	if err != nil {
		return nil, linkspb.Errors.Internal(err.Error())
	}

	return &linkspb.GetStatisticsResponse{Entries: toWireEntries(entries)}, nil
}

func (s *Service) RemStatistics(ctx context.Context, req *linkspb.RemStatisticsRequest) (*linkspb.RemStatisticsResponse, error) {
	desc, err := toDescription(req.Filter)
	if err != nil {
		return nil, linkspb.Errors.InvalidArgument(err.Error())
	}

	entries, err := s.Store.Get().RemStatistics(ctx, desc)
	if err != nil {
		return nil, linkspb.Errors.Internal(err.Error())
	}

	s.record(ctx, callerID(ctx), "rem_statistics", "", "")

	return &linkspb.RemStatisticsResponse{Entries: toWireEntries(entries)}, nil
}

func toDescription(f *linkspb.StatisticsFilter) (statistic.Description, error) {
	var desc statistic.Description
	if f == nil {
		return desc, nil
	}
	desc.Link = f.Link
	desc.Data = f.Data
	if f.Type != nil {
		t, err := statistic.ParseType(*f.Type)
		if err != nil {
			return desc, err
		}
		desc.Type = &t
	}
	if f.Time != nil {
		t := statistic.FromUnix(*f.Time)
		desc.Time = &t
	}
	return desc, nil
}

func toWireEntries(entries []store.StatEntry) []*linkspb.StatEntry {
	out := make([]*linkspb.StatEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, &linkspb.StatEntry{
			Type:  e.Statistic.Type.String(),
			Link:  e.Statistic.Link,
			Data:  e.Statistic.Data,
			Time:  e.Statistic.Time.Unix(),
			Value: uint64(e.Value),
		})
	}
	return out
}

// newCallID is used by the access-log interceptor to tag each call with a
// short-lived trace id, mirroring the request ids attached to HTTP access
// logs.
func newCallID() string {
	return uuid.NewString()
}
