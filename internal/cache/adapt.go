package cache

import (
	"beanstalk/internal/borrow"
	"beanstalk/internal/hir"
	"beanstalk/internal/source"
)

func spanToPayload(s source.Span) SpanPayload {
	return SpanPayload{File: uint32(s.File), Start: s.Start, End: s.End}
}

func spanFromPayload(s SpanPayload) source.Span {
	return source.Span{File: source.FileID(s.File), Start: s.Start, End: s.End}
}

// ToPayload converts a computed borrow summary and issue list into the
// on-disk Payload shape for fn.
func ToPayload(fn *hir.Func, sum borrow.Summary, issues []borrow.Issue) Payload {
	params := make([]ParamAccessPayload, len(sum.Params))
	for i, p := range sum.Params {
		params[i] = uint8(p)
	}
	out := make([]IssuePayload, len(issues))
	for i, iss := range issues {
		out[i] = IssuePayload{
			Kind:    uint8(iss.Kind),
			Func:    uint32(iss.Func),
			Place:   uint32(iss.Place),
			Primary: spanToPayload(iss.Primary),
			Prior:   spanToPayload(iss.Prior),
			Note:    iss.Note,
			Suggest: iss.Suggest,
		}
	}
	return Payload{
		FuncName:    fn.Name,
		ParamAccess: params,
		ReturnAlias: ReturnAliasPayload{Kind: uint8(sum.Return.Kind), Arg: sum.Return.Arg},
		Issues:      out,
	}
}

// FromPayload reconstructs a borrow.Summary and issue list from a cached
// Payload, for reuse without re-running the dataflow fixpoint.
func FromPayload(p Payload) (borrow.Summary, []borrow.Issue) {
	params := make([]borrow.ParamAccess, len(p.ParamAccess))
	for i, v := range p.ParamAccess {
		params[i] = borrow.ParamAccess(v)
	}
	sum := borrow.Summary{
		Params: params,
		Return: borrow.ReturnAlias{Kind: borrow.ReturnAliasKind(p.ReturnAlias.Kind), Arg: p.ReturnAlias.Arg},
	}
	issues := make([]borrow.Issue, len(p.Issues))
	for i, iss := range p.Issues {
		issues[i] = borrow.Issue{
			Kind:    borrow.IssueKind(iss.Kind),
			Func:    hir.FunctionID(iss.Func),
			Place:   hir.PlaceID(iss.Place),
			Primary: spanFromPayload(iss.Primary),
			Prior:   spanFromPayload(iss.Prior),
			Note:    iss.Note,
			Suggest: iss.Suggest,
		}
	}
	return sum, issues
}
