// Package claims resolves claim lists against a transcript index.
//
// Resolution is total: a clbid missing from the index yields a ResolvedCourse
// with Known unset and the Unknown sentinel in place of its code and name.
package claims

import (
	"github.com/roach88/auditview/internal/audit"
	"github.com/roach88/auditview/internal/transcript"
)

// Unknown is the label shown in place of anything a transcript could not
// supply.
const Unknown = "???"

// ResolvedCourse is one claim joined with its transcript record.
type ResolvedCourse struct {
	CLBID  audit.CLBID  `json:"clbid"`
	Code   string       `json:"course"`
	Name   string       `json:"name"`
	Known  bool         `json:"known"`
	Course audit.Course `json:"-"`
}

// Label renders "<code>: <name>".
func (r ResolvedCourse) Label() string {
	return r.Code + ": " + r.Name
}

// NameOrUnknown returns the course name, or Unknown when the course was not
// found or has no name.
func (r ResolvedCourse) NameOrUnknown() string {
	if !r.Known || r.Name == "" {
		return Unknown
	}
	return r.Name
}

func resolve(idx *transcript.Index, claim audit.Claim) ResolvedCourse {
	c, ok := idx.Lookup(claim.CLBID)
	if !ok {
		return ResolvedCourse{CLBID: claim.CLBID, Code: Unknown, Name: Unknown}
	}
	return ResolvedCourse{CLBID: claim.CLBID, Code: c.Course, Name: c.Name, Known: true, Course: c}
}

// ResolveFirst resolves only the first claim of a course rule. It reports
// false when the rule carries no claims.
func ResolveFirst(idx *transcript.Index, rule *audit.CourseRule) (ResolvedCourse, bool) {
	claim, ok := rule.FirstClaim()
	if !ok {
		return ResolvedCourse{}, false
	}
	return resolve(idx, claim), true
}

// Resolve resolves every claim in order. The second return value counts the
// claims whose clbid was absent from the index.
func Resolve(idx *transcript.Index, list []audit.ClaimList) ([]ResolvedCourse, int) {
	out := make([]ResolvedCourse, 0, len(list))
	missing := 0
	for _, cl := range list {
		r := resolve(idx, cl.Claim)
		if !r.Known {
			missing++
		}
		out = append(out, r)
	}
	return out, missing
}
