package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/roach88/auditview/internal/audit"
	"github.com/roach88/auditview/internal/claims"
	"github.com/roach88/auditview/internal/disclosure"
	"github.com/roach88/auditview/internal/transcript"
	"github.com/roach88/auditview/internal/view"
	"github.com/roach88/auditview/internal/where"
)

// NotCompleteMessage is shown when there is no result to render.
const NotCompleteMessage = "That student's audit is not yet complete."

// Renderer holds the inputs shared by every node of a render pass. The zero
// value renders with an empty transcript, initial disclosure state and no
// logging.
type Renderer struct {
	Index   *transcript.Index
	Session *disclosure.Session
	Logger  *slog.Logger
}

// Render renders the tree rooted at root. It returns nil when the root itself
// renders as nothing (a hidden, unpassed course).
func (r *Renderer) Render(root audit.Rule) (*view.Node, Problems) {
	w := &walker{Renderer: r, log: r.Logger}
	if w.log == nil {
		w.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return w.rule(root, audit.RootPath, true), w.problems
}

// Document renders a full audit page. A non-empty errPayload takes precedence
// over the tree and is shown indented; a nil tree yields the not-complete
// message.
func (r *Renderer) Document(tree *audit.Tree, errPayload json.RawMessage, area *audit.AreaOfStudy) (*view.Document, Problems) {
	doc := &view.Document{Header: AreaHeader(area)}
	if r.Session != nil {
		doc.SessionID = r.Session.ID
	}

	if len(errPayload) > 0 && !bytes.Equal(bytes.TrimSpace(errPayload), []byte("null")) {
		var buf bytes.Buffer
		if err := json.Indent(&buf, errPayload, "", "  "); err != nil {
			doc.Error = errPayload
		} else {
			doc.Error = buf.Bytes()
		}
		return doc, nil
	}

	if tree == nil || tree.Root == nil {
		doc.Message = NotCompleteMessage
		return doc, nil
	}

	meta := tree.Root.Meta()
	doc.OK = meta.OK
	doc.Status = "Incomplete"
	if meta.OK {
		doc.Status = "Complete"
	}
	doc.Progress = &view.Progress{Rank: float64(meta.Rank)}
	if area != nil {
		doc.Progress.SuccessRank = area.SuccessRank
	}

	root, problems := r.Render(tree.Root)
	doc.Root = root
	return doc, problems
}

type walker struct {
	*Renderer
	log      *slog.Logger
	problems Problems
}

func (w *walker) fail(code view.ErrorCode, path audit.Path, tag string, err error) view.ErrorBlock {
	re := &RenderError{Code: code, Path: path, Tag: tag, Err: err}
	w.problems = append(w.problems, re)
	w.log.Debug("contained render failure", "code", code, "path", path, "tag", tag, "error", err)
	msg := tag
	if err != nil {
		msg = err.Error()
	}
	return view.ErrorBlock{Code: code, Message: msg}
}

// rule dispatches on the node variant. topLevel is true only for the root.
func (w *walker) rule(rule audit.Rule, path audit.Path, topLevel bool) *view.Node {
	switch r := rule.(type) {
	case *audit.CountRule:
		return w.count(r, path, topLevel)
	case *audit.CourseRule:
		return w.course(r, path)
	case *audit.FromRule:
		return w.from(r, path)
	case *audit.ReferenceRule:
		return w.reference(r, path)
	case *audit.RequirementRule:
		return w.requirement(r, path)
	case *audit.UnknownRule:
		return w.unknown(r, path)
	case nil:
		return w.unknown(&audit.UnknownRule{Reason: "missing node"}, path)
	default:
		return w.unknown(&audit.UnknownRule{Type: string(r.Kind())}, path)
	}
}

func (w *walker) open(path audit.Path, ok, forced bool) bool {
	return w.Session.IsOpen(path.String(), ok, forced)
}

func (w *walker) count(r *audit.CountRule, path audit.Path, topLevel bool) *view.Node {
	if child, i, ok := Collapse(r); ok {
		return w.rule(child, path.Item(i), false)
	}

	c := Aggregate(r)
	n := &view.Node{
		Key:    path.String(),
		Kind:   string(audit.TypeCount),
		Glyph:  view.GlyphFor(r.OK),
		Header: CountHeader(c.Required, c.Total, r.OK),
		Open:   w.open(path, r.OK, topLevel),
	}
	if !n.Open {
		return n
	}
	for i, item := range r.Items {
		if child := w.rule(item, path.Item(i), false); child != nil {
			n.Children = append(n.Children, child)
		}
	}
	return n
}

func (w *walker) course(r *audit.CourseRule, path audit.Path) *view.Node {
	if r.Hidden && r.Status != audit.StatusPass {
		return nil
	}

	claimed, hasClaim := claims.ResolveFirst(w.Index, r)
	if hasClaim && !claimed.Known {
		w.problems = append(w.problems, &RenderError{
			Code: view.CodeUnresolvedClaim,
			Path: path,
			Err:  fmt.Errorf("clbid %q not in transcript", claimed.CLBID),
		})
		w.log.Debug("unresolved claim", "path", path, "clbid", claimed.CLBID)
	}

	n := &view.Node{
		Key:     path.String(),
		Kind:    string(audit.TypeCourse),
		Glyph:   view.GlyphFor(r.OK),
		Skipped: r.Status == audit.StatusSkip,
		Header:  r.Course,
		Open:    w.open(path, r.OK, false),
	}
	if r.OK {
		n.Header = r.Course + ": " + claimed.NameOrUnknown()
	}
	if n.Open && claimed.Known && claimed.Course.Term.Structured {
		n.Body = []view.Block{view.Paragraph{Text: TakenInText(claimed.Course.Term)}}
	}
	return n
}

func (w *walker) from(r *audit.FromRule, path audit.Path) *view.Node {
	n := &view.Node{
		Key:    path.String(),
		Kind:   string(audit.TypeFrom),
		Glyph:  view.GlyphFor(r.OK),
		Header: FromIntro,
	}

	if r.Claims == nil {
		n.Glyph = view.GlyphWarn
		n.Header = "Malformed from rule"
		n.Open = true
		n.Body = []view.Block{w.fail(view.CodeMissingClaims, path, string(audit.TypeFrom),
			fmt.Errorf("claims should be defined"))}
		return n
	}
	if !r.Source.IsStudentCourses() {
		n.Glyph = view.GlyphWarn
		n.Header = "Unsupported from source"
		n.Open = true
		n.Body = []view.Block{w.fail(view.CodeUnsupportedFromSource, path, string(audit.TypeFrom),
			fmt.Errorf("no description for source mode %q, itemtype %q", r.Source.Mode, r.Source.ItemType))}
		return n
	}

	n.Open = w.open(path, r.OK, false)
	if !n.Open {
		return n
	}

	if len(r.Limits) > 0 {
		d := view.Details{Summary: restrictionsSummary}
		for i, l := range r.Limits {
			d.Body = append(d.Body, view.Paragraph{Text: LimitText(l.AtMost)})
			if b := w.clause(l.Where, path.Index("limit", i).Field("where")); b != nil {
				d.Body = append(d.Body, b)
			}
		}
		n.Body = append(n.Body, d)
	}

	if r.Where != nil {
		d := view.Details{Summary: restrictionsSummary}
		if b := w.clause(r.Where, path.Field("where")); b != nil {
			d.Body = append(d.Body, b)
		}
		n.Body = append(n.Body, d)
	}

	if len(r.Assertions) > 0 {
		d := view.Details{Summary: assertionsSummary}
		for i, a := range r.Assertions {
			blocks, err := where.RenderAssertion(a)
			if err != nil {
				w.fail(view.CodeMalformedWhereClause, path.Index("assertions", i), "", err)
			}
			d.Body = append(d.Body, blocks...)
		}
		n.Body = append(n.Body, d)
	}

	n.Body = append(n.Body,
		view.Paragraph{Text: ThresholdText(r.Action.CompareTo)},
		view.Paragraph{Text: OutcomeText(len(r.Claims), r.OK)},
	)

	resolved, missing := claims.Resolve(w.Index, r.Claims)
	if missing > 0 {
		w.log.Debug("unresolved claims", "path", path, "missing", missing)
	}
	list := view.CourseList{Courses: make([]view.CourseItem, len(resolved))}
	for i, rc := range resolved {
		if !rc.Known {
			w.problems = append(w.problems, &RenderError{
				Code: view.CodeUnresolvedClaim,
				Path: path.Index("claims", i),
				Err:  fmt.Errorf("clbid %q not in transcript", rc.CLBID),
			})
		}
		list.Courses[i] = view.CourseItem{CLBID: string(rc.CLBID), Label: rc.Label(), Known: rc.Known}
	}
	n.Body = append(n.Body, list)
	return n
}

// clause renders a where-clause, recording any malformed part.
func (w *walker) clause(c audit.WhereClause, path audit.Path) view.Block {
	b, err := where.Render(c)
	if err != nil {
		w.fail(view.CodeMalformedWhereClause, path, string(c.ClauseKind()), err)
	}
	return b
}

func (w *walker) reference(r *audit.ReferenceRule, path audit.Path) *view.Node {
	return &view.Node{
		Key:    path.String(),
		Kind:   string(audit.TypeReference),
		Header: "reference",
		Open:   w.open(path, r.OK, false),
	}
}

func (w *walker) requirement(r *audit.RequirementRule, path audit.Path) *view.Node {
	n := &view.Node{
		Key:    path.String(),
		Kind:   string(audit.TypeRequirement),
		Glyph:  view.GlyphFor(r.OK),
		Header: RequirementHeader(r.Name, r.OK),
		Open:   w.open(path, r.OK, false),
	}
	if !n.Open {
		return n
	}

	if r.Message != "" {
		n.Body = append(n.Body, view.Paragraph{Text: r.Message})
	}
	if r.AuditedBy != "" {
		n.Body = append(n.Body, view.Paragraph{Text: AuditedByText(r.AuditedBy)})
	}
	if r.Result != nil {
		if child := w.rule(r.Result, path.Field("result"), false); child != nil {
			n.Children = append(n.Children, child)
		}
	}

	names := make([]string, 0, len(r.Requirements))
	for name := range r.Requirements {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		if child := w.rule(r.Requirements[name], path.Named("requirements", name), false); child != nil {
			n.Children = append(n.Children, child)
		}
	}
	return n
}

func (w *walker) unknown(r *audit.UnknownRule, path audit.Path) *view.Node {
	var err error
	if r.Reason != "" {
		err = fmt.Errorf("%s", r.Reason)
	}
	block := w.fail(view.CodeSchemaError, path, r.Type, err)
	if err == nil {
		block.Message = fmt.Sprintf("unknown node type %q", r.Type)
	}
	return &view.Node{
		Key:    path.String(),
		Kind:   r.Type,
		Glyph:  view.GlyphWarn,
		Header: UnknownRuleHeader(r.Type),
		Open:   true,
		Body:   []view.Block{block},
	}
}
