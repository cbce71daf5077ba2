package render

import "github.com/roach88/auditview/internal/audit"

// Counts summarizes a count node's direct children.
type Counts struct {
	Required   int
	Successful int
	Total      int
}

// Aggregate counts a count node's children. Successful counts every child
// whose ok flag is set. Total leaves out hidden course rules whatever their
// status.
func Aggregate(r *audit.CountRule) Counts {
	c := Counts{Required: r.Count}
	for _, item := range r.Items {
		if item.Succeeded() {
			c.Successful++
		}
		if course, ok := item.(*audit.CourseRule); ok && course.Hidden {
			continue
		}
		c.Total++
	}
	return c
}

// AllItemsAreCourseRules reports whether r is a count node whose items are
// all course rules or count nodes that themselves qualify.
func AllItemsAreCourseRules(r audit.Rule) bool {
	count, ok := r.(*audit.CountRule)
	if !ok {
		return false
	}
	for _, item := range count.Items {
		if _, ok := item.(*audit.CourseRule); ok {
			continue
		}
		if !AllItemsAreCourseRules(item) {
			return false
		}
	}
	return true
}

// Collapse reports whether r should be rendered as its single successful
// child, and returns that child with its index. This only affects display.
func Collapse(r *audit.CountRule) (audit.Rule, int, bool) {
	c := Aggregate(r)
	if c.Required != 1 || c.Successful != 1 || !AllItemsAreCourseRules(r) {
		return nil, -1, false
	}
	for i, item := range r.Items {
		if item.Succeeded() {
			return item, i, true
		}
	}
	return nil, -1, false
}
