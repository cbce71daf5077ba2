package render

import (
	"fmt"
	"strconv"

	"github.com/roach88/auditview/internal/audit"
)

// CountHeader describes a count node from its required and total item counts.
// The "blah" suffix on two of the success branches is existing copy and is
// kept as is.
func CountHeader(required, total int, ok bool) string {
	switch {
	case required == 1 && total == 2:
		if ok {
			return "Either item is required blah"
		}
		return "Either item is required"
	case required == 2 && total == 2:
		if ok {
			return "Both items were successful"
		}
		return "Both items are required"
	case required == total:
		if ok {
			return "All items were successful"
		}
		return "All items are required"
	case required == 1:
		if ok {
			return "1 item is required blah"
		}
		return "1 item is required"
	default:
		return fmt.Sprintf("%d of %d %s %s required",
			required, total, plural(total, "item", "items"), plural(total, "is", "are"))
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// FromIntro is the header of a from node drawing on the student's courses.
const FromIntro = "Given the courses from the transcript…"

const (
	restrictionsSummary = "Subject to the following restrictions…"
	assertionsSummary   = "Fulfilling the following assertions…"
)

// LimitText introduces one limit entry.
func LimitText(atMost int) string {
	return fmt.Sprintf("At most %d courses that match", atMost)
}

// ThresholdText states how many courses a from node needs.
func ThresholdText(compareTo audit.Value) string {
	n := ""
	if compareTo != nil {
		n = compareTo.Display()
	}
	noun := "courses"
	if audit.IsNumber(compareTo, 1) {
		noun = "course"
	}
	return fmt.Sprintf("There must be at least %s %s.", n, noun)
}

// OutcomeText reports how many courses a from node claimed.
func OutcomeText(claimed int, ok bool) string {
	switch {
	case ok && claimed == 1:
		return "There was a course!"
	case ok:
		return fmt.Sprintf("There were %d courses!", claimed)
	case claimed == 1:
		return "There was only 1 course."
	default:
		return fmt.Sprintf("There were only %d courses.", claimed)
	}
}

// RequirementHeader describes a requirement node.
func RequirementHeader(name string, ok bool) string {
	if ok {
		return "Requirement “" + name + "” is complete!"
	}
	return "Requirement “" + name + "” is incomplete."
}

// AuditedByText notes a requirement that was checked by hand.
func AuditedByText(who string) string {
	return "Audited by: " + who + "; assuming success"
}

// TakenInText notes when a claimed course was taken. The semester is shown as
// its registrar number.
func TakenInText(term audit.Term) string {
	return "Taken in " + strconv.Itoa(term.Year) + "-" + strconv.Itoa(int(term.Semester))
}

// UnknownRuleHeader is the header of a node with an unrecognized tag.
func UnknownRuleHeader(tag string) string {
	return "Unknown rule type: " + tag
}

// AreaHeader composes "<name> (<type>, <catalog_year>)", with the degree
// appended when set. A nil area yields "".
func AreaHeader(area *audit.AreaOfStudy) string {
	if area == nil {
		return ""
	}
	h := fmt.Sprintf("%s (%s, %d)", area.Name, area.Type, area.CatalogYear)
	if area.Degree != "" {
		h += " " + area.Degree
	}
	return h
}
