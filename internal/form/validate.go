package form

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Errors maps field name to a user-facing message. Empty map means valid.
type Errors map[string]string

func (e Errors) OK() bool { return len(e) == 0 }

// Fields returns the invalid field names, sorted for stable output.
func (e Errors) Fields() []string {
	out := make([]string, 0, len(e))
	for k := range e {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

const (
	minShortText = 3
	minLongText  = 10

	minTeamSize = 1
	maxTeamSize = 100
	minProgress = 0
	maxProgress = 100
)

var reDateOnly = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Validate checks a project draft against the current date. It is pure and
// total: it never mutates the draft and reports every failing field.
func (d ProjectDraft) Validate(now time.Time) Errors {
	errs := Errors{}
	checkShortText(errs, "name", d.Name)
	checkLongText(errs, "description", d.Description)
	checkShortText(errs, "manager", d.Manager)
	checkChoice(errs, "status", d.Status, "Planned", "In Progress", "Completed", "On Hold")
	checkDate(errs, "deadline", d.Deadline, now)
	checkIntRange(errs, "teamSize", d.TeamSize, minTeamSize, maxTeamSize, false)
	checkIntRange(errs, "progress", d.Progress, minProgress, maxProgress, true)
	return errs
}

func (d TaskDraft) Validate(now time.Time) Errors {
	errs := Errors{}
	checkShortText(errs, "title", d.Title)
	checkLongText(errs, "description", d.Description)
	if strings.TrimSpace(d.ProjectID) == "" {
		errs["projectId"] = "project is required"
	}
	checkShortText(errs, "assignee", d.Assignee)
	checkDate(errs, "due", d.Due, now)
	checkChoice(errs, "priority", d.Priority, "Low", "Medium", "High", "Critical")
	checkChoice(errs, "state", d.State, "New", "In Progress", "Done")
	return errs
}

func checkShortText(errs Errors, field, v string) {
	v = strings.TrimSpace(v)
	if v == "" {
		errs[field] = field + " is required"
		return
	}
	if len([]rune(v)) < minShortText {
		errs[field] = fmt.Sprintf("%s must be at least %d characters", field, minShortText)
	}
}

func checkLongText(errs Errors, field, v string) {
	v = strings.TrimSpace(v)
	if v == "" {
		errs[field] = field + " is required"
		return
	}
	if len([]rune(v)) < minLongText {
		errs[field] = fmt.Sprintf("%s must be at least %d characters", field, minLongText)
	}
}

// checkDate requires a YYYY-MM-DD value no earlier than today. Day
// granularity: a deadline equal to today's date is valid.
func checkDate(errs Errors, field, v string, now time.Time) {
	v = strings.TrimSpace(v)
	if v == "" {
		errs[field] = field + " is required"
		return
	}
	if !reDateOnly.MatchString(v) {
		errs[field] = field + " must be a date (YYYY-MM-DD)"
		return
	}
	d, err := time.Parse("2006-01-02", v)
	if err != nil {
		errs[field] = field + " must be a valid date"
		return
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if d.Before(today) {
		errs[field] = field + " must not be in the past"
	}
}

// checkIntRange validates an integer field. Optional fields pass when empty;
// allowEmptyZero treats "" as 0 (progress defaults to zero).
func checkIntRange(errs Errors, field, v string, min, max int, allowEmptyZero bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		if allowEmptyZero && min <= 0 {
			return
		}
		errs[field] = field + " is required"
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		errs[field] = field + " must be a number"
		return
	}
	if n < min || n > max {
		errs[field] = fmt.Sprintf("%s must be between %d and %d", field, min, max)
	}
}

func checkChoice(errs Errors, field, v string, allowed ...string) {
	v = strings.TrimSpace(v)
	if v == "" {
		errs[field] = field + " is required"
		return
	}
	for _, a := range allowed {
		if v == a {
			return
		}
	}
	errs[field] = fmt.Sprintf("%s must be one of: %s", field, strings.Join(allowed, ", "))
}
