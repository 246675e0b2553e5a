// Package report turns a free-form Markdown training plan into the typed
// sections the client renders. The input is model-generated text whose
// phrasing is not contractually guaranteed, so extraction is best effort:
// Parse never fails, and anything it cannot recognise simply leaves the
// corresponding field at its empty default.
package report

import "strings"

// section is one span of the document introduced by a "## " heading.
type section struct {
	heading string
	body    string
}

// rule binds heading keywords to the extractor that consumes a matching
// section's body. Rules are evaluated independently: a heading satisfying
// two rules feeds both fields.
type rule struct {
	keywords []string
	extract  func(p *ParsedPlan, body string)
}

var rules = []rule{
	{[]string{"big picture"}, extractBigPicture},
	{[]string{"immediate focus"}, extractImmediateFocus},
	{[]string{"week's game plan", "week plan", "priorities"}, extractWeekPlan},
	{[]string{"building on strength"}, extractStrengths},
	{[]string{"3 key drills", "your 3 key drills"}, extractDrills},
	{[]string{"daily session plan", "daily plan"}, extractDailyPlan},
	{[]string{"weekly training schedule", "weekly schedule"}, extractWeeklySchedule},
	{[]string{"progression", "4-week"}, extractProgression},
	{[]string{"session plan", "sample session"}, extractSessionPlan},
	{[]string{"checkpoint", "progress"}, extractCheckpoints},
	{[]string{"mental cue"}, extractMentalCues},
	{[]string{"trap", "avoid"}, extractTraps},
}

// Parse decomposes a training-plan document into a ParsedPlan. It is a pure
// function: no shared state, deterministic, safe for concurrent callers.
func Parse(text string) *ParsedPlan {
	p := newParsedPlan()

	title, sections := scan(text)
	p.Title = title

	for _, sec := range sections {
		// Raw retention: unmatched headings must not be silently lost.
		p.Sections[sec.heading] = sec.body

		lower := strings.ToLower(sec.heading)
		for _, r := range rules {
			if matchesAny(lower, r.keywords) {
				r.extract(p, sec.body)
			}
		}
	}

	return p
}

func matchesAny(heading string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(heading, kw) {
			return true
		}
	}
	return false
}

// scan splits the document into its title and level-2 sections. "### "
// lines are not boundaries; they stay inside the enclosing section's body
// for that section's own extractor to consume. Lines before the first
// "## " heading belong to no section and are discarded.
func scan(text string) (string, []section) {
	var (
		title    string
		sections []section
		heading  string
		body     []string
		open     bool
	)

	flush := func() {
		if open {
			sections = append(sections, section{heading: heading, body: strings.Join(body, "\n")})
		}
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "# ") && !strings.HasPrefix(trimmed, "##"):
			// First title line wins; later ones are ignored entirely.
			if title == "" {
				title = strings.TrimSpace(trimmed[2:])
			}
		case strings.HasPrefix(trimmed, "## "):
			flush()
			heading = strings.TrimSpace(trimmed[3:])
			body = nil
			open = true
		default:
			if open {
				body = append(body, line)
			}
		}
	}
	flush()

	return title, sections
}
