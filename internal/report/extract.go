package report

import (
	"regexp"
	"strings"
)

var (
	priorityBoundaryRe = regexp.MustCompile(`(?im)^[ \t]*###[ \t]*Priority[ \t]+\d+[ \t]*[:.]?[ \t]*`)
	drillBoundaryRe    = regexp.MustCompile(`(?im)^[ \t]*###[ \t]*Drill[ \t]+\d+[ \t]*[:.]?[ \t]*`)
	dayBoundaryRe      = regexp.MustCompile(`(?im)^[ \t]*###[ \t]*Day[ \t]+\d+[ \t]*[:.]?[ \t]*`)
	week12Re           = regexp.MustCompile(`(?im)^[ \t]*###[ \t]*Week[ \t]*1[ \t]*[-–][ \t]*2`)
	week34Re           = regexp.MustCompile(`(?im)^[ \t]*###[ \t]*Week[ \t]*3[ \t]*[-–][ \t]*4`)
	subHeadingRe       = regexp.MustCompile(`(?m)^[ \t]*###`)

	currentTargetRe = regexp.MustCompile(`Current\s*:\D*?(\d+)\D*?(?:→|⇒|->)\D*?(\d+)`)
	runHeaderRe     = regexp.MustCompile(`\*\*[ \t]*Runs?[ \t]+(\d+(?:[ \t]*[-–][ \t]*\d+)?)[^*]*\*\*`)
	runTokenRe      = regexp.MustCompile(`(?i)\bRuns?\s+(\d+(?:\s*[-–]\s*\d+)?)`)
)

// bulletLines returns the cleaned "- " lines of body, in order.
func bulletLines(body string) []string {
	var out []string
	for _, line := range strings.Split(body, "\n") {
		t := strings.TrimSpace(line)
		if strings.HasPrefix(t, "-") {
			out = append(out, stripBullet(t))
		}
	}
	return out
}

// splitBlocks cuts body at every boundary match. Each block starts right
// after its boundary token, making the heading remnant the block's first
// line. Text before the first boundary belongs to no block.
func splitBlocks(body string, boundary *regexp.Regexp) []string {
	locs := boundary.FindAllStringIndex(body, -1)
	if len(locs) == 0 {
		return nil
	}
	blocks := make([]string, 0, len(locs))
	for i, loc := range locs {
		end := len(body)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		blocks = append(blocks, body[loc[1]:end])
	}
	return blocks
}

// labelValue splits a line on its first colon. ok is false when the line
// carries no colon.
func labelValue(line string) (label, value string, ok bool) {
	i := strings.Index(line, ":")
	if i < 0 {
		return "", "", false
	}
	return strings.ToLower(strings.TrimSpace(line[:i])), strings.TrimSpace(line[i+1:]), true
}

func extractBigPicture(p *ParsedPlan, body string) {
	p.BigPicture = append(p.BigPicture, bulletLines(body)...)
}

func extractStrengths(p *ParsedPlan, body string) {
	p.Strengths = append(p.Strengths, bulletLines(body)...)
}

func extractCheckpoints(p *ParsedPlan, body string) {
	p.Checkpoints = append(p.Checkpoints, bulletLines(body)...)
}

func extractMentalCues(p *ParsedPlan, body string) {
	// Bullets are kept verbatim here; CueText strips labels at render time.
	p.MentalCues = append(p.MentalCues, bulletLines(body)...)
}

func extractTraps(p *ParsedPlan, body string) {
	p.Traps = append(p.Traps, bulletLines(body)...)
}

func extractImmediateFocus(p *ParsedPlan, body string) {
	for _, line := range strings.Split(body, "\n") {
		t := strings.TrimSpace(line)
		if t == "" {
			continue
		}
		if strings.Contains(strings.ToLower(t), "mental cue") || strings.Contains(t, "Cue:") {
			if cue := cueFromLine(t); cue != "" {
				p.ImmediateFocus.Cue = cue // last match wins
			}
		}
		if d := cleanDetail(t); d != "" {
			p.ImmediateFocus.Details = append(p.ImmediateFocus.Details, d)
		}
	}
}

// cueFromLine pulls the cue text out of a line known to mention a cue:
// everything after the first colon, or after a leading quote when there is
// no colon, with surrounding quotes stripped.
func cueFromLine(line string) string {
	s := stripEmphasis(line)
	if i := strings.Index(s, ":"); i >= 0 {
		return stripQuotes(s[i+1:])
	}
	if i := strings.IndexAny(s, `"“`); i >= 0 {
		return stripQuotes(s[i:])
	}
	return ""
}

func extractWeekPlan(p *ParsedPlan, body string) {
	for _, block := range splitBlocks(body, priorityBoundaryRe) {
		var pr Priority
		pr.Details = []string{}
		lines := strings.Split(block, "\n")

		for _, line := range lines {
			t := strings.TrimSpace(line)
			if t == "" {
				continue
			}
			if m := currentTargetRe.FindStringSubmatch(t); m != nil {
				pr.Current, pr.Target = m[1], m[2]
			}
			if label, value, ok := labelValue(stripEmphasis(t)); ok {
				switch {
				case strings.Contains(label, "drill"):
					pr.Drill = value
				case strings.Contains(label, "terrain"):
					pr.Terrain = value
				}
			}
			if d := cleanDetail(t); d != "" {
				pr.Details = append(pr.Details, d)
			}
		}

		if pr.Name == "" && len(lines) > 0 {
			pr.Name = stripPunct(stripBrackets(stripEmphasis(lines[0])))
		}
		if pr.Name == "" && pr.Drill == "" {
			continue
		}
		p.WeekPlan = append(p.WeekPlan, pr)
	}
}

// drillLabels maps label substrings to field setters, checked in order.
var drillLabels = []struct {
	key string
	set func(d *Drill, v string)
}{
	{"target metric", func(d *Drill, v string) { d.TargetMetric = v }},
	{"why", func(d *Drill, v string) { d.Why = v }},
	{"execution", func(d *Drill, v string) { d.Execution = v }},
	{"runs per session", func(d *Drill, v string) { d.RunsPerSession = v }},
	{"turns per run", func(d *Drill, v string) { d.TurnsPerRun = v }},
	{"terrain", func(d *Drill, v string) { d.Terrain = v }},
	{"success", func(d *Drill, v string) { d.SuccessFeels = v }},
	{"common mistake", func(d *Drill, v string) { d.CommonMistake = v }},
	{"progression", func(d *Drill, v string) { d.Progression = v }},
}

var focusWords = []string{"Primary Focus", "Secondary Focus", "Integration", "Refinement"}

func extractDrills(p *ParsedPlan, body string) {
	for _, block := range splitBlocks(body, drillBoundaryRe) {
		var d Drill
		lines := strings.Split(block, "\n")

		for _, line := range lines {
			t := stripEmphasis(strings.TrimSpace(line))
			label, value, ok := labelValue(t)
			if !ok {
				continue
			}
			for _, dl := range drillLabels {
				if strings.Contains(label, dl.key) {
					dl.set(&d, value) // last match per label wins
					break
				}
			}
		}

		if d.Name == "" && len(lines) > 0 {
			d.Name, d.Focus = drillName(lines[0])
		}
		if d.Name == "" && d.Execution == "" {
			continue
		}
		p.Drills = append(p.Drills, d)
	}
}

// drillName derives a drill's name and focus designation from the heading
// remnant, e.g. "Railroad Carving - Primary Focus" → ("Railroad Carving",
// "Primary Focus").
func drillName(line string) (name, focus string) {
	s := stripEmphasis(strings.TrimSpace(line))
	for _, w := range focusWords {
		if idx := indexFold(s, w); idx >= 0 {
			if focus == "" {
				focus = w
			}
			s = s[:idx] + s[idx+len(w):]
		}
	}
	return stripPunct(s), focus
}

// indexFold is a case-insensitive strings.Index.
func indexFold(s, substr string) int {
	return strings.Index(strings.ToLower(s), strings.ToLower(substr))
}

func extractDailyPlan(p *ParsedPlan, body string) {
	locs := runHeaderRe.FindAllStringSubmatchIndex(body, -1)
	for i, loc := range locs {
		header := body[loc[0]:loc[1]]
		runs := strings.TrimSpace(body[loc[2]:loc[3]])

		phase := ""
		if j := strings.Index(header, ":"); j >= 0 {
			phase = stripPunct(stripEmphasis(header[j+1:]))
		}

		end := len(body)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		details := bulletLines(body[loc[1]:end])
		if details == nil {
			details = []string{}
		}

		p.DailyPlan = append(p.DailyPlan, DailyBlock{Runs: runs, Phase: phase, Details: details})
	}
}

func extractWeeklySchedule(p *ParsedPlan, body string) {
	for _, block := range splitBlocks(body, dayBoundaryRe) {
		var day ScheduleDay
		day.Details = []string{}
		lines := strings.Split(block, "\n")

		for _, line := range lines {
			t := stripEmphasis(strings.TrimSpace(line))
			label, value, ok := labelValue(t)
			if !ok {
				continue
			}
			switch {
			case strings.Contains(label, "primary focus"):
				day.PrimaryFocus = value
			case strings.Contains(label, "secondary"):
				day.Secondary = value
			case strings.Contains(label, "terrain"):
				day.Terrain = value
			case strings.Contains(label, "goal"):
				day.Goal = value
			case strings.Contains(label, "add"):
				day.Details = append(day.Details, "Add: "+value)
			}
		}

		if day.Name == "" && len(lines) > 0 {
			day.Name = stripPunct(stripBrackets(stripEmphasis(lines[0])))
		}
		if day.Name == "" && day.PrimaryFocus == "" {
			continue
		}
		day.DayNumber = len(p.WeeklySchedule) + 1
		p.WeeklySchedule = append(p.WeeklySchedule, day)
	}
}

func extractProgression(p *ParsedPlan, body string) {
	p.Progression.Week12 = append(p.Progression.Week12, subRangeBullets(body, week12Re)...)
	p.Progression.Week34 = append(p.Progression.Week34, subRangeBullets(body, week34Re)...)
}

// subRangeBullets returns the bullets between the marker heading and the
// next "###" heading (or end of body). No marker means no bullets.
func subRangeBullets(body string, marker *regexp.Regexp) []string {
	loc := marker.FindStringIndex(body)
	if loc == nil {
		return nil
	}
	rest := body[loc[1]:]
	// Skip to end of the marker line.
	if i := strings.Index(rest, "\n"); i >= 0 {
		rest = rest[i+1:]
	} else {
		rest = ""
	}
	if next := subHeadingRe.FindStringIndex(rest); next != nil {
		rest = rest[:next[0]]
	}
	return bulletLines(rest)
}

func extractSessionPlan(p *ParsedPlan, body string) {
	for _, line := range strings.Split(body, "\n") {
		t := strings.TrimSpace(line)
		plain := stripEmphasis(t)
		if !strings.HasPrefix(t, "**") && !strings.HasPrefix(plain, "Run") {
			continue
		}
		var run string
		if m := runTokenRe.FindStringSubmatch(plain); m != nil {
			run = strings.TrimSpace(m[1])
		}
		activity := ""
		if i := strings.Index(plain, ":"); i >= 0 {
			activity = strings.TrimSpace(plain[i+1:])
		}
		if activity == "" {
			continue
		}
		p.SessionPlan = append(p.SessionPlan, SessionRun{Run: run, Activity: activity})
	}
}
