package report

// ParsedPlan is the typed decomposition of one training-plan document.
// Every field defaults to its empty value; consumers never need to
// distinguish "missing" from "present but empty".
type ParsedPlan struct {
	Title          string            `json:"title"`
	BigPicture     []string          `json:"big_picture"`
	ImmediateFocus ImmediateFocus    `json:"immediate_focus"`
	Drills         []Drill           `json:"drills"`
	DailyPlan      []DailyBlock      `json:"daily_plan"`
	WeeklySchedule []ScheduleDay     `json:"weekly_schedule"`
	WeekPlan       []Priority        `json:"week_plan"`
	Strengths      []string          `json:"strengths"`
	Checkpoints    []string          `json:"checkpoints"`
	MentalCues     []string          `json:"mental_cues"`
	Traps          []string          `json:"traps"`
	Progression    Progression       `json:"progression"`
	SessionPlan    []SessionRun      `json:"session_plan"`
	Sections       map[string]string `json:"sections"`
}

// ImmediateFocus is the single-drill focus for the next few runs.
type ImmediateFocus struct {
	Cue     string   `json:"cue"`
	Details []string `json:"details"`
}

// Drill is one structured drill record. All fields are best-effort.
type Drill struct {
	Name           string `json:"name"`
	Focus          string `json:"focus"`
	TargetMetric   string `json:"target_metric"`
	Why            string `json:"why"`
	Execution      string `json:"execution"`
	RunsPerSession string `json:"runs_per_session"`
	TurnsPerRun    string `json:"turns_per_run"`
	Terrain        string `json:"terrain"`
	SuccessFeels   string `json:"success_feels"`
	CommonMistake  string `json:"common_mistake"`
	Progression    string `json:"progression"`
}

// DailyBlock is one run group within a single ski day.
type DailyBlock struct {
	Runs    string   `json:"runs"`
	Phase   string   `json:"phase"`
	Details []string `json:"details"`
}

// ScheduleDay is one day in the weekly training schedule. DayNumber is
// assigned by position in the output, not parsed from the heading.
type ScheduleDay struct {
	DayNumber    int      `json:"day_number"`
	Name         string   `json:"name"`
	PrimaryFocus string   `json:"primary_focus"`
	Secondary    string   `json:"secondary"`
	Terrain      string   `json:"terrain"`
	Goal         string   `json:"goal"`
	Details      []string `json:"details"`
}

// Priority is one entry of the week's priority list.
type Priority struct {
	Name    string   `json:"name"`
	Current string   `json:"current"`
	Target  string   `json:"target"`
	Drill   string   `json:"drill"`
	Terrain string   `json:"terrain"`
	Details []string `json:"details"`
}

// Progression holds the bullet lists of the two multi-week phases.
type Progression struct {
	Week12 []string `json:"week1_2"`
	Week34 []string `json:"week3_4"`
}

// SessionRun is one line of a sample session plan.
type SessionRun struct {
	Run      string `json:"run"`
	Activity string `json:"activity"`
}

// newParsedPlan returns a plan with every collection initialised so the
// JSON encoding is always [] / {} rather than null.
func newParsedPlan() *ParsedPlan {
	return &ParsedPlan{
		BigPicture:     []string{},
		ImmediateFocus: ImmediateFocus{Details: []string{}},
		Drills:         []Drill{},
		DailyPlan:      []DailyBlock{},
		WeeklySchedule: []ScheduleDay{},
		WeekPlan:       []Priority{},
		Strengths:      []string{},
		Checkpoints:    []string{},
		MentalCues:     []string{},
		Traps:          []string{},
		Progression:    Progression{Week12: []string{}, Week34: []string{}},
		SessionPlan:    []SessionRun{},
		Sections:       map[string]string{},
	}
}
