package mcpserver

// PlanFormatContract describes the canonical Markdown training-plan format
// that LLM consumers should follow when writing or editing plans. Plans in
// this shape break cleanly into structured fields.
const PlanFormatContract = `# CARV Training Plan Format Contract

Every Markdown training plan MUST follow this structure.

## Structure

` + "```" + `markdown
# Training Plan for Ski:IQ <score>

## The Big Picture
- One bullet per observation about the skier's overall profile.

## Immediate Focus
**Mental Cue:** "three to five words"
Free text describing the single highest-leverage change.

## Building on Strength
- Bullets naming what already works and how to lean on it.

## 3 Key Drills

### Drill 1: <drill name> [Primary Focus]
- **Target Metric:** <metric>
- **Why:** <reason>
- **Execution:** <how to do it>
- **Runs per Session:** <n>
- **Turns per Run:** <n>
- **Terrain:** <where>
- **Success Looks Like:** <observable outcome>
- **Common Mistake:** <what to avoid>

## Daily Session Plan
**Runs 1-2: Warm-up Phase**
- Bullets for this block.

## Weekly Training Schedule

### Day 1
- **Primary Focus:** <drill or skill>
- **Secondary:** <optional>
- **Terrain:** <where>
- **Goal:** <target>

## This Week's Game Plan

### Priority 1: <name>
- Current: <n> → Target: <n>
- **Drill:** <drill name>
- **Terrain:** <where>

## 4-Week Progression

### Week 1-2
- Bullets.

### Week 3-4
- Bullets.

## Sample Session Plan
**Run 1:** <activity>

## Progress Checkpoints
- Measurable milestones, one per bullet.

## Mental Cues
- "short cue" - when to use it

## Traps to Avoid
- One bullet per trap.
` + "```" + `

## Rules

1. **Exactly one top-level heading.** The ` + "`# `" + ` title opens the plan; any
   text before it is ignored.
2. **Sections are ` + "`## `" + ` headings.** Heading wording is matched loosely,
   so "Weekly Schedule" and "Weekly Training Schedule" both work.
3. **Sub-blocks are ` + "`### `" + ` headings** (drills, days, priorities, weeks).
   They never start a new section.
4. **Labels are bold:** ` + "`**Target Metric:** value`" + `. A repeated label wins
   with its last occurrence.
5. **Mental cues are 3-5 words,** quoted. The last cue in a section is the
   primary one.
6. **Scores use ` + "`Current: <n> → Target: <n>`" + `** so the numbers can be read
   back out.
7. **Encoding** is UTF-8. Keep drill names free of brackets except focus
   tags like ` + "`[Primary Focus]`" + `.
`
