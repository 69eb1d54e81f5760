// Package template holds the instructions used to turn a transcript into
// Markdown notes. Each template targets one kind of recording.
package template

import (
	"fmt"
	"strings"
)

// Template name constants.
const (
	Class      = "class"
	Meeting    = "meeting"
	Brainstorm = "brainstorm"
)

// Name is a validated template name.
// The zero value stands for the default template (Class).
type Name struct {
	name string
}

// Pre-parsed names for use in code.
var (
	ClassName      = Name{name: Class}
	MeetingName    = Name{name: Meeting}
	BrainstormName = Name{name: Brainstorm}
)

// order is the canonical order for Names().
var order = []string{Class, Meeting, Brainstorm}

// prompts maps template names to their instructions.
var prompts = map[string]string{
	Class:      classPrompt,
	Meeting:    meetingPrompt,
	Brainstorm: brainstormPrompt,
}

// ParseName validates a template name. An empty string yields the zero Name.
func ParseName(s string) (Name, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Name{}, nil
	}
	if _, ok := prompts[s]; !ok {
		return Name{}, fmt.Errorf("%w %q (available: %s)", ErrUnknown, s, strings.Join(order, ", "))
	}
	return Name{name: s}, nil
}

// String returns the effective template name.
func (n Name) String() string {
	if n.name == "" {
		return Class
	}
	return n.name
}

// Prompt returns the instructions for this template.
func (n Name) Prompt() string {
	return prompts[n.String()]
}

// Names returns the available template names in canonical order.
func Names() []string {
	return append([]string(nil), order...)
}

// Instructions are written in English. For another output language,
// a "Respond in {language}." line is prepended by the caller.

const classPrompt = `Write Markdown notes that summarize the complete transcript of a university class.

Rules:
- Organize the notes with clear titles and subtitles
- Make them easy to read: bullet lists, numbered lists, bold, italics, headings and paragraph spacing
- You may add information that complements the notes, but mark every addition as not coming from the transcript
- Reference relevant concepts that are not explicitly mentioned when the context calls for it
- Include formulas (mathematical or illustrative) when the subject calls for it
- If the transcript contains errors or contradicts itself, correct them in the notes and flag each correction with a clarifying note
- Do not offer further help or ask follow-up questions, deliver only the notes`

const meetingPrompt = `Write Markdown meeting notes from the transcript.

Rules:
- H1 title: meeting subject
- "Participants" section only if names are mentioned
- One H2 per topic discussed
- "Decisions" section listing decisions made (omit if none)
- "Actions" section formatted "- [ ] Action (Owner, Deadline)" when mentioned
- Correct obvious transcription errors and mark corrections explicitly
- Do not invent content
- Deliver only the notes`

const brainstormPrompt = `Write Markdown notes from a brainstorming session transcript.

Rules:
- H1 title: main topic
- One H2 per theme, grouping related ideas
- One bullet point per idea
- Final section "Key Ideas" with the 3-5 most important insights
- Final section "Actions" only if concrete actions are mentioned
- Remove filler words, keep every idea
- Do not invent content
- Deliver only the notes`
