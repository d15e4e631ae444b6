package extract

import (
	"sort"
	"strings"

	"github.com/tidwall/gjson"

	"biotriage/domain/narrative"
	"biotriage/domain/program"
	"biotriage/domain/triage"
)

// Extractor pulls structured sections and disagreements out of free-text
// oracle output. The text has no guaranteed structure: it may be prose,
// bullets, headed sections, or JSON. Extraction is best-effort and never
// fails; an empty result just means nothing recognizable was found.
type Extractor struct{}

// New creates an Extractor.
func New() *Extractor {
	return &Extractor{}
}

// Category cue phrases, tested against lowercased text. Order matters:
// follow-up cues are checked before confounder cues before reactive before
// driver, because "likely reactive rather than a driver" must not land in the
// driver bucket on the "driver" substring alone.
var (
	followUpCues = []string{
		"follow-up", "follow up", "followup", "next step", "validate", "validation",
		"recommend", "suggest testing", "experiment to", "would test", "orthogonal",
	}
	confounderCues = []string{
		"confound", "artifact", "artefact", "technical", "batch effect", "ambient",
		"composition", "dissociation", "contamination", "qc concern", "implausible",
	}
	reactiveCues = []string{
		"reactive", "secondary", "downstream", "consequence", "stress response",
		"general stress", "nonspecific", "non-specific", "bystander",
	}
	driverCues = []string{
		"driver", "causal", "likely cause", "upstream", "mechanistic",
		"plausibly causal", "primary program",
	}
)

// Section header phrases that set a sticky category for following lines.
var headerCategories = []struct {
	phrases  []string
	category narrative.Category
}{
	{[]string{"follow-up", "follow up", "next steps", "recommended experiments"}, narrative.SectionFollowUp},
	{[]string{"confounder", "artifacts", "technical concerns", "caveats"}, narrative.SectionConfounder},
	{[]string{"reactive", "secondary programs", "downstream"}, narrative.SectionReactive},
	{[]string{"driver", "likely drivers", "causal programs"}, narrative.SectionDriver},
}

// Extract segments the narrative text into categorized sections and
// cross-references them against the scorer's classifications to surface
// disagreements. Safe on empty, garbled, or adversarial input.
func (e *Extractor) Extract(text string, programs []program.Program) ([]narrative.Section, []triage.Disagreement) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	var fragments []string
	if json := gjson.Parse(text); json.IsObject() || json.IsArray() {
		fragments = jsonLeaves(json)
	} else {
		fragments = segment(text)
	}

	sections := categorize(fragments)
	disagreements := findDisagreements(sections, programs)
	return sections, disagreements
}

// jsonLeaves walks a JSON document collecting every string leaf. Oracle JSON
// shapes vary too much to bind a schema; the leaves carry the prose.
func jsonLeaves(v gjson.Result) []string {
	var out []string
	var walk func(r gjson.Result)
	walk = func(r gjson.Result) {
		switch {
		case r.IsObject() || r.IsArray():
			r.ForEach(func(_, child gjson.Result) bool {
				walk(child)
				return true
			})
		case r.Type == gjson.String:
			s := strings.TrimSpace(r.String())
			if s != "" {
				out = append(out, s)
			}
		}
	}
	walk(v)
	return out
}

// segment splits prose into paragraph and bullet fragments.
func segment(text string) []string {
	var out []string
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		lines := strings.Split(para, "\n")
		bullets := 0
		for _, l := range lines {
			if isBullet(l) {
				bullets++
			}
		}
		if bullets >= 2 {
			for _, l := range lines {
				l = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(l), "-*•0123456789.) "))
				if l != "" {
					out = append(out, l)
				}
			}
			continue
		}
		out = append(out, strings.Join(strings.Fields(para), " "))
	}
	return out
}

func isBullet(line string) bool {
	l := strings.TrimSpace(line)
	if l == "" {
		return false
	}
	if strings.HasPrefix(l, "-") || strings.HasPrefix(l, "*") || strings.HasPrefix(l, "•") {
		return true
	}
	// "1." / "2)" numbered lists
	if len(l) >= 2 && l[0] >= '0' && l[0] <= '9' && (l[1] == '.' || l[1] == ')') {
		return true
	}
	return false
}

// categorize assigns each fragment to a narrative category. A fragment that
// looks like a section header sets a sticky category for subsequent
// fragments; otherwise cue phrases in the fragment itself decide.
func categorize(fragments []string) []narrative.Section {
	var sections []narrative.Section
	sticky := narrative.Category("")

	for _, f := range fragments {
		low := strings.ToLower(f)

		if len(f) < 80 {
			if cat, ok := headerCategory(low); ok {
				sticky = cat
				// Headers with no content of their own are consumed.
				if looksLikeHeader(f) {
					continue
				}
			}
		}

		cat, conf := cueCategory(low)
		if cat == "" {
			if sticky == "" {
				continue
			}
			cat, conf = sticky, 0.5
		}
		sections = append(sections, narrative.Section{
			Category:   cat,
			Text:       f,
			Confidence: conf,
		})
	}
	return sections
}

func headerCategory(low string) (narrative.Category, bool) {
	for _, h := range headerCategories {
		for _, p := range h.phrases {
			if strings.Contains(low, p) {
				return h.category, true
			}
		}
	}
	return "", false
}

func looksLikeHeader(f string) bool {
	trimmed := strings.TrimRight(strings.TrimSpace(f), ":")
	return len(strings.Fields(trimmed)) <= 6 && !strings.ContainsAny(trimmed, ".!?")
}

func cueCategory(low string) (narrative.Category, float64) {
	for _, c := range followUpCues {
		if strings.Contains(low, c) {
			return narrative.SectionFollowUp, 0.8
		}
	}
	for _, c := range confounderCues {
		if strings.Contains(low, c) {
			return narrative.SectionConfounder, 0.8
		}
	}
	for _, c := range reactiveCues {
		if strings.Contains(low, c) {
			return narrative.SectionReactive, 0.8
		}
	}
	for _, c := range driverCues {
		if strings.Contains(low, c) {
			return narrative.SectionDriver, 0.8
		}
	}
	return "", 0
}

// findDisagreements reports programs whose narrative-assigned category
// conflicts with the scorer classification. At most one disagreement per
// program; the scorer's classification always stands in the structured views.
func findDisagreements(sections []narrative.Section, programs []program.Program) []triage.Disagreement {
	byProgram := make(map[string]triage.Disagreement)

	for _, s := range sections {
		low := strings.ToLower(s.Text)
		for _, p := range programs {
			if _, done := byProgram[p.ID]; done {
				continue
			}
			if !mentions(low, p) {
				continue
			}
			if reason, conflict := conflictReason(s.Category, p.Classification); conflict {
				byProgram[p.ID] = triage.Disagreement{ProgramID: p.ID, Reason: reason}
			}
		}
	}

	out := make([]triage.Disagreement, 0, len(byProgram))
	for _, d := range byProgram {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProgramID < out[j].ProgramID })
	return out
}

// mentions tests whether the text names the program, by id or by normalized
// label ("ECM_FIBROSIS" matches "ecm fibrosis" in prose).
func mentions(low string, p program.Program) bool {
	if strings.Contains(low, strings.ToLower(p.ID)) {
		return true
	}
	label := strings.ToLower(strings.ReplaceAll(p.Label, "_", " "))
	if label != "" && strings.Contains(strings.ReplaceAll(low, "_", " "), label) {
		return true
	}
	return false
}

func conflictReason(cat narrative.Category, cls program.Classification) (string, bool) {
	switch {
	case cat == narrative.SectionDriver && (cls == program.Reactive || cls == program.Artifact):
		return "narrative argues driver, deterministic triage says " + string(cls), true
	case cat == narrative.SectionReactive && cls == program.Driver:
		return "narrative argues reactive, deterministic triage says driver", true
	case cat == narrative.SectionConfounder && cls == program.Driver:
		return "narrative argues confounded, deterministic triage says driver", true
	}
	return "", false
}
