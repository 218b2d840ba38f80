package core

import "regexp"

// FileState is the per-file mapping from variable name to VariableState
// (spec §3, §4.4). It is built by two sequential passes over the file and
// is owned by the per-file analysis call — never lifted to process-wide
// storage (Design Note, spec §9).
type FileState struct {
	vocab           Vocabulary
	vars            map[string]*VariableState
	order           []string
	securedAssignRE *regexp.Regexp
}

// NewFileState seeds an empty FileState for vocab's vocabulary. The
// mark-secured regex is built here from vocab.EscapeFunc rather than a
// hardcoded name, so an overridden escape function (internal/config)
// is recognized the same way the AST pass recognizes it.
func NewFileState(vocab Vocabulary) *FileState {
	return &FileState{
		vocab: vocab,
		vars:  make(map[string]*VariableState),
		securedAssignRE: regexp.MustCompile(
			`^\s*\$(\w+)\s*=\s*` + regexp.QuoteMeta(vocab.EscapeFunc) + `\s*\(`),
	}
}

// Get returns the VariableState for name, or nil if it was never seeded.
func (s *FileState) Get(name string) *VariableState {
	return s.vars[name]
}

// All returns every seeded VariableState in first-seeded order.
func (s *FileState) All() []*VariableState {
	out := make([]*VariableState, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.vars[name])
	}
	return out
}

func (s *FileState) ensure(name string, line int) *VariableState {
	v, ok := s.vars[name]
	if !ok {
		v = newVariableState(name, line)
		s.vars[name] = v
		s.order = append(s.order, name)
	}
	return v
}

var superglobalElementAssignRE = regexp.MustCompile(
	`^\s*\$(\w+)\s*=\s*\$(_POST|_GET|_REQUEST|_COOKIE|_SESSION)\s*\[`)

// Seed runs the seeding pass (spec §4.4 step 1): superglobal-element
// assignments and foreach bindings recognized from the raw line text,
// then every AST VariableFact folded in, upgrading shape toward Array and
// unioning reasons.
func (s *FileState) Seed(idx *LineIndex, facts *Facts) {
	for n := 1; n <= idx.LineCount(); n++ {
		if idx.IsSkippable(n) {
			continue
		}
		line := idx.Text(n)
		if m := superglobalElementAssignRE.FindStringSubmatch(line); m != nil {
			v := s.ensure(m[1], n)
			v.UpgradeShape(ShapeScalar)
			v.AddReason("superglobal_element_assignment")
		}
	}

	for _, vf := range facts.Variables {
		v := s.ensure(vf.Name, vf.Line)
		v.UpgradeShape(vf.Shape)
		v.AddReason(vf.Reason)
		if vf.Secured {
			v.Secured = true
		}
	}
}

// MarkSecured runs the mark-secured pass (spec §4.4 step 2): any line
// matching `$name = <escape func>(...)` (optionally `?? default`) marks
// that variable secured; AST facts with reason secured_with_escape do
// too (already folded in by Seed, restated here for variables the
// regex catches that the AST pass missed, e.g. inside an expression the
// collector didn't walk into as an assignment_expression).
func (s *FileState) MarkSecured(idx *LineIndex) {
	for n := 1; n <= idx.LineCount(); n++ {
		if idx.IsSkippable(n) {
			continue
		}
		line := idx.Text(n)
		m := s.securedAssignRE.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		v := s.vars[m[1]]
		if v == nil {
			v = s.ensure(m[1], n)
		}
		v.Secured = true
		v.AddReason("secured_with_escape")
	}
}
