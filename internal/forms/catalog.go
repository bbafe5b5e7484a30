// Package forms is the static form graph model: which forms exist, the lines
// each one carries, and which other lines each computed line reads.
//
// The catalog is declared once. Build instantiates it for one return's inputs
// and yields the line-level dependency graph the resolver orders.
package forms

import (
	"fmt"

	"github.com/Veraticus/the-tax-must-flow/internal/model"
)

// Scope says which instances of the target form a reference reads.
type Scope uint8

// Reference scopes.
const (
	// ScopeSingle reads the one instance of a non-repeatable form.
	ScopeSingle Scope = iota
	// ScopeSameInstance reads another line of the referencing instance.
	ScopeSameInstance
	// ScopeAllInstances reads every instance: amounts are summed, flags OR'ed.
	ScopeAllInstances
)

// Absent says what happens when a reference has no instance to read.
type Absent uint8

// Absent policies.
const (
	// AbsentRequired fails the run with a MissingInput error.
	AbsentRequired Absent = iota
	// AbsentZero reads zero (or false) and marks the input as defaulted.
	AbsentZero
)

// Ref declares one input of a computed line.
type Ref struct {
	Name   string
	Form   model.FormType
	Line   model.LineID
	Scope  Scope
	Absent Absent
}

// Target renders the referenced line as "Form.line".
func (r Ref) Target() string {
	return fmt.Sprintf("%s.%s", r.Form, r.Line)
}

// InputPolicy applies to lines the filer supplies.
type InputPolicy uint8

// Input policies.
const (
	// InputDefaultZero reads zero (or false, or the empty choice) when not supplied.
	InputDefaultZero InputPolicy = iota
	// InputRequired fails the run with MissingInput when not supplied.
	InputRequired
)

// Line declares one line of a form. A line with an empty Rule is an input line.
type Line struct {
	ID     model.LineID
	Rule   string
	Param  string
	Refs   []Ref
	Facts  []string
	Kind   model.ValueKind
	Policy InputPolicy
}

// IsInput reports whether the filer supplies this line.
func (l *Line) IsInput() bool { return l.Rule == "" }

// Trigger decides when a form belongs on a return. The conditions are OR'ed.
type Trigger struct {
	Forms      []model.FormType
	Always     bool
	Supplied   bool
	Dependents bool
}

// Form declares one form type.
type Form struct {
	Type       model.FormType
	Title      string
	Lines      []Line
	Trigger    Trigger
	Repeatable bool
	// Suppliable forms accept filer input. Derived-only forms reject it.
	Suppliable bool
}

// Line returns the declaration of id.
func (f *Form) Line(id model.LineID) (*Line, bool) {
	for i := range f.Lines {
		if f.Lines[i].ID == id {
			return &f.Lines[i], true
		}
	}
	return nil, false
}

// Catalog is an immutable, ordered set of form declarations. Catalog order
// is the primary tie-break when ordering lines.
type Catalog struct {
	index map[model.FormType]int
	forms []Form
}

// NewCatalog validates and indexes form declarations. It does not look for
// cycles; that is the resolver's job and a cyclic catalog is representable.
func NewCatalog(forms ...Form) (*Catalog, error) {
	forms = append([]Form(nil), forms...)
	c := &Catalog{index: make(map[model.FormType]int, len(forms)), forms: forms}
	for i, f := range forms {
		if _, dup := c.index[f.Type]; dup {
			return nil, fmt.Errorf("form %s declared twice", f.Type)
		}
		c.index[f.Type] = i
	}

	for i := range forms {
		f := &forms[i]
		seen := make(map[model.LineID]bool, len(f.Lines))
		for j := range f.Lines {
			l := &f.Lines[j]
			if seen[l.ID] {
				return nil, fmt.Errorf("%s.%s declared twice", f.Type, l.ID)
			}
			seen[l.ID] = true
			if l.Kind == model.KindUnresolved {
				return nil, fmt.Errorf("%s.%s has no value kind", f.Type, l.ID)
			}
			if l.IsInput() && len(l.Refs) > 0 {
				return nil, fmt.Errorf("%s.%s is an input line with references", f.Type, l.ID)
			}
			for _, r := range l.Refs {
				if err := c.checkRef(f, l, r); err != nil {
					return nil, err
				}
			}
		}
		for _, t := range f.Trigger.Forms {
			if _, ok := c.index[t]; !ok {
				return nil, fmt.Errorf("%s is triggered by undeclared form %s", f.Type, t)
			}
		}
	}
	return c, nil
}

func (c *Catalog) checkRef(f *Form, l *Line, r Ref) error {
	where := fmt.Sprintf("%s.%s reference %q", f.Type, l.ID, r.Name)
	if r.Name == "" {
		return fmt.Errorf("%s.%s has an unnamed reference", f.Type, l.ID)
	}
	target, ok := c.Form(r.Form)
	if !ok {
		return fmt.Errorf("%s: unknown form %s", where, r.Form)
	}
	tl, ok := target.Line(r.Line)
	if !ok {
		return fmt.Errorf("%s: unknown line %s", where, r.Target())
	}
	switch r.Scope {
	case ScopeSameInstance:
		if r.Form != f.Type {
			return fmt.Errorf("%s: same-instance scope must stay within %s", where, f.Type)
		}
	case ScopeSingle:
		if target.Repeatable {
			return fmt.Errorf("%s: %s is repeatable and needs all-instances scope", where, r.Form)
		}
	case ScopeAllInstances:
		if tl.Kind == model.KindChoice {
			return fmt.Errorf("%s: choice lines cannot be combined across instances", where)
		}
	}
	return nil
}

// Forms returns the declarations in catalog order.
func (c *Catalog) Forms() []Form {
	return c.forms
}

// Form returns the declaration for t.
func (c *Catalog) Form(t model.FormType) (*Form, bool) {
	i, ok := c.index[t]
	if !ok {
		return nil, false
	}
	return &c.forms[i], true
}

// Position returns t's catalog position.
func (c *Catalog) Position(t model.FormType) int {
	if i, ok := c.index[t]; ok {
		return i
	}
	return len(c.forms)
}

// Rules returns every rule id the catalog uses.
func (c *Catalog) Rules() []string {
	seen := make(map[string]bool)
	var rules []string
	for _, f := range c.forms {
		for _, l := range f.Lines {
			if !l.IsInput() && !seen[l.Rule] {
				seen[l.Rule] = true
				rules = append(rules, l.Rule)
			}
		}
	}
	return rules
}
