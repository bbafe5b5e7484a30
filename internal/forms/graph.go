package forms

import (
	"fmt"
	"sort"

	"github.com/Veraticus/the-tax-must-flow/internal/common"
	"github.com/Veraticus/the-tax-must-flow/internal/model"
)

// Instance is one form instance on a return.
type Instance struct {
	Form     model.FormType
	Key      string
	Index    int
	Supplied bool
}

// Dependency is one declared reference bound to the nodes it reads.
// Defaulted is set when no instance exists and the reference reads zero.
type Dependency struct {
	Ref       Ref
	Sources   []int
	Defaulted bool
}

// Node is one line of one form instance.
type Node struct {
	Form *Form
	Line *Line
	// Supplied holds the filer's value for an input line; unresolved when absent.
	Supplied model.LineValue
	Deps     []Dependency
	Key      model.NodeKey
}

// Graph is the line dependency graph for one return. Node indices follow
// canonical order: catalog order, then instance index, then line declaration
// order. A Graph is never modified after Build.
type Graph struct {
	catalog    *Catalog
	index      map[model.NodeKey]int
	nodes      []Node
	inputs     [][]int
	dependents [][]int
	instances  []Instance
	required   []model.FormType
	missing    common.ErrorSet
}

// Build validates the filer's form inputs against the catalog and
// instantiates every form the return requires.
//
// Shape problems (unknown forms or lines, computed lines supplied, value
// kinds that do not match the declaration, duplicate instances) fail with
// SchemaViolation errors. Absent required data does not fail Build; it is
// reported by Missing so the resolver can refuse to run.
func Build(c *Catalog, profile *model.FilingProfile, inputs []model.FormInput) (*Graph, error) {
	supplied, err := groupInputs(c, inputs)
	if err != nil {
		return nil, err
	}

	g := &Graph{catalog: c, index: make(map[model.NodeKey]int)}
	counts := g.instantiate(c, profile, supplied)

	for fi := range c.forms {
		f := &c.forms[fi]
		for idx := 0; idx < counts[f.Type]; idx++ {
			inst := Instance{Form: f.Type, Index: idx}
			var values map[model.LineID]model.LineValue
			if docs := supplied[f.Type]; idx < len(docs) {
				inst.Key = docs[idx].Key
				inst.Supplied = true
				values = docs[idx].Lines
			}
			g.instances = append(g.instances, inst)

			for li := range f.Lines {
				l := &f.Lines[li]
				key := model.Key(f.Type, idx, l.ID)
				n := Node{Form: f, Line: l, Key: key}
				if l.IsInput() {
					n.Supplied = values[l.ID]
					if !n.Supplied.Resolved() && l.Policy == InputRequired {
						g.missing = append(g.missing, &common.MissingInputError{Line: key.String()})
					}
				}
				g.index[key] = len(g.nodes)
				g.nodes = append(g.nodes, n)
			}
		}
	}

	g.bind(counts)
	return g, nil
}

func groupInputs(c *Catalog, inputs []model.FormInput) (map[model.FormType][]model.FormInput, error) {
	var violations common.ErrorSet
	violate := func(in model.FormInput, line model.LineID, format string, args ...any) {
		violations = append(violations, &common.SchemaViolationError{
			Form: string(in.Form), Key: in.Key, Line: string(line), Reason: fmt.Sprintf(format, args...),
		})
	}

	grouped := make(map[model.FormType][]model.FormInput)
	for _, in := range inputs {
		f, ok := c.Form(in.Form)
		if !ok {
			violate(in, "", "unknown form type")
			continue
		}
		if !f.Suppliable {
			violate(in, "", "form is computed and cannot be supplied")
			continue
		}

		ids := make([]model.LineID, 0, len(in.Lines))
		for id := range in.Lines {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		for _, id := range ids {
			v := in.Lines[id]
			l, ok := f.Line(id)
			switch {
			case !ok:
				violate(in, id, "unknown line")
			case !l.IsInput():
				violate(in, id, "line is computed and cannot be supplied")
			case v.Kind() != l.Kind:
				violate(in, id, "expected %s, got %s", l.Kind, v.Kind())
			}
		}
		grouped[in.Form] = append(grouped[in.Form], in)
	}

	for _, f := range c.forms {
		docs := grouped[f.Type]
		if len(docs) == 0 {
			continue
		}
		sort.SliceStable(docs, func(i, j int) bool { return docs[i].Key < docs[j].Key })
		if !f.Repeatable && len(docs) > 1 {
			violate(docs[1], "", "form is not repeatable; %d instances supplied", len(docs))
			continue
		}
		for i := 1; i < len(docs); i++ {
			if docs[i].Key == docs[i-1].Key {
				violate(docs[i], "", "duplicate instance key")
			}
		}
	}

	if len(violations) > 0 {
		return nil, violations
	}
	return grouped, nil
}

// instantiate decides how many instances of each form the return carries.
// Supplied forms count their documents; triggered forms get one instance.
func (g *Graph) instantiate(c *Catalog, profile *model.FilingProfile, supplied map[model.FormType][]model.FormInput) map[model.FormType]int {
	counts := make(map[model.FormType]int, len(c.forms))
	for t, docs := range supplied {
		counts[t] = len(docs)
	}

	for changed := true; changed; {
		changed = false
		for _, f := range c.forms {
			if counts[f.Type] > 0 || !triggered(f.Trigger, profile, counts) {
				continue
			}
			counts[f.Type] = 1
			changed = true
		}
	}

	for _, f := range c.forms {
		if counts[f.Type] > 0 {
			g.required = append(g.required, f.Type)
		}
	}
	return counts
}

func triggered(t Trigger, profile *model.FilingProfile, counts map[model.FormType]int) bool {
	if t.Always {
		return true
	}
	if t.Dependents && profile != nil && len(profile.Dependents) > 0 {
		return true
	}
	for _, other := range t.Forms {
		if counts[other] > 0 {
			return true
		}
	}
	return false
}

// bind resolves every reference to node indices and builds both adjacency lists.
func (g *Graph) bind(counts map[model.FormType]int) {
	g.inputs = make([][]int, len(g.nodes))
	g.dependents = make([][]int, len(g.nodes))

	for i := range g.nodes {
		n := &g.nodes[i]
		if n.Line.IsInput() {
			continue
		}
		seen := make(map[int]bool)
		for _, r := range n.Line.Refs {
			dep := Dependency{Ref: r}
			switch r.Scope {
			case ScopeSameInstance:
				if j, ok := g.index[model.Key(r.Form, n.Key.Instance, r.Line)]; ok {
					dep.Sources = []int{j}
				}
			case ScopeSingle:
				if j, ok := g.index[model.Key(r.Form, 0, r.Line)]; ok {
					dep.Sources = []int{j}
				}
			case ScopeAllInstances:
				for idx := 0; idx < counts[r.Form]; idx++ {
					dep.Sources = append(dep.Sources, g.index[model.Key(r.Form, idx, r.Line)])
				}
			}

			if len(dep.Sources) == 0 {
				if r.Absent == AbsentRequired {
					g.missing = append(g.missing, &common.MissingInputError{Line: n.Key.String(), Reference: r.Target()})
				}
				dep.Defaulted = true
			}
			for _, j := range dep.Sources {
				if !seen[j] {
					seen[j] = true
					g.inputs[i] = append(g.inputs[i], j)
					g.dependents[j] = append(g.dependents[j], i)
				}
			}
			n.Deps = append(n.Deps, dep)
		}
		sort.Ints(g.inputs[i])
	}
	for j := range g.dependents {
		sort.Ints(g.dependents[j])
	}
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// Node returns node i. The result must not be modified.
func (g *Graph) Node(i int) *Node { return &g.nodes[i] }

// Lookup returns the index of key.
func (g *Graph) Lookup(key model.NodeKey) (int, bool) {
	i, ok := g.index[key]
	return i, ok
}

// InputIndices returns the distinct nodes i reads, ascending.
func (g *Graph) InputIndices(i int) []int { return g.inputs[i] }

// DependentIndices returns the distinct nodes that read i, ascending.
func (g *Graph) DependentIndices(i int) []int { return g.dependents[i] }

// Inputs answers "which lines does key read".
func (g *Graph) Inputs(key model.NodeKey) ([]model.NodeKey, bool) {
	i, ok := g.index[key]
	if !ok {
		return nil, false
	}
	return g.keys(g.inputs[i]), true
}

// Dependents answers "which lines read key".
func (g *Graph) Dependents(key model.NodeKey) ([]model.NodeKey, bool) {
	i, ok := g.index[key]
	if !ok {
		return nil, false
	}
	return g.keys(g.dependents[i]), true
}

func (g *Graph) keys(idx []int) []model.NodeKey {
	keys := make([]model.NodeKey, len(idx))
	for k, i := range idx {
		keys[k] = g.nodes[i].Key
	}
	return keys
}

// Instances returns every form instance in canonical order.
func (g *Graph) Instances() []Instance { return g.instances }

// RequiredForms lists the form types this return must carry, in catalog order.
func (g *Graph) RequiredForms() []model.FormType { return g.required }

// Missing returns one MissingInputError per absent required line or reference.
func (g *Graph) Missing() []error { return g.missing }

// Catalog returns the catalog the graph was built from.
func (g *Graph) Catalog() *Catalog { return g.catalog }
