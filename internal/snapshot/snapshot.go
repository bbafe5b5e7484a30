// Package snapshot reads the YAML input snapshot: one filing profile plus
// the raw form lines for one tax year.
//
//	tax_year: 2025
//	profile:
//	  status: single
//	  taxpayer: {age: 34}
//	forms:
//	  - form: W2
//	    key: acme
//	    lines:
//	      wages: 50000
//	      federal_withholding: "4,200.00"
package snapshot

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/Veraticus/the-tax-must-flow/internal/common"
	"github.com/Veraticus/the-tax-must-flow/internal/engine"
	"github.com/Veraticus/the-tax-must-flow/internal/forms"
	"github.com/Veraticus/the-tax-must-flow/internal/model"
	"github.com/Veraticus/the-tax-must-flow/internal/money"
	"github.com/Veraticus/the-tax-must-flow/internal/taxyear"
)

// ErrInvalidSnapshot is returned for a snapshot that cannot be decoded.
var ErrInvalidSnapshot = errors.New("invalid snapshot")

// Snapshot is one decoded input file.
type Snapshot struct {
	Label   string
	Forms   []model.FormInput
	Profile model.FilingProfile
	TaxYear int
}

type fileForm struct {
	Lines yaml.Node `yaml:"lines"`
	Form  string    `yaml:"form"`
	Key   string    `yaml:"key"`
}

type file struct {
	Label   string              `yaml:"label"`
	Forms   []fileForm          `yaml:"forms"`
	Profile model.FilingProfile `yaml:"profile"`
	TaxYear int                 `yaml:"tax_year"`
}

// LoadFile reads and decodes the snapshot at path.
func LoadFile(path string, c *forms.Catalog) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	s, err := Decode(bytes.NewReader(data), c)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Decode reads a snapshot. Line values are typed from the catalog: an amount
// line takes a number or a currency string, a flag takes a boolean and a
// choice takes a string. Lines of forms the catalog does not know keep the
// YAML scalar type so graph construction can report them.
func Decode(r io.Reader, c *forms.Catalog) (*Snapshot, error) {
	var f file
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidSnapshot)
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}

	if f.TaxYear <= 0 {
		return nil, fmt.Errorf("%w: tax_year is required", ErrInvalidSnapshot)
	}
	status, err := model.ParseFilingStatus(string(f.Profile.Status))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	f.Profile.Status = status

	s := &Snapshot{Label: f.Label, TaxYear: f.TaxYear, Profile: f.Profile}
	var errs common.ErrorSet
	for i, ff := range f.Forms {
		in, err := decodeForm(c, ff)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: forms[%d] (%s): %w", ErrInvalidSnapshot, i, ff.Form, err))
			continue
		}
		s.Forms = append(s.Forms, in)
	}
	if err := errs.OrNil(); err != nil {
		return nil, err
	}
	return s, nil
}

func decodeForm(c *forms.Catalog, ff fileForm) (model.FormInput, error) {
	in := model.FormInput{Form: model.FormType(ff.Form), Key: ff.Key, Lines: map[model.LineID]model.LineValue{}}
	if ff.Form == "" {
		return in, errors.New("form is required")
	}
	if ff.Lines.Kind == 0 {
		return in, nil
	}
	if ff.Lines.Kind != yaml.MappingNode {
		return in, fmt.Errorf("line %d: lines must be a mapping", ff.Lines.Line)
	}

	def, _ := c.Form(in.Form)
	nodes := ff.Lines.Content
	for i := 0; i+1 < len(nodes); i += 2 {
		name, value := nodes[i], nodes[i+1]
		id := model.LineID(name.Value)
		if _, dup := in.Lines[id]; dup {
			return in, fmt.Errorf("line %d: %s given twice", name.Line, id)
		}

		kind := model.KindUnresolved
		if def != nil {
			if l, ok := def.Line(id); ok {
				kind = l.Kind
			}
		}
		v, err := decodeValue(value, kind)
		if err != nil {
			return in, fmt.Errorf("line %d: %s: %w", value.Line, id, err)
		}
		in.Lines[id] = v
	}
	return in, nil
}

func decodeValue(n *yaml.Node, kind model.ValueKind) (model.LineValue, error) {
	if n.Kind != yaml.ScalarNode || n.Tag == "!!null" {
		return model.LineValue{}, errors.New("expected a scalar value")
	}

	switch kind {
	case model.KindAmount:
		a, err := money.Parse(n.Value)
		if err != nil {
			return model.LineValue{}, err
		}
		return model.AmountValue(a), nil
	case model.KindBool:
		b, err := strconv.ParseBool(n.Value)
		if err != nil {
			return model.LineValue{}, fmt.Errorf("expected true or false, got %q", n.Value)
		}
		return model.BoolValue(b), nil
	case model.KindChoice:
		return model.ChoiceValue(n.Value), nil
	}

	switch n.Tag {
	case "!!int", "!!float":
		a, err := money.Parse(n.Value)
		if err != nil {
			return model.LineValue{}, err
		}
		return model.AmountValue(a), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return model.LineValue{}, err
		}
		return model.BoolValue(b), nil
	}
	return model.ChoiceValue(n.Value), nil
}

// Request pairs the snapshot with its year's parameters.
func (s *Snapshot) Request(reg *taxyear.Registry) (engine.Request, error) {
	params, err := reg.Get(s.TaxYear)
	if err != nil {
		return engine.Request{}, err
	}
	profile := s.Profile
	return engine.Request{Params: params, Profile: &profile, Forms: s.Forms}, nil
}

// Encode writes s back as YAML with lines in name order.
func Encode(w io.Writer, s *Snapshot) error {
	out := file{Label: s.Label, TaxYear: s.TaxYear, Profile: s.Profile}
	for _, in := range s.Forms {
		ff := fileForm{Form: string(in.Form), Key: in.Key}
		ff.Lines.Kind = yaml.MappingNode

		ids := make([]string, 0, len(in.Lines))
		for id := range in.Lines {
			ids = append(ids, string(id))
		}
		sort.Strings(ids)
		for _, id := range ids {
			v := in.Lines[model.LineID(id)]
			key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: id}
			val := &yaml.Node{Kind: yaml.ScalarNode}
			switch v.Kind() {
			case model.KindAmount:
				a, _ := v.Amount()
				val.Value = a.Canonical()
			case model.KindBool:
				b, _ := v.Bool()
				val.Value = strconv.FormatBool(b)
			default:
				c, _ := v.Choice()
				val.Tag, val.Value = "!!str", c
			}
			ff.Lines.Content = append(ff.Lines.Content, key, val)
		}
		out.Forms = append(out.Forms, ff)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return enc.Close()
}
