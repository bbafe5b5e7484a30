package assembler

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/Veraticus/the-tax-must-flow/internal/model"
	"github.com/Veraticus/the-tax-must-flow/internal/money"
)

// ErrDigestMismatch means a decoded return does not hash to its recorded digest.
var ErrDigestMismatch = errors.New("return digest mismatch")

// LineEntry is one resolved line of a form instance.
type LineEntry struct {
	ID    model.LineID    `json:"line"`
	Value model.LineValue `json:"value"`
}

// FormInstance is one form on the return with its lines in declaration order.
type FormInstance struct {
	Form     model.FormType `json:"form"`
	Key      string         `json:"key,omitempty"`
	Lines    []LineEntry    `json:"lines"`
	Index    int            `json:"index"`
	Supplied bool           `json:"supplied,omitempty"`
}

// Line returns the value of id on this instance.
func (f FormInstance) Line(id model.LineID) (model.LineValue, bool) {
	for _, l := range f.Lines {
		if l.ID == id {
			return l.Value, true
		}
	}
	return model.LineValue{}, false
}

// ComputedReturn is the immutable result of one computation.
type ComputedReturn struct {
	records    map[model.NodeKey]int
	status     model.FilingStatus
	digest     string
	forms      []FormInstance
	provenance []model.ProvenanceRecord
	year       int
}

type returnJSON struct {
	Status     model.FilingStatus       `json:"filing_status"`
	Digest     string                   `json:"digest,omitempty"`
	Forms      []FormInstance           `json:"forms"`
	Provenance []model.ProvenanceRecord `json:"provenance"`
	Year       int                      `json:"tax_year"`
}

// canonical is the digest input: the encoded return without its digest.
func (r *ComputedReturn) canonical() ([]byte, error) {
	return json.Marshal(returnJSON{Year: r.year, Status: r.status, Forms: r.forms, Provenance: r.provenance})
}

func (r *ComputedReturn) seal() error {
	data, err := r.canonical()
	if err != nil {
		return fmt.Errorf("failed to encode return: %w", err)
	}
	sum := sha256.Sum256(data)
	r.digest = hex.EncodeToString(sum[:])

	r.records = make(map[model.NodeKey]int, len(r.provenance))
	for i, rec := range r.provenance {
		r.records[rec.Node] = i
	}
	return nil
}

// Year returns the tax year.
func (r *ComputedReturn) Year() int { return r.year }

// Status returns the filing status.
func (r *ComputedReturn) Status() model.FilingStatus { return r.status }

// Digest is the hex sha256 of the canonical encoding. Two computations from
// the same snapshot and parameters have the same digest.
func (r *ComputedReturn) Digest() string { return r.digest }

// Forms returns the form instances in canonical order.
func (r *ComputedReturn) Forms() []FormInstance {
	return append([]FormInstance(nil), r.forms...)
}

// Provenance returns every provenance record in canonical order.
func (r *ComputedReturn) Provenance() []model.ProvenanceRecord {
	return append([]model.ProvenanceRecord(nil), r.provenance...)
}

// Line returns one line's value.
func (r *ComputedReturn) Line(form model.FormType, instance int, line model.LineID) (model.LineValue, bool) {
	rec, ok := r.Explain(model.Key(form, instance, line))
	if !ok {
		return model.LineValue{}, false
	}
	return rec.Value, true
}

// Amount returns an amount line, or false when the line is absent or not an amount.
func (r *ComputedReturn) Amount(form model.FormType, instance int, line model.LineID) (money.Amount, bool) {
	v, ok := r.Line(form, instance, line)
	if !ok {
		return money.Zero, false
	}
	return v.Amount()
}

// Explain returns the provenance record of key.
func (r *ComputedReturn) Explain(key model.NodeKey) (model.ProvenanceRecord, bool) {
	i, ok := r.records[key]
	if !ok {
		return model.ProvenanceRecord{}, false
	}
	return r.provenance[i], true
}

// Trace returns the records of key and every line it transitively consumed,
// in canonical order.
func (r *ComputedReturn) Trace(key model.NodeKey) []model.ProvenanceRecord {
	start, ok := r.records[key]
	if !ok {
		return nil
	}
	seen := map[int]bool{start: true}
	stack := []int{start}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, src := range r.provenance[i].Sources() {
			j, ok := r.records[src]
			if ok && !seen[j] {
				seen[j] = true
				stack = append(stack, j)
			}
		}
	}

	idx := make([]int, 0, len(seen))
	for i := range seen {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	out := make([]model.ProvenanceRecord, len(idx))
	for k, i := range idx {
		out[k] = r.provenance[i]
	}
	return out
}

// MarshalJSON encodes the return with its digest.
func (r *ComputedReturn) MarshalJSON() ([]byte, error) {
	return json.Marshal(returnJSON{
		Year: r.year, Status: r.status, Forms: r.forms, Provenance: r.provenance, Digest: r.digest,
	})
}

// Decode restores an encoded return and checks that it still hashes to the
// digest it was stored with.
func Decode(data []byte) (*ComputedReturn, error) {
	var in returnJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("failed to decode return: %w", err)
	}
	r := &ComputedReturn{year: in.Year, status: in.Status, forms: in.Forms, provenance: in.Provenance}
	if err := r.seal(); err != nil {
		return nil, err
	}
	if r.digest != in.Digest {
		return nil, fmt.Errorf("%w: recorded %s, computed %s", ErrDigestMismatch, in.Digest, r.digest)
	}
	return r, nil
}
