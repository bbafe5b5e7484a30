package model

// ConsumedInput is one declared input of a rule as it was seen at evaluation time.
// Sources lists every line that contributed; several sources were summed.
// Defaulted marks an absent optional form treated as zero.
type ConsumedInput struct {
	Name      string    `json:"name"`
	Sources   []NodeKey `json:"sources,omitempty"`
	Value     LineValue `json:"value"`
	Defaulted bool      `json:"defaulted,omitempty"`
}

// ProfileFact is one filing-profile fact a rule read.
type ProfileFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ProvenanceRecord explains how one line got its value.
type ProvenanceRecord struct {
	Node   NodeKey         `json:"node"`
	Rule   string          `json:"rule"`
	Inputs []ConsumedInput `json:"inputs,omitempty"`
	Facts  []ProfileFact   `json:"facts,omitempty"`
	Param  string          `json:"param,omitempty"`
	Value  LineValue       `json:"value"`
}

// Sources returns every line this record consumed, in input order.
func (r ProvenanceRecord) Sources() []NodeKey {
	var keys []NodeKey
	for _, in := range r.Inputs {
		keys = append(keys, in.Sources...)
	}
	return keys
}
