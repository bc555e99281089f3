package core

import (
	"sort"
	"strings"
)

// CompanyRef is the durable identity of a company: its id and partition key.
type CompanyRef struct {
	ID   string `json:"company_id"`
	Name string `json:"company_name"`
}

func (r CompanyRef) IsZero() bool {
	return r.ID == "" && r.Name == ""
}

// Directory is an immutable id->name snapshot of every known company.
type Directory struct {
	byID map[string]string
}

// NewDirectory copies entries, so later changes to the map do not leak into the snapshot.
func NewDirectory(entries map[string]string) Directory {
	byID := make(map[string]string, len(entries))
	for id, name := range entries {
		byID[id] = name
	}
	return Directory{byID: byID}
}

func (d Directory) Len() int {
	return len(d.byID)
}

func (d Directory) Name(id string) (string, bool) {
	name, ok := d.byID[id]
	return name, ok
}

// Entries returns all refs ordered by name, then id.
func (d Directory) Entries() []CompanyRef {
	refs := make([]CompanyRef, 0, len(d.byID))
	for id, name := range d.byID {
		refs = append(refs, CompanyRef{ID: id, Name: name})
	}
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Name != refs[j].Name {
			return refs[i].Name < refs[j].Name
		}
		return refs[i].ID < refs[j].ID
	})
	return refs
}

// FindByName returns every entry whose name equals name ignoring case.
func (d Directory) FindByName(name string) []CompanyRef {
	var out []CompanyRef
	for _, ref := range d.Entries() {
		if strings.EqualFold(ref.Name, name) {
			out = append(out, ref)
		}
	}
	return out
}
