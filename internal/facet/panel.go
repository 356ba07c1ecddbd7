package facet

import (
	"fmt"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// Value is one checkbox of a facet group.
type Value struct {
	Value   string
	Label   string
	Checked bool
}

// Group is one facet as presented in the panel.
type Group struct {
	Name     string
	Label    string
	Expanded bool
	Selected int
	Values   []Value
}

// Chip is one active selection shown above the product list.
type Chip struct {
	Facet      string
	FacetLabel string
	Value      string
	Label      string
}

// Panel holds the facet definitions fetched for one category, the current
// selection and the expansion state of each group. A Panel is not safe for
// concurrent use; the owning view serializes access.
type Panel struct {
	defs     []domain.FilterDefinition
	sel      Selection
	expanded map[string]bool

	// OnChange, when set, receives every updated selection.
	OnChange func(Selection)
}

// NewPanel returns a panel over defs with all groups expanded.
func NewPanel(defs []domain.FilterDefinition, sel Selection) *Panel {
	p := &Panel{}
	p.SetDefinitions(defs)
	p.sel = sel.Normalize()
	return p
}

// SetDefinitions replaces the offered facets and expands every group.
func (p *Panel) SetDefinitions(defs []domain.FilterDefinition) {
	p.defs = domain.ActiveFilters(defs)
	p.expanded = make(map[string]bool, len(p.defs))
	for _, d := range p.defs {
		p.expanded[d.Name] = true
	}
}

// Definitions returns the active definitions in display order.
func (p *Panel) Definitions() []domain.FilterDefinition {
	return p.defs
}

// Selection returns a copy of the current selection.
func (p *Panel) Selection() Selection {
	return p.sel.Clone()
}

// SetSelection replaces the selection without emitting a change.
func (p *Panel) SetSelection(sel Selection) {
	p.sel = sel.Normalize()
}

// HasAvailableFilters reports whether any group offers a value.
func (p *Panel) HasAvailableFilters() bool {
	return domain.HasAvailableFilters(p.defs)
}

// Groups returns the facets in display order with their active values.
func (p *Panel) Groups() []Group {
	groups := make([]Group, 0, len(p.defs))
	for _, d := range p.defs {
		active := d.ActiveValues()
		g := Group{
			Name:     d.Name,
			Label:    d.Label(),
			Expanded: p.expanded[d.Name],
			Selected: len(p.sel[d.Name]),
			Values:   make([]Value, 0, len(active)),
		}
		for _, v := range active {
			g.Values = append(g.Values, Value{
				Value:   v.Value,
				Label:   v.Label(),
				Checked: p.sel.Has(d.Name, v.Value),
			})
		}
		groups = append(groups, g)
	}
	return groups
}

// ToggleGroup flips the expansion of a group.
func (p *Panel) ToggleGroup(name string) {
	if _, ok := p.expanded[name]; ok {
		p.expanded[name] = !p.expanded[name]
	}
}

// Toggle checks or unchecks value of facet and emits the full updated
// selection. Values not offered by the panel are rejected.
func (p *Panel) Toggle(facet, value string) (Selection, error) {
	def, ok := p.definition(facet)
	if !ok {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown filter %q", facet))
	}
	if !def.HasValue(value) && !p.sel.Has(facet, value) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown value %q for filter %q", value, facet))
	}
	return p.emit(p.sel.Toggle(facet, value)), nil
}

// ClearFacet unchecks every value of facet.
func (p *Panel) ClearFacet(facet string) Selection {
	return p.emit(p.sel.Clear(facet))
}

// ClearAll unchecks everything.
func (p *Panel) ClearAll() Selection {
	return p.emit(p.sel.ClearAll())
}

// Chips lists the active selections grouped by facet in display order.
// Selected values the panel does not offer are listed after the known ones
// with their raw text.
func (p *Panel) Chips() []Chip {
	var chips []Chip
	known := make(map[string]bool, len(p.defs))
	for _, d := range p.defs {
		known[d.Name] = true
		for _, v := range p.sel[d.Name] {
			chips = append(chips, Chip{
				Facet:      d.Name,
				FacetLabel: d.Label(),
				Value:      v,
				Label:      valueLabel(d, v),
			})
		}
	}
	for _, k := range p.sel.Keys() {
		if known[k] {
			continue
		}
		for _, v := range p.sel[k] {
			chips = append(chips, Chip{Facet: k, FacetLabel: k, Value: v, Label: v})
		}
	}
	return chips
}

// SelectedCount is the total number of checked values.
func (p *Panel) SelectedCount() int {
	return p.sel.Count()
}

// FilteredBy is the number of facets with at least one checked value.
func (p *Panel) FilteredBy() int {
	return len(p.sel.Keys())
}

func (p *Panel) emit(sel Selection) Selection {
	p.sel = sel
	if p.OnChange != nil {
		p.OnChange(sel.Clone())
	}
	return sel.Clone()
}

func (p *Panel) definition(name string) (domain.FilterDefinition, bool) {
	for _, d := range p.defs {
		if d.Name == name {
			return d, true
		}
	}
	return domain.FilterDefinition{}, false
}

func valueLabel(def domain.FilterDefinition, value string) string {
	for _, v := range def.Values {
		if v.Value == value {
			return v.Label()
		}
	}
	return value
}
