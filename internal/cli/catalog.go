package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/utafrali/storefront/internal/catalog"
	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// facetFlags collects repeated -filter name=v1,v2 flags.
type facetFlags []string

func (f *facetFlags) String() string { return strings.Join(*f, " ") }

func (f *facetFlags) Set(v string) error {
	name, values, ok := strings.Cut(v, "=")
	if !ok || strings.TrimSpace(name) == "" || strings.TrimSpace(values) == "" {
		return fmt.Errorf("filter must be name=value[,value...], got %q", v)
	}
	*f = append(*f, v)
	return nil
}

// pairs splits every flag into (facet, value) pairs in command-line order.
func (f facetFlags) pairs() [][2]string {
	var out [][2]string
	for _, v := range f {
		name, values, _ := strings.Cut(v, "=")
		for _, value := range strings.Split(values, ",") {
			if value = strings.TrimSpace(value); value != "" {
				out = append(out, [2]string{strings.TrimSpace(name), value})
			}
		}
	}
	return out
}

func (c *CLI) products(ctx context.Context, args []string) error {
	fs := c.flagSet("products")
	search := fs.String("search", "", "search text")
	category := fs.String("category", catalog.AllCategories, "category name")
	sortOrder := fs.String("sort", "", "sort order: price_asc, price_desc or latest")
	var facets facetFlags
	fs.Var(&facets, "filter", "facet selection name=v1,v2 (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if !catalog.ValidSort(*sortOrder) {
		return apperrors.InvalidInput(fmt.Sprintf("unknown sort order %q", *sortOrder))
	}

	// Each invocation composes its query from scratch. Facets are toggled
	// after Load so values the category does not offer are rejected.
	view := catalog.New(c.api.Catalog, catalog.State{
		Search:   strings.TrimSpace(*search),
		Category: *category,
		Sort:     *sortOrder,
	}, c.logger)
	if err := view.Load(ctx); err != nil {
		return err
	}
	for _, p := range facets.pairs() {
		if view.State().Facets.Has(p[0], p[1]) {
			continue
		}
		if err := view.ToggleFacet(ctx, p[0], p[1]); err != nil {
			return err
		}
	}

	c.renderCatalog(view.View())
	return nil
}

func (c *CLI) renderCatalog(v catalog.View) {
	if v.FilteredBy > 0 {
		fmt.Fprintf(c.out, "Filtered by %d filter(s), %d selected\n", v.FilteredBy, v.SelectedCount)
		for _, chip := range v.Chips {
			fmt.Fprintf(c.out, "  [%s: %s]\n", chip.FacetLabel, chip.Label)
		}
		fmt.Fprintln(c.out)
	}

	if len(v.Products) == 0 {
		fmt.Fprintln(c.out, "No products found")
	} else {
		tw := c.table()
		fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE\tIN STOCK")
		for _, p := range v.Products {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Category, price(p.Price), yesNo(p.InStock))
		}
		_ = tw.Flush()
	}

	if !v.HasAvailableFilters {
		return
	}
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, "Filters:")
	for _, g := range v.Groups {
		labels := make([]string, 0, len(g.Values))
		for _, val := range g.Values {
			mark := "[ ]"
			if val.Checked {
				mark = "[x]"
			}
			labels = append(labels, mark+" "+val.Label)
		}
		fmt.Fprintf(c.out, "  %s (%s): %s\n", g.Label, g.Name, strings.Join(labels, "  "))
	}
}

func (c *CLI) product(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	d, err := c.catalog.Detail(ctx, id)
	if err != nil {
		return err
	}

	p := d.Product
	fmt.Fprintf(c.out, "%s\n", p.Name)
	fmt.Fprintf(c.out, "Category: %s\n", p.Category)
	fmt.Fprintf(c.out, "Price:    %s\n", price(p.Price))
	if p.InStock {
		fmt.Fprintln(c.out, "In stock")
	} else {
		fmt.Fprintln(c.out, "Out of stock")
	}
	if p.Description != "" {
		fmt.Fprintf(c.out, "\n%s\n", p.Description)
	}
	fmt.Fprintf(c.out, "\nImage: %s\n", d.ImageURL)
	for i, img := range d.Images {
		marker := " "
		if i == d.Primary {
			marker = "*"
		}
		fmt.Fprintf(c.out, " %s %s\n", marker, img.ImageURL)
	}
	return nil
}

func (c *CLI) categories(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return errUsage
	}
	cats, err := c.api.Catalog.Categories(ctx)
	if err != nil {
		return err
	}

	tw := c.table()
	fmt.Fprintln(tw, "NAME\tDESCRIPTION")
	for _, cat := range domain.ActiveCategories(cats) {
		fmt.Fprintf(tw, "%s\t%s\n", cat.Name, cat.Description)
	}
	return tw.Flush()
}

func (c *CLI) filters(ctx context.Context, args []string) error {
	fs := c.flagSet("filters")
	category := fs.String("category", "", "category name; empty lists every filter")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.EqualFold(*category, catalog.AllCategories) {
		*category = ""
	}

	defs, err := c.api.Catalog.Filters(ctx, *category)
	if err != nil {
		return err
	}
	if !domain.HasAvailableFilters(defs) {
		fmt.Fprintln(c.out, "No filters available")
		return nil
	}

	tw := c.table()
	fmt.Fprintln(tw, "FILTER\tLABEL\tVALUES")
	for _, d := range domain.ActiveFilters(defs) {
		values := d.ActiveValues()
		if len(values) == 0 {
			continue
		}
		names := make([]string, 0, len(values))
		for _, v := range values {
			names = append(names, v.Value)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", d.Name, d.Label(), strings.Join(names, ", "))
	}
	return tw.Flush()
}
