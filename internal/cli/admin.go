package cli

import (
	"context"
	"flag"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/utafrali/storefront/internal/admin"
	"github.com/utafrali/storefront/internal/api"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/session"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

type action func(ctx context.Context, args []string) error

func dispatch(ctx context.Context, args []string, actions map[string]action) error {
	if len(args) == 0 {
		return errUsage
	}
	run, ok := actions[args[0]]
	if !ok {
		return errUsage
	}
	return run(ctx, args[1:])
}

// authorize checks the session before a privileged panel opens.
func (c *CLI) authorize(allowed func() bool, role string) error {
	switch {
	case c.session.State() == session.Expired:
		return apperrors.Unauthorized("Session expired, sign in again")
	case !c.session.IsAuthenticated():
		return apperrors.Unauthorized("not signed in")
	case !allowed():
		return apperrors.Forbidden("Access denied: " + role + " role required")
	}
	return nil
}

func (c *CLI) admin(ctx context.Context, args []string) error {
	if err := c.authorize(c.session.CanManageCatalog, "admin"); err != nil {
		return err
	}
	return dispatch(ctx, args, map[string]action{
		"products":   c.adminProducts,
		"categories": c.adminCategories,
		"filters":    c.adminFilters,
		"values":     c.adminValues,
		"images":     c.adminImages,
	})
}

// Products

type productFlags struct {
	name, description, category, cost string
	price                              float64
	inStock                            bool
	facets                             facetFlags
}

func (c *CLI) productFlagSet(name string, pf *productFlags) *flag.FlagSet {
	fs := c.flagSet(name)
	fs.StringVar(&pf.name, "name", "", "product name")
	fs.StringVar(&pf.description, "description", "", "description")
	fs.StringVar(&pf.category, "category", "", "category name")
	fs.Float64Var(&pf.price, "price", 0, "price")
	fs.StringVar(&pf.cost, "cost", "", "cost price; empty leaves it unset")
	fs.BoolVar(&pf.inStock, "in-stock", true, "in stock")
	fs.Var(&pf.facets, "filter", "facet values name=v1,v2 (repeatable)")
	return fs
}

func (pf *productFlags) apply(p *domain.Product, set map[string]bool) error {
	if set["name"] {
		p.Name = pf.name
	}
	if set["description"] {
		p.Description = pf.description
	}
	if set["price"] {
		p.Price = pf.price
	}
	if set["in-stock"] {
		p.InStock = pf.inStock
	}
	if set["cost"] {
		if strings.TrimSpace(pf.cost) == "" {
			p.CostPrice = nil
			return nil
		}
		cost, err := strconv.ParseFloat(pf.cost, 64)
		if err != nil {
			return apperrors.InvalidInput(fmt.Sprintf("invalid cost price %q", pf.cost))
		}
		p.CostPrice = &cost
	}
	return nil
}

func (c *CLI) adminProducts(ctx context.Context, args []string) error {
	return dispatch(ctx, args, map[string]action{
		"list": func(ctx context.Context, args []string) error {
			panel := admin.NewPanel[domain.Product]("product", c.api.Admin.Products, nil, c.logger)
			if err := panel.Load(ctx); err != nil {
				return err
			}
			tw := c.table()
			fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE\tCOST\tMARGIN\tIN STOCK")
			for _, p := range panel.Items() {
				cost, margin := "-", "-"
				if m, ok := p.Margin(); ok {
					cost, margin = price(*p.CostPrice), price(m)
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Category, price(p.Price), cost, margin, yesNo(p.InStock))
			}
			return tw.Flush()
		},
		"create": func(ctx context.Context, args []string) error {
			var pf productFlags
			fs := c.productFlagSet("admin products create", &pf)
			if err := fs.Parse(args); err != nil {
				return err
			}
			set := visited(fs)
			set["in-stock"] = true

			form := admin.NewProductForm(c.api.Admin.Products, c.api.Catalog, c.logger)
			if err := form.Open(ctx, domain.Product{}); err != nil {
				return err
			}
			return c.submitProduct(ctx, form, &pf, set)
		},
		"update": func(ctx context.Context, args []string) error {
			var pf productFlags
			fs := c.productFlagSet("admin products update", &pf)
			id := fs.Int64("id", 0, "product id")
			if err := fs.Parse(args); err != nil {
				return err
			}
			if err := requireID("id", *id); err != nil {
				return err
			}
			existing, err := c.api.Admin.Products.Get(ctx, *id)
			if err != nil {
				return err
			}

			form := admin.NewProductForm(c.api.Admin.Products, c.api.Catalog, c.logger)
			if err := form.Open(ctx, existing); err != nil {
				return err
			}
			return c.submitProduct(ctx, form, &pf, visited(fs))
		},
		"delete": func(ctx context.Context, args []string) error {
			fs := c.flagSet("admin products delete")
			id := fs.Int64("id", 0, "product id")
			yes := fs.Bool("yes", false, "skip confirmation")
			if err := fs.Parse(args); err != nil {
				return err
			}
			if err := requireID("id", *id); err != nil {
				return err
			}
			p, err := c.api.Admin.Products.Get(ctx, *id)
			if err != nil {
				return err
			}
			panel := admin.NewPanel[domain.Product]("product", c.api.Admin.Products, c.confirmer(*yes), c.logger)
			return c.reportDelete(panel.Delete(ctx, p.ID, p.Name))
		},
	})
}

func (c *CLI) submitProduct(ctx context.Context, form *admin.ProductForm, pf *productFlags, set map[string]bool) error {
	if set["category"] {
		if err := form.SetCategory(ctx, pf.category); err != nil {
			return err
		}
	}
	var applyErr error
	form.Edit(func(p *domain.Product) { applyErr = pf.apply(p, set) })
	if applyErr != nil {
		return applyErr
	}
	if set["filter"] {
		form.ClearFacets()
		for _, pair := range pf.facets.pairs() {
			if form.Selection().Has(pair[0], pair[1]) {
				continue
			}
			if err := form.Toggle(pair[0], pair[1]); err != nil {
				return err
			}
		}
	}

	saved, err := form.Submit(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Saved product %d %q\n", saved.ID, saved.Name)
	return nil
}

func (c *CLI) reportDelete(deleted bool, err error) error {
	if err != nil {
		return err
	}
	if deleted {
		fmt.Fprintln(c.out, "Deleted")
	} else {
		fmt.Fprintln(c.out, "Cancelled")
	}
	return nil
}

// Categories

func (c *CLI) adminCategories(ctx context.Context, args []string) error {
	categoryFlags := func(name string, cat *domain.Category) *flag.FlagSet {
		fs := c.flagSet(name)
		fs.StringVar(&cat.Name, "name", "", "category name")
		fs.StringVar(&cat.Description, "description", "", "description")
		fs.IntVar(&cat.DisplayOrder, "order", 0, "display order")
		fs.BoolVar(&cat.Active, "active", true, "active")
		return fs
	}
	panel := admin.NewPanel[domain.Category]("category", c.api.Admin.Categories, nil, c.logger)

	return dispatch(ctx, args, map[string]action{
		"list": func(ctx context.Context, args []string) error {
			if err := panel.Load(ctx); err != nil {
				return err
			}
			tw := c.table()
			fmt.Fprintln(tw, "ID\tNAME\tORDER\tACTIVE\tDESCRIPTION")
			for _, cat := range panel.Items() {
				fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n", cat.ID, cat.Name, cat.DisplayOrder, yesNo(cat.Active), cat.Description)
			}
			return tw.Flush()
		},
		"create": func(ctx context.Context, args []string) error {
			var cat domain.Category
			if err := categoryFlags("admin categories create", &cat).Parse(args); err != nil {
				return err
			}
			saved, err := panel.Save(ctx, cat)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Saved category %d %q\n", saved.ID, saved.Name)
			return nil
		},
		"update": func(ctx context.Context, args []string) error {
			var in domain.Category
			fs := categoryFlags("admin categories update", &in)
			id := fs.Int64("id", 0, "category id")
			if err := fs.Parse(args); err != nil {
				return err
			}
			if err := requireID("id", *id); err != nil {
				return err
			}
			cat, err := c.api.Admin.Categories.Get(ctx, *id)
			if err != nil {
				return err
			}
			set := visited(fs)
			if set["name"] {
				cat.Name = in.Name
			}
			if set["description"] {
				cat.Description = in.Description
			}
			if set["order"] {
				cat.DisplayOrder = in.DisplayOrder
			}
			if set["active"] {
				cat.Active = in.Active
			}
			saved, err := panel.Save(ctx, cat)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Saved category %d %q\n", saved.ID, saved.Name)
			return nil
		},
		"delete": func(ctx context.Context, args []string) error {
			fs := c.flagSet("admin categories delete")
			id := fs.Int64("id", 0, "category id")
			yes := fs.Bool("yes", false, "skip confirmation")
			if err := fs.Parse(args); err != nil {
				return err
			}
			if err := requireID("id", *id); err != nil {
				return err
			}
			cat, err := c.api.Admin.Categories.Get(ctx, *id)
			if err != nil {
				return err
			}
			del := admin.NewPanel[domain.Category]("category", c.api.Admin.Categories, c.confirmer(*yes), c.logger)
			return c.reportDelete(del.Delete(ctx, cat.ID, cat.Name))
		},
		"filters": func(ctx context.Context, args []string) error {
			fs := c.flagSet("admin categories filters")
			id := fs.Int64("id", 0, "category id")
			if err := fs.Parse(args); err != nil {
				return err
			}
			if err := requireID("id", *id); err != nil {
				return err
			}
			defs, err := c.api.Admin.CategoryFilters(ctx, *id)
			if err != nil {
				return err
			}
			c.renderFilters(defs)
			return nil
		},
		"set-filters": func(ctx context.Context, args []string) error {
			fs := c.flagSet("admin categories set-filters")
			id := fs.Int64("id", 0, "category id")
			list := fs.String("filters", "", "comma-separated filter ids; empty clears the assignment")
			if err := fs.Parse(args); err != nil {
				return err
			}
			if err := requireID("id", *id); err != nil {
				return err
			}
			ids := []int64{}
			for _, s := range strings.Split(*list, ",") {
				if strings.TrimSpace(s) == "" {
					continue
				}
				fid, err := parseID(s)
				if err != nil {
					return err
				}
				ids = append(ids, fid)
			}
			if err := c.api.Admin.SetCategoryFilters(ctx, *id, ids); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Assigned %d filter(s) to category %d\n", len(ids), *id)
			return nil
		},
	})
}

// Filters

func (c *CLI) renderFilters(defs []domain.FilterDefinition) {
	tw := c.table()
	fmt.Fprintln(tw, "ID\tNAME\tLABEL\tORDER\tACTIVE\tVALUES")
	for _, d := range defs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%d\n", d.ID, d.Name, d.Label(), d.DisplayOrder, yesNo(d.Active), len(d.Values))
	}
	_ = tw.Flush()
}

func (c *CLI) adminFilters(ctx context.Context, args []string) error {
	filterFlags := func(name string, def *domain.FilterDefinition) *flag.FlagSet {
		fs := c.flagSet(name)
		fs.StringVar(&def.Name, "name", "", "filter name used in queries")
		fs.StringVar(&def.DisplayName, "display", "", "display name")
		fs.StringVar(&def.Description, "description", "", "description")
		fs.IntVar(&def.DisplayOrder, "order", 0, "display order")
		fs.BoolVar(&def.Active, "active", true, "active")
		return fs
	}
	panel := admin.NewPanel[domain.FilterDefinition]("filter", c.api.Admin.Filters, nil, c.logger)

	return dispatch(ctx, args, map[string]action{
		"list": func(ctx context.Context, args []string) error {
			if err := panel.Load(ctx); err != nil {
				return err
			}
			c.renderFilters(panel.Items())
			return nil
		},
		"create": func(ctx context.Context, args []string) error {
			var def domain.FilterDefinition
			if err := filterFlags("admin filters create", &def).Parse(args); err != nil {
				return err
			}
			saved, err := panel.Save(ctx, def)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Saved filter %d %q\n", saved.ID, saved.Name)
			return nil
		},
		"update": func(ctx context.Context, args []string) error {
			var in domain.FilterDefinition
			fs := filterFlags("admin filters update", &in)
			id := fs.Int64("id", 0, "filter id")
			if err := fs.Parse(args); err != nil {
				return err
			}
			if err := requireID("id", *id); err != nil {
				return err
			}
			def, err := c.api.Admin.Filters.Get(ctx, *id)
			if err != nil {
				return err
			}
			set := visited(fs)
			if set["name"] {
				def.Name = in.Name
			}
			if set["display"] {
				def.DisplayName = in.DisplayName
			}
			if set["description"] {
				def.Description = in.Description
			}
			if set["order"] {
				def.DisplayOrder = in.DisplayOrder
			}
			if set["active"] {
				def.Active = in.Active
			}
			saved, err := panel.Save(ctx, def)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Saved filter %d %q\n", saved.ID, saved.Name)
			return nil
		},
		"delete": func(ctx context.Context, args []string) error {
			fs := c.flagSet("admin filters delete")
			id := fs.Int64("id", 0, "filter id")
			yes := fs.Bool("yes", false, "skip confirmation")
			if err := fs.Parse(args); err != nil {
				return err
			}
			if err := requireID("id", *id); err != nil {
				return err
			}
			def, err := c.api.Admin.Filters.Get(ctx, *id)
			if err != nil {
				return err
			}
			del := admin.NewPanel[domain.FilterDefinition]("filter", c.api.Admin.Filters, c.confirmer(*yes), c.logger)
			return c.reportDelete(del.Delete(ctx, def.ID, def.Label()))
		},
	})
}

// Filter values

func (c *CLI) adminValues(ctx context.Context, args []string) error {
	valueFlags := func(name string, v *domain.FilterValue) (*flag.FlagSet, *int64) {
		fs := c.flagSet(name)
		filterID := fs.Int64("filter", 0, "filter id")
		fs.StringVar(&v.Value, "value", "", "value used in queries")
		fs.StringVar(&v.DisplayValue, "display", "", "display value")
		fs.IntVar(&v.DisplayOrder, "order", 0, "display order")
		fs.BoolVar(&v.Active, "active", true, "active")
		return fs, filterID
	}

	return dispatch(ctx, args, map[string]action{
		"list": func(ctx context.Context, args []string) error {
			fs := c.flagSet("admin values list")
			filterID := fs.Int64("filter", 0, "filter id")
			if err := fs.Parse(args); err != nil {
				return err
			}
			if err := requireID("filter", *filterID); err != nil {
				return err
			}
			values, err := c.api.Admin.FilterValues(ctx, *filterID)
			if err != nil {
				return err
			}
			tw := c.table()
			fmt.Fprintln(tw, "ID\tVALUE\tLABEL\tORDER\tACTIVE")
			for _, v := range values {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", v.ID, v.Value, v.Label(), v.DisplayOrder, yesNo(v.Active))
			}
			return tw.Flush()
		},
		"create": func(ctx context.Context, args []string) error {
			var v domain.FilterValue
			fs, filterID := valueFlags("admin values create", &v)
			if err := fs.Parse(args); err != nil {
				return err
			}
			if err := requireID("filter", *filterID); err != nil {
				return err
			}
			if v.DisplayValue == "" {
				v.DisplayValue = v.Value
			}
			saved, err := c.api.Admin.CreateFilterValue(ctx, *filterID, v)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Saved value %d %q\n", saved.ID, saved.Value)
			return nil
		},
		"update": func(ctx context.Context, args []string) error {
			var in domain.FilterValue
			fs, filterID := valueFlags("admin values update", &in)
			id := fs.Int64("id", 0, "value id")
			if err := fs.Parse(args); err != nil {
				return err
			}
			if err := requireID("filter", *filterID); err != nil {
				return err
			}
			if err := requireID("id", *id); err != nil {
				return err
			}
			v, err := c.findValue(ctx, *filterID, *id)
			if err != nil {
				return err
			}
			set := visited(fs)
			if set["value"] {
				v.Value = in.Value
			}
			if set["display"] {
				v.DisplayValue = in.DisplayValue
			}
			if set["order"] {
				v.DisplayOrder = in.DisplayOrder
			}
			if set["active"] {
				v.Active = in.Active
			}
			saved, err := c.api.Admin.UpdateFilterValue(ctx, v.ID, v)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Saved value %d %q\n", saved.ID, saved.Value)
			return nil
		},
		"delete": func(ctx context.Context, args []string) error {
			fs := c.flagSet("admin values delete")
			filterID := fs.Int64("filter", 0, "filter id")
			id := fs.Int64("id", 0, "value id")
			yes := fs.Bool("yes", false, "skip confirmation")
			if err := fs.Parse(args); err != nil {
				return err
			}
			if err := requireID("filter", *filterID); err != nil {
				return err
			}
			if err := requireID("id", *id); err != nil {
				return err
			}
			v, err := c.findValue(ctx, *filterID, *id)
			if err != nil {
				return err
			}
			if !c.confirmer(*yes).Confirm(fmt.Sprintf("Delete filter value %q?", v.Label())) {
				return c.reportDelete(false, nil)
			}
			return c.reportDelete(true, c.api.Admin.DeleteFilterValue(ctx, v.ID))
		},
	})
}

func (c *CLI) findValue(ctx context.Context, filterID, id int64) (domain.FilterValue, error) {
	values, err := c.api.Admin.FilterValues(ctx, filterID)
	if err != nil {
		return domain.FilterValue{}, err
	}
	for _, v := range values {
		if v.ID == id {
			return v, nil
		}
	}
	return domain.FilterValue{}, apperrors.NotFound("filter value", strconv.FormatInt(id, 10))
}

// Images

func (c *CLI) adminImages(ctx context.Context, args []string) error {
	imageFlags := func(name string) (*flag.FlagSet, *int64, *int64) {
		fs := c.flagSet(name)
		product := fs.Int64("product", 0, "product id")
		id := fs.Int64("id", 0, "image id")
		return fs, product, id
	}

	return dispatch(ctx, args, map[string]action{
		"list": func(ctx context.Context, args []string) error {
			fs, product, _ := imageFlags("admin images list")
			if err := fs.Parse(args); err != nil {
				return err
			}
			if err := requireID("product", *product); err != nil {
				return err
			}
			images, err := c.api.Admin.Images.List(ctx, *product)
			if err != nil {
				return err
			}
			tw := c.table()
			fmt.Fprintln(tw, "ID\tORDER\tPRIMARY\tALT\tURL")
			for _, img := range domain.SortImages(images) {
				fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\n", img.ID, img.DisplayOrder, yesNo(img.IsPrimary), img.AltText, img.ImageURL)
			}
			return tw.Flush()
		},
		"upload": func(ctx context.Context, args []string) error {
			fs, product, _ := imageFlags("admin images upload")
			path := fs.String("file", "", "image file")
			alt := fs.String("alt", "", "alt text; defaults to the file name")
			if err := fs.Parse(args); err != nil {
				return err
			}
			if err := requireID("product", *product); err != nil {
				return err
			}
			content, err := os.ReadFile(*path)
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}
			contentType := mime.TypeByExtension(filepath.Ext(*path))
			if contentType == "" {
				contentType = http.DetectContentType(content)
			}

			img, err := c.api.Admin.Images.Add(ctx, *product, api.ImageUpload{
				Filename:    filepath.Base(*path),
				ContentType: contentType,
				Content:     content,
				AltText:     *alt,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Uploaded image %d %s\n", img.ID, img.ImageURL)
			return nil
		},
		"update": func(ctx context.Context, args []string) error {
			fs, product, id := imageFlags("admin images update")
			alt := fs.String("alt", "", "alt text")
			order := fs.Int("order", 0, "display order")
			if err := fs.Parse(args); err != nil {
				return err
			}
			if err := requireID("product", *product); err != nil {
				return err
			}
			if err := requireID("id", *id); err != nil {
				return err
			}
			var meta api.ImageMetadata
			set := visited(fs)
			if set["alt"] {
				meta.AltText = alt
			}
			if set["order"] {
				meta.DisplayOrder = order
			}
			img, err := c.api.Admin.Images.Update(ctx, *product, *id, meta)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Saved image %d\n", img.ID)
			return nil
		},
		"primary": func(ctx context.Context, args []string) error {
			fs, product, id := imageFlags("admin images primary")
			if err := fs.Parse(args); err != nil {
				return err
			}
			if err := requireID("product", *product); err != nil {
				return err
			}
			if err := requireID("id", *id); err != nil {
				return err
			}
			if err := c.api.Admin.Images.SetPrimary(ctx, *product, *id); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Image %d is now primary\n", *id)
			return nil
		},
		"delete": func(ctx context.Context, args []string) error {
			fs, product, id := imageFlags("admin images delete")
			yes := fs.Bool("yes", false, "skip confirmation")
			if err := fs.Parse(args); err != nil {
				return err
			}
			if err := requireID("product", *product); err != nil {
				return err
			}
			if err := requireID("id", *id); err != nil {
				return err
			}
			if !c.confirmer(*yes).Confirm(fmt.Sprintf("Delete image %d of product %d?", *id, *product)) {
				return c.reportDelete(false, nil)
			}
			return c.reportDelete(true, c.api.Admin.Images.Delete(ctx, *product, *id))
		},
	})
}
