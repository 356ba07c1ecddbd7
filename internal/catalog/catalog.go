// Package catalog implements the catalog view: the composed query state, the
// product list it yields, the facet panel of the current category and the
// product detail view.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/facet"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/logger"
)

var (
	queriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_catalog_queries_total",
		Help: "Total number of product queries issued by the catalog view",
	})

	staleResponsesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_catalog_stale_responses_total",
			Help: "Responses discarded because a newer query was issued",
		},
		[]string{"kind"},
	)
)

// Source is the read side of the backend the catalog needs.
type Source interface {
	Products(ctx context.Context, query url.Values) ([]domain.Product, error)
	Product(ctx context.Context, id int64) (domain.Product, error)
	ProductImages(ctx context.Context, id int64) ([]domain.ProductImage, error)
	Categories(ctx context.Context) ([]domain.Category, error)
	Filters(ctx context.Context, category string) ([]domain.FilterDefinition, error)
}

// View is a snapshot of the catalog for rendering.
type View struct {
	State               State
	Products            []domain.Product
	Categories          []domain.Category
	Groups              []facet.Group
	Chips               []facet.Chip
	SelectedCount       int
	FilteredBy          int
	HasAvailableFilters bool
	Loading             bool
	Err                 string
	Generation          uint64
}

// Catalog owns the query state and re-fetches products on every settled
// change. Every issued query carries a generation; only the response to the
// latest generation is applied. Catalog is safe for concurrent use.
type Catalog struct {
	src    Source
	logger *slog.Logger

	mu         sync.Mutex
	state      State
	products   []domain.Product
	categories []domain.Category
	panel      *facet.Panel
	loading    bool
	err        string
	gen        uint64
	filterGen  uint64
}

// New creates a catalog view starting from initial.
func New(src Source, initial State, log *slog.Logger) *Catalog {
	initial = initial.clone()
	initial.Category = normalizeCategory(initial.Category)
	initial.Facets = initial.Facets.Normalize()
	return &Catalog{
		src:    src,
		logger: log,
		state:  initial,
		panel:  facet.NewPanel(nil, initial.Facets),
	}
}

// Load performs the initial fetch: categories, the facet definitions of the
// current category and the product list. The initial category is resolved
// against the loaded categories; an unknown one fails before any product
// query.
func (c *Catalog) Load(ctx context.Context) error {
	cats, err := c.src.Categories(ctx)
	if err != nil {
		c.fail(ctx, fmt.Errorf("load categories: %w", err))
	} else {
		c.mu.Lock()
		c.categories = domain.ActiveCategories(cats)
		c.mu.Unlock()
	}

	c.mu.Lock()
	name, err := c.checkCategory(c.state.Category)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.state.Category = name
	st := c.state.clone()
	fgen := c.nextFilterGen()
	gen := c.issue()
	c.mu.Unlock()

	c.loadDefinitions(ctx, st.Category, fgen)
	return c.fetch(ctx, st, gen)
}

// SetSearch changes the search text.
func (c *Catalog) SetSearch(ctx context.Context, search string) error {
	search = strings.TrimSpace(search)
	return c.update(ctx, func(s *State) error {
		s.Search = search
		return nil
	})
}

// SetSort changes the sort order.
func (c *Catalog) SetSort(ctx context.Context, order string) error {
	if !ValidSort(order) {
		return apperrors.InvalidInput(fmt.Sprintf("unknown sort order %q", order))
	}
	return c.update(ctx, func(s *State) error {
		s.Sort = order
		return nil
	})
}

// SetCategory switches the category. It clears every facet selection and
// loads the facet definitions of the new category. Once categories are
// loaded, names that are neither active nor "all" are rejected.
func (c *Catalog) SetCategory(ctx context.Context, name string) error {
	name = normalizeCategory(name)

	c.mu.Lock()
	name, err := c.checkCategory(name)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	next := c.state.clone()
	next.Category = name
	next.Facets = nil
	if next.Equal(c.state) {
		c.mu.Unlock()
		return nil
	}
	c.state = next
	c.panel.SetSelection(nil)
	fgen := c.nextFilterGen()
	gen := c.issue()
	c.mu.Unlock()

	c.loadDefinitions(ctx, name, fgen)
	return c.fetch(ctx, next, gen)
}

// SetFacets replaces the whole facet selection.
func (c *Catalog) SetFacets(ctx context.Context, sel facet.Selection) error {
	sel = sel.Normalize()
	return c.update(ctx, func(s *State) error {
		s.Facets = sel
		return nil
	})
}

// ToggleFacet checks or unchecks one facet value offered by the panel.
func (c *Catalog) ToggleFacet(ctx context.Context, name, value string) error {
	return c.update(ctx, func(s *State) error {
		sel, err := c.panel.Toggle(name, value)
		if err != nil {
			return err
		}
		s.Facets = sel
		return nil
	})
}

// ClearFacet unchecks every value of one facet.
func (c *Catalog) ClearFacet(ctx context.Context, name string) error {
	return c.update(ctx, func(s *State) error {
		s.Facets = s.Facets.Clear(name)
		return nil
	})
}

// ClearFacets unchecks everything.
func (c *Catalog) ClearFacets(ctx context.Context) error {
	return c.update(ctx, func(s *State) error {
		s.Facets = nil
		return nil
	})
}

// ToggleGroup flips the expansion of one facet group.
func (c *Catalog) ToggleGroup(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.panel.ToggleGroup(name)
}

// State returns a copy of the current state.
func (c *Catalog) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// View returns a snapshot of the catalog.
func (c *Catalog) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return View{
		State:               c.state.clone(),
		Products:            append([]domain.Product(nil), c.products...),
		Categories:          append([]domain.Category(nil), c.categories...),
		Groups:              c.panel.Groups(),
		Chips:               c.panel.Chips(),
		SelectedCount:       c.panel.SelectedCount(),
		FilteredBy:          c.panel.FilteredBy(),
		HasAvailableFilters: c.panel.HasAvailableFilters(),
		Loading:             c.loading,
		Err:                 c.err,
		Generation:          c.gen,
	}
}

// update applies mutate to a copy of the state and fetches once when the
// result differs from the current state.
func (c *Catalog) update(ctx context.Context, mutate func(*State) error) error {
	c.mu.Lock()
	next := c.state.clone()
	if err := mutate(&next); err != nil {
		c.panel.SetSelection(c.state.Facets)
		c.mu.Unlock()
		return err
	}
	next.Facets = next.Facets.Normalize()
	if next.Equal(c.state) {
		c.mu.Unlock()
		return nil
	}
	c.state = next
	c.panel.SetSelection(next.Facets)
	gen := c.issue()
	c.mu.Unlock()

	return c.fetch(ctx, next, gen)
}

// issue starts a new product query generation. Callers hold c.mu.
func (c *Catalog) issue() uint64 {
	c.gen++
	c.loading = true
	queriesTotal.Inc()
	return c.gen
}

func (c *Catalog) nextFilterGen() uint64 {
	c.filterGen++
	return c.filterGen
}

// checkCategory resolves name case-insensitively to the backend's spelling.
// Until categories are loaded every name is accepted as given.
func (c *Catalog) checkCategory(name string) (string, error) {
	if name == AllCategories || c.categories == nil {
		return name, nil
	}
	for _, cat := range c.categories {
		if strings.EqualFold(cat.Name, name) {
			return cat.Name, nil
		}
	}
	return "", apperrors.InvalidInput(fmt.Sprintf("unknown category %q", name))
}

// fetch runs the product query for st and applies it when gen is still the
// latest generation. A failed fetch keeps the previous list.
func (c *Catalog) fetch(ctx context.Context, st State, gen uint64) error {
	products, err := c.src.Products(ctx, st.Query())

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		staleResponsesTotal.WithLabelValues("products").Inc()
		logger.WithContext(ctx, c.logger).DebugContext(ctx, "discarding stale product response",
			slog.Uint64("generation", gen),
			slog.Uint64("latest", c.gen),
		)
		return nil
	}
	c.loading = false
	if err != nil {
		c.err = apperrors.Message(err)
		logger.WithContext(ctx, c.logger).WarnContext(ctx, "product query failed",
			slog.String("query", st.Query().Encode()),
			slog.String("error", err.Error()),
		)
		return err
	}
	c.err = ""
	c.products = products
	return nil
}

// loadDefinitions replaces the panel's facet definitions when fgen is still
// the latest definitions request. Failures leave an empty panel.
func (c *Catalog) loadDefinitions(ctx context.Context, category string, fgen uint64) {
	query := category
	if query == AllCategories {
		query = ""
	}
	defs, err := c.src.Filters(ctx, query)

	c.mu.Lock()
	defer c.mu.Unlock()
	if fgen != c.filterGen {
		staleResponsesTotal.WithLabelValues("filters").Inc()
		return
	}
	if err != nil {
		logger.WithContext(ctx, c.logger).WarnContext(ctx, "loading filters failed",
			slog.String("category", category),
			slog.String("error", err.Error()),
		)
		defs = nil
	}
	c.panel.SetDefinitions(defs)
	c.panel.SetSelection(c.state.Facets)
}

func (c *Catalog) fail(ctx context.Context, err error) {
	c.mu.Lock()
	c.err = apperrors.Message(err)
	c.mu.Unlock()
	logger.WithContext(ctx, c.logger).WarnContext(ctx, "catalog load failed", slog.String("error", err.Error()))
}
