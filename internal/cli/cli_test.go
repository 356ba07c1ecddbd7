package cli

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/app"
	"github.com/utafrali/storefront/internal/backendtest"
	"github.com/utafrali/storefront/internal/config"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/pkg/logger"
)

type harness struct {
	srv       *backendtest.Server
	app       *app.App
	tokenFile string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	srv := backendtest.New(t)
	tokenFile := filepath.Join(t.TempDir(), "token")
	cfg, err := config.LoadFrom(map[string]string{
		"STOREFRONT_API_URL": srv.URL,
		"TOKEN_FILE":         tokenFile,
		"BREAKER_ENABLED":    "false",
		"IMAGE_RETRY_DELAY":  "1ms",
	})
	require.NoError(t, err)

	a, err := app.NewApp(context.Background(), cfg, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown() })
	return &harness{srv: srv, app: a, tokenFile: tokenFile}
}

// signIn stores a valid token for a new account with role.
func (h *harness) signIn(t *testing.T, email string, role domain.Role) {
	t.Helper()
	h.srv.AddUser(email, "secret1", role)
	require.NoError(t, os.WriteFile(h.tokenFile, []byte(h.srv.Token(email, time.Hour)), 0o600))
}

func (h *harness) run(stdin string, args ...string) (int, string, string) {
	var out, errOut bytes.Buffer
	c := New(h.app, logger.Discard(), strings.NewReader(stdin), &out, &errOut)
	code := c.Run(context.Background(), args)
	return code, out.String(), errOut.String()
}

func seedCatalog(srv *backendtest.Server) {
	srv.AddCategory(domain.Category{Name: "Clothing", Active: true, DisplayOrder: 1})
	srv.AddCategory(domain.Category{Name: "Electronics", Active: true, DisplayOrder: 2})
	srv.AddFilter(domain.FilterDefinition{
		Name: "size", DisplayName: "Size", Active: true,
		Values: []domain.FilterValue{
			{Value: "M", DisplayValue: "Medium", Active: true, DisplayOrder: 1},
			{Value: "L", DisplayValue: "Large", Active: true, DisplayOrder: 2},
		},
	}, "Clothing")
	srv.AddProduct(domain.Product{Name: "T-shirt", Price: 19.5, Category: "Clothing", InStock: true, FilterValues: map[string][]string{"size": {"M"}}})
	srv.AddProduct(domain.Product{Name: "Jeans", Price: 49, Category: "Clothing", InStock: true, FilterValues: map[string][]string{"size": {"L"}}})
	srv.AddProduct(domain.Product{Name: "Phone", Price: 399, Category: "Electronics"})
}

func TestRun_UnknownCommand(t *testing.T) {
	h := newHarness(t)

	code, _, errOut := h.run("", "bogus")
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, errOut, `unknown command "bogus"`)

	code, _, _ = h.run("")
	assert.Equal(t, ExitUsage, code)
}

func TestProducts_CategoryAndFacet(t *testing.T) {
	h := newHarness(t)
	seedCatalog(h.srv)

	code, out, errOut := h.run("", "products", "-category", "Clothing", "-filter", "size=M")
	require.Equal(t, ExitOK, code, errOut)

	assert.Contains(t, out, "T-shirt")
	assert.NotContains(t, out, "Jeans")
	assert.NotContains(t, out, "Phone")
	assert.Contains(t, out, "[Size: Medium]")
	assert.Contains(t, out, "[x] Medium")
	assert.Contains(t, out, "[ ] Large")
}

func TestProducts_ComposesOneQueryBeforeFacets(t *testing.T) {
	h := newHarness(t)
	seedCatalog(h.srv)

	code, out, errOut := h.run("", "products", "-category", "clothing", "-search", "shirt", "-sort", "price_asc", "-filter", "size=M")
	require.Equal(t, ExitOK, code, errOut)
	assert.Contains(t, out, "T-shirt")

	var queries []string
	for _, call := range h.srv.Calls() {
		if call.Method == http.MethodGet && call.Path == "/api/products" {
			queries = append(queries, call.Query)
		}
	}
	require.Len(t, queries, 2, "one initial query and one per facet toggle")
	assert.Equal(t, "category=Clothing&search=shirt&sort=price_asc", queries[0])
	assert.Equal(t, "category=Clothing&search=shirt&size=M&sort=price_asc", queries[1])
}

func TestProducts_SearchWithoutMatches(t *testing.T) {
	h := newHarness(t)
	seedCatalog(h.srv)

	code, out, _ := h.run("", "products", "-search", "umbrella")
	require.Equal(t, ExitOK, code)
	assert.Contains(t, out, "No products found")
}

func TestProducts_RejectsUnknownInputs(t *testing.T) {
	h := newHarness(t)
	seedCatalog(h.srv)

	code, _, errOut := h.run("", "products", "-category", "Clothing", "-filter", "size=XXL")
	assert.Equal(t, ExitError, code)
	assert.Contains(t, errOut, `unknown value "XXL" for filter "size"`)

	code, _, errOut = h.run("", "products", "-category", "Garden")
	assert.Equal(t, ExitError, code)
	assert.Contains(t, errOut, `unknown category "Garden"`)

	code, _, errOut = h.run("", "products", "-sort", "random")
	assert.Equal(t, ExitError, code)
	assert.Contains(t, errOut, `unknown sort order "random"`)
}

func TestProduct_DetailMarksPrimaryImage(t *testing.T) {
	h := newHarness(t)
	p := h.srv.AddProduct(domain.Product{Name: "Lamp", Price: 25, Category: "Home", InStock: false})
	h.srv.AddImage(p.ID, domain.ProductImage{ImageURL: "/uploads/a.png", DisplayOrder: 0})
	h.srv.AddImage(p.ID, domain.ProductImage{ImageURL: "/uploads/b.png", DisplayOrder: 1, IsPrimary: true})

	code, out, errOut := h.run("", "product", fmt.Sprint(p.ID))
	require.Equal(t, ExitOK, code, errOut)
	assert.Contains(t, out, "Lamp")
	assert.Contains(t, out, "Out of stock")
	assert.Contains(t, out, "Image: /uploads/b.png")
	assert.Contains(t, out, "* /uploads/b.png")

	code, _, _ = h.run("", "product", "abc")
	assert.Equal(t, ExitError, code)
}

func TestCategoriesAndFilters(t *testing.T) {
	h := newHarness(t)
	seedCatalog(h.srv)
	h.srv.AddCategory(domain.Category{Name: "Archive", Active: false})

	code, out, _ := h.run("", "categories")
	require.Equal(t, ExitOK, code)
	assert.Contains(t, out, "Clothing")
	assert.NotContains(t, out, "Archive")
	assert.Less(t, strings.Index(out, "Clothing"), strings.Index(out, "Electronics"))

	code, out, _ = h.run("", "filters", "-category", "Clothing")
	require.Equal(t, ExitOK, code)
	assert.Contains(t, out, "M, L")

	code, out, _ = h.run("", "filters", "-category", "Electronics")
	require.Equal(t, ExitOK, code)
	assert.Contains(t, out, "No filters available")
}

func TestLogin_PersistsSession(t *testing.T) {
	h := newHarness(t)
	h.srv.AddUser("ada@example.com", "secret1", domain.RoleAdmin)

	code, out, errOut := h.run("", "login", "-email", "ada@example.com", "-password", "secret1")
	require.Equal(t, ExitOK, code, errOut)
	assert.Contains(t, out, "Signed in as ada@example.com (ADMIN)")

	stored, err := os.ReadFile(h.tokenFile)
	require.NoError(t, err)
	assert.NotEmpty(t, stored)

	code, out, _ = h.run("", "whoami")
	require.Equal(t, ExitOK, code)
	assert.Contains(t, out, "<ada@example.com> ADMIN")

	code, out, _ = h.run("", "logout")
	require.Equal(t, ExitOK, code)
	assert.Contains(t, out, "Signed out")

	code, out, _ = h.run("", "whoami")
	require.Equal(t, ExitOK, code)
	assert.Contains(t, out, "Not signed in")
}

func TestLogin_PromptsForPassword(t *testing.T) {
	h := newHarness(t)
	h.srv.AddUser("ada@example.com", "secret1", domain.RoleUser)

	code, out, _ := h.run("secret1\n", "login", "-email", "ada@example.com")
	require.Equal(t, ExitOK, code)
	assert.Contains(t, out, "Signed in as")
}

func TestLogin_ShowsBackendMessage(t *testing.T) {
	h := newHarness(t)
	h.srv.AddUser("ada@example.com", "secret1", domain.RoleUser)

	code, _, errOut := h.run("", "login", "-email", "ada@example.com", "-password", "wrong")
	assert.Equal(t, ExitError, code)
	assert.Contains(t, errOut, "Invalid username or password")
}

func TestLogin_PendingAccountNeedsActivation(t *testing.T) {
	h := newHarness(t)
	h.srv.AddPendingUser("new@example.com", "tmp123")

	code, out, _ := h.run("", "login", "-email", "new@example.com", "-password", "tmp123")
	require.Equal(t, ExitOK, code)
	assert.Contains(t, out, "Account requires activation")
	assert.Contains(t, out, "storefront activate -email new@example.com")

	code, out, errOut := h.run("", "activate", "-email", "new@example.com", "-temp", "tmp123", "-password", "brandnew")
	require.Equal(t, ExitOK, code, errOut)
	assert.Contains(t, out, "Account activated successfully")
}

func TestValidateResetToken(t *testing.T) {
	h := newHarness(t)
	h.srv.AddUser("ada@example.com", "secret1", domain.RoleUser)
	token := h.srv.IssueResetToken("ada@example.com")

	code, out, _ := h.run("", "validate-reset-token", "-token", token)
	require.Equal(t, ExitOK, code)
	assert.Contains(t, out, "Token is valid")

	code, out, _ = h.run("", "validate-reset-token", "-token", "nope")
	require.Equal(t, ExitOK, code)
	assert.Contains(t, out, "Token is invalid: Invalid or expired token")
}

func TestAdmin_RoleGate(t *testing.T) {
	h := newHarness(t)

	code, _, errOut := h.run("", "admin", "products", "list")
	assert.Equal(t, ExitError, code)
	assert.Contains(t, errOut, "not signed in")

	h.signIn(t, "user@example.com", domain.RoleUser)
	code, _, errOut = h.run("", "admin", "products", "list")
	assert.Equal(t, ExitError, code)
	assert.Contains(t, errOut, "Access denied: admin role required")
	assert.Zero(t, h.srv.CallCount("GET", "/api/admin/products"))
}

func TestAdmin_RevokedTokenExpiresSession(t *testing.T) {
	h := newHarness(t)
	h.srv.AddUser("ada@example.com", "secret1", domain.RoleAdmin)
	token := h.srv.Token("ada@example.com", time.Hour)
	require.NoError(t, os.WriteFile(h.tokenFile, []byte(token), 0o600))
	h.srv.Revoke(token)

	code, _, errOut := h.run("", "admin", "categories", "list")
	assert.Equal(t, ExitError, code)
	assert.Contains(t, errOut, "Session expired, sign in again")
}

func TestAdmin_ProductLifecycle(t *testing.T) {
	h := newHarness(t)
	seedCatalog(h.srv)
	h.signIn(t, "ada@example.com", domain.RoleAdmin)

	code, out, errOut := h.run("", "admin", "products", "create",
		"-name", "Hat", "-price", "12.5", "-cost", "5", "-category", "Clothing", "-filter", "size=M,L")
	require.Equal(t, ExitOK, code, errOut)
	var id int64
	_, err := fmt.Sscanf(out, "Saved product %d", &id)
	require.NoError(t, err)

	p, ok := h.srv.Product(id)
	require.True(t, ok)
	assert.Equal(t, []string{"M", "L"}, p.FilterValues["size"])
	require.NotNil(t, p.CostPrice)

	code, out, _ = h.run("", "admin", "products", "list")
	require.Equal(t, ExitOK, code)
	assert.Contains(t, out, "Hat")
	assert.Contains(t, out, "$7.50")

	code, _, errOut = h.run("", "admin", "products", "update", "-id", fmt.Sprint(id), "-price", "15")
	require.Equal(t, ExitOK, code, errOut)
	p, _ = h.srv.Product(id)
	assert.Equal(t, 15.0, p.Price)
	assert.Equal(t, "Hat", p.Name)
	assert.Equal(t, []string{"M", "L"}, p.FilterValues["size"])

	code, out, _ = h.run("n\n", "admin", "products", "delete", "-id", fmt.Sprint(id))
	require.Equal(t, ExitOK, code)
	assert.Contains(t, out, "Cancelled")
	_, ok = h.srv.Product(id)
	assert.True(t, ok)

	code, out, _ = h.run("", "admin", "products", "delete", "-id", fmt.Sprint(id), "-yes")
	require.Equal(t, ExitOK, code)
	assert.Contains(t, out, "Deleted")
	_, ok = h.srv.Product(id)
	assert.False(t, ok)
}

func TestAdmin_ProductValidation(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, "ada@example.com", domain.RoleAdmin)

	code, _, _ := h.run("", "admin", "products", "create", "-price", "3")
	assert.Equal(t, ExitError, code)
	assert.Zero(t, h.srv.CallCount("POST", "/api/admin/products"))
}

func TestAdmin_CategoryInUseShowsBackendMessage(t *testing.T) {
	h := newHarness(t)
	seedCatalog(h.srv)
	h.signIn(t, "ada@example.com", domain.RoleAdmin)

	code, out, _ := h.run("", "admin", "categories", "list")
	require.Equal(t, ExitOK, code)
	require.Contains(t, out, "Electronics")

	var electronics int64
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "Electronics") {
			_, err := fmt.Sscanf(line, "%d", &electronics)
			require.NoError(t, err)
		}
	}

	code, _, errOut := h.run("", "admin", "categories", "delete", "-id", fmt.Sprint(electronics), "-yes")
	assert.Equal(t, ExitError, code)
	assert.Contains(t, errOut, "Cannot delete category. It is being used by 1 product(s)")
}

func TestAdmin_FilterValues(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, "ada@example.com", domain.RoleAdmin)

	code, out, errOut := h.run("", "admin", "filters", "create", "-name", "material", "-display", "Material")
	require.Equal(t, ExitOK, code, errOut)
	var filterID int64
	_, err := fmt.Sscanf(out, "Saved filter %d", &filterID)
	require.NoError(t, err)

	code, _, errOut = h.run("", "admin", "values", "create", "-filter", fmt.Sprint(filterID), "-value", "wool")
	require.Equal(t, ExitOK, code, errOut)

	code, _, errOut = h.run("", "admin", "values", "create", "-filter", fmt.Sprint(filterID), "-value", "wool")
	assert.Equal(t, ExitError, code)
	assert.Contains(t, errOut, "Filter value already exists")

	code, out, _ = h.run("", "admin", "values", "list", "-filter", fmt.Sprint(filterID))
	require.Equal(t, ExitOK, code)
	assert.Contains(t, out, "wool")
}

func TestAdmin_ImageUpload(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, "ada@example.com", domain.RoleAdmin)
	p := h.srv.AddProduct(domain.Product{Name: "Lamp", Price: 25, Category: "Home"})

	path := filepath.Join(t.TempDir(), "lamp.png")
	require.NoError(t, os.WriteFile(path, []byte("\x89PNG\r\n\x1a\nfake"), 0o600))

	code, out, errOut := h.run("", "admin", "images", "upload", "-product", fmt.Sprint(p.ID), "-file", path)
	require.Equal(t, ExitOK, code, errOut)
	assert.Contains(t, out, "Uploaded image")

	images := h.srv.Images(p.ID)
	require.Len(t, images, 1)
	assert.True(t, images[0].IsPrimary)
	assert.Equal(t, "image/png", images[0].ContentType)
}

func TestOwner_Users(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, "root@example.com", domain.RoleOwner)

	code, out, errOut := h.run("", "owner", "users", "create", "-email", "bob@example.com", "-first", "Bob", "-last", "Stone", "-role", "ADMIN")
	require.Equal(t, ExitOK, code, errOut)
	var id int64
	_, err := fmt.Sscanf(out, "Created user %d", &id)
	require.NoError(t, err)

	code, _, errOut = h.run("", "owner", "users", "create", "-email", "bob@example.com", "-first", "Bob", "-last", "Stone")
	assert.Equal(t, ExitError, code)
	assert.Contains(t, errOut, "Failed to create user: Email already exists")

	code, out, _ = h.run("", "owner", "users", "role", "-id", fmt.Sprint(id), "-role", "OWNER")
	require.Equal(t, ExitOK, code)
	assert.Contains(t, out, "is now OWNER")

	code, out, _ = h.run("", "owner", "users", "disable", "-id", fmt.Sprint(id))
	require.Equal(t, ExitOK, code)
	assert.Contains(t, out, "disabled")

	code, out, _ = h.run("", "owner", "users", "reset-password", "-id", fmt.Sprint(id))
	require.Equal(t, ExitOK, code)
	assert.Contains(t, out, "Temporary password: tmp-")
}

func TestOwner_AdminIsDenied(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, "ada@example.com", domain.RoleAdmin)

	code, _, errOut := h.run("", "owner", "users", "list")
	assert.Equal(t, ExitError, code)
	assert.Contains(t, errOut, "Access denied: owner role required")
}

func TestHealth(t *testing.T) {
	h := newHarness(t)

	code, out, _ := h.run("", "health")
	assert.Equal(t, ExitOK, code)
	assert.Contains(t, out, "backend")
	assert.Contains(t, out, "Overall: up")

	h.srv.Close()
	code, out, _ = h.run("", "health")
	assert.Equal(t, ExitError, code)
	assert.Contains(t, out, "Overall: down")
}
