package backend

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httpclient"
	"github.com/utafrali/storefront/pkg/logger"
	"github.com/utafrali/storefront/pkg/tracing"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL+"/", httpclient.New(httpclient.DefaultConfig()), logger.Discard(), opts...)
	require.NoError(t, err)
	return c
}

func TestNew_RejectsRelativeURL(t *testing.T) {
	_, err := New("localhost:8080", httpclient.New(httpclient.DefaultConfig()), logger.Discard())
	assert.Error(t, err)

	_, err = New("/api", httpclient.New(httpclient.DefaultConfig()), logger.Discard())
	assert.Error(t, err)
}

func TestDo_SendsHeadersAndDecodes(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	_, err := tracing.InitTracer(context.Background(), tracing.DefaultConfig("backend-test"))
	require.NoError(t, err)

	var got http.Header
	var gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		gotQuery = r.URL.RawQuery
		assert.Equal(t, "/api/products", r.URL.Path)
		_, _ = w.Write([]byte(`[{"id":1,"name":"Hat"}]`))
	})

	var out []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	ctx := logger.WithCorrelationID(context.Background(), "corr-123")
	require.NoError(t, c.Get(ctx, "/api/products", map[string][]string{"category": {"Clothing"}}, &out))

	require.Len(t, out, 1)
	assert.Equal(t, "Hat", out[0].Name)
	assert.Equal(t, "category=Clothing", gotQuery)
	assert.Equal(t, "corr-123", got.Get(CorrelationIDHeader))
	assert.NotEmpty(t, got.Get("traceparent"))
	assert.Empty(t, got.Get("Authorization"))
}

func TestDo_GeneratesCorrelationID(t *testing.T) {
	var id string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		id = r.Header.Get(CorrelationIDHeader)
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.Get(context.Background(), "/api/categories", nil, nil))
	assert.Len(t, id, 36)
}

func TestDo_AuthAttachesBearer(t *testing.T) {
	var auth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{}`))
	}, WithTokenSource(staticToken("tok-1")))

	_, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/api/admin/products", Auth: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-1", auth)

	_, err = c.Do(context.Background(), Request{Method: http.MethodPost, Path: "/api/auth/check-auth", Bearer: "explicit"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer explicit", auth)
}

func TestDo_AuthWithoutTokenSendsNothing(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}, WithTokenSource(staticToken("")))

	_, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/api/admin/products", Auth: true}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotSignedIn))
	assert.True(t, apperrors.IsUnauthorized(err))
	assert.Zero(t, calls.Load())
}

func TestDo_UnauthorizedRunsHookForPrivilegedCalls(t *testing.T) {
	var hooked atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Full authentication is required"}`))
	},
		WithTokenSource(staticToken("stale")),
		WithUnauthorizedHandler(func(_ context.Context, token string) {
			assert.Equal(t, "stale", token)
			hooked.Add(1)
		}),
	)

	status, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/api/admin/products", Auth: true}, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Full authentication is required", apperrors.Message(err))
	assert.Equal(t, int32(1), hooked.Load())

	_, err = c.Do(context.Background(), Request{Method: http.MethodPost, Path: "/api/auth/check-auth", Bearer: "stale"}, nil)
	require.Error(t, err)
	assert.Equal(t, int32(1), hooked.Load(), "explicit bearer calls do not expire the session")

	_, err = c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/api/products"}, nil)
	require.Error(t, err)
	assert.Equal(t, int32(1), hooked.Load())
}

func TestDo_ForbiddenDoesNotRunHook(t *testing.T) {
	var hooked atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	},
		WithTokenSource(staticToken("tok")),
		WithUnauthorizedHandler(func(context.Context, string) { hooked.Add(1) }),
	)

	_, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/api/owner/users", Auth: true}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))
	assert.Zero(t, hooked.Load())
}

func TestDo_JSONBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"email":"a@b.c"}`, string(body))
		w.WriteHeader(http.StatusCreated)
	})

	status, err := c.Do(context.Background(), Request{Method: http.MethodPost, Path: "/api/auth/forgot-password", Body: map[string]string{"email": "a@b.c"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, status)
}

func TestDo_MultipartArrivesIntact(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		assert.Equal(t, "Front view", r.FormValue("altText"))
		assert.Equal(t, "0", r.FormValue("displayOrder"))

		f, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer f.Close()
		content, _ := io.ReadAll(f)
		assert.Equal(t, "pixels", string(content))
		assert.Equal(t, "front.png", header.Filename)
		assert.Equal(t, "image/png", header.Header.Get("Content-Type"))
		_, _ = w.Write([]byte(`{"id":7}`))
	}, WithTokenSource(staticToken("tok")))

	var out struct {
		ID int64 `json:"id"`
	}
	_, err := c.Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/api/admin/products/1/images",
		Auth:   true,
		Multipart: &Multipart{
			Fields: map[string]string{"altText": "Front view", "displayOrder": "0"},
			Files:  []File{{Field: "file", Filename: "/tmp/front.png", ContentType: "image/png", Content: strings.NewReader("pixels")}},
		},
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, int64(7), out.ID)
}

func TestWithDoer_SharesTokenSource(t *testing.T) {
	var auth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
	})
	c.SetTokenSource(staticToken("shared"))

	images := c.WithDoer(httpclient.New(httpclient.FixedRetryConfig("images", 2, 0)))
	_, err := images.Do(context.Background(), Request{Method: http.MethodGet, Path: "/api/admin/products/1/images", Auth: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer shared", auth)
	assert.Equal(t, c.BaseURL(), images.BaseURL())
}
