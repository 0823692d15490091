package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"playpass/internal/identity"
	"playpass/pkg/domainerrors"
	"playpass/pkg/testutil"
)

// stubService lets each test script the service responses.
type stubService struct {
	record identity.Record
	isNew  bool
	err    error
}

func (s *stubService) Register(context.Context, identity.Attributes) (identity.Record, bool, error) {
	return s.record, s.isNew, s.err
}

func (s *stubService) Lookup(context.Context, string) (identity.Record, error) {
	return s.record, s.err
}

func newRouter(svc Service) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	New(svc, logger, nil).Register(r)
	return r
}

func TestHandleRegisterNewIdentity(t *testing.T) {
	svc := &stubService{
		record: identity.Record{Key: "abc123", DisplayName: "Sofia Lopez"},
		isNew:  true,
	}
	router := newRouter(svc)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/register", identity.Attributes{
		GuardianName:  "Maria Lopez",
		GuardianID:    "CC-1023456789",
		ContactNumber: "3001234567",
		ChildName:     "Sofia Lopez",
		ChildID:       "TI-2015040512",
	})
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusCreated)
	resp := testutil.UnmarshalResponse[registerResponse](t, rr)
	assert.Equal(t, "abc123", resp.Key)
	assert.True(t, resp.IsNew)
}

func TestHandleRegisterExistingIdentity(t *testing.T) {
	svc := &stubService{
		record: identity.Record{Key: "abc123", DisplayName: "Sofia Lopez"},
		isNew:  false,
	}
	router := newRouter(svc)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/register", identity.Attributes{ChildName: "Sofia"})
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatusOK(t, rr)
	resp := testutil.UnmarshalResponse[registerResponse](t, rr)
	assert.False(t, resp.IsNew)
}

func TestHandleRegisterValidationError(t *testing.T) {
	svc := &stubService{err: domainerrors.New(domainerrors.CodeValidation, "childName is required")}
	router := newRouter(svc)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/register", identity.Attributes{})
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation")
}

func TestHandleRegisterMalformedBody(t *testing.T) {
	router := newRouter(&stubService{})

	req := testutil.NewRequestWithBody(t, http.MethodPost, "/register", "{not json")
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")
}

func TestHandleLookup(t *testing.T) {
	svc := &stubService{record: identity.Record{Key: "abc123", DisplayName: "Sofia Lopez"}}
	router := newRouter(svc)

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/identities/abc123"))

	testutil.AssertStatusOK(t, rr)
	record := testutil.UnmarshalResponse[identity.Record](t, rr)
	require.Equal(t, "Sofia Lopez", record.DisplayName)
}

func TestHandleLookupNotFound(t *testing.T) {
	svc := &stubService{err: domainerrors.New(domainerrors.CodeNotFound, "identity not registered")}
	router := newRouter(svc)

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/identities/missing"))

	testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
}
