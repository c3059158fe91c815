package handler

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-broadcast-api/internal/config"
	"github.com/go-broadcast-api/internal/domain"
	jwtinfra "github.com/go-broadcast-api/internal/infrastructure/jwt"
	"github.com/go-broadcast-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mock ---

type mockBroadcastSvc struct{ mock.Mock }

func (m *mockBroadcastSvc) Send(ctx context.Context, senderID string, req domain.SendAnnouncementRequest) (int, error) {
	args := m.Called(ctx, senderID, req)
	return args.Int(0), args.Error(1)
}

func (m *mockBroadcastSvc) List(ctx context.Context) ([]domain.AnnouncementSummary, error) {
	args := m.Called(ctx)
	if s, _ := args.Get(0).([]domain.AnnouncementSummary); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockBroadcastSvc) Detail(ctx context.Context, representativeID string) (*domain.AnnouncementDetail, error) {
	args := m.Called(ctx, representativeID)
	if d, _ := args.Get(0).(*domain.AnnouncementDetail); d != nil {
		return d, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockBroadcastSvc) Delete(ctx context.Context, representativeID string) (int, error) {
	args := m.Called(ctx, representativeID)
	return args.Int(0), args.Error(1)
}

// --- helpers ---

// newTestJWTProvider generates a fresh RSA key pair and returns a *jwtinfra.Provider.
func newTestJWTProvider(t *testing.T) *jwtinfra.Provider {
	t.Helper()
	privKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	dir := t.TempDir()
	privPath := filepath.Join(dir, "private.pem")
	pubPath := filepath.Join(dir, "public.pem")

	privPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(privKey)})
	require.NoError(t, os.WriteFile(privPath, privPEM, 0600))

	pubBytes, err := x509.MarshalPKIXPublicKey(&privKey.PublicKey)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubBytes})
	require.NoError(t, os.WriteFile(pubPath, pubPEM, 0600))

	p, err := jwtinfra.NewProvider(&config.Config{
		JWTPrivateKeyPath: privPath,
		JWTPublicKeyPath:  pubPath,
		JWTExpiry:         24 * time.Hour,
	})
	require.NoError(t, err)
	return p
}

// bearerReq builds a request with a signed Bearer token for the given userID and role.
func bearerReq(t *testing.T, p *jwtinfra.Provider, method, target, userID, role string, body []byte) *http.Request {
	t.Helper()
	token, err := p.Sign(userID, role, "sess1")
	require.NoError(t, err)
	var r *http.Request
	if body != nil {
		r = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	r.Header.Set("Authorization", "Bearer "+token)
	return r
}

// withChiID injects a chi URL param "id" into the request context.
func withChiID(r *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// serveAuthed wraps the handler with middleware.Auth before serving.
func serveAuthed(p *jwtinfra.Provider, h http.Handler, w http.ResponseWriter, r *http.Request) {
	middleware.Auth(p, nil)(h).ServeHTTP(w, r)
}

// --- Send tests ---

func TestSend_MissingClaims(t *testing.T) {
	svc := &mockBroadcastSvc{}
	h := NewBroadcastHandler(svc)
	body, _ := json.Marshal(domain.SendAnnouncementRequest{Title: "t", Body: "b", SendToAll: true})
	r := httptest.NewRequest(http.MethodPost, "/v1/broadcasts", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.Send(rr, r) // called directly, no claims in context
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestSend_InvalidBody(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockBroadcastSvc{}
	h := NewBroadcastHandler(svc)

	r := bearerReq(t, p, http.MethodPost, "/v1/broadcasts", "admin1", domain.RoleAdmin, []byte("not-json"))
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Send), rr, r)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSend_ValidationFailure(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockBroadcastSvc{}
	h := NewBroadcastHandler(svc)

	body, _ := json.Marshal(domain.SendAnnouncementRequest{Title: "Maintenance"}) // missing body
	r := bearerReq(t, p, http.MethodPost, "/v1/broadcasts", "admin1", domain.RoleAdmin, body)
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Send), rr, r)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	svc.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}

func TestSend_NoAudienceSelected(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockBroadcastSvc{}
	h := NewBroadcastHandler(svc)

	// Neither send_to_all nor recipient_ids.
	body, _ := json.Marshal(domain.SendAnnouncementRequest{Title: "Maintenance", Body: "Down at 10pm"})
	r := bearerReq(t, p, http.MethodPost, "/v1/broadcasts", "admin1", domain.RoleAdmin, body)
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Send), rr, r)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	svc.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}

func TestSend_NoRecipientsResolved(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockBroadcastSvc{}
	svc.On("Send", mock.Anything, "admin1", mock.Anything).Return(0, domain.ErrNoRecipients)
	h := NewBroadcastHandler(svc)

	body, _ := json.Marshal(domain.SendAnnouncementRequest{
		Title: "Maintenance", Body: "Down at 10pm", RecipientIDs: []string{"ghost"},
	})
	r := bearerReq(t, p, http.MethodPost, "/v1/broadcasts", "admin1", domain.RoleAdmin, body)
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Send), rr, r)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	svc.AssertExpectations(t)
}

func TestSend_HappyPath(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockBroadcastSvc{}
	svc.On("Send", mock.Anything, "admin1", mock.MatchedBy(func(req domain.SendAnnouncementRequest) bool {
		return req.SendToAll && req.Title == "Maintenance"
	})).Return(42, nil)
	h := NewBroadcastHandler(svc)

	body, _ := json.Marshal(domain.SendAnnouncementRequest{
		Title: "Maintenance", Body: "Down at 10pm", SendToAll: true,
	})
	r := bearerReq(t, p, http.MethodPost, "/v1/broadcasts", "admin1", domain.RoleAdmin, body)
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Send), rr, r)

	assert.Equal(t, http.StatusCreated, rr.Code)
	var resp SendResultEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, 42, resp.RecipientCount)
	svc.AssertExpectations(t)
}

func TestSend_StorageFailure(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockBroadcastSvc{}
	svc.On("Send", mock.Anything, "admin1", mock.Anything).Return(0, domain.ErrWriteFailed)
	h := NewBroadcastHandler(svc)

	body, _ := json.Marshal(domain.SendAnnouncementRequest{
		Title: "Maintenance", Body: "Down at 10pm", SendToAll: true,
	})
	r := bearerReq(t, p, http.MethodPost, "/v1/broadcasts", "admin1", domain.RoleAdmin, body)
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Send), rr, r)
	assert.Equal(t, http.StatusBadGateway, rr.Code)
}

// --- List tests ---

func TestList_ReturnsSummaries(t *testing.T) {
	svc := &mockBroadcastSvc{}
	svc.On("List", mock.Anything).Return([]domain.AnnouncementSummary{
		{GroupKey: "k1", RepresentativeID: "n1", Title: "Maintenance", TotalRecipients: 5, ReadCount: 2, UnreadCount: 3},
	}, nil)
	h := NewBroadcastHandler(svc)

	r := httptest.NewRequest(http.MethodGet, "/v1/broadcasts", nil)
	rr := httptest.NewRecorder()
	h.List(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp []domain.AnnouncementSummary
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "n1", resp[0].RepresentativeID)
	assert.Equal(t, 5, resp[0].TotalRecipients)
}

func TestList_AggregationFailure(t *testing.T) {
	svc := &mockBroadcastSvc{}
	svc.On("List", mock.Anything).Return(nil, domain.ErrAggregationFailed)
	h := NewBroadcastHandler(svc)

	r := httptest.NewRequest(http.MethodGet, "/v1/broadcasts", nil)
	rr := httptest.NewRecorder()
	h.List(rr, r)
	assert.Equal(t, http.StatusBadGateway, rr.Code)
}

// --- Detail tests ---

func TestDetail_NotFound(t *testing.T) {
	svc := &mockBroadcastSvc{}
	svc.On("Detail", mock.Anything, "gone").Return(nil, domain.ErrNotFound)
	h := NewBroadcastHandler(svc)

	r := withChiID(httptest.NewRequest(http.MethodGet, "/v1/broadcasts/gone", nil), "gone")
	rr := httptest.NewRecorder()
	h.Detail(rr, r)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestDetail_HappyPath(t *testing.T) {
	svc := &mockBroadcastSvc{}
	svc.On("Detail", mock.Anything, "n1").Return(&domain.AnnouncementDetail{
		Summary: domain.AnnouncementSummary{
			GroupKey: "k1", RepresentativeID: "n1", Title: "Maintenance",
			TotalRecipients: 2, ReadCount: 1, UnreadCount: 1,
		},
		Members: []domain.AnnouncementMember{
			{NotificationID: "n1", RecipientID: "u1", IsRead: true},
			{NotificationID: "n2", RecipientID: "u2", IsRead: false},
		},
	}, nil)
	h := NewBroadcastHandler(svc)

	r := withChiID(httptest.NewRequest(http.MethodGet, "/v1/broadcasts/n1", nil), "n1")
	rr := httptest.NewRecorder()
	h.Detail(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp domain.AnnouncementDetail
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Len(t, resp.Members, 2)
	assert.Equal(t, 1, resp.Summary.ReadCount)
	assert.Equal(t, "u1", resp.Members[0].RecipientID)
}

// --- Delete tests ---

func TestDelete_RemovesGroup(t *testing.T) {
	svc := &mockBroadcastSvc{}
	svc.On("Delete", mock.Anything, "n1").Return(7, nil)
	h := NewBroadcastHandler(svc)

	r := withChiID(httptest.NewRequest(http.MethodDelete, "/v1/broadcasts/n1", nil), "n1")
	rr := httptest.NewRecorder()
	h.Delete(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp DeleteResultEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, 7, resp.DeletedCount)
	svc.AssertExpectations(t)
}

func TestDelete_NotFound(t *testing.T) {
	svc := &mockBroadcastSvc{}
	svc.On("Delete", mock.Anything, "gone").Return(0, domain.ErrNotFound)
	h := NewBroadcastHandler(svc)

	r := withChiID(httptest.NewRequest(http.MethodDelete, "/v1/broadcasts/gone", nil), "gone")
	rr := httptest.NewRecorder()
	h.Delete(rr, r)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
