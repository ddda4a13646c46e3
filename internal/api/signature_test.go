package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func signBody(secret, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func signedHandler(secret string, store *fakeStore) http.Handler {
	return NewHandler(Deps{
		Extractor:     &fakeExtractor{},
		Store:         store,
		ChannelSecret: secret,
		Location:      time.UTC,
	})
}

func TestVerifySignature_Valid(t *testing.T) {
	const secret = "channel-secret"
	store := &fakeStore{}
	h := signedHandler(secret, store)

	body := fmt.Sprintf(`{"events":[%s]}`, textEvent("u1", "hello"))
	req := httptest.NewRequest(http.MethodPost, "/api/webhook", strings.NewReader(body))
	req.Header.Set("X-Line-Signature", signBody(secret, body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if len(store.appends) != 1 {
		t.Errorf("append calls = %d, want 1 (body must survive verification)", len(store.appends))
	}
}

func TestVerifySignature_Invalid(t *testing.T) {
	store := &fakeStore{}
	h := signedHandler("channel-secret", store)

	body := `{"events":[]}`
	req := httptest.NewRequest(http.MethodPost, "/api/webhook", strings.NewReader(body))
	req.Header.Set("X-Line-Signature", signBody("wrong-secret", body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if len(store.appends) != 0 {
		t.Errorf("append calls = %d, want 0", len(store.appends))
	}
}

func TestVerifySignature_MissingHeader(t *testing.T) {
	h := signedHandler("channel-secret", &fakeStore{})

	req := httptest.NewRequest(http.MethodPost, "/api/webhook", strings.NewReader(`{"events":[]}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestVerifySignature_DisabledWithoutSecret(t *testing.T) {
	h := signedHandler("", &fakeStore{})

	req := httptest.NewRequest(http.MethodPost, "/api/webhook", strings.NewReader(`{"events":[]}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 when no secret is configured", rec.Code)
	}
}
