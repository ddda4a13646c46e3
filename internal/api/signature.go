package api

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"net/http"
)

// VerifySignature validates the X-Line-Signature header: base64 of the
// HMAC-SHA256 of the raw request body keyed with the channel secret. An empty
// secret disables the check for deployments that rely on an unguessable
// webhook URL instead.
func VerifySignature(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
			r.Body.Close()
			if err != nil {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "reading request body: %v", err)
				return
			}

			mac := hmac.New(sha256.New, []byte(secret))
			mac.Write(body)
			want := mac.Sum(nil)

			got, err := base64.StdEncoding.DecodeString(r.Header.Get("X-Line-Signature"))
			if err != nil || !hmac.Equal(got, want) {
				httpError(w, http.StatusUnauthorized, "authentication_error", "invalid webhook signature")
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(body))
			next.ServeHTTP(w, r)
		})
	}
}
