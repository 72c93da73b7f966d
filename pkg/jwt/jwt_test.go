package jwt

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSignerRoundTrip(t *testing.T) {
	s, err := NewSigner("test-secret")
	if err != nil {
		t.Fatal(err)
	}
	tok, err := s.Generate("u1", "Asha", "rider")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	claims, err := s.Validate(tok)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claims.Identity() != "u1" || claims.Name != "Asha" || claims.Role != "rider" {
		t.Fatalf("claims = %+v", claims)
	}

	other, _ := NewSigner("other-secret")
	if _, err := other.Validate(tok); err == nil {
		t.Fatal("token validated with the wrong secret")
	}
}

func TestNewSignerRequiresSecret(t *testing.T) {
	if _, err := NewSigner(""); !errors.Is(err, ErrMissingSecret) {
		t.Fatalf("err = %v, want ErrMissingSecret", err)
	}
}

func TestIdentity(t *testing.T) {
	s, _ := NewSigner("test-secret")
	tok, _ := s.Generate("u42", "", "rider")

	id, err := Identity(tok)
	if err != nil || id != "u42" {
		t.Fatalf("Identity = %q, %v", id, err)
	}
	if _, err := Identity("not-a-token"); err == nil {
		t.Fatal("expected error for garbage token")
	}
}

func TestMiddleware(t *testing.T) {
	s, _ := NewSigner("test-secret")
	tok, _ := s.Generate("u1", "", "rider")

	h := s.OptionalAuth(RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(GetClaims(r.Context()).UserID))
	})))

	cases := []struct {
		name   string
		header string
		query  string
		code   int
	}{
		{"no token", "", "", http.StatusUnauthorized},
		{"bad token", "Bearer nope", "", http.StatusUnauthorized},
		{"header", "Bearer " + tok, "", http.StatusOK},
		{"query", "", "?token=" + tok, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/x"+tc.query, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tc.code {
				t.Fatalf("code = %d, want %d", rec.Code, tc.code)
			}
			if tc.code == http.StatusOK && rec.Body.String() != "u1" {
				t.Fatalf("body = %q", rec.Body.String())
			}
		})
	}
}
