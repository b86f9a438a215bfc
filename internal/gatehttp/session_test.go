package gatehttp

import (
	"strings"
	"testing"
	"time"
)

func TestMintVerify_RoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	token := MintToken("acme", "q1", "secret-a", now.Add(time.Hour))

	if !VerifyToken(token, "acme", "q1", "secret-a", now) {
		t.Fatal("fresh token failed verification")
	}
}

func TestVerify_Expired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	token := MintToken("acme", "q1", "secret-a", now.Add(time.Hour))

	if VerifyToken(token, "acme", "q1", "secret-a", now.Add(2*time.Hour)) {
		t.Fatal("expired token verified")
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	now := time.Now()
	token := MintToken("acme", "q1", "secret-a", now.Add(time.Hour))

	if VerifyToken(token, "acme", "q1", "secret-b", now) {
		t.Fatal("token verified under rotated secret")
	}
}

func TestVerify_WrongSite(t *testing.T) {
	now := time.Now()
	token := MintToken("acme", "q1", "secret-a", now.Add(time.Hour))

	if VerifyToken(token, "acme", "q2", "secret-a", now) {
		t.Fatal("token replayed against a different site")
	}
	if VerifyToken(token, "globex", "q1", "secret-a", now) {
		t.Fatal("token replayed against a different brand")
	}
}

func TestVerify_Malformed(t *testing.T) {
	now := time.Now()
	cases := []string{
		"",
		"no-dot-separator",
		"bm90LXZhbGlk.deadbeef",
		"!!!.deadbeef",
		MintToken("acme", "q1", "s", now.Add(time.Hour)) + "x",
	}
	for _, tok := range cases {
		if VerifyToken(tok, "acme", "q1", "s", now) {
			t.Errorf("malformed token %q verified", tok)
		}
	}
}

func TestVerify_TamperedPayload(t *testing.T) {
	now := time.Now()
	token := MintToken("acme", "q1", "secret-a", now.Add(time.Hour))

	// graft q1's signature onto a q2 payload
	forged := MintToken("acme", "q2", "secret-a", now.Add(time.Hour))
	parts := strings.SplitN(forged, ".", 2)
	spliced := parts[0] + "." + strings.SplitN(token, ".", 2)[1]

	if VerifyToken(spliced, "acme", "q2", "secret-a", now) {
		t.Fatal("spliced token verified")
	}
}

func TestCookieValue(t *testing.T) {
	cases := []struct {
		header string
		name   string
		want   string
		found  bool
	}{
		{"wf_session=abc.def", "wf_session", "abc.def", true},
		{"a=1; wf_session=tok; b=2", "wf_session", "tok", true},
		{`wf_session="quoted"`, "wf_session", "quoted", true},
		{"other=1", "wf_session", "", false},
		{"", "wf_session", "", false},
		{"wf_session_extra=x", "wf_session", "", false},
	}
	for _, tc := range cases {
		got, found := CookieValue(tc.header, tc.name)
		if got != tc.want || found != tc.found {
			t.Errorf("CookieValue(%q, %q) = %q, %v; want %q, %v",
				tc.header, tc.name, got, found, tc.want, tc.found)
		}
	}
}
