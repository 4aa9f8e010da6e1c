package attribution

import (
	"net/url"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	return NewCodec(NewSigner("test-secret", zap.NewNop()))
}

func TestEncodeDecodeURL(t *testing.T) {
	codec := newTestCodec(t)

	tests := []struct {
		name   string
		base   string
		params Params
	}{
		{"plain base", "https://app.nmbr.co/org/store/mug", fullParams()},
		{"base with query", "https://app.nmbr.co/page?ref=home", Params{NmbrID: String("n1")}},
		{"empty value survives", "https://app.nmbr.co/p", Params{RecipientID: String("")}},
		{"no params", "https://app.nmbr.co/p", Params{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			link := codec.EncodeToURL(tt.base, tt.params)
			if !strings.HasPrefix(link, tt.base) {
				t.Fatalf("link %q does not extend base %q", link, tt.base)
			}
			got, ok := codec.DecodeFromURL(link)
			if !ok {
				t.Fatal("expected encoded URL to decode and verify")
			}
			if !got.Equal(tt.params) {
				t.Errorf("round trip changed params: got %+v want %+v", got, tt.params)
			}
		})
	}
}

func TestEncodeToURLSeparator(t *testing.T) {
	codec := newTestCodec(t)

	plain := codec.EncodeToURL("https://x.test/p", Params{})
	if !strings.Contains(plain, "/p?") {
		t.Errorf("expected ? separator on plain base, got %q", plain)
	}

	withQuery := codec.EncodeToURL("https://x.test/p?a=1", Params{})
	if !strings.Contains(withQuery, "p?a=1&") {
		t.Errorf("expected & separator on base with query, got %q", withQuery)
	}
}

func TestDecodeFromURLIgnoresUnknownParams(t *testing.T) {
	codec := newTestCodec(t)

	link := codec.EncodeToURL("https://x.test/p", Params{NmbrID: String("n1")})
	link += "&fbclid=tracker&utm_unknown=junk"

	got, ok := codec.DecodeFromURL(link)
	if !ok {
		t.Fatal("unsigned extra params must not break verification")
	}
	if got.NmbrID == nil || *got.NmbrID != "n1" {
		t.Errorf("got %+v, want NmbrID n1", got)
	}
}

func TestDecodeFromURLRejections(t *testing.T) {
	codec := newTestCodec(t)
	signed := codec.EncodeToURL("https://x.test/p", Params{NmbrID: String("n1")})

	tests := []struct {
		name string
		url  string
	}{
		{"unparseable", "http://bad url\x7f"},
		{"no query", "https://x.test/p"},
		{"missing signature", "https://x.test/p?nmbrId=n1&timestamp=1700000000000"},
		{"missing timestamp", "https://x.test/p?nmbrId=n1&signature=abc"},
		{"non-numeric timestamp", "https://x.test/p?timestamp=soon&signature=abc"},
		{"tampered value", strings.Replace(signed, "nmbrId=n1", "nmbrId=n2", 1)},
		{"garbage signature", "https://x.test/p?nmbrId=n1&timestamp=1700000000000&signature=deadbeef"},
		{"appended NUL field", signed + "&recipientId=%00"},
		{"appended empty field", signed + "&recipientId="},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, ok := codec.DecodeFromURL(tt.url); ok {
				t.Errorf("expected rejection, got %+v", got)
			}
		})
	}
}

func TestEncodeToCookieDirective(t *testing.T) {
	codec := newTestCodec(t)
	cookie := codec.EncodeToCookie(Params{NmbrID: String("n1")})

	for _, want := range []string{
		CookieName + "=",
		"Path=/",
		"Max-Age=604800",
		"SameSite=Lax",
		"Secure",
	} {
		if !strings.Contains(cookie, want) {
			t.Errorf("cookie %q missing %q", cookie, want)
		}
	}
}

func TestEncodeDecodeCookie(t *testing.T) {
	codec := newTestCodec(t)

	tests := []struct {
		name   string
		params Params
	}{
		{"all fields", fullParams()},
		{"absent vs empty", Params{NmbrID: String("n1"), UTMTerm: String("")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cookie := codec.EncodeToCookie(tt.params)
			got, ok := codec.DecodeFromCookie(cookie)
			if !ok {
				t.Fatal("expected encoded cookie to decode and verify")
			}
			if !got.Equal(tt.params) {
				t.Errorf("round trip changed params: got %+v want %+v", got, tt.params)
			}
		})
	}
}

func TestDecodeFromCookieHeaderWithOtherCookies(t *testing.T) {
	codec := newTestCodec(t)

	cookie := codec.EncodeToCookie(Params{NmbrID: String("n1")})
	value := strings.SplitN(cookie, ";", 2)[0]
	header := "session=abc123; " + value + "; theme=dark"

	got, ok := codec.DecodeFromCookie(header)
	if !ok {
		t.Fatal("attribution cookie among other cookies must decode")
	}
	if got.NmbrID == nil || *got.NmbrID != "n1" {
		t.Errorf("got %+v, want NmbrID n1", got)
	}
}

func TestDecodeFromCookieRejections(t *testing.T) {
	codec := newTestCodec(t)

	tests := []struct {
		name   string
		header string
	}{
		{"empty header", ""},
		{"no attribution cookie", "session=abc; theme=dark"},
		{"bad url encoding", CookieName + "=%zz"},
		{"not json", CookieName + "=" + url.QueryEscape("not-json")},
		{"unsigned json", CookieName + "=" + url.QueryEscape(`{"nmbrId":"n1"}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, ok := codec.DecodeFromCookie(tt.header); ok {
				t.Errorf("expected rejection, got %+v", got)
			}
		})
	}
}
