package identifier_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"cheatdb/internal/identifier"
)

func TestClassify(t *testing.T) {
	c := identifier.New(nil)
	cases := []struct {
		raw      string
		category identifier.Category
		value    string
	}{
		{"vk.com/id12345", identifier.ProfileID, "12345"},
		{"https://vk.com/id987654321", identifier.ProfileID, "987654321"},
		{"m.vk.com/id7", identifier.ProfileID, "7"},
		{"id42", identifier.ProfileID, "42"},
		{"vk.com/durov", identifier.ScreenName, "durov"},
		{"https://www.VK.com/Ivan.Petrov", identifier.ScreenName, "ivan.petrov"},
		{"durov", identifier.ScreenName, "durov"},
		{"vk.com/durov/", identifier.ScreenName, "durov"},
		{"https://vk.com/id12345/", identifier.ProfileID, "12345"},
		{"ivan.petrov", identifier.ScreenName, "ivan.petrov"},
		{"vk.com/ivan.com", identifier.ScreenName, "ivan.com"},
		{"imgur.com", identifier.ProofLink, "imgur.com"},
		{"t.me", identifier.ProofLink, "t.me"},
		{"vk.com/wall1_45", identifier.WallLink, "vk.com/wall1_45"},
		{"https://vk.com/durov?w=wall1_45", identifier.WallLink, "https://vk.com/durov?w=wall1_45"},
		{"89991112233", identifier.Phone, "9991112233"},
		{"+79991112233", identifier.Phone, "9991112233"},
		{"8 999 111 22 33", identifier.Phone, "9991112233"},
		{"9991112233", identifier.Phone, "9991112233"},
		{"1234 5678 9123 4567", identifier.Card, "1234567891234567"},
		{"1234567890123456", identifier.Card, "1234567890123456"},
		{"50", identifier.Fifty, "50"},
		{"https://example.com/proof/1", identifier.ProofLink, "https://example.com/proof/1"},
		{"imgur.com/a/xyz", identifier.ProofLink, "imgur.com/a/xyz"},
		{"", identifier.Unrecognized, ""},
		{"привет", identifier.Unrecognized, "привет"},
		{"12345", identifier.Unrecognized, "12345"},
		{"+700012365487", identifier.Unrecognized, "700012365487"},
		{"1234 5678 9123 4567 8901", identifier.Unrecognized, "12345678912345678901"},
		{"ftp://example.com/x", identifier.Unrecognized, "ftp://example.com/x"},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			got := c.Classify(tc.raw)
			if got.Category != tc.category || got.Value != tc.value {
				t.Fatalf("Classify(%q) = %s/%q, want %s/%q", tc.raw, got.Category, got.Value, tc.category, tc.value)
			}
			if got.Raw != tc.raw {
				t.Fatalf("expected raw %q preserved, got %q", tc.raw, got.Raw)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"  +7 999 111\t22 33 ": "79991112233",
		"++7":                  "+7",
		"VK.COM/Durov":         "vk.com/durov",
		"１２３４":                 "1234",
		"":                     "",
	}
	for in, want := range cases {
		if got := identifier.Normalize(in); got != want {
			t.Fatalf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPhoneAndCardNeverOverlap(t *testing.T) {
	c := identifier.New(nil)
	for length := 1; length <= 20; length++ {
		for _, lead := range []string{"7", "8", "9", "1"} {
			digits := lead + strings.Repeat("5", length-1)
			got := c.Classify(digits)
			switch {
			case length == 16:
				if got.Category != identifier.Card {
					t.Fatalf("%d digits: expected card, got %s", length, got.Category)
				}
			case length == 10, length == 11 && (lead == "7" || lead == "8"):
				if got.Category != identifier.Phone {
					t.Fatalf("%d digits lead %s: expected phone, got %s", length, lead, got.Category)
				}
			default:
				if got.Category == identifier.Phone || got.Category == identifier.Card {
					t.Fatalf("%d digits lead %s: unexpected %s", length, lead, got.Category)
				}
			}
		}
	}
}

func TestScreenNameNeverPurelyNumeric(t *testing.T) {
	c := identifier.New(nil)
	got := c.Classify("vk.com/1234567")
	if got.Category == identifier.ScreenName {
		t.Fatalf("numeric path must not classify as screen name: %s", got)
	}
}

func TestCustomHostsAndFiftyToken(t *testing.T) {
	c := identifier.New([]string{"example.org"}, identifier.WithFiftyToken("1/2"))
	if got := c.Classify("example.org/id5"); got.Category != identifier.ProfileID || got.Value != "5" {
		t.Fatalf("expected profile id on custom host, got %s", got)
	}
	if got := c.Classify("vk.com/id5"); got.Category == identifier.ProfileID {
		t.Fatalf("expected vk.com to be unknown host, got %s", got)
	}
	if got := c.Classify(" 1/2 "); got.Category != identifier.Fifty {
		t.Fatalf("expected custom fifty token, got %s", got)
	}
	if got := c.Classify("50"); got.Category == identifier.Fifty {
		t.Fatalf("default token should no longer match, got %s", got)
	}
}

func TestClassifyLinesSkipsBlankLines(t *testing.T) {
	c := identifier.New(nil)
	got := c.ClassifyLines("vk.com/id1\n\n   \r\n89991112233\r\nwhat?\n")
	want := []identifier.Category{identifier.ProfileID, identifier.Phone, identifier.Unrecognized}
	var categories []identifier.Category
	for _, id := range got {
		categories = append(categories, id.Category)
	}
	if diff := cmp.Diff(want, categories); diff != "" {
		t.Fatalf("unexpected categories (-want +got):\n%s", diff)
	}
}
