package selector

import (
	"testing"

	"github.com/louis030195/bigbrother/internal/platform"
	"github.com/louis030195/bigbrother/internal/platform/fake"
	"github.com/louis030195/bigbrother/internal/uierr"
)

// buildTree mimics a browser window with a toolbar and two buttons.
//
//	window "Docs"
//	├── toolbar
//	│   ├── button "Submit"
//	│   └── button "Cancel"
//	└── textfield (value="hello world")
func buildTree() *fake.Node {
	return fake.El("window", "Docs",
		fake.El("toolbar", "",
			fake.El("button", "Submit"),
			fake.El("button", "Cancel"),
		),
		fake.El("textfield", "").WithAttr(platform.AttrValue, "hello world"),
	)
}

func TestParse_Conjunction(t *testing.T) {
	sel, err := Parse("role:button AND title:Submit")
	if err != nil {
		t.Fatal(err)
	}
	if len(sel.Preds) != 2 || sel.Index != -1 {
		t.Fatalf("unexpected parse: %+v", sel)
	}
}

func TestParse_NameAliasesTitle(t *testing.T) {
	sel, err := Parse("name:Submit")
	if err != nil {
		t.Fatal(err)
	}
	if sel.Preds[0].Attr != platform.AttrTitle {
		t.Fatalf("name should alias title, got %s", sel.Preds[0].Attr)
	}
}

func TestParse_Invalid(t *testing.T) {
	cases := []string{
		"bogus:x",
		"role",
		"role:",
		"role:button OR title:Submit",
		"index:abc",
		"index:-1",
		"index:0 AND index:1",
	}
	for _, c := range cases {
		_, err := Parse(c)
		if err == nil {
			t.Errorf("Parse(%q) should fail", c)
			continue
		}
		if uierr.CodeOf(err) != uierr.InvalidSelector {
			t.Errorf("Parse(%q): expected invalid_selector, got %s", c, uierr.CodeOf(err))
		}
	}
}

func TestResolve_ConjunctionAndOrder(t *testing.T) {
	sel, _ := Parse("role:button")
	matches := sel.Resolve(buildTree(), 0)
	if len(matches) != 2 {
		t.Fatalf("expected 2 buttons, got %d", len(matches))
	}
	// Visitation order: Submit before Cancel.
	first, _ := matches[0].Attr(platform.AttrTitle)
	if first != "Submit" {
		t.Fatalf("expected Submit first in visitation order, got %q", first)
	}

	sel, _ = Parse("role:button AND title:cancel")
	matches = sel.Resolve(buildTree(), 0)
	if len(matches) != 1 {
		t.Fatalf("conjunction with case-insensitive substring: got %d matches", len(matches))
	}
}

func TestResolve_EmptySelectorMatchesAll(t *testing.T) {
	sel, _ := Parse("")
	matches := sel.Resolve(buildTree(), 0)
	if len(matches) != 5 {
		t.Fatalf("empty selector should match every node, got %d of 5", len(matches))
	}
}

func TestResolve_ValueSubstring(t *testing.T) {
	sel, _ := Parse("value:world")
	matches := sel.Resolve(buildTree(), 0)
	if len(matches) != 1 {
		t.Fatalf("expected the textfield, got %d matches", len(matches))
	}
}

func TestResolve_MissingAttributeIsNonMatch(t *testing.T) {
	// Buttons have no value attribute; the fetch fails, so they don't match.
	sel, _ := Parse("value:anything")
	matches := sel.Resolve(fake.El("button", "Submit"), 0)
	if len(matches) != 0 {
		t.Fatalf("missing attribute must be a non-match, got %d", len(matches))
	}
}

func TestResolve_Index(t *testing.T) {
	sel, _ := Parse("role:button AND index:1")
	matches := sel.Resolve(buildTree(), 0)
	if len(matches) != 1 {
		t.Fatalf("index should pick one node, got %d", len(matches))
	}
	title, _ := matches[0].Attr(platform.AttrTitle)
	if title != "Cancel" {
		t.Fatalf("index:1 should be the second match, got %q", title)
	}

	sel, _ = Parse("role:button AND index:5")
	if got := sel.Resolve(buildTree(), 0); len(got) != 0 {
		t.Fatalf("out-of-range index should resolve empty, got %d", len(got))
	}
}

func TestResolve_DepthBound(t *testing.T) {
	// A chain deeper than the bound: the tail must not be visited.
	leaf := fake.El("button", "Deep")
	root := leaf
	for i := 0; i < 30; i++ {
		root = fake.El("group", "", root)
	}
	sel, _ := Parse("role:button")
	if got := sel.Resolve(root, 25); len(got) != 0 {
		t.Fatalf("node below the depth bound should be unreachable, got %d", len(got))
	}
	if got := sel.Resolve(root, 40); len(got) != 1 {
		t.Fatalf("raised bound should reach the node, got %d", len(got))
	}
}

func TestDescribe(t *testing.T) {
	n := fake.El("button", "Submit")
	if got := Describe(n); got != "role:button AND title:Submit" {
		t.Fatalf("Describe = %q", got)
	}
	bare := fake.El("group", "")
	if got := Describe(bare); got != "role:group" {
		t.Fatalf("Describe bare = %q", got)
	}
}
