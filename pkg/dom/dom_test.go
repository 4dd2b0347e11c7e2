package dom

import (
	"strings"
	"testing"
)

func TestBuildAndRender(t *testing.T) {
	t.Parallel()

	root := Element("div", "id", "root", "class", "a")
	input := Element("input", "id", "name", "type", "text")
	label := Append(Element("label", "for", "name"), Text("Name & co"))
	Append(root, label, input, nil)

	AddClass(root, "b")
	AddClass(root, "a")
	SetAttr(input, "value", "Ada")
	ToggleAttr(input, "required", "", true)
	ToggleAttr(input, "disabled", "", false)

	out, err := Render(root)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	want := `<div id="root" class="a b"><label for="name">Name &amp; co</label><input id="name" type="text" value="Ada" required=""/></div>`
	if out != want {
		t.Fatalf("render mismatch:\n got: %s\nwant: %s", out, want)
	}

	if ByID(root, "name") != input {
		t.Fatalf("ByID should find the input")
	}
	if len(ByTag(root, "label")) != 1 || len(ByClass(root, "b")) != 1 {
		t.Fatalf("tag/class lookup failed")
	}
	if TextContent(root) != "Name & co" {
		t.Fatalf("text content: %q", TextContent(root))
	}

	RemoveClass(root, "a")
	RemoveAttr(input, "required")
	SetText(label, "Full name")
	out, _ = Render(root)
	if strings.Contains(out, "required") || !strings.Contains(out, `class="b"`) || !strings.Contains(out, "Full name") {
		t.Fatalf("patches not applied: %s", out)
	}

	Detach(input)
	if ByID(root, "name") != nil {
		t.Fatalf("detached node should not be found")
	}
}

func TestParseFragment(t *testing.T) {
	t.Parallel()

	nodes, err := ParseFragment("<b>bold</b> text")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(nodes))
	}
}
