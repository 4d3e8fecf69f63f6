package changes

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParsePorcelain(t *testing.T) {
	out := []byte("?? new.php\x00 M plugin.php\x00D  gone.txt\x00 D inc/old.php\x00A  staged.php\x00MM both.php\x00")
	got := ParsePorcelain(out)
	want := ChangeSet{
		Added:    []string{"new.php", "staged.php"},
		Modified: []string{"both.php", "plugin.php"},
		Deleted:  []string{"gone.txt", "inc/old.php"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ParsePorcelain mismatch (-want +got):\n%s", diff)
	}
}

func TestParsePorcelainEmpty(t *testing.T) {
	got := ParsePorcelain(nil)
	if !got.Empty() {
		t.Fatalf("expected empty change set, got %+v", got)
	}
	if got.Len() != 0 {
		t.Fatalf("expected zero length, got %d", got.Len())
	}
}

func TestEntriesSortedByPath(t *testing.T) {
	cs := ChangeSet{Added: []string{"z.php"}, Modified: []string{"a.php"}, Deleted: []string{"m.php"}}
	got := cs.Entries()
	want := []Entry{{Path: "a.php", Kind: Modified}, {Path: "m.php", Kind: Deleted}, {Path: "z.php", Kind: Added}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Entries mismatch (-want +got):\n%s", diff)
	}
}

func TestWithWarningDoesNotAlias(t *testing.T) {
	base := ChangeSet{Warnings: make([]string, 0, 4)}
	a := base.WithWarning("one")
	b := base.WithWarning("two")
	if a.Warnings[0] != "one" || b.Warnings[0] != "two" {
		t.Fatalf("warnings aliased: %v %v", a.Warnings, b.Warnings)
	}
	if !a.Empty() {
		t.Fatal("warnings must not make a change set non-empty")
	}
}

func TestRenderGroupsByDirectory(t *testing.T) {
	cs := ChangeSet{
		Added:    []string{"inc/pro/module.php"},
		Modified: []string{"inc/core.php", "plugin.php"},
		Deleted:  []string{"readme.txt"},
	}
	out := Render("pro", cs)
	for _, want := range []string{"pro", "inc", "pro", "+ module.php", "~ core.php", "~ plugin.php", "- readme.txt"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in rendered tree:\n%s", want, out)
		}
	}
	if strings.Count(out, "inc\n") != 1 {
		t.Fatalf("expected inc branch once:\n%s", out)
	}
}

func TestPreview(t *testing.T) {
	if got := Preview("plugin.php", "same\n", "same\n"); got != "" {
		t.Fatalf("expected no diff, got %q", got)
	}
	got := Preview("plugin.php", "Version: 1.0\n", "Version: 1.1\n")
	for _, want := range []string{"--- a/plugin.php", "+++ b/plugin.php", "-Version: 1.0", "+Version: 1.1"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in diff:\n%s", want, got)
		}
	}
}
