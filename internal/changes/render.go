package changes

import (
	"fmt"
	"strings"

	"github.com/aymanbagabas/go-udiff"
	"github.com/xlab/treeprint"
)

var kindMarks = map[Kind]string{
	Added:    "+",
	Modified: "~",
	Deleted:  "-",
}

// Render draws the change set as a directory tree rooted at label, marking each
// file with + (added), ~ (modified) or - (deleted).
func Render(label string, cs ChangeSet) string {
	root := treeprint.NewWithRoot(label)
	branches := map[string]treeprint.Tree{"": root}
	for _, entry := range cs.Entries() {
		parts := strings.Split(entry.Path, "/")
		parent := root
		prefix := ""
		for _, dir := range parts[:len(parts)-1] {
			if prefix == "" {
				prefix = dir
			} else {
				prefix += "/" + dir
			}
			branch, ok := branches[prefix]
			if !ok {
				branch = parent.AddBranch(dir)
				branches[prefix] = branch
			}
			parent = branch
		}
		parent.AddNode(fmt.Sprintf("%s %s", kindMarks[entry.Kind], parts[len(parts)-1]))
	}
	return root.String()
}

// Preview returns a unified diff of one file between its committed and working versions.
// It returns an empty string when both are identical.
func Preview(path string, before string, after string) string {
	if before == after {
		return ""
	}
	return udiff.Unified("a/"+path, "b/"+path, before, after)
}
