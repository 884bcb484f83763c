package indexer

import (
	"path/filepath"
	"slices"
	"strings"
)

// LinkTarget reduces a wikilink body to the document name it refers to:
// the alias after |, the heading after # and any folder prefix are
// dropped, as is a trailing .md.
//
//	Note|shown text  -> Note
//	Note#Heading     -> Note
//	folder/Note.md   -> Note
func LinkTarget(link string) string {
	if i := strings.IndexAny(link, "|#"); i >= 0 {
		link = link[:i]
	}
	link = strings.TrimSpace(link)
	if i := strings.LastIndex(link, "/"); i >= 0 {
		link = link[i+1:]
	}
	return strings.TrimSuffix(link, ".md")
}

// DocName is the name a document is linked by.
func DocName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Backlinks inverts a path -> link targets map into document name -> paths
// of the documents linking to it. Each list is sorted and has no
// duplicates.
func Backlinks(links map[string][]string) map[string][]string {
	out := make(map[string][]string)
	for path, targets := range links {
		for _, link := range targets {
			name := LinkTarget(link)
			if name == "" {
				continue
			}
			out[name] = append(out[name], path)
		}
	}
	for name, paths := range out {
		slices.Sort(paths)
		out[name] = slices.Compact(paths)
	}
	return out
}
