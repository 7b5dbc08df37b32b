package replica

import "fmt"

var jaNamespaces = map[int]string{
	0: "標準", 1: "ノート", 2: "利用者", 3: "利用者‐会話",
	4: "Wikipedia", 5: "Wikipedia‐ノート", 6: "ファイル", 7: "ファイル‐ノート",
	8: "MediaWiki", 9: "MediaWiki‐ノート", 10: "Template", 11: "Template‐ノート",
	12: "Help", 13: "Help‐ノート", 14: "Category", 15: "Category‐ノート",
}

// NamespaceName returns the local display name of a namespace number.
func NamespaceName(ns int) string {
	if name, ok := jaNamespaces[ns]; ok {
		return name
	}
	return fmt.Sprintf("名前空間%d", ns)
}

// FullTitle prefixes title with its namespace, except in the main
// namespace.
func FullTitle(ns int, title string) string {
	if ns == 0 {
		return title
	}
	return NamespaceName(ns) + ":" + title
}
