package mtlx

import "strings"

var symbolReplacer = strings.NewReplacer(":", "_", "/", "_")

// FixName replaces path separator symbols with '_' so a MaterialX name can be used as a node name.
func FixName(name string) string {
	return symbolReplacer.Replace(name)
}

// ParentPath strips the final segment of a geometry path and keeps the trailing separator.
// "/a/b/c" becomes "/a/b/".
func ParentPath(geom string) string {
	idx := strings.LastIndex(geom, "/")
	if idx < 0 {
		return ""
	}
	return geom[:idx+1]
}
