package hdf5

import (
	"fmt"
	"strings"
)

// ParseAttrPath splits an attribute path of the form "/group/object@name"
// into the object path and the attribute name. "/@name" names an attribute
// of the root group.
func ParseAttrPath(p string) (objectPath, attrName string, err error) {
	at := strings.LastIndex(p, "@")
	if at < 0 {
		return "", "", fmt.Errorf("%w: %q has no '@'", ErrInvalidPath, p)
	}
	attrName = p[at+1:]
	if attrName == "" {
		return "", "", fmt.Errorf("%w: %q has an empty attribute name", ErrInvalidPath, p)
	}
	return CleanPath(p[:at]), attrName, nil
}

// JoinAttrPath is the inverse of ParseAttrPath.
func JoinAttrPath(objectPath, attrName string) string {
	objectPath = CleanPath(objectPath)
	if objectPath == "/" {
		return "/@" + attrName
	}
	return objectPath + "@" + attrName
}

// SplitPath returns the non-empty components of p.
//
//	SplitPath("/")        // []
//	SplitPath("a//b/")    // [a b]
func SplitPath(p string) []string {
	parts := strings.Split(p, "/")
	out := parts[:0]
	for _, s := range parts {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// CleanPath returns p as an absolute path without empty components or a
// trailing slash.
func CleanPath(p string) string {
	return "/" + strings.Join(SplitPath(p), "/")
}

func joinPath(dir, name string) string {
	if dir == "/" {
		return "/" + name
	}
	return dir + "/" + name
}

// checkName rejects names that cannot be a single link.
func checkName(name string) error {
	switch {
	case name == "", name == ".":
		return fmt.Errorf("%w: empty name", ErrInvalidPath)
	case strings.Contains(name, "/"):
		return fmt.Errorf("%w: name %q contains '/'", ErrInvalidPath, name)
	case len(name) > 0xFFFF:
		return fmt.Errorf("%w: name is %d bytes", ErrInvalidPath, len(name))
	}
	return nil
}
