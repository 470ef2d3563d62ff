package ast

import "fmt"

// Path locates the current traversal point in the logical response tree as a
// sequence of response keys (string) and list indices (int).
type Path []PathElement

type PathElement any

// AppendPath returns a new path with elem appended, leaving p untouched so
// paths can be threaded down the call stack without aliasing.
func AppendPath(path Path, elem PathElement) Path {
	newPath := make(Path, len(path)+1)
	copy(newPath, path)
	newPath[len(path)] = elem
	return newPath
}

// String renders the path in dotted form with bracketed indices,
// e.g. "viewer.friends[2].name".
func (p Path) String() string {
	result := ""
	for i, elem := range p {
		switch v := elem.(type) {
		case string:
			if i > 0 {
				result += "."
			}
			result += v
		case int:
			result += fmt.Sprintf("[%d]", v)
		}
	}
	return result
}
