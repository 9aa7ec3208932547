package paramstore

type pathQuery struct {
	recursive bool
	nested    bool
	required  []string
}

// PathOption adjusts a single GetParametersByPath call.
type PathOption func(*pathQuery)

// Recursive includes parameters nested more than one level below the queried
// path. Without it the service returns direct children only.
func Recursive() PathOption {
	return func(q *pathQuery) {
		q.recursive = true
	}
}

// Nested reshapes the result into one mapping level per path segment, so a
// relative key "db/port" becomes result["db"]["port"]. Without Recursive no
// multi-segment keys can occur and the result stays a single level.
func Nested() PathOption {
	return func(q *pathQuery) {
		q.nested = true
	}
}

// Required declares relative keys that must be present once all result pages
// are merged. Absence of any of them fails the call with a
// MissingParametersError naming every absent key.
func Required(names ...string) PathOption {
	return func(q *pathQuery) {
		q.required = append(q.required, names...)
	}
}
