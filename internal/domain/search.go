package domain

// SearchScope selects which listing field a keyword search matches against.
type SearchScope string

const (
	ScopeTitle     SearchScope = "title"
	ScopeAuthor    SearchScope = "author"
	ScopePublisher SearchScope = "publisher"
)

// ParseSearchScope maps a client-supplied scope string onto a SearchScope.
// Unknown values are rejected rather than treated as an empty result set.
func ParseSearchScope(s string) (SearchScope, bool) {
	switch SearchScope(s) {
	case ScopeTitle, ScopeAuthor, ScopePublisher:
		return SearchScope(s), true
	default:
		return "", false
	}
}
