package message

// Prefix is one Conventional Commits type offered in the manual flow.
type Prefix struct {
	Name        string
	Description string
}

// Catalog is an ordered list of commit prefixes.
type Catalog []Prefix

var defaultCatalog = Catalog{
	{"feat", "A new feature"},
	{"fix", "A bug fix"},
	{"docs", "Documentation only changes"},
	{"style", "Changes that do not affect the meaning of the code"},
	{"refactor", "A code change that neither fixes a bug nor adds a feature"},
	{"perf", "A code change that improves performance"},
	{"test", "Adding missing tests or correcting existing tests"},
	{"build", "Changes that affect the build system or external dependencies"},
	{"ci", "Changes to CI configuration files and scripts"},
	{"chore", "Other changes that don't modify src or test files"},
	{"revert", "Reverts a previous commit"},
}

// DefaultCatalog returns a copy of the built-in prefixes.
func DefaultCatalog() Catalog {
	return append(Catalog(nil), defaultCatalog...)
}

// WithCustom returns a copy of c with an ad-hoc prefix appended.
func (c Catalog) WithCustom(name, description string) Catalog {
	out := make(Catalog, 0, len(c)+1)
	out = append(out, c...)
	return append(out, Prefix{Name: name, Description: description})
}

// Names returns the prefix names in order.
func (c Catalog) Names() []string {
	names := make([]string, len(c))
	for i, p := range c {
		names[i] = p.Name
	}
	return names
}

// Contains reports whether name is in the catalog.
func (c Catalog) Contains(name string) bool {
	for _, p := range c {
		if p.Name == name {
			return true
		}
	}
	return false
}
