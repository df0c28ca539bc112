package config

import "strings"

// Route is a page of the application worth auditing on its own, with the
// roles allowed to open it. An empty role list means every role.
type Route struct {
	Path        string   `yaml:"path"`
	Area        string   `yaml:"area"`
	Roles       []string `yaml:"roles,omitempty"`
	Core        bool     `yaml:"core,omitempty"`
	Destructive bool     `yaml:"destructive,omitempty"`
}

// AllowsRole reports whether role may open the route. Roles compare
// case-insensitively.
func (r Route) AllowsRole(role string) bool {
	if len(r.Roles) == 0 {
		return true
	}
	for _, allowed := range r.Roles {
		if strings.EqualFold(allowed, role) {
			return true
		}
	}
	return false
}

// RoutesForRole filters the catalog down to what role may open, skipping
// destructive routes. An empty role selects every safe route.
func (c *Config) RoutesForRole(role string) []Route {
	var out []Route
	for _, r := range c.Routes {
		if r.Destructive {
			continue
		}
		if role == "" || r.AllowsRole(role) {
			out = append(out, r)
		}
	}
	return out
}

// CoreRoutesForRole is RoutesForRole restricted to routes marked core.
func (c *Config) CoreRoutesForRole(role string) []Route {
	var out []Route
	for _, r := range c.RoutesForRole(role) {
		if r.Core {
			out = append(out, r)
		}
	}
	return out
}
