package domain

import (
	"fmt"
	"net/url"
	"strings"
)

// PageClass is the static access class of a navigable page.
type PageClass string

const (
	// PagePublic requires authentication only.
	PagePublic PageClass = "public"
	// PageRestricted additionally requires a module in the permission set.
	PageRestricted PageClass = "restricted"
	// PageUnmapped is any page missing from the table; accessible once authenticated.
	PageUnmapped PageClass = "unmapped"
)

// Route is the classification of one page.
type Route struct {
	Page   string
	Title  string
	Class  PageClass
	Module Module
}

// RouteSpec is one declared entry of the route table, before validation.
type RouteSpec struct {
	Page   string
	Title  string
	Module string
	Public bool
}

// NavSpec is one declared navigation item, before validation.
type NavSpec struct {
	Page     string
	Label    string
	Module   string
	Children []NavSpec
}

// RouteTableConfig is the declarative form of the route table.
type RouteTableConfig struct {
	Home       string
	Login      string
	Exempt     []string
	Routes     []RouteSpec
	Navigation []NavSpec
}

type navItem struct {
	page     string
	label    string
	module   Module
	children []navItem
}

// NavEntry is a navigation item resolved against a permission set.
type NavEntry struct {
	Page     string
	Label    string
	Href     string
	Locked   bool
	Children []NavEntry
}

// RouteTable maps pages to their access class and holds the navigation menu.
// It is immutable once built.
type RouteTable struct {
	home   string
	login  string
	exempt map[string]struct{}
	routes map[string]Route
	nav    []navItem
}

// NewRouteTable validates cfg and builds the table. Every module it names
// must be a declared Module.
func NewRouteTable(cfg RouteTableConfig) (*RouteTable, error) {
	t := &RouteTable{
		home:   NormalizePage(cfg.Home),
		login:  NormalizePage(cfg.Login),
		exempt: make(map[string]struct{}, len(cfg.Exempt)+1),
		routes: make(map[string]Route, len(cfg.Routes)),
	}
	if t.home == "" || t.login == "" {
		return nil, fmt.Errorf("%w: home and login pages are required", ErrInvalidRoute)
	}

	t.exempt[t.login] = struct{}{}
	for _, p := range cfg.Exempt {
		if p = NormalizePage(p); p != "" {
			t.exempt[p] = struct{}{}
		}
	}

	for _, rs := range cfg.Routes {
		page := NormalizePage(rs.Page)
		if page == "" {
			return nil, fmt.Errorf("%w: route with empty page", ErrInvalidRoute)
		}
		if _, dup := t.routes[page]; dup {
			return nil, fmt.Errorf("%w: page %q declared twice", ErrInvalidRoute, page)
		}
		r := Route{Page: page, Title: rs.Title, Class: PagePublic}
		if r.Title == "" {
			r.Title = page
		}
		switch {
		case rs.Public && rs.Module != "":
			return nil, fmt.Errorf("%w: public page %q cannot require a module", ErrInvalidRoute, page)
		case !rs.Public:
			if rs.Module == "" {
				return nil, fmt.Errorf("%w: page %q needs a module or public: true", ErrInvalidRoute, page)
			}
			m, err := ParseModule(rs.Module)
			if err != nil {
				return nil, fmt.Errorf("%w: page %q: %w", ErrInvalidRoute, page, err)
			}
			r.Class = PageRestricted
			r.Module = m
		}
		t.routes[page] = r
	}

	nav, err := buildNav(cfg.Navigation)
	if err != nil {
		return nil, err
	}
	t.nav = nav
	return t, nil
}

func buildNav(specs []NavSpec) ([]navItem, error) {
	out := make([]navItem, 0, len(specs))
	for _, ns := range specs {
		item := navItem{page: NormalizePage(ns.Page), label: ns.Label}
		if item.label == "" {
			return nil, fmt.Errorf("%w: navigation item without label", ErrInvalidRoute)
		}
		if ns.Module != "" {
			m, err := ParseModule(ns.Module)
			if err != nil {
				return nil, fmt.Errorf("%w: navigation %q: %w", ErrInvalidRoute, ns.Label, err)
			}
			item.module = m
		}
		children, err := buildNav(ns.Children)
		if err != nil {
			return nil, err
		}
		item.children = children
		out = append(out, item)
	}
	return out, nil
}

func (t *RouteTable) Home() string  { return t.home }
func (t *RouteTable) Login() string { return t.login }

// IsExempt reports whether page is an auth page reachable without identity.
func (t *RouteTable) IsExempt(page string) bool {
	_, ok := t.exempt[NormalizePage(page)]
	return ok
}

// Classify returns the route for page; unknown pages are PageUnmapped.
func (t *RouteTable) Classify(page string) Route {
	page = NormalizePage(page)
	if r, ok := t.routes[page]; ok {
		return r
	}
	return Route{Page: page, Title: page, Class: PageUnmapped}
}

// Allows reports whether perms grants access to page.
func (t *RouteTable) Allows(page string, perms PermissionSet) bool {
	r := t.Classify(page)
	if r.Class != PageRestricted {
		return true
	}
	return perms.Has(r.Module)
}

// Navigation resolves the menu against perms. With all set every item is
// unlocked. Locked items lose their link and their submenu.
func (t *RouteTable) Navigation(perms PermissionSet, all bool) []NavEntry {
	return resolveNav(t.nav, perms, all)
}

func resolveNav(items []navItem, perms PermissionSet, all bool) []NavEntry {
	out := make([]NavEntry, 0, len(items))
	for _, it := range items {
		e := NavEntry{Page: it.page, Label: it.label, Href: PageHref(it.page)}
		if it.page == "" {
			e.Href = "#"
		}
		if !all && it.module != "" && !perms.Has(it.module) {
			e.Locked = true
			e.Href = "#"
			out = append(out, e)
			continue
		}
		if len(it.children) > 0 {
			e.Children = resolveNav(it.children, perms, all)
		}
		out = append(out, e)
	}
	return out
}

// NormalizePage reduces a path or URL ("/Estoque.html?x=1") to a page name ("estoque").
func NormalizePage(p string) string {
	p = strings.TrimSpace(p)
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if i := strings.LastIndex(p, "/"); i >= 0 {
		p = p[i+1:]
	}
	p = strings.TrimSuffix(strings.ToLower(p), ".html")
	return p
}

// PageHref is the URL path serving page.
func PageHref(page string) string {
	return "/" + url.PathEscape(page) + ".html"
}
