// Package routing loads the declarative page access table.
package routing

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sinergy/sinergy-web/internal/core/domain"
)

//go:embed routes.yaml
var defaultTable []byte

type tableFile struct {
	Home       string      `yaml:"home"`
	Login      string      `yaml:"login"`
	Exempt     []string    `yaml:"exempt"`
	Routes     []routeFile `yaml:"routes"`
	Navigation []navFile   `yaml:"navigation"`
}

type routeFile struct {
	Page   string `yaml:"page"`
	Title  string `yaml:"title"`
	Module string `yaml:"module"`
	Public bool   `yaml:"public"`
}

type navFile struct {
	Page     string    `yaml:"page"`
	Label    string    `yaml:"label"`
	Module   string    `yaml:"module"`
	Children []navFile `yaml:"children"`
}

// Default builds the route table shipped with the binary.
func Default() (*domain.RouteTable, error) {
	return Parse(defaultTable)
}

// LoadFile builds a route table from a YAML file on disk.
func LoadFile(path string) (*domain.RouteTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("route table: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML route table. Unknown keys and unknown
// module names are rejected.
func Parse(data []byte) (*domain.RouteTable, error) {
	cfg, err := decode(data)
	if err != nil {
		return nil, err
	}
	return domain.NewRouteTable(cfg)
}

func decode(data []byte) (domain.RouteTableConfig, error) {
	var tf tableFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&tf); err != nil {
		return domain.RouteTableConfig{}, fmt.Errorf("%w: %v", domain.ErrInvalidRoute, err)
	}

	cfg := domain.RouteTableConfig{
		Home:       tf.Home,
		Login:      tf.Login,
		Exempt:     tf.Exempt,
		Routes:     make([]domain.RouteSpec, 0, len(tf.Routes)),
		Navigation: toNav(tf.Navigation),
	}
	for _, r := range tf.Routes {
		cfg.Routes = append(cfg.Routes, domain.RouteSpec{
			Page:   r.Page,
			Title:  r.Title,
			Module: r.Module,
			Public: r.Public,
		})
	}
	return cfg, nil
}

func toNav(items []navFile) []domain.NavSpec {
	if len(items) == 0 {
		return nil
	}
	out := make([]domain.NavSpec, 0, len(items))
	for _, it := range items {
		out = append(out, domain.NavSpec{
			Page:     it.Page,
			Label:    it.Label,
			Module:   it.Module,
			Children: toNav(it.Children),
		})
	}
	return out
}
