package model

import (
	"fmt"

	"github.com/acksell/blueprint/naming"
)

// ServiceOptions declares a service.
type ServiceOptions struct {
	Name        string
	Description string
	// Table is the DynamoDB table shared by all resources. Defaults to Name.
	Table string
}

// Service owns the resources stored in one table.
type Service struct {
	name        string
	description string
	table       string
	resources   []*Resource
	byName      map[string]*Resource
}

func NewService(opts ServiceOptions) (*Service, error) {
	name := naming.Param(opts.Name)
	if name == "" {
		return nil, fmt.Errorf("service name is required")
	}
	s := &Service{
		name:        name,
		description: opts.Description,
		table:       opts.Table,
		byName:      map[string]*Resource{},
	}
	if s.table == "" {
		s.table = name
	}
	return s, nil
}

// AddResource creates a resource and appends it to the service.
func (s *Service) AddResource(opts ResourceOptions) (*Resource, error) {
	r, err := NewResource(opts)
	if err != nil {
		return nil, err
	}
	if _, ok := s.byName[r.name]; ok {
		return nil, &DuplicateResourceError{Service: s.name, Resource: r.name}
	}
	s.resources = append(s.resources, r)
	s.byName[r.name] = r
	return r, nil
}

func (s *Service) Name() string        { return s.name }
func (s *Service) Description() string { return s.description }
func (s *Service) Table() string       { return s.table }

// Resources returns the resources in declaration order.
func (s *Service) Resources() []*Resource {
	return append([]*Resource(nil), s.resources...)
}

// Resource returns the resource with the given name, or nil.
func (s *Service) Resource(name string) *Resource {
	return s.byName[name]
}
