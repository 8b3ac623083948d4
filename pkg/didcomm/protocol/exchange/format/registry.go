/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package format

import (
	"fmt"
	"sort"
	"sync"

	"golang.org/x/exp/maps"
)

// Registry maps service names and format identifiers to services.
type Registry struct {
	mu       sync.RWMutex
	byName   map[string]Service
	byFormat map[string]Service
	order    []string
}

// NewRegistry returns a registry holding services, in preference order.
func NewRegistry(services ...Service) (*Registry, error) {
	r := &Registry{
		byName:   map[string]Service{},
		byFormat: map[string]Service{},
	}

	for _, svc := range services {
		if err := r.Register(svc); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Register adds svc. Names and format identifiers must be unique.
func (r *Registry) Register(svc Service) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byName[svc.Name()]; ok {
		return fmt.Errorf("format service %q already registered", svc.Name())
	}

	ids := map[string]struct{}{}

	for _, stage := range []Stage{StageProposal, StageOffer, StageRequest, StageFinal} {
		id := svc.FormatID(stage)
		if id == "" {
			continue
		}

		if other, ok := r.byFormat[id]; ok {
			return fmt.Errorf("format %q of %q already registered by %q", id, svc.Name(), other.Name())
		}

		ids[id] = struct{}{}
	}

	for id := range ids {
		r.byFormat[id] = svc
	}

	r.byName[svc.Name()] = svc
	r.order = append(r.order, svc.Name())

	return nil
}

// Get returns the service registered under name.
func (r *Registry) Get(name string) (Service, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	svc, ok := r.byName[name]

	return svc, ok
}

// ByFormatID returns the service owning a format identifier.
func (r *Registry) ByFormatID(id string) (Service, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	svc, ok := r.byFormat[id]

	return svc, ok
}

// Services returns the registered services in preference order.
func (r *Registry) Services() []Service {
	r.mu.RLock()
	defer r.mu.RUnlock()

	services := make([]Service, 0, len(r.order))
	for _, name := range r.order {
		services = append(services, r.byName[name])
	}

	return services
}

// Supported returns the sorted format identifiers supported at stage.
func (r *Registry) Supported(stage Stage) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.byFormat))

	for _, id := range maps.Keys(r.byFormat) {
		if r.byFormat[id].FormatID(stage) == id {
			ids = append(ids, id)
		}
	}

	sort.Strings(ids)

	return ids
}
