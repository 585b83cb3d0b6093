// Package runtime provides the service lifecycle plumbing shared by the
// node.
package runtime

import (
	"fmt"
	"reflect"

	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("prefix", "registry")

// Service is a long running component owned by the node. Implementations
// are registered once, started together in registration order, and stopped
// in reverse order on shutdown.
type Service interface {
	// Start spawns any goroutines required by the service.
	Start()
	// Stop terminates all goroutines belonging to the service,
	// blocking until they are all terminated.
	Stop() error
	// Status returns error if the service is not considered healthy.
	Status() error
}

// ServiceRegistry holds the node's services keyed by their concrete type.
// Registration order is preserved so startup and shutdown are deterministic.
type ServiceRegistry struct {
	order    []reflect.Type
	services map[reflect.Type]Service
}

// NewServiceRegistry returns an empty registry.
func NewServiceRegistry() *ServiceRegistry {
	return &ServiceRegistry{services: make(map[reflect.Type]Service)}
}

// RegisterService adds a service to the registry. Each concrete type may
// only be registered once.
func (s *ServiceRegistry) RegisterService(service Service) error {
	kind := reflect.TypeOf(service)
	if _, exists := s.services[kind]; exists {
		return fmt.Errorf("service already exists: %v", kind)
	}
	s.services[kind] = service
	s.order = append(s.order, kind)
	return nil
}

// StartAll starts every registered service in registration order. Each
// Start call runs on its own goroutine.
func (s *ServiceRegistry) StartAll() {
	log.Debugf("Starting %d services: %v", len(s.order), s.order)
	for _, kind := range s.order {
		go s.services[kind].Start()
	}
}

// StopAll stops every registered service in reverse registration order so
// that dependants shut down before their dependencies.
func (s *ServiceRegistry) StopAll() {
	for i := len(s.order) - 1; i >= 0; i-- {
		kind := s.order[i]
		if err := s.services[kind].Stop(); err != nil {
			log.WithError(err).Errorf("Could not stop service %v", kind)
		}
	}
}

// Statuses reports the current health of every registered service.
func (s *ServiceRegistry) Statuses() map[reflect.Type]error {
	m := make(map[reflect.Type]error, len(s.order))
	for _, kind := range s.order {
		m[kind] = s.services[kind].Status()
	}
	return m
}
