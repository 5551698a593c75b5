package injector

import "fmt"

// Module installs a related set of bindings, e.g. the debug or release
// implementations of an application's services.
type Module func(inj *Injector) error

// Install applies modules in order and stops at the first failure.
//
// Example:
//
//	inj := injector.New()
//	if err := inj.Install(DebugModule); err != nil {
//	    return err
//	}
func (inj *Injector) Install(modules ...Module) error {
	for i, module := range modules {
		if module == nil {
			continue
		}

		if err := module(inj); err != nil {
			return fmt.Errorf("install module %d: %w", i, err)
		}
	}

	return nil
}

// ServiceRegistration holds configuration for a service to be registered.
type ServiceRegistration struct {
	Key       TypeKey
	Factory   Factory
	Lifestyle Lifestyle
}

// Service creates a ServiceRegistration for batch registration.
//
// Example:
//
//	injector.RegisterServices(inj,
//	    injector.Service(DatabaseConfigKey.TypeKey(), newDatabaseConfig, injector.Singleton),
//	    injector.Service(LoggerKey.TypeKey(), newLogger, injector.Transient),
//	)
func Service(key TypeKey, factory Factory, lifestyle Lifestyle) ServiceRegistration {
	return ServiceRegistration{
		Key:       key,
		Factory:   factory,
		Lifestyle: lifestyle,
	}
}

// RegisterServices registers multiple services in a single call.
// Returns error if any service registration fails.
func RegisterServices(inj *Injector, services ...ServiceRegistration) error {
	for _, svc := range services {
		if err := inj.Register(svc.Key, svc.Factory, svc.Lifestyle); err != nil {
			return fmt.Errorf("register %s: %w", svc.Key, err)
		}
	}

	return nil
}

// TypedService creates a ServiceRegistration from a typed key and factory.
func TypedService[T any](key Key[T], lifestyle Lifestyle, factory func(Resolver) (T, error)) ServiceRegistration {
	var wrapped Factory
	if factory != nil {
		wrapped = func(r Resolver) (any, error) {
			return factory(r)
		}
	}

	return Service(key.TypeKey(), wrapped, lifestyle)
}
