package injector

// RegistrationQuery defines criteria for querying registrations.
type RegistrationQuery struct {
	// Lifestyle filters by lifestyle. nil matches all lifestyles.
	Lifestyle *Lifestyle

	// Initialized filters by whether a singleton instance was built.
	// nil matches all registrations.
	Initialized *bool

	// DependsOn keeps registrations observed to resolve this key.
	// The zero key matches all registrations.
	DependsOn TypeKey
}

// Query returns detailed information about registrations matching the
// query criteria, ordered by key name.
//
// Example:
//
//	// Find all singletons that were already constructed
//	singleton, built := injector.Singleton, true
//	results := injector.Query(inj, injector.RegistrationQuery{
//	    Lifestyle:   &singleton,
//	    Initialized: &built,
//	})
func Query(inj *Injector, query RegistrationQuery) []RegistrationInfo {
	var results []RegistrationInfo

	for _, key := range inj.Keys() {
		info := inj.Inspect(key)

		if query.Lifestyle != nil && info.Lifestyle != *query.Lifestyle {
			continue
		}

		if query.Initialized != nil && info.Initialized != *query.Initialized {
			continue
		}

		if !query.DependsOn.IsZero() && !containsKey(info.Dependencies, query.DependsOn) {
			continue
		}

		results = append(results, info)
	}

	return results
}

// QueryKeys returns the keys of registrations matching the query criteria.
func QueryKeys(inj *Injector, query RegistrationQuery) []TypeKey {
	results := Query(inj, query)
	keys := make([]TypeKey, len(results))
	for i, info := range results {
		keys[i] = info.Key
	}
	return keys
}

// FindByLifestyle returns all registrations with a specific lifestyle.
func FindByLifestyle(inj *Injector, lifestyle Lifestyle) []RegistrationInfo {
	return Query(inj, RegistrationQuery{Lifestyle: &lifestyle})
}

// FindInitialized returns all singletons that have been constructed.
func FindInitialized(inj *Injector) []RegistrationInfo {
	initialized := true
	return Query(inj, RegistrationQuery{Initialized: &initialized})
}

func containsKey(keys []TypeKey, key TypeKey) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}
