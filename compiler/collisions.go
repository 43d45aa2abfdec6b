package compiler

import (
	"errors"

	"github.com/initializ/envpipe/util"
)

// CheckCollisions normalizes every environment name and returns the
// identifier base for each name. Names that cannot be normalized produce a
// ConfigurationError for that environment; names that normalize to the same
// identifier produce one CollisionError per identifier. All problems are
// returned together.
func CheckCollisions(names []string) (map[string]string, error) {
	ids := make(map[string]string, len(names))
	owners := make(map[string][]string)
	var order []string
	var errs []error

	for _, name := range names {
		id, err := util.Normalize(name)
		if err != nil {
			errs = append(errs, configErr(name, "name", err))
			continue
		}
		if _, seen := owners[id]; !seen {
			order = append(order, id)
		}
		owners[id] = append(owners[id], name)
		ids[name] = id
	}

	for _, id := range order {
		if envs := owners[id]; len(envs) > 1 {
			errs = append(errs, &CollisionError{Identifier: id, Environments: envs})
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return ids, nil
}
