package rbac

import (
	"fmt"
	"sort"
	"strings"
)

// KnownAction reports whether a is part of the closed action set.
func KnownAction(a Action) bool {
	for _, known := range Actions() {
		if a == known {
			return true
		}
	}

	return false
}

// ValidateRaw checks an externally supplied permission mapping against the
// closed module and action sets. Normalize silently drops unknown keys; API
// boundaries call ValidateRaw first so clients get a rejection instead of a
// silent drop.
func ValidateRaw(raw map[string]map[string]bool) error {
	var unknown []string

	for name, actions := range raw {
		if !KnownModule(Module(name)) {
			unknown = append(unknown, name)
			continue
		}

		for action := range actions {
			if !KnownAction(Action(action)) {
				unknown = append(unknown, name+"."+action)
			}
		}
	}

	if len(unknown) == 0 {
		return nil
	}

	sort.Strings(unknown)

	return fmt.Errorf("unknown permission keys: %s", strings.Join(unknown, ", "))
}
