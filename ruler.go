package mdit

import "github.com/cockroachdb/errors"

// ErrRuleNotFound is returned when a rule name is not registered.
var ErrRuleNotFound = errors.New("rule not found")

type rule[F any] struct {
	name    string
	enabled bool
	fn      F
	alt     []string
}

// Ruler is an ordered registry of named rule functions. Rules can be
// inserted, replaced, toggled and grouped into terminator chains through
// their alt names. GetRules serves a compiled snapshot per chain that is
// rebuilt lazily after any mutation.
type Ruler[F any] struct {
	rules []rule[F]
	cache map[string][]F
}

// Names returns the registered rule names in order.
func (r *Ruler[F]) Names() []string {
	names := make([]string, len(r.rules))
	for i := range r.rules {
		names[i] = r.rules[i].name
	}
	return names
}

// Enabled reports whether the named rule exists and is enabled.
func (r *Ruler[F]) Enabled(name string) bool {
	i := r.find(name)
	return i >= 0 && r.rules[i].enabled
}

func (r *Ruler[F]) find(name string) int {
	for i := range r.rules {
		if r.rules[i].name == name {
			return i
		}
	}
	return -1
}

// Push appends a rule to the end of the chain.
func (r *Ruler[F]) Push(name string, fn F, alt ...string) {
	r.rules = append(r.rules, rule[F]{name: name, enabled: true, fn: fn, alt: alt})
	r.cache = nil
}

// At replaces the rule called name.
func (r *Ruler[F]) At(name string, fn F, alt ...string) error {
	i := r.find(name)
	if i < 0 {
		return errors.Wrapf(ErrRuleNotFound, "ruler: at %q", name)
	}
	r.rules[i].fn = fn
	r.rules[i].alt = alt
	r.cache = nil
	return nil
}

// Before inserts a new rule in front of beforeName.
func (r *Ruler[F]) Before(beforeName, name string, fn F, alt ...string) error {
	i := r.find(beforeName)
	if i < 0 {
		return errors.Wrapf(ErrRuleNotFound, "ruler: before %q", beforeName)
	}
	r.insert(i, rule[F]{name: name, enabled: true, fn: fn, alt: alt})
	return nil
}

// After inserts a new rule behind afterName.
func (r *Ruler[F]) After(afterName, name string, fn F, alt ...string) error {
	i := r.find(afterName)
	if i < 0 {
		return errors.Wrapf(ErrRuleNotFound, "ruler: after %q", afterName)
	}
	r.insert(i+1, rule[F]{name: name, enabled: true, fn: fn, alt: alt})
	return nil
}

func (r *Ruler[F]) insert(i int, ru rule[F]) {
	r.rules = append(r.rules, rule[F]{})
	copy(r.rules[i+1:], r.rules[i:])
	r.rules[i] = ru
	r.cache = nil
}

// Enable turns on the named rules and returns the names that were found.
// Unknown names fail unless ignoreInvalid is set.
func (r *Ruler[F]) Enable(names []string, ignoreInvalid bool) ([]string, error) {
	return r.toggle(names, true, ignoreInvalid)
}

// Disable turns off the named rules and returns the names that were found.
// Unknown names fail unless ignoreInvalid is set.
func (r *Ruler[F]) Disable(names []string, ignoreInvalid bool) ([]string, error) {
	return r.toggle(names, false, ignoreInvalid)
}

func (r *Ruler[F]) toggle(names []string, enabled, ignoreInvalid bool) ([]string, error) {
	if err := r.checkNames(names, ignoreInvalid); err != nil {
		return nil, err
	}
	var result []string
	for _, name := range names {
		if i := r.find(name); i >= 0 {
			r.rules[i].enabled = enabled
			result = append(result, name)
		}
	}
	r.cache = nil
	return result, nil
}

// checkNames fails on the first unknown name so that a rejected toggle
// leaves every rule untouched.
func (r *Ruler[F]) checkNames(names []string, ignoreInvalid bool) error {
	if ignoreInvalid {
		return nil
	}
	for _, name := range names {
		if r.find(name) < 0 {
			return errors.Wrapf(ErrRuleNotFound, "ruler: %q", name)
		}
	}
	return nil
}

// EnableOnly disables every rule and then enables the named ones.
func (r *Ruler[F]) EnableOnly(names []string, ignoreInvalid bool) error {
	if err := r.checkNames(names, ignoreInvalid); err != nil {
		return err
	}
	for i := range r.rules {
		r.rules[i].enabled = false
	}
	_, err := r.Enable(names, ignoreInvalid)
	return err
}

// GetRules returns the enabled rule functions of a chain in order. The
// empty chain name selects every enabled rule; any other name selects the
// enabled rules that list it in their alt names.
func (r *Ruler[F]) GetRules(chain string) []F {
	if r.cache == nil {
		r.compile()
	}
	return r.cache[chain]
}

func (r *Ruler[F]) compile() {
	chains := map[string]struct{}{"": {}}
	for _, ru := range r.rules {
		if !ru.enabled {
			continue
		}
		for _, alt := range ru.alt {
			chains[alt] = struct{}{}
		}
	}
	cache := make(map[string][]F, len(chains))
	for chain := range chains {
		var fns []F
		for _, ru := range r.rules {
			if !ru.enabled {
				continue
			}
			if chain != "" && !containsString(ru.alt, chain) {
				continue
			}
			fns = append(fns, ru.fn)
		}
		cache[chain] = fns
	}
	r.cache = cache
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
