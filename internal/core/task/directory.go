package task

import "slices"

// Resolver decides whether a username can be assigned tasks.
type Resolver interface {
	Resolve(username string) bool
}

// Directory is the set of known users. An empty directory resolves every
// username.
type Directory struct {
	users map[string]Actor
	order []string
}

// NewDirectory builds a directory from actors. Later duplicates replace
// earlier ones.
func NewDirectory(actors ...Actor) *Directory {
	d := &Directory{users: make(map[string]Actor, len(actors))}
	for _, a := range actors {
		if _, ok := d.users[a.Username]; !ok {
			d.order = append(d.order, a.Username)
		}
		d.users[a.Username] = a
	}
	return d
}

// Resolve reports whether username is a known user.
func (d *Directory) Resolve(username string) bool {
	if d == nil || len(d.users) == 0 {
		return username != ""
	}
	_, ok := d.users[username]
	return ok
}

// Lookup returns the user registered under username.
func (d *Directory) Lookup(username string) (Actor, bool) {
	if d == nil {
		return Actor{}, false
	}
	a, ok := d.users[username]
	return a, ok
}

// Users returns all users in registration order.
func (d *Directory) Users() []Actor {
	if d == nil {
		return nil
	}
	out := make([]Actor, 0, len(d.order))
	for _, name := range d.order {
		out = append(out, d.users[name])
	}
	return out
}

// Usernames returns the registered usernames, sorted.
func (d *Directory) Usernames() []string {
	if d == nil {
		return nil
	}
	names := slices.Clone(d.order)
	slices.Sort(names)
	return names
}
