// Package environ builds the environment handed to the launched program.
//
// The process environment is copied once into an Env and every later step
// edits that copy; nothing here calls os.Setenv. The final block is taken
// with Environ right before the process is replaced.
package environ

import "strings"

// Env is an ordered KEY=VALUE block. Keys keep the position of their first
// insertion.
type Env struct {
	keys []string
	vals map[string]string
}

// New copies an environment in os.Environ form. Entries without '=' are
// dropped; a repeated key keeps its last value.
func New(environ []string) *Env {
	e := &Env{vals: make(map[string]string, len(environ))}
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		e.Set(k, v)
	}
	return e
}

func (e *Env) Lookup(key string) (string, bool) {
	v, ok := e.vals[key]
	return v, ok
}

func (e *Env) Get(key string) string { return e.vals[key] }

func (e *Env) Set(key, value string) {
	if _, ok := e.vals[key]; !ok {
		e.keys = append(e.keys, key)
	}
	e.vals[key] = value
}

func (e *Env) Unset(key string) {
	if _, ok := e.vals[key]; !ok {
		return
	}
	delete(e.vals, key)
	for i, k := range e.keys {
		if k == key {
			e.keys = append(e.keys[:i], e.keys[i+1:]...)
			break
		}
	}
}

// Prepend adds value in front of a ':'-separated list variable. An unset or
// empty variable is simply set. The duplicate check is a substring match on
// the whole current value, so "/lib" counts as present in "/usr/lib".
func (e *Env) Prepend(key, value string) {
	old := e.vals[key]
	switch {
	case old == "":
		e.Set(key, value)
	case !strings.Contains(old, value):
		e.Set(key, value+":"+old)
	}
}

// Apply performs assignments in order.
func (e *Env) Apply(as []Assignment) {
	for _, a := range as {
		switch a.Op {
		case OpPrepend:
			e.Prepend(a.Key, a.Value)
		default:
			e.Set(a.Key, a.Value)
		}
	}
}

// Environ returns the block in os.Environ form.
func (e *Env) Environ() []string {
	out := make([]string, 0, len(e.keys))
	for _, k := range e.keys {
		out = append(out, k+"="+e.vals[k])
	}
	return out
}

func (e *Env) Len() int { return len(e.keys) }

type Op int

const (
	OpSet Op = iota
	OpPrepend
)

func (o Op) String() string {
	if o == OpPrepend {
		return "prepend"
	}
	return "set"
}

// Assignment is one environment edit produced by a rule.
type Assignment struct {
	Key   string
	Value string
	Op    Op
}

func Set(key, value string) Assignment     { return Assignment{Key: key, Value: value, Op: OpSet} }
func Prepend(key, value string) Assignment { return Assignment{Key: key, Value: value, Op: OpPrepend} }
