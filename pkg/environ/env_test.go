package environ

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewKeepsOrder(t *testing.T) {
	e := New([]string{"B=2", "A=1", "junk", "=x", "B=3", "C=a=b"})
	assert.Equal(t, []string{"B=3", "A=1", "C=a=b"}, e.Environ())
	assert.Equal(t, 3, e.Len())
}

func TestSetUnset(t *testing.T) {
	e := New(nil)
	e.Set("A", "1")
	e.Set("B", "2")
	e.Set("A", "3")
	e.Unset("A")
	e.Unset("missing")
	assert.Equal(t, []string{"B=2"}, e.Environ())
	_, ok := e.Lookup("A")
	assert.False(t, ok)
	e.Set("A", "4")
	assert.Equal(t, []string{"B=2", "A=4"}, e.Environ())
}

func TestPrepend(t *testing.T) {
	tests := []struct {
		name  string
		start []string
		value string
		want  string
	}{
		{"unset", nil, "/b/bin", "/b/bin"},
		{"empty", []string{"PATH="}, "/b/bin", "/b/bin"},
		{"new value goes first", []string{"PATH=/usr/bin:/bin"}, "/b/bin", "/b/bin:/usr/bin:/bin"},
		{"already present", []string{"PATH=/usr/bin:/b/bin"}, "/b/bin", "/usr/bin:/b/bin"},
		{"substring counts as present", []string{"PATH=/usr/lib"}, "/lib", "/usr/lib"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(tt.start)
			e.Prepend("PATH", tt.value)
			assert.Equal(t, tt.want, e.Get("PATH"))
		})
	}
}

func TestPrependTwiceIsStable(t *testing.T) {
	e := New([]string{"GTK_PATH=/usr/lib/gtk-3.0"})
	e.Prepend("GTK_PATH", "/b/shared/lib/gtk-3.0")
	once := e.Get("GTK_PATH")
	e.Prepend("GTK_PATH", "/b/shared/lib/gtk-3.0")
	assert.Equal(t, once, e.Get("GTK_PATH"))
	assert.Equal(t, "/b/shared/lib/gtk-3.0:/usr/lib/gtk-3.0", once)
}

func TestApply(t *testing.T) {
	e := New([]string{"X=old"})
	e.Apply([]Assignment{Set("Y", "1"), Prepend("X", "new"), Set("Y", "2")})
	assert.Equal(t, []string{"X=new:old", "Y=2"}, e.Environ())
	assert.Equal(t, "prepend", OpPrepend.String())
	assert.Equal(t, "set", OpSet.String())
}
