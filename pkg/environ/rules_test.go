package environ

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bundle struct {
	t *testing.T
	c Context
}

func newBundle(t *testing.T) *bundle {
	root := t.TempDir()
	c := Context{
		BundleRoot: root,
		BinDir:     filepath.Join(root, "bin"),
		LibRoot:    filepath.Join(root, "shared", "lib"),
		ShareDir:   filepath.Join(root, "share"),
		EtcDir:     filepath.Join(root, "etc"),
	}
	require.NoError(t, os.MkdirAll(c.LibRoot, 0755))
	require.NoError(t, os.MkdirAll(c.BinDir, 0755))
	return &bundle{t: t, c: c}
}

func (b *bundle) mkdir(rel ...string) string {
	p := filepath.Join(append([]string{b.c.BundleRoot}, rel...)...)
	require.NoError(b.t, os.MkdirAll(p, 0755))
	return p
}

func (b *bundle) touch(rel ...string) string {
	p := filepath.Join(append([]string{b.c.BundleRoot}, rel...)...)
	require.NoError(b.t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(b.t, os.WriteFile(p, nil, 0644))
	return p
}

func (b *bundle) lib(name string) []Assignment {
	return Match(LibRules, b.c, filepath.Join(b.c.LibRoot, name), name)
}

func TestLibRulesSimple(t *testing.T) {
	b := newBundle(t)
	lib := b.c.LibRoot
	tests := []struct {
		name string
		want []Assignment
	}{
		{"python3.12", []Assignment{Prepend("PYTHONHOME", b.c.BundleRoot), Set("PYTHONDONTWRITEBYTECODE", "1")}},
		{"perl5", []Assignment{Prepend("PERLLIB", filepath.Join(lib, "perl5"))}},
		{"gconv", []Assignment{Prepend("GCONV_PATH", filepath.Join(lib, "gconv"))}},
		{"gconv-extra", nil},
		{"dri", []Assignment{Set("LIBGL_DRIVERS_PATH", filepath.Join(lib, "dri"))}},
		{"spa-0.2", []Assignment{Set("SPA_PLUGIN_DIR", filepath.Join(lib, "spa-0.2"))}},
		{"pipewire-0.3", []Assignment{Set("PIPEWIRE_MODULE_DIR", filepath.Join(lib, "pipewire-0.3"))}},
		{"babl-0.1", []Assignment{Set("BABL_PATH", filepath.Join(lib, "babl-0.1"))}},
		{"gegl-0.4", []Assignment{Set("GEGL_PATH", filepath.Join(lib, "gegl-0.4"))}},
		{"unrelated", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, b.lib(tt.name))
		})
	}
}

func TestLibRulesNestedDirs(t *testing.T) {
	b := newBundle(t)
	lib := b.c.LibRoot

	assert.Empty(t, b.lib("gio"))
	modules := b.mkdir("shared", "lib", "gio", "modules")
	assert.Equal(t, []Assignment{Set("GIO_MODULE_DIR", modules)}, b.lib("gio"))

	assert.Empty(t, b.lib("gimp"))
	plugins := b.mkdir("shared", "lib", "gimp", "2.0")
	assert.Equal(t, []Assignment{Set("GIMP2_PLUGINDIR", plugins)}, b.lib("gimp"))

	assert.Empty(t, b.lib("libdecor"))
	decor := b.mkdir("shared", "lib", "libdecor", "plugins-1")
	assert.Equal(t, []Assignment{Set("LIBDECOR_PLUGIN_DIR", decor)}, b.lib("libdecor"))

	b.mkdir("shared", "lib", "gstreamer-1.0")
	gst := filepath.Join(lib, "gstreamer-1.0")
	assert.Len(t, b.lib("gstreamer-1.0"), 3)
	scanner := b.touch("shared", "lib", "gstreamer-1.0", "gst-plugin-scanner")
	assert.Equal(t, []Assignment{
		Prepend("GST_PLUGIN_PATH", gst),
		Prepend("GST_PLUGIN_SYSTEM_PATH", gst),
		Prepend("GST_PLUGIN_SYSTEM_PATH_1_0", gst),
		Set("GST_PLUGIN_SCANNER", scanner),
	}, b.lib("gstreamer-1.0"))
}

func TestGtkRule(t *testing.T) {
	b := newBundle(t)
	gtk := b.mkdir("shared", "lib", "gtk-3.0")
	assert.Equal(t, []Assignment{
		Prepend("GTK_PATH", gtk),
		Set("GTK_EXE_PREFIX", b.c.BundleRoot),
		Set("GTK_DATA_PREFIX", b.c.BundleRoot),
	}, b.lib("gtk-3.0"))

	cache := b.touch("shared", "lib", "gtk-3.0", "3.0.0", "immodules.cache")
	as := b.lib("gtk-3.0")
	require.Len(t, as, 4)
	assert.Equal(t, Set("GTK_IM_MODULE_FILE", cache), as[3])
}

func TestQtRule(t *testing.T) {
	b := newBundle(t)
	assert.Empty(t, b.lib("qt6"))

	plugins := b.mkdir("shared", "lib", "qt6", "plugins")
	assert.Equal(t, []Assignment{Prepend("QT_PLUGIN_PATH", plugins)}, b.lib("qt6"))

	b.touch("bin", "qt.conf")
	assert.Empty(t, b.lib("qt6"), "qt.conf beside the binaries takes over plugin lookup")
}

func TestTclRule(t *testing.T) {
	b := newBundle(t)
	b.mkdir("shared", "lib", "tcl8.6")
	assert.Empty(t, b.lib("tcl8.6"), "tcl without msgs is not a tcl library")

	b.mkdir("shared", "lib", "tcl8.6", "msgs")
	tcl := filepath.Join(b.c.LibRoot, "tcl8.6")
	assert.Equal(t, []Assignment{Prepend("TCL_LIBRARY", tcl)}, b.lib("tcl8.6"))

	tk := b.mkdir("shared", "lib", "tk8.6")
	assert.Equal(t, []Assignment{Prepend("TCL_LIBRARY", tcl), Prepend("TK_LIBRARY", tk)}, b.lib("tcl8.6"))
}

func TestPixbufRule(t *testing.T) {
	b := newBundle(t)
	b.mkdir("shared", "lib", "gdk-pixbuf-2.0")
	assert.Empty(t, b.lib("gdk-pixbuf-2.0"))

	loaders := b.mkdir("shared", "lib", "gdk-pixbuf-2.0", "2.10.0", "loaders")
	cache := b.touch("shared", "lib", "gdk-pixbuf-2.0", "2.10.0", "loaders.cache")
	b.mkdir("shared", "lib", "gdk-pixbuf-2.0", "z", "loaders")
	assert.Equal(t, []Assignment{
		Set("GDK_PIXBUF_MODULEDIR", loaders),
		Set("GDK_PIXBUF_MODULE_FILE", cache),
	}, b.lib("gdk-pixbuf-2.0"))
}

func TestSynthesizeShareAndEtc(t *testing.T) {
	b := newBundle(t)
	egl := b.mkdir("share", "glvnd", "egl_vendor.d")
	icd := b.mkdir("share", "vulkan", "icd.d")
	xkb := b.mkdir("share", "X11", "xkb")
	schemas := b.mkdir("share", "glib-2.0", "schemas")
	gimpData := b.mkdir("share", "gimp", "2.0")
	terminfo := b.mkdir("share", "terminfo")
	magic := b.touch("share", "file", "misc", "magic.mgc")
	b.mkdir("share", "icons")
	fonts := b.touch("etc", "fonts", "fonts.conf")
	gimpConf := b.mkdir("etc", "gimp", "2.0")

	env := New([]string{"XDG_DATA_DIRS=/opt/share"})
	Synthesize(b.c, env, nil)

	assert.Equal(t, b.c.ShareDir+":/usr/share:/usr/local/share:/opt/share", env.Get("XDG_DATA_DIRS"))
	assert.Equal(t, egl+":/usr/share/glvnd/egl_vendor.d", env.Get("__EGL_VENDOR_LIBRARY_DIRS"))
	assert.Equal(t, icd+":/usr/share/vulkan/icd.d", env.Get("VK_DRIVER_FILES"))
	assert.Equal(t, xkb, env.Get("XKB_CONFIG_ROOT"))
	assert.Equal(t, schemas+":/usr/share/glib-2.0/schemas", env.Get("GSETTINGS_SCHEMA_DIR"))
	assert.Equal(t, gimpData, env.Get("GIMP2_DATADIR"))
	assert.Equal(t, terminfo, env.Get("TERMINFO"))
	assert.Equal(t, magic, env.Get("MAGIC"))
	assert.Equal(t, fonts, env.Get("FONTCONFIG_FILE"))
	assert.Equal(t, gimpConf, env.Get("GIMP2_SYSCONFDIR"))
}

func TestSynthesizeWithoutShare(t *testing.T) {
	b := newBundle(t)
	gtk := b.mkdir("shared", "lib", "gtk-3.0")
	env := New([]string{"HOME=/home/u"})
	Synthesize(b.c, env, []string{"gtk-3.0"})

	_, ok := env.Lookup("XDG_DATA_DIRS")
	assert.False(t, ok)
	assert.Equal(t, gtk, env.Get("GTK_PATH"))
	assert.Equal(t, b.c.BundleRoot, env.Get("GTK_EXE_PREFIX"))
	assert.Equal(t, "HOME=/home/u", env.Environ()[0])
}
