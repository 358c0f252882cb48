package environ

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/xplshn/sharun/pkg/paths"
	"github.com/xplshn/sharun/pkg/utils"
)

// Context is what the rules know about the bundle.
type Context struct {
	BundleRoot string
	BinDir     string
	LibRoot    string
	ShareDir   string
	EtcDir     string
}

// Effect computes the assignments for a matched directory. dir is the
// absolute path of the directory, name its base name.
type Effect func(c Context, dir, name string) []Assignment

type Rule struct {
	Match  func(name string) bool
	Effect Effect
}

func hasPrefix(p string) func(string) bool {
	return func(name string) bool { return strings.HasPrefix(name, p) }
}

func equals(n string) func(string) bool {
	return func(name string) bool { return name == n }
}

// setIfExists sets key to dir/sub when that path exists.
func setIfExists(key, sub string) Effect {
	return func(_ Context, dir, _ string) []Assignment {
		p := filepath.Join(dir, sub)
		if !paths.Exists(p) {
			return nil
		}
		return []Assignment{Set(key, p)}
	}
}

func setDir(key string) Effect {
	return func(_ Context, dir, _ string) []Assignment {
		return []Assignment{Set(key, dir)}
	}
}

// hostThenBundle prepends a host default and then the bundled copy, so the
// bundle wins and the host stays as fallback.
func hostThenBundle(key, sub, host string) Effect {
	return func(_ Context, dir, _ string) []Assignment {
		p := filepath.Join(dir, sub)
		if !paths.Exists(p) {
			return nil
		}
		return []Assignment{Prepend(key, host), Prepend(key, p)}
	}
}

// LibRules apply to the immediate children of the library root that hold
// shared objects.
var LibRules = []Rule{
	{hasPrefix("python"), func(c Context, _, _ string) []Assignment {
		return []Assignment{Prepend("PYTHONHOME", c.BundleRoot), Set("PYTHONDONTWRITEBYTECODE", "1")}
	}},
	{hasPrefix("perl"), func(_ Context, dir, _ string) []Assignment {
		return []Assignment{Prepend("PERLLIB", dir)}
	}},
	{equals("gconv"), func(_ Context, dir, _ string) []Assignment {
		return []Assignment{Prepend("GCONV_PATH", dir)}
	}},
	{equals("gio"), setIfExists("GIO_MODULE_DIR", "modules")},
	{equals("dri"), setDir("LIBGL_DRIVERS_PATH")},
	{hasPrefix("spa-"), setDir("SPA_PLUGIN_DIR")},
	{hasPrefix("pipewire-"), setDir("PIPEWIRE_MODULE_DIR")},
	{hasPrefix("gtk-"), gtkEffect},
	{hasPrefix("qt"), func(c Context, dir, _ string) []Assignment {
		plugins := filepath.Join(dir, "plugins")
		if !paths.Exists(plugins) || paths.Exists(filepath.Join(c.BinDir, "qt.conf")) {
			return nil
		}
		return []Assignment{Prepend("QT_PLUGIN_PATH", plugins)}
	}},
	{hasPrefix("babl-"), setDir("BABL_PATH")},
	{hasPrefix("gegl-"), setDir("GEGL_PATH")},
	{equals("gimp"), setIfExists("GIMP2_PLUGINDIR", "2.0")},
	{equals("libdecor"), setIfExists("LIBDECOR_PLUGIN_DIR", "plugins-1")},
	{hasPrefix("tcl"), tclEffect},
	{hasPrefix("gstreamer-"), func(_ Context, dir, _ string) []Assignment {
		as := []Assignment{
			Prepend("GST_PLUGIN_PATH", dir),
			Prepend("GST_PLUGIN_SYSTEM_PATH", dir),
			Prepend("GST_PLUGIN_SYSTEM_PATH_1_0", dir),
		}
		if scanner := filepath.Join(dir, "gst-plugin-scanner"); paths.Exists(scanner) {
			as = append(as, Set("GST_PLUGIN_SCANNER", scanner))
		}
		return as
	}},
	{hasPrefix("gdk-pixbuf-"), pixbufEffect},
}

func gtkEffect(c Context, dir, _ string) []Assignment {
	as := []Assignment{
		Prepend("GTK_PATH", dir),
		Set("GTK_EXE_PREFIX", c.BundleRoot),
		Set("GTK_DATA_PREFIX", c.BundleRoot),
	}
	if found, err := utils.FindFiles(os.DirFS(dir), ".", 0, []string{"immodules.cache"}); err == nil && found != "" {
		as = append(as, Set("GTK_IM_MODULE_FILE", filepath.Join(dir, found)))
	}
	return as
}

func tclEffect(c Context, dir, name string) []Assignment {
	if !paths.Exists(filepath.Join(dir, "msgs")) {
		return nil
	}
	as := []Assignment{Prepend("TCL_LIBRARY", dir)}
	if tk := filepath.Join(c.LibRoot, strings.ReplaceAll(name, "tcl", "tk")); paths.Exists(tk) {
		as = append(as, Prepend("TK_LIBRARY", tk))
	}
	return as
}

func pixbufEffect(_ Context, dir, _ string) []Assignment {
	var moduleDir, moduleFile string
	fs.WalkDir(os.DirFS(dir), ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		switch {
		case d.IsDir() && d.Name() == "loaders" && moduleDir == "":
			moduleDir = filepath.Join(dir, p)
		case !d.IsDir() && d.Name() == "loaders.cache" && moduleFile == "":
			moduleFile = filepath.Join(dir, p)
		}
		if moduleDir != "" && moduleFile != "" {
			return fs.SkipAll
		}
		return nil
	})
	var as []Assignment
	if moduleDir != "" {
		as = append(as, Set("GDK_PIXBUF_MODULEDIR", moduleDir))
	}
	if moduleFile != "" {
		as = append(as, Set("GDK_PIXBUF_MODULE_FILE", moduleFile))
	}
	return as
}

// ShareRules apply to the child directories of the bundle's share/.
var ShareRules = []Rule{
	{equals("glvnd"), hostThenBundle("__EGL_VENDOR_LIBRARY_DIRS", "egl_vendor.d", "/usr/share/glvnd/egl_vendor.d")},
	{equals("vulkan"), hostThenBundle("VK_DRIVER_FILES", "icd.d", "/usr/share/vulkan/icd.d")},
	{equals("X11"), setIfExists("XKB_CONFIG_ROOT", "xkb")},
	{equals("glib-2.0"), hostThenBundle("GSETTINGS_SCHEMA_DIR", "schemas", "/usr/share/glib-2.0/schemas")},
	{equals("gimp"), setIfExists("GIMP2_DATADIR", "2.0")},
	{equals("terminfo"), setDir("TERMINFO")},
	{equals("file"), setIfExists("MAGIC", "misc/magic.mgc")},
}

// EtcRules apply to the child directories of the bundle's etc/.
var EtcRules = []Rule{
	{equals("fonts"), setIfExists("FONTCONFIG_FILE", "fonts.conf")},
	{equals("gimp"), setIfExists("GIMP2_SYSCONFDIR", "2.0")},
}

// XDGDataDefaults are put in XDG_DATA_DIRS, in this order, behind the
// bundle's share/ so host data stays reachable.
var XDGDataDefaults = []string{"/usr/local/share", "/usr/share"}

// Match returns the assignments of every rule matching name, in table
// order.
func Match(rules []Rule, c Context, dir, name string) []Assignment {
	var as []Assignment
	for _, r := range rules {
		if r.Match(name) {
			as = append(as, r.Effect(c, dir, name)...)
		}
	}
	return as
}

// Synthesize runs the library, share and etc passes over env. libChildren
// are the child names of the library root taken from its lib.path cache.
func Synthesize(c Context, env *Env, libChildren []string) {
	for _, name := range libChildren {
		env.Apply(Match(LibRules, c, filepath.Join(c.LibRoot, name), name))
	}

	if c.ShareDir != "" && paths.IsDir(c.ShareDir) {
		for _, d := range XDGDataDefaults {
			env.Prepend("XDG_DATA_DIRS", d)
		}
		env.Prepend("XDG_DATA_DIRS", c.ShareDir)
		applyDirRules(ShareRules, c, env, c.ShareDir)
	}

	if c.EtcDir != "" && paths.IsDir(c.EtcDir) {
		applyDirRules(EtcRules, c, env, c.EtcDir)
	}
}

func applyDirRules(rules []Rule, c Context, env *Env, parent string) {
	entries, err := os.ReadDir(parent)
	if err != nil {
		return
	}
	for _, entry := range entries {
		dir := filepath.Join(parent, entry.Name())
		if !paths.IsDir(dir) {
			continue
		}
		env.Apply(Match(rules, c, dir, entry.Name()))
	}
}
