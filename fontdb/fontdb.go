// Package fontdb is a process-scoped font database used to render text
// inside vector graphics.
//
// A Database records family names and file locations up front and parses a
// face only the first time it is queried. Default returns a shared database
// populated from the operating system's font directories on first use;
// callers that want isolation (tests, sandboxes) construct their own with New.
package fontdb

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-text/typesetting/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/text/cases"
)

// ErrNoFonts is returned by Query when the database holds no faces at all.
var ErrNoFonts = errors.New("fontdb: no fonts loaded")

// Generic is a CSS generic font family.
type Generic uint8

const (
	Serif Generic = iota
	SansSerif
	Monospace
	Cursive
	Fantasy
)

var genericNames = map[string]Generic{
	"serif":      Serif,
	"sans-serif": SansSerif,
	"monospace":  Monospace,
	"cursive":    Cursive,
	"fantasy":    Fantasy,
}

// String returns the CSS keyword for g.
func (g Generic) String() string {
	for name, v := range genericNames {
		if v == g {
			return name
		}
	}
	return "unknown"
}

// Face is a parsed font face. It is read-only and safe for concurrent use.
type Face struct {
	// Family is the family name recorded in the font's name table.
	Family string
	// SFNT is used for glyph outlines.
	SFNT *sfnt.Font
	// Font is used for shaping. Create a font.Face per shaping call.
	Font *font.Font
}

type entry struct {
	family string
	path   string
	data   []byte

	once sync.Once
	face *Face
	err  error
}

func (e *entry) load() (*Face, error) {
	e.once.Do(func() {
		data := e.data
		if data == nil {
			var err error
			if data, err = os.ReadFile(e.path); err != nil {
				e.err = fmt.Errorf("fontdb: read %s: %w", e.path, err)
				return
			}
		}
		sf, err := sfnt.Parse(data)
		if err != nil {
			e.err = fmt.Errorf("fontdb: parse %s: %w", e.family, err)
			return
		}
		gt, err := font.ParseTTF(bytes.NewReader(data))
		if err != nil {
			e.err = fmt.Errorf("fontdb: parse %s: %w", e.family, err)
			return
		}
		e.face = &Face{Family: e.family, SFNT: sf, Font: gt.Font}
		logger().Debug("fontdb: face loaded", "family", e.family, "path", e.path)
	})
	return e.face, e.err
}

// Database maps family names to font faces.
//
// Database is safe for concurrent use.
type Database struct {
	mu       sync.RWMutex
	entries  []*entry
	families map[string][]*entry
	generic  map[Generic]string
	dirs     []string
}

// Option configures a Database.
type Option func(*Database)

// WithFontDirs replaces the directories scanned by LoadSystemFonts.
func WithFontDirs(dirs ...string) Option {
	return func(db *Database) {
		db.dirs = append([]string(nil), dirs...)
	}
}

// WithGenericFamily maps a generic family to a concrete family name.
func WithGenericFamily(g Generic, family string) Option {
	return func(db *Database) {
		db.generic[g] = family
	}
}

// New creates an empty database. Call LoadSystemFonts or LoadFontData to
// populate it.
func New(opts ...Option) *Database {
	db := &Database{
		families: make(map[string][]*entry),
		generic: map[Generic]string{
			Serif:     "Times New Roman",
			SansSerif: "Arial",
			Monospace: "Courier New",
			Cursive:   "Comic Sans MS",
			Fantasy:   "Impact",
		},
		dirs: systemFontDirs(),
	}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

var (
	defaultOnce sync.Once
	defaultDB   *Database
)

// Default returns the shared process-wide database, loading system fonts the
// first time it is called.
func Default() *Database {
	defaultOnce.Do(func() {
		defaultDB = New()
		n := defaultDB.LoadSystemFonts()
		logger().Debug("fontdb: system fonts loaded", "faces", n)
	})
	return defaultDB
}

// LoadSystemFonts scans the configured font directories for TrueType and
// OpenType files and records their family names. Faces are parsed lazily.
// Unreadable files are skipped with a warning. It returns the number of
// faces added.
func (db *Database) LoadSystemFonts() int {
	db.mu.RLock()
	dirs := db.dirs
	db.mu.RUnlock()

	added := 0
	for _, dir := range dirs {
		_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				// Missing directories are normal; keep walking.
				return nil
			}
			if d.IsDir() || !isFontFile(path) {
				return nil
			}
			family, err := familyOfFile(path)
			if err != nil {
				logger().Warn("fontdb: skipping font", "path", path, "err", err)
				return nil
			}
			db.add(&entry{family: family, path: path})
			added++
			return nil
		})
	}
	return added
}

// LoadFontData adds a face from in-memory TrueType or OpenType data.
func (db *Database) LoadFontData(data []byte) error {
	family, err := familyOf(data)
	if err != nil {
		return err
	}
	db.add(&entry{family: family, data: data})
	return nil
}

// LoadFontFile adds the face stored at path. The file is read now to learn
// its family name and again when the face is first queried.
func (db *Database) LoadFontFile(path string) error {
	family, err := familyOfFile(path)
	if err != nil {
		return err
	}
	db.add(&entry{family: family, path: path})
	return nil
}

func (db *Database) add(e *entry) {
	key := fold(e.family)

	db.mu.Lock()
	defer db.mu.Unlock()

	db.entries = append(db.entries, e)
	db.families[key] = append(db.families[key], e)
}

// Query returns the first face matching one of families, in order. Generic
// family keywords such as "sans-serif" resolve through the generic mapping.
// When nothing matches it falls back to the sans-serif family and then to
// any loaded face.
func (db *Database) Query(families ...string) (*Face, error) {
	db.mu.RLock()
	candidates := make([]*entry, 0, 4)
	for _, name := range families {
		name = strings.Trim(strings.TrimSpace(name), `"'`)
		if g, ok := genericNames[strings.ToLower(name)]; ok {
			name = db.generic[g]
		}
		candidates = append(candidates, db.families[fold(name)]...)
	}
	candidates = append(candidates, db.families[fold(db.generic[SansSerif])]...)
	if len(db.entries) > 0 {
		candidates = append(candidates, db.entries[0])
	}
	db.mu.RUnlock()

	if len(candidates) == 0 {
		return nil, ErrNoFonts
	}

	var firstErr error
	for _, e := range candidates {
		face, err := e.load()
		if err == nil {
			return face, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}

// Len returns the number of faces recorded.
func (db *Database) Len() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.entries)
}

// Families returns the distinct family names recorded, in load order.
func (db *Database) Families() []string {
	db.mu.RLock()
	defer db.mu.RUnlock()

	seen := make(map[string]bool, len(db.families))
	out := make([]string, 0, len(db.families))
	for _, e := range db.entries {
		if !seen[e.family] {
			seen[e.family] = true
			out = append(out, e.family)
		}
	}
	return out
}

// fold case-folds a family name. A Caser is stateful, so one is made per call.
func fold(name string) string {
	return cases.Fold().String(name)
}

func isFontFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ttf", ".otf":
		return true
	}
	return false
}

func familyOfFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("fontdb: read %s: %w", path, err)
	}
	return familyOf(data)
}

func familyOf(data []byte) (string, error) {
	f, err := sfnt.Parse(data)
	if err != nil {
		return "", fmt.Errorf("fontdb: parse: %w", err)
	}
	var buf sfnt.Buffer
	family, err := f.Name(&buf, sfnt.NameIDFamily)
	if err != nil {
		return "", fmt.Errorf("fontdb: family name: %w", err)
	}
	return family, nil
}
