package scoring

import "github.com/bryanwahyu/giterra/internal/domain/signals"

// Theme key of a planet
type Theme string

const (
	ThemeFutureCity      Theme = "future_city"
	ThemeLabDome         Theme = "lab_dome"
	ThemePrimitiveForest Theme = "primitive_forest"
	ThemeStartTree       Theme = "start_tree"
)

// Themes lists every theme in display order.
var Themes = []Theme{ThemeFutureCity, ThemeLabDome, ThemePrimitiveForest, ThemeStartTree}

const (
	// LowActivityThreshold is the aggregate score under which every user is a beginner.
	LowActivityThreshold = 5.0

	BeginnerTheme = ThemeStartTree
	DefaultTheme  = ThemeFutureCity
	DefaultTrait  = signals.CategoryChore

	defaultWeight = 1.0
)

// Static tables. They are read-only after package init.
var (
	weights = map[signals.Category]float64{
		signals.CategoryFeat:     1.0,
		signals.CategoryFix:      4.0,
		signals.CategoryDocs:     4.0,
		signals.CategoryRefactor: 2.0,
		signals.CategoryTest:     2.7,
		signals.CategoryChore:    1.0,
	}

	// priority breaks score ties, most specialized first
	priority = []signals.Category{
		signals.CategoryTest,
		signals.CategoryFix,
		signals.CategoryDocs,
		signals.CategoryRefactor,
		signals.CategoryFeat,
		signals.CategoryChore,
	}

	traitThemes = map[signals.Category]Theme{
		signals.CategoryFix:      ThemeLabDome,
		signals.CategoryTest:     ThemeLabDome,
		signals.CategoryRefactor: ThemePrimitiveForest,
		signals.CategoryDocs:     ThemePrimitiveForest,
		signals.CategoryFeat:     ThemeFutureCity,
		signals.CategoryChore:    ThemeFutureCity,
	}

	personas = map[Theme]string{
		ThemeFutureCity:      "Future City",
		ThemeLabDome:         "Lab Dome",
		ThemePrimitiveForest: "Primitive Forest",
		ThemeStartTree:       "Start Tree",
	}

	// objects maps theme -> trait -> decorative object. The chore entry of
	// each theme is the fallback for traits without their own object.
	objects = map[Theme]map[signals.Category]string{
		ThemeFutureCity: {
			signals.CategoryFeat:     "GlassBuilding",
			signals.CategoryFix:      "HologramTree",
			signals.CategoryRefactor: "Hyperloop",
			signals.CategoryDocs:     "HologramSign",
			signals.CategoryChore:    "Drone",
		},
		ThemeLabDome: {
			signals.CategoryFeat:     "MetalBunker",
			signals.CategoryFix:      "ShieldTurret",
			signals.CategoryRefactor: "PipeLine",
			signals.CategoryDocs:     "SatelliteDish",
			signals.CategoryChore:    "Ventilation",
		},
		ThemePrimitiveForest: {
			signals.CategoryFeat:     "GiantTree",
			signals.CategoryFix:      "MossRock",
			signals.CategoryRefactor: "VineBridge",
			signals.CategoryDocs:     "AncientRune",
			signals.CategoryChore:    "WildFlower",
		},
		ThemeStartTree: {
			signals.CategoryFeat:     "Sprout",
			signals.CategoryFix:      "Pebble",
			signals.CategoryRefactor: "SteppingStone",
			signals.CategoryDocs:     "Firefly",
			signals.CategoryChore:    "Leaf",
		},
	}

	objectThemes = func() map[string]Theme {
		m := make(map[string]Theme)
		for theme, byTrait := range objects {
			for _, obj := range byTrait {
				m[obj] = theme
			}
		}
		return m
	}()
)

// Weight returns the weight of a category, 1.0 for categories without an entry.
func Weight(c signals.Category) float64 {
	if w, ok := weights[c]; ok {
		return w
	}
	return defaultWeight
}

// ThemeFor maps a dominant trait to its theme.
func ThemeFor(trait signals.Category) Theme {
	if t, ok := traitThemes[trait]; ok {
		return t
	}
	return DefaultTheme
}

// Persona returns the display name of a theme.
func Persona(theme Theme) string {
	return personas[theme]
}

// ValidTheme reports whether theme is one of the fixed themes.
func ValidTheme(theme Theme) bool {
	_, ok := personas[theme]
	return ok
}

// ObjectFor looks up the decorative object of (theme, trait), falling back
// to the theme's chore object when the pair has no entry.
func ObjectFor(theme Theme, trait signals.Category) string {
	byTrait, ok := objects[theme]
	if !ok {
		byTrait = objects[DefaultTheme]
	}
	if obj, ok := byTrait[trait]; ok {
		return obj
	}
	return byTrait[DefaultTrait]
}

// ThemeOfObject is the reverse lookup of ObjectFor.
func ThemeOfObject(object string) (Theme, bool) {
	t, ok := objectThemes[object]
	return t, ok
}
