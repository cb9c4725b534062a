// Package catalog holds the fixed icon catalog that boards are drawn from and
// the naming convention that maps an icon identifier to its asset path.
package catalog

import "path"

// AssetPrefix is the URL prefix under which icon images are published.
const AssetPrefix = "/assets"

// icons is the process-wide catalog. It is never mutated; callers get copies.
var icons = []string{
	"anchor", "apple", "bell", "bicycle", "bolt", "book",
	"camera", "carrot", "cat", "cherry", "cloud", "coffee",
	"compass", "crown", "diamond", "dog", "feather", "fish",
	"flag", "flower", "gift", "globe", "guitar", "heart",
	"key", "leaf", "lemon", "lighthouse", "moon", "mushroom",
	"owl", "palette", "pizza", "rocket", "snowflake", "star",
	"sun", "tree", "umbrella", "whale",
}

// Icon describes a catalog entry together with its resolved asset path.
type Icon struct {
	ID    string `json:"id"`
	Asset string `json:"asset"`
}

// Icons returns a copy of the catalog in its canonical order.
func Icons() []string {
	out := make([]string, len(icons))
	copy(out, icons)
	return out
}

// Size reports how many distinct icons the catalog holds.
func Size() int { return len(icons) }

// Contains reports whether id is a catalog identifier.
func Contains(id string) bool {
	for _, icon := range icons {
		if icon == id {
			return true
		}
	}
	return false
}

// AssetPath resolves an icon identifier to its image path, e.g. "cat" -> "/assets/cat.svg".
func AssetPath(id string) string {
	return path.Join(AssetPrefix, id+".svg")
}

// List returns every catalog entry with its asset path.
func List() []Icon {
	out := make([]Icon, 0, len(icons))
	for _, id := range icons {
		out = append(out, Icon{ID: id, Asset: AssetPath(id)})
	}
	return out
}
