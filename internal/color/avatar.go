// Package color assigns avatar colors to users without one.
package color

import "hash/fnv"

// palette holds the avatar fallback colors. Hand-picked for contrast
// against both light and dark backgrounds; order matters only for
// stability, never reorder entries.
var palette = []string{
	"#E57373", // red
	"#F06292", // pink
	"#BA68C8", // purple
	"#9575CD", // deep purple
	"#64B5F6", // blue
	"#4FC3F7", // light blue
	"#4DB6AC", // teal
	"#81C784", // green
	"#AED581", // light green
	"#FFB74D", // orange
	"#A1887F", // brown
	"#90A4AE", // blue grey
}

// ForUser returns a deterministic hex color for a user id. The same id
// always maps to the same palette entry, so a user keeps their color
// across devices without storing it.
func ForUser(userID string) string {
	h := fnv.New32a()
	h.Write([]byte(userID))
	return palette[h.Sum32()%uint32(len(palette))]
}
