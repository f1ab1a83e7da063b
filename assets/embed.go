// Package assets bundles the sample timetables used when no timetable
// directory is configured.
package assets

import (
	"embed"
	"io/fs"
)

//go:embed timetables
var timetableFS embed.FS

// Timetables returns the bundled "<year>/<MM>.csv" tree.
func Timetables() fs.FS {
	sub, err := fs.Sub(timetableFS, "timetables")
	if err != nil {
		panic(err)
	}
	return sub
}
