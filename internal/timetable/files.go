package timetable

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/ykvlv/prayer-bot/internal/domain"
)

// FileSource reads per-month CSV files laid out as "<year>/<MM>.csv".
type FileSource struct {
	fsys fs.FS
}

// NewFileSource reads timetables from fsys (os.DirFS or an embed.FS).
func NewFileSource(fsys fs.FS) *FileSource {
	return &FileSource{fsys: fsys}
}

func (s *FileSource) FetchMonth(ctx context.Context, year int, month time.Month) (*domain.MonthTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := fmt.Sprintf("%04d/%02d.csv", year, int(month))
	f, err := s.fsys.Open(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s not found", domain.ErrDataUnavailable, name)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", domain.ErrDataUnavailable, name, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", domain.ErrDataUnavailable, name, err)
	}
	return buildMonth(year, month, rows)
}
