package manager

import (
	"strings"

	"github.com/Othernet-Project/fsal/pkg/fs"
)

// entryRow mirrors a single fsentries row.
type entryRow struct {
	id         int64
	parentID   int64
	entryType  int
	name       string
	size       int64
	createTime float64
	modifyTime float64
	path       string
	basePath   string
}

// entryColumns is the column list used when materialising entryRow values.
const entryColumns = "id, parent_id, type, name, size, create_time, modify_time, path, base_path"

// scanner abstracts sql.Row and sql.Rows for row materialisation.
type scanner interface {
	Scan(destinations ...interface{}) error
}

// scanEntry materialises an entryRow from a row scanner.
func scanEntry(source scanner) (*entryRow, error) {
	row := &entryRow{}
	err := source.Scan(
		&row.id, &row.parentID, &row.entryType, &row.name, &row.size,
		&row.createTime, &row.modifyTime, &row.path, &row.basePath,
	)
	if err != nil {
		return nil, err
	}
	return row, nil
}

// object reconstructs the FSObject persisted in the row.
func (r *entryRow) object() *fs.Object {
	if r.entryType == fs.TypeDirectory {
		return fs.NewDirectory(
			r.basePath, r.path,
			fs.FromTimestamp(r.createTime), fs.FromTimestamp(r.modifyTime),
		)
	}
	return fs.NewFile(
		r.basePath, r.path, r.size,
		fs.FromTimestamp(r.createTime), fs.FromTimestamp(r.modifyTime),
	)
}

// escapeLike escapes SQL LIKE wildcards (and the escape character itself)
// with a backslash.
func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}
