package corpus

import (
	"strings"
)

// Query filters indexed scores. Zero-valued fields are ignored.
type Query struct {
	Composer string // substring, case-insensitive
	Title    string // substring, case-insensitive
	KeySig   string // exact, e.g. "D major"
	Format   string // musicxml or mxl
	MinParts int
	MaxParts int

	// Scores whose ambitus fits inside [AmbitusLow, AmbitusHigh].
	AmbitusLow  int
	AmbitusHigh int

	Limit int
}

const defaultSearchLimit = 50

// Search returns indexed scores matching the query, ordered by
// composer, title, then path. Rows in error state never match.
func (idx *Index) Search(q Query) ([]*Metadata, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var where []string
	var args []interface{}

	where = append(where, "status = 'ok'")
	if q.Composer != "" {
		where = append(where, "LOWER(composer) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.Composer)+"%")
	}
	if q.Title != "" {
		where = append(where, "LOWER(title) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.Title)+"%")
	}
	if q.KeySig != "" {
		where = append(where, "key_sig = ?")
		args = append(args, q.KeySig)
	}
	if q.Format != "" {
		where = append(where, "format = ?")
		args = append(args, q.Format)
	}
	if q.MinParts > 0 {
		where = append(where, "parts >= ?")
		args = append(args, q.MinParts)
	}
	if q.MaxParts > 0 {
		where = append(where, "parts <= ?")
		args = append(args, q.MaxParts)
	}
	if q.AmbitusLow > 0 {
		where = append(where, "ambitus_low >= ? AND ambitus_low > 0")
		args = append(args, q.AmbitusLow)
	}
	if q.AmbitusHigh > 0 {
		where = append(where, "ambitus_high <= ?")
		args = append(args, q.AmbitusHigh)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	query := `
		SELECT path, format, size, modtime, hash, title, composer, parts,
			measures, notes, key_sig, time_sig, ambitus_low, ambitus_high,
			duration_quarters
		FROM scores
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY composer, title, path
		LIMIT ?`
	args = append(args, limit)

	rows, err := idx.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*Metadata
	for rows.Next() {
		md, err := scanMetadata(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, md)
	}
	return results, rows.Err()
}
