package sqlxrepos

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/lib/pq"
	"github.com/pkg/errors"
)

// jsonRaw shuttles a jsonb column in and out of row structs.
type jsonRaw []byte

func (j *jsonRaw) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*j = nil
		return nil
	case []byte:
		*j = append((*j)[:0], v...)
		return nil
	case string:
		*j = jsonRaw(v)
		return nil
	}
	return errors.Errorf("unsupported jsonb source %T", src)
}

func (j jsonRaw) Value() (driver.Value, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	return []byte(j), nil
}

func marshalJSON(v interface{}) jsonRaw {
	b, _ := json.Marshal(v)
	return b
}

func unmarshalJSON(raw jsonRaw, dst interface{}) {
	if len(raw) == 0 {
		return
	}
	_ = json.Unmarshal(raw, dst)
}

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation, optionally on a specific constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505" && (constraint == "" || pqErr.Constraint == constraint)
	}
	return false
}
