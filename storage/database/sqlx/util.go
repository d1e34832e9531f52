package sqlxrepos

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/Junosprite007/mod-equipmentcheckout/core"
)

// psql builds Postgres statements with $n placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// pqCode returns the Postgres error code and constraint of `err`; both are empty for other errors.
func pqCode(err error) (string, string) {
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok {
		return string(pqErr.Code), pqErr.Constraint
	}
	return "", ""
}

// trapNoRowsErr maps "no rows" to `notFound` and wraps any other error with `msg`.
func trapNoRowsErr(err error, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// idList is a []int64 stored as a JSON-encoded text column.
type idList []int64

func (l idList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]int64(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *idList) Scan(src interface{}) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		*l = idList{}
		return nil
	case string:
		b = []byte(v)
	case []byte:
		b = v
	default:
		return errors.Errorf("cannot scan %T into an ID list", src)
	}
	ids := make([]int64, 0)
	if len(b) > 0 {
		if err := json.Unmarshal(b, &ids); err != nil {
			return errors.Wrap(err, "decoding ID list")
		}
	}
	*l = ids
	return nil
}

// address is a core.Address stored as a JSONB column.
type address core.Address

func (a address) Value() (driver.Value, error) {
	b, err := json.Marshal(core.Address(a))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (a *address) Scan(src interface{}) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		*a = address{}
		return nil
	case string:
		b = []byte(v)
	case []byte:
		b = v
	default:
		return errors.Errorf("cannot scan %T into an address", src)
	}
	var addr core.Address
	if len(b) > 0 {
		if err := json.Unmarshal(b, &addr); err != nil {
			return errors.Wrap(err, "decoding address")
		}
	}
	*a = address(addr)
	return nil
}

func orderBy(orderings []core.DBOrdering, columns map[string]string) ([]string, error) {
	clauses := make([]string, 0, len(orderings))
	for _, ord := range orderings {
		col, ok := columns[ord.Field]
		if !ok {
			return nil, errors.Errorf("cannot order by %q", ord.Field)
		}
		clauses = append(clauses, core.DBOrdering{Field: col, Ascending: ord.Ascending}.String())
	}
	return clauses, nil
}
