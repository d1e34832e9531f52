package family

import (
	"bytes"
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrNotAnArray is returned when the import payload is not a JSON array.
var ErrNotAnArray = errors.New("import payload must be a JSON array of families")

type (
	// NameData is the name of an individual of a family.
	NameData struct {
		FirstName  string `json:"firstName"`
		MiddleName string `json:"middleName"`
		LastName   string `json:"lastName"`
	}

	// PersonData is a parent or a student as read from the import payload.
	PersonData struct {
		Name    NameData `json:"name"`
		Email   string   `json:"email"`
		Phone   string   `json:"phone"`
		Courses []int64  `json:"courses"`
	}

	// FamilyData is one family of the import payload.
	FamilyData struct {
		Parents     []PersonData `json:"parents"`
		Students    []PersonData `json:"students"`
		Partnership int64        `json:"partnership"`
	}
)

// field decodes either a raw value or the same value wrapped as {"data": value}.
type field[T any] struct {
	V T
}

func (f *field[T]) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var w map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &w); err != nil {
			return err
		}
		if data, ok := w["data"]; ok && len(w) == 1 {
			trimmed = data
		}
	}
	return json.Unmarshal(trimmed, &f.V)
}

// flexID accepts numbers, numeric strings, empty strings and null.
type flexID int64

func (id *flexID) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(b)), `"`)
	s = strings.TrimSpace(s)
	if s == "" || s == "null" {
		*id = 0
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return errors.Errorf("invalid id %s", string(b))
		}
		v = int64(f)
	}
	*id = flexID(v)
	return nil
}

type (
	rawPerson struct {
		Name    *field[NameData] `json:"name"`
		Student *field[NameData] `json:"student"`
		Email   field[string]    `json:"email"`
		Phone   field[string]    `json:"phone"`
		Courses field[[]flexID]  `json:"courses"`
	}

	rawFamily struct {
		Parents     field[[]rawPerson] `json:"parents"`
		Students    field[[]rawPerson] `json:"students"`
		Partnership field[flexID]      `json:"partnership"`
	}
)

func (rp rawPerson) person() PersonData {
	p := PersonData{
		Email:   rp.Email.V,
		Phone:   rp.Phone.V,
		Courses: make([]int64, 0, len(rp.Courses.V)),
	}
	switch {
	case rp.Student != nil:
		p.Name = rp.Student.V
	case rp.Name != nil:
		p.Name = rp.Name.V
	}
	for _, id := range rp.Courses.V {
		if id != 0 {
			p.Courses = append(p.Courses, int64(id))
		}
	}
	return p
}

func (rf rawFamily) family() FamilyData {
	fd := FamilyData{
		Parents:     make([]PersonData, 0, len(rf.Parents.V)),
		Students:    make([]PersonData, 0, len(rf.Students.V)),
		Partnership: int64(rf.Partnership.V),
	}
	for _, rp := range rf.Parents.V {
		fd.Parents = append(fd.Parents, rp.person())
	}
	for _, rp := range rf.Students.V {
		fd.Students = append(fd.Students, rp.person())
	}
	return fd
}

// Decode reads a JSON array of families from `r`, one family at a time.
func Decode(r io.Reader) ([]FamilyData, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return nil, ErrNotAnArray
		}
		return nil, errors.Wrap(err, "reading payload")
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return nil, ErrNotAnArray
	}

	families := make([]FamilyData, 0)
	for dec.More() {
		var rf rawFamily
		if err := dec.Decode(&rf); err != nil {
			return nil, errors.Wrapf(err, "decoding family #%d", len(families)+1)
		}
		families = append(families, rf.family())
	}
	if _, err := dec.Token(); err != nil {
		return nil, errors.Wrap(err, "reading end of payload")
	}
	return families, nil
}
