package sqlxrepos

import (
	"database/sql"
	"testing"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Junosprite007/mod-equipmentcheckout/core"
	"github.com/Junosprite007/mod-equipmentcheckout/core/vcc"
)

func TestIDList(t *testing.T) {
	v, err := idList{3, 1, 2}.Value()
	require.NoError(t, err)
	assert.Equal(t, "[3,1,2]", v)

	v, err = idList(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)

	tests := []struct {
		name    string
		src     interface{}
		want    idList
		wantErr bool
	}{
		{"null", nil, idList{}, false},
		{"empty", "", idList{}, false},
		{"text", "[4,5]", idList{4, 5}, false},
		{"bytes", []byte("[6]"), idList{6}, false},
		{"invalid JSON", "[4,", nil, true},
		{"invalid type", 42, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var l idList
			err := l.Scan(tt.src)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, l)
		})
	}
}

func TestAddress(t *testing.T) {
	addr := core.Address{StreetAddress: "1 Main St", City: "Lansing", State: "MI", ZipCode: "48933"}
	v, err := address(addr).Value()
	require.NoError(t, err)

	var scanned address
	require.NoError(t, scanned.Scan([]byte(v.(string))))
	assert.Equal(t, addr, core.Address(scanned))

	require.NoError(t, scanned.Scan(nil))
	assert.Equal(t, core.Address{}, core.Address(scanned))

	assert.Error(t, scanned.Scan(3.14))
}

func TestPQCode(t *testing.T) {
	err := errors.Wrap(&pq.Error{Code: pqUniqueViolation, Constraint: usernameConstraint}, "inserting user")
	code, constraint := pqCode(err)
	assert.Equal(t, pqUniqueViolation, code)
	assert.Equal(t, usernameConstraint, constraint)

	code, constraint = pqCode(errors.New("boom"))
	assert.Empty(t, code)
	assert.Empty(t, constraint)
}

func TestTrapNoRowsErr(t *testing.T) {
	notFound := errors.New("not found")
	assert.Equal(t, notFound, trapNoRowsErr(sql.ErrNoRows, notFound, "getting thing"))

	err := trapNoRowsErr(errors.New("boom"), notFound, "getting thing")
	assert.EqualError(t, err, "getting thing: boom")
}

func TestUserRepositoryTrapUniqueErr(t *testing.T) {
	repo := userRepository{}
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"username", &pq.Error{Code: pqUniqueViolation, Constraint: usernameConstraint}, "a user with this username already exists"},
		{"email", &pq.Error{Code: pqUniqueViolation, Constraint: emailConstraint}, "a user with this email already exists"},
		{"other constraint", &pq.Error{Code: pqUniqueViolation, Constraint: "other"}, "inserting user: pq: "},
		{"other error", errors.New("boom"), "inserting user: boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.EqualError(t, repo.trapUniqueErr(tt.err, "inserting user"), tt.want)
		})
	}
}

func TestOrderBy(t *testing.T) {
	clauses, err := orderBy([]core.DBOrdering{
		{Field: vcc.ColParentLastName, Ascending: true},
		{Field: vcc.ColTimeCreated},
		{Field: vcc.ColID},
	}, vccOrderColumns)
	require.NoError(t, err)
	assert.Equal(t, []string{"LOWER(COALESCE(u.lastname, '')) ASC", "v.timecreated DESC", "v.id DESC"}, clauses)

	_, err = orderBy([]core.DBOrdering{{Field: "password"}}, vccOrderColumns)
	assert.Error(t, err)

	for _, col := range vcc.SortableColumns {
		_, ok := vccOrderColumns[col]
		assert.True(t, ok, col)
	}
}
