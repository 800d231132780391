package patch

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xjohnsondev/primal-backend/internal/apperror"
)

var testTable = Table{
	{Field: "first_name", Column: "first_name"},
	{Field: "email", Column: "email"},
	{Field: "password", Column: "password_hash"},
	{Field: "is_admin", Column: "is_admin", Kind: Bool, Access: Privileged},
}

// =========================================================================
// FromJSON
// =========================================================================

func TestFromJSON_KeepsDocumentOrder(t *testing.T) {
	p, err := FromJSON([]byte(`{"email":"a@b.c","first_name":"Al","is_admin":true}`))
	require.NoError(t, err)

	assert.Equal(t, Patch{
		{Name: "email", Value: "a@b.c"},
		{Name: "first_name", Value: "Al"},
		{Name: "is_admin", Value: true},
	}, p)
}

func TestFromJSON_Rejects(t *testing.T) {
	for _, body := range []string{``, `not json`, `[1,2]`, `"str"`} {
		_, err := FromJSON([]byte(body))
		assert.ErrorIs(t, err, apperror.ErrValidation, "body %q", body)
	}
}

func TestFromJSON_EmptyObject(t *testing.T) {
	p, err := FromJSON([]byte(`{}`))
	require.NoError(t, err)
	assert.Empty(t, p)
}

// =========================================================================
// Map
// =========================================================================

func TestMap_EmptyPatchIsBadRequest(t *testing.T) {
	_, err := testTable.Map(nil)
	assert.True(t, errors.Is(err, apperror.ErrValidation))

	_, err = testTable.Map(Patch{})
	assert.True(t, errors.Is(err, apperror.ErrValidation))
}

func TestMap_SingleField(t *testing.T) {
	a, err := testTable.Map(Patch{{Name: "email", Value: "x@y.com"}})
	require.NoError(t, err)

	assert.Equal(t, "email = ?", a.SetClause())
	assert.Equal(t, []any{"x@y.com"}, a.Args())
}

func TestMap_KeepsInputOrderAndTranslatesColumns(t *testing.T) {
	a, err := testTable.Map(Patch{
		{Name: "password", Value: "$2a$hash"},
		{Name: "first_name", Value: "Al"},
		{Name: "email", Value: "x@y.com"},
	})
	require.NoError(t, err)

	assert.Equal(t, "password_hash = ?, first_name = ?, email = ?", a.SetClause())
	assert.Equal(t, []any{"$2a$hash", "Al", "x@y.com"}, a.Args())
	assert.Equal(t, []string{"password_hash", "first_name", "email"}, a.Columns())
}

func TestMap_DropsUnknownFields(t *testing.T) {
	a, err := testTable.Map(Patch{
		{Name: "username", Value: "mallory"},
		{Name: "email", Value: "x@y.com"},
		{Name: "id; DROP TABLE users", Value: 1},
	})
	require.NoError(t, err)

	assert.Equal(t, "email = ?", a.SetClause())
}

func TestMap_OnlyUnknownFieldsGivesEmptyResult(t *testing.T) {
	a, err := testTable.Map(Patch{{Name: "username", Value: "mallory"}})
	require.NoError(t, err)
	assert.Empty(t, a)
}

func TestMap_DuplicateKeepsFirstPositionLastValue(t *testing.T) {
	a, err := testTable.Map(Patch{
		{Name: "email", Value: "first@y.com"},
		{Name: "first_name", Value: "Al"},
		{Name: "email", Value: "last@y.com"},
	})
	require.NoError(t, err)

	assert.Equal(t, "email = ?, first_name = ?", a.SetClause())
	assert.Equal(t, []any{"last@y.com", "Al"}, a.Args())
}

// =========================================================================
// Validate / Privileged / helpers
// =========================================================================

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		patch     Patch
		wantField string
	}{
		{"strings ok", Patch{{Name: "email", Value: "x@y.com"}}, ""},
		{"bool ok", Patch{{Name: "is_admin", Value: false}}, ""},
		{"unknown ignored", Patch{{Name: "nope", Value: 42.0}}, ""},
		{"number for string", Patch{{Name: "email", Value: 42.0}}, "email"},
		{"string for bool", Patch{{Name: "is_admin", Value: "true"}}, "is_admin"},
		{"null for string", Patch{{Name: "first_name", Value: nil}}, "first_name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := testTable.Validate(tt.patch)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var appErr *apperror.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.wantField, appErr.Field)
		})
	}
}

func TestPrivileged(t *testing.T) {
	assert.False(t, testTable.Privileged(Patch{{Name: "email", Value: "x"}}))
	assert.True(t, testTable.Privileged(Patch{{Name: "email", Value: "x"}, {Name: "is_admin", Value: true}}))
	assert.False(t, testTable.Privileged(Patch{{Name: "isAdmin", Value: true}}))
}

func TestGetAndWith(t *testing.T) {
	p := Patch{{Name: "password", Value: "one"}, {Name: "email", Value: "e"}, {Name: "password", Value: "two"}}

	v, ok := p.Get("password")
	require.True(t, ok)
	assert.Equal(t, "two", v)

	_, ok = p.Get("missing")
	assert.False(t, ok)

	q := p.With("password", "hashed")
	assert.Equal(t, "hashed", q[0].Value)
	assert.Equal(t, "hashed", q[2].Value)
	assert.Equal(t, "one", p[0].Value, "With must not modify the receiver")
}
