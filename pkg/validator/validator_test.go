package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Tenant string  `json:"tenant" validate:"required,subdomain"`
	Email  string  `json:"email" validate:"required,email"`
	Price  float64 `json:"price" validate:"gte=0"`
}

func TestStruct(t *testing.T) {
	v := New()

	assert.NoError(t, v.Struct(signup{Tenant: "acme-1", Email: "a@b.co"}))

	err := v.Struct(signup{Tenant: "Acme_Store", Email: "nope", Price: -1})
	var fieldErrs Errors
	require.True(t, errors.As(err, &fieldErrs))
	require.Len(t, fieldErrs, 3)
	assert.Equal(t, "tenant", fieldErrs[0].Field)
	assert.Equal(t, "subdomain", fieldErrs[0].Code)
	assert.Equal(t, "email", fieldErrs[1].Code)
	assert.Equal(t, "gte", fieldErrs[2].Code)
}

func TestMap(t *testing.T) {
	v := New()
	rules := map[string]string{
		"name":  "required",
		"email": "omitempty,email",
		"price": "required,numeric",
	}

	assert.Empty(t, v.Map(map[string]any{"name": "Tea", "price": "1.5"}, rules))

	errs := v.Map(map[string]any{"email": "bad", "price": "abc"}, rules)
	require.Len(t, errs, 3)
	assert.Equal(t, []string{"email", "name", "price"}, []string{errs[0].Field, errs[1].Field, errs[2].Field})
	assert.Equal(t, "required", errs[1].Code)
	assert.Equal(t, "numeric", errs[2].Code)
}
