package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/storefront/internal/address"
	"github.com/roach88/storefront/internal/cart"
	"github.com/roach88/storefront/internal/favorites"
)

func newValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := New()
	require.NoError(t, err)
	return v
}

func validAddress() address.Fields {
	return address.Fields{
		Name:   "Asha",
		Street: "12 MG Road",
		City:   "Pune",
		Zip:    "411001",
		Phone:  "+91 98765 43210",
		Type:   address.TypeHome,
	}
}

func TestAddress_Valid(t *testing.T) {
	v := newValidator(t)
	assert.NoError(t, v.Address(validAddress()))
}

func TestAddress_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*address.Fields)
		field  string
	}{
		{"empty name", func(f *address.Fields) { f.Name = "" }, "name"},
		{"blank street", func(f *address.Fields) { f.Street = "   " }, "street"},
		{"empty city", func(f *address.Fields) { f.City = "" }, "city"},
		{"empty zip", func(f *address.Fields) { f.Zip = "" }, "zip"},
		{"letters in phone", func(f *address.Fields) { f.Phone = "call me" }, "phone"},
		{"unknown type", func(f *address.Fields) { f.Type = "Office" }, "type"},
	}

	v := newValidator(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validAddress()
			tt.mutate(&f)

			err := v.Address(f)
			require.Error(t, err)

			var errs Errors
			require.True(t, errors.As(err, &errs))
			assert.Contains(t, errs.Fields(), tt.field)
			assert.Contains(t, err.Error(), "invalid input")
		})
	}
}

func TestCartProduct(t *testing.T) {
	v := newValidator(t)

	assert.NoError(t, v.CartProduct(cart.Product{ID: "p1", Name: "Masala Dosa", Price: 120}))
	assert.NoError(t, v.CartProduct(cart.Product{ID: "p1", Name: "Dosa", Price: 0, Size: "L"}))

	err := v.CartProduct(cart.Product{ID: "p1", Name: "Dosa", Price: -1})
	var errs Errors
	require.True(t, errors.As(err, &errs))
	assert.Contains(t, errs.Fields(), "price")

	err = v.CartProduct(cart.Product{Name: "Dosa", Price: 1})
	require.True(t, errors.As(err, &errs))
	assert.Contains(t, errs.Fields(), "id")
}

func TestFavoriteProduct(t *testing.T) {
	v := newValidator(t)
	mrp := 150.0

	assert.NoError(t, v.FavoriteProduct(favorites.Product{ID: "p1", Name: "Idli", Price: 60, MRP: &mrp}))

	neg := -5.0
	err := v.FavoriteProduct(favorites.Product{ID: "p1", Name: "Idli", Price: 60, MRP: &neg})
	var errs Errors
	require.True(t, errors.As(err, &errs))
	assert.Contains(t, errs.Fields(), "mrp")
}

func TestFieldError_Error(t *testing.T) {
	assert.Equal(t, "zip: required", FieldError{Field: "zip", Message: "required"}.Error())
	assert.Equal(t, "bad", FieldError{Message: "bad"}.Error())
}
