// Package validate checks user input against CUE schemas before it reaches
// the state containers.
package validate

import (
	"fmt"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/roach88/storefront/internal/address"
	"github.com/roach88/storefront/internal/cart"
	"github.com/roach88/storefront/internal/favorites"
)

// schemaSource holds the input schemas. Text fields must contain at least
// one non-space character.
const schemaSource = `
#Text: string & =~#"\S"#

#Address: {
	name:   #Text
	street: #Text
	city:   #Text
	zip:    #Text
	phone:  #Text & =~#"^[0-9+()\- ]+$"#
	type:   "Home" | "Work" | "Other"
}

#Product: {
	id:    #Text
	name:  #Text
	price: number & >=0
	size?: string
	mrp?:  number & >=0
}
`

// FieldError is one schema violation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e FieldError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Errors is the list of violations found in one input.
type Errors []FieldError

// Error implements the error interface.
func (es Errors) Error() string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = e.Error()
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// Fields returns the distinct names of the offending fields in order.
func (es Errors) Fields() []string {
	var out []string
	seen := map[string]bool{}
	for _, e := range es {
		if !seen[e.Field] {
			seen[e.Field] = true
			out = append(out, e.Field)
		}
	}
	return out
}

// Validator compiles the schemas once and validates values against them.
// A cue.Context is not safe for concurrent use, so calls are serialized.
type Validator struct {
	mu      sync.Mutex
	ctx     *cue.Context
	address cue.Value
	product cue.Value
}

// New compiles the built-in schemas.
func New() (*Validator, error) {
	ctx := cuecontext.New()
	root := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := root.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Validator{
		ctx:     ctx,
		address: root.LookupPath(cue.ParsePath("#Address")),
		product: root.LookupPath(cue.ParsePath("#Product")),
	}, nil
}

// Address validates user-entered address fields. Returns nil or Errors.
func (v *Validator) Address(f address.Fields) error {
	return v.check(v.address, map[string]any{
		"name":   f.Name,
		"street": f.Street,
		"city":   f.City,
		"zip":    f.Zip,
		"phone":  f.Phone,
		"type":   string(f.Type),
	})
}

// CartProduct validates a product about to be added to the cart.
func (v *Validator) CartProduct(p cart.Product) error {
	in := map[string]any{"id": p.ID, "name": p.Name, "price": p.Price}
	if p.Size != "" {
		in["size"] = p.Size
	}
	return v.check(v.product, in)
}

// FavoriteProduct validates a product about to be liked.
func (v *Validator) FavoriteProduct(p favorites.Product) error {
	in := map[string]any{"id": p.ID, "name": p.Name, "price": p.Price}
	if p.Size != "" {
		in["size"] = p.Size
	}
	if p.MRP != nil {
		in["mrp"] = *p.MRP
	}
	return v.check(v.product, in)
}

func (v *Validator) check(schema cue.Value, in map[string]any) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	val := schema.Unify(v.ctx.Encode(in))
	err := val.Validate(cue.Concrete(true))
	if err == nil {
		return nil
	}

	var out Errors
	for _, e := range cueerrors.Errors(err) {
		field := ""
		if path := e.Path(); len(path) > 0 {
			field = path[len(path)-1]
		}
		format, args := e.Msg()
		out = append(out, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
	}
	if len(out) == 0 {
		out = Errors{{Message: err.Error()}}
	}
	return out
}
