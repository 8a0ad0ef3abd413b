package validators

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Name    string   `json:"name" validate:"notblank"`
	Email   string   `json:"email" validate:"required,email"`
	Options []string `json:"options" validate:"len=2,dive,notblank"`
}

func TestStruct(t *testing.T) {
	errs := Struct(sample{Name: "  ", Email: "nope", Options: []string{"a", ""}})
	assert.Equal(t, "name cannot be blank", errs["name"])
	assert.Contains(t, errs, "email")
	assert.Contains(t, errs, "options[1]")

	assert.Empty(t, Struct(sample{Name: "A", Email: "a@b.co", Options: []string{"a", "b"}}))
}
