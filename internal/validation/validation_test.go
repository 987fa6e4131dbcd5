package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/berai-dev/berai/internal/apperr"
)

type sample struct {
	Title string `json:"title" validate:"required,max=10"`
	Email string `json:"email" validate:"omitempty,email"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name       string
		input      sample
		wantFields map[string]string
	}{
		{
			name:  "Given valid input When validating Then returns nil",
			input: sample{Title: "ok", Email: "a@b.com"},
		},
		{
			name:       "Given missing title When validating Then reports required",
			input:      sample{},
			wantFields: map[string]string{"title": "The title field is required."},
		},
		{
			name:       "Given long title When validating Then reports max",
			input:      sample{Title: strings.Repeat("x", 11)},
			wantFields: map[string]string{"title": "The title field must not be greater than 10 characters."},
		},
		{
			name:       "Given malformed email When validating Then reports email",
			input:      sample{Title: "ok", Email: "nope"},
			wantFields: map[string]string{"email": "The email field must be a valid email address."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.input)

			if tt.wantFields == nil {
				if err != nil {
					t.Fatalf("Struct() error = %v, want nil", err)
				}
				return
			}

			var verr *apperr.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Struct() error = %v, want *apperr.ValidationError", err)
			}

			for field, want := range tt.wantFields {
				if got := verr.Fields[field]; got != want {
					t.Errorf("field %q message = %q, want %q", field, got, want)
				}
			}
		})
	}
}
