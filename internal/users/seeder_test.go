package users

import (
	"context"
	"testing"

	"github.com/angelmondragon/shopstack-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/shopstack-backend/pkg/errors"
)

func TestEnsureAdminValidation(t *testing.T) {
	seeder := NewSeeder(config.PasswordConfig{MinPasswordLength: 8})

	cases := []struct {
		name  string
		input SeedAdminInput
	}{
		{"missing email", SeedAdminInput{}},
		{"short password", SeedAdminInput{Email: "admin@acme.com", Password: "short"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := seeder.EnsureAdmin(context.Background(), nil, tc.input)
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}
