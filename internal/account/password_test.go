package account_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/avdheuvel/homebid/internal/account"
)

func Test_Password_ParseHashMatch(t *testing.T) {
	t.Run("ok, password matches own hash", func(t *testing.T) {
		pwd, err := account.ParsePassword("reallyStrongPassword1")
		if err != nil {
			t.Fatalf("failed to parse password: %v", err)
		}

		hash, err := pwd.Hash()
		if err != nil {
			t.Fatalf("failed to hash password: %v", err)
		}

		// We can't compare the resulting hash to a known value, because of
		// the random salt, so we check if the password matches its own hash.
		if !pwd.Match(hash) {
			t.Errorf("password does not match own hash\n%+v", hash)
		}
	})

	t.Run("ok, other password does not match hash", func(t *testing.T) {
		pwd, err := account.ParsePassword("reallyStrongPassword1")
		if err != nil {
			t.Fatalf("failed to parse password: %v", err)
		}

		hash, err := pwd.Hash()
		if err != nil {
			t.Fatalf("failed to hash password: %v", err)
		}

		other, err := account.ParsePassword("reallyStrongPassword2")
		if err != nil {
			t.Fatalf("failed to parse password: %v", err)
		}

		if other.Match(hash) {
			t.Errorf("password should not match hash\n%+v", hash)
		}
	})

	failTests := map[string]string{
		"fail, empty":     "",
		"fail, too short": "1234567",
		"fail, too long":  strings.Repeat("a", 513),
	}

	for name, raw := range failTests {
		t.Run(name, func(t *testing.T) {
			_, err := account.ParsePassword(raw)
			if !errors.Is(err, account.ErrInvalidPassword) {
				t.Fatalf("expected %v got %v (via errors.Is)", account.ErrInvalidPassword, err)
			}
		})
	}
}

func Test_Password_DoesNotLeak(t *testing.T) {
	pwd, err := account.ParsePassword("reallyStrongPassword1")
	if err != nil {
		t.Fatalf("failed to parse password: %v", err)
	}

	t.Run("fmt verbs", func(t *testing.T) {
		for _, verb := range []string{"%s", "%v", "%+v", "%#v", "%q"} {
			got := fmt.Sprintf(verb, pwd)
			if strings.Contains(got, "reallyStrongPassword1") {
				t.Errorf("verb %s leaks the password: %s", verb, got)
			}
		}
	})

	t.Run("marshal text", func(t *testing.T) {
		got, err := pwd.MarshalText()
		if err != nil {
			t.Fatalf("failed to marshal password: %v", err)
		}

		if string(got) != account.SecretMarker {
			t.Errorf("got %q, want %q", got, account.SecretMarker)
		}
	})
}
