package secrets

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/joho/godotenv"
	"github.com/zalando/go-keyring"
)

func TestLinkedInCredentialsKeyringFirst(t *testing.T) {
	keyring.MockInit()
	t.Setenv(EnvLinkedInPassword, "from-env")

	if err := SetLinkedInPassword("Me@Example.com", "from-keyring"); err != nil {
		t.Fatalf("SetLinkedInPassword: %v", err)
	}

	got, err := LinkedInCredentials(" me@example.com ")
	if err != nil {
		t.Fatalf("LinkedInCredentials: %v", err)
	}
	if got.Password != "from-keyring" || got.Username != "me@example.com" {
		t.Fatalf("got %+v", got)
	}
}

func TestLinkedInCredentialsEnvFallback(t *testing.T) {
	keyring.MockInit()
	t.Setenv(EnvLinkedInUsername, "env@example.com")
	t.Setenv(EnvLinkedInPassword, "pw")

	got, err := LinkedInCredentials("")
	if err != nil {
		t.Fatalf("LinkedInCredentials: %v", err)
	}
	if got.Username != "env@example.com" || got.Password != "pw" {
		t.Fatalf("got %+v", got)
	}
}

func TestLinkedInCredentialsMissing(t *testing.T) {
	keyring.MockInit()
	t.Setenv(EnvLinkedInUsername, "")
	t.Setenv(EnvLinkedInPassword, "")

	if _, err := LinkedInCredentials(""); !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("err = %v", err)
	}
	if _, err := LinkedInCredentials("me@example.com"); !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("err = %v", err)
	}
}

func TestDeleteLinkedInPassword(t *testing.T) {
	keyring.MockInit()
	t.Setenv(EnvLinkedInPassword, "")

	if err := SetLinkedInPassword("me", "pw"); err != nil {
		t.Fatal(err)
	}
	if err := DeleteLinkedInPassword("me"); err != nil {
		t.Fatalf("DeleteLinkedInPassword: %v", err)
	}
	if _, err := LinkedInCredentials("me"); !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("err = %v", err)
	}
}

func TestIMAPPassword(t *testing.T) {
	keyring.MockInit()
	t.Setenv(EnvIMAPPassword, "")

	acct := IMAPKeyringAccount("me@example.com", "imap.gmail.com")
	if acct != "imap:me@example.com@imap.gmail.com" {
		t.Fatalf("account = %q", acct)
	}
	if _, err := GetIMAPPassword(acct); err == nil {
		t.Fatal("expected error before the password is stored")
	}
	if err := SetIMAPPassword(acct, "app-password"); err != nil {
		t.Fatal(err)
	}
	pw, err := GetIMAPPassword(acct)
	if err != nil || pw != "app-password" {
		t.Fatalf("pw=%q err=%v", pw, err)
	}
	if err := SetIMAPPassword("", "x"); err == nil {
		t.Fatal("expected error for empty account")
	}
}

func TestSaveEnvFileKeepsOtherKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := godotenv.Write(map[string]string{"OTHER": "1"}, path); err != nil {
		t.Fatal(err)
	}

	if err := SaveEnvFile(path, LinkedIn{Username: "me", Password: "pw"}); err != nil {
		t.Fatalf("SaveEnvFile: %v", err)
	}

	env, err := godotenv.Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if env["OTHER"] != "1" || env[EnvLinkedInUsername] != "me" || env[EnvLinkedInPassword] != "pw" {
		t.Fatalf("env = %v", env)
	}
}
