package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/zalando/go-keyring"
)

const (
	// KeyringService groups the app's secrets in the OS keychain.
	KeyringService = "jobtracker"

	EnvLinkedInUsername = "LINKEDIN_USERNAME"
	EnvLinkedInPassword = "LINKEDIN_PASSWORD"
	EnvIMAPPassword     = "IMAP_PASSWORD"
)

var ErrMissingCredentials = errors.New("LinkedIn credentials not found (run `jobtracker creds set` or set LINKEDIN_USERNAME and LINKEDIN_PASSWORD)")

// LinkedIn is a username/password pair for the LinkedIn login.
type LinkedIn struct {
	Username string
	Password string
}

func LinkedInKeyringAccount(username string) string {
	return "linkedin:" + strings.ToLower(strings.TrimSpace(username))
}

func IMAPKeyringAccount(username, host string) string {
	return fmt.Sprintf("imap:%s@%s", strings.TrimSpace(username), strings.TrimSpace(host))
}

// LinkedInCredentials looks the password up in the keychain first and falls
// back to the environment. username may be empty, in which case it comes from
// LINKEDIN_USERNAME.
func LinkedInCredentials(username string) (LinkedIn, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		username = strings.TrimSpace(os.Getenv(EnvLinkedInUsername))
	}
	if username == "" {
		return LinkedIn{}, ErrMissingCredentials
	}

	pw, err := keyring.Get(KeyringService, LinkedInKeyringAccount(username))
	if err == nil && strings.TrimSpace(pw) != "" {
		return LinkedIn{Username: username, Password: pw}, nil
	}

	if pw := os.Getenv(EnvLinkedInPassword); strings.TrimSpace(pw) != "" {
		return LinkedIn{Username: username, Password: pw}, nil
	}
	return LinkedIn{}, ErrMissingCredentials
}

func SetLinkedInPassword(username, password string) error {
	if strings.TrimSpace(username) == "" {
		return errors.New("username is empty")
	}
	if strings.TrimSpace(password) == "" {
		return errors.New("password is empty")
	}
	return keyring.Set(KeyringService, LinkedInKeyringAccount(username), password)
}

func DeleteLinkedInPassword(username string) error {
	if strings.TrimSpace(username) == "" {
		return errors.New("username is empty")
	}
	return keyring.Delete(KeyringService, LinkedInKeyringAccount(username))
}

func GetIMAPPassword(keyringAccount string) (string, error) {
	if strings.TrimSpace(keyringAccount) != "" {
		pw, err := keyring.Get(KeyringService, keyringAccount)
		if err == nil && strings.TrimSpace(pw) != "" {
			return pw, nil
		}
	}
	if pw := os.Getenv(EnvIMAPPassword); strings.TrimSpace(pw) != "" {
		return pw, nil
	}

	return "", errors.New("IMAP password not found (set it in keychain or via env)")
}

func SetIMAPPassword(keyringAccount string, password string) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(password) == "" {
		return errors.New("password is empty")
	}
	return keyring.Set(KeyringService, keyringAccount, password)
}

func DeleteIMAPPassword(keyringAccount string) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return errors.New("keyring account name is empty")
	}
	return keyring.Delete(KeyringService, keyringAccount)
}

// SaveEnvFile writes the LinkedIn pair into a dotenv file for machines without
// a usable keychain. Other keys already in the file are kept.
func SaveEnvFile(path string, creds LinkedIn) error {
	if strings.TrimSpace(creds.Username) == "" || strings.TrimSpace(creds.Password) == "" {
		return errors.New("username and password are required")
	}

	env := map[string]string{}
	if existing, err := godotenv.Read(path); err == nil {
		env = existing
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("read %s: %w", path, err)
	}

	env[EnvLinkedInUsername] = creds.Username
	env[EnvLinkedInPassword] = creds.Password

	if err := godotenv.Write(env, path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return os.Chmod(path, 0o600)
}
