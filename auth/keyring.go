// Package auth provides a high-level API for persisting and retrieving stream host credentials from the system keyring.
package auth

import (
	"fmt"
	"strings"

	"github.com/airfeed/airfeed/constant"
	"github.com/zalando/go-keyring"
)

// Credentials hold the HTTP basic auth pair used for protected playlist and media hosts.
type Credentials struct {
	User     string
	Password string
}

// SetCredentials persists the credentials for a host to the system keyring.
func SetCredentials(host string, c Credentials) error {
	return keyring.Set(constant.Airfeed, host, c.User+"\n"+c.Password)
}

// GetCredentials retrieves the credentials for a host from the system keyring.
func GetCredentials(host string) (Credentials, error) {
	raw, err := keyring.Get(constant.Airfeed, host)
	if err != nil {
		return Credentials{}, err
	}

	user, password, found := strings.Cut(raw, "\n")
	if !found {
		return Credentials{}, fmt.Errorf("malformed keyring entry for host %q", host)
	}

	return Credentials{User: user, Password: password}, nil
}

// DeleteCredentials removes the credentials for a host from the system keyring.
func DeleteCredentials(host string) error {
	return keyring.Delete(constant.Airfeed, host)
}
