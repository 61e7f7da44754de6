package common

import (
	"errors"
	"regexp"
	"strings"
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_ ]+$`)

func ValidateUsername(username string) error {
	username = strings.TrimSpace(username)
	if len(username) < 2 || len(username) > 50 {
		return errors.New("username must be between 2 and 50 characters")
	}

	if !usernameRegex.MatchString(username) {
		return errors.New("username can only contain letters, numbers, spaces and underscores")
	}

	return nil
}

func ValidatePassword(password string) error {
	if len(password) < 6 {
		return errors.New("password must be at least 6 characters long")
	}

	if len(password) > 100 {
		return errors.New("password is too long")
	}

	return nil
}

func ValidateChannelName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("channel name cannot be empty")
	}
	if len(name) > 100 {
		return errors.New("channel name is too long")
	}
	return nil
}
