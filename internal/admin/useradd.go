// Package admin holds the interactive operator tools.
package admin

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/server/models"
)

var ErrPasswordMismatch = errors.New("passwords do not match")

// Registrar creates accounts; services.UserService satisfies it.
type Registrar interface {
	Register(ctx context.Context, email, password string) (*models.User, error)
}

// AddUser asks for an email and a password (twice, without echo) and
// creates the account.
func AddUser(ctx context.Context, users Registrar, in *bufio.Reader, w io.Writer) (*models.User, error) {
	email, err := GetSimpleText(in, "Email", w)
	if err != nil {
		return nil, err
	}

	pw, err := GetPassword(w, "Password")
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(pw)

	confirm, err := GetPassword(w, "Repeat password")
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(confirm)

	if !bytes.Equal(pw, confirm) {
		return nil, ErrPasswordMismatch
	}

	user, err := users.Register(ctx, email, string(pw))
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(w, "created user %s (%s)\n", user.Email, user.ID)
	return user, nil
}
