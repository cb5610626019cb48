package auth

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/aclgate/aclgate/pkg/cerr"
)

func HashPassword(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", cerr.NewError(cerr.Internal, "server error", err)
	}
	return string(hashed), nil
}

func VerifyPassword(hashed, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}
