package i

import (
	dmn "github.com/beka-birhanu/reeborg-api/identity"
)

type Authenticator interface {
	Register(string, string) error
	SignIn(string, string) (*dmn.User, string, error)
}
