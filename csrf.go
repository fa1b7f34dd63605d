package adminform

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

var errExpired = errors.New("token expired")
var errInvalid = errors.New("token invalid")

// Token of one form, kept in session
func NewCSRF(session *sessions.Session, form string, timeout time.Duration) *CSRF {
	return &CSRF{
		session: session,
		key:     "csrf." + form,
		timeout: timeout,
		fnow:    time.Now,
	}
}

type CSRF struct {
	session *sessions.Session
	key     string
	timeout time.Duration
	fnow    func() time.Time // for unit test
}

// Reuse the token in session until it expired
func (C *CSRF) GenerateToken() string {
	if token, ok := C.session.Values[C.key].(string); ok && C.Validate(token) == nil {
		return token
	}

	token := strconv.FormatInt(C.fnow().Unix(), 10) + "#" + uuid.NewString()
	C.session.Values[C.key] = token
	return token
}

func (C *CSRF) Validate(token string) error {
	stamp, _, ok := strings.Cut(token, "#")
	if !ok {
		return errInvalid
	}
	if sv, _ := C.session.Values[C.key].(string); sv == "" || sv != token {
		return errInvalid
	}

	sec, err := strconv.ParseInt(stamp, 10, 64)
	if err != nil {
		return errInvalid
	}

	d := C.fnow().Sub(time.Unix(sec, 0))
	if d < 0 || d > C.timeout {
		return errExpired
	}
	return nil
}
