package login

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCredentials(t *testing.T) {
	cases := []struct {
		name string
		form Form
		want FieldErrors
	}{
		{
			name: "missing both",
			form: Form{},
			want: FieldErrors{"email": MsgEmailRequired, "password": MsgPasswordRequired},
		},
		{
			name: "missing password",
			form: Form{Email: "jane@example.com"},
			want: FieldErrors{"password": MsgPasswordRequired},
		},
		{
			name: "blank email",
			form: Form{Email: "   ", Password: "secret"},
			want: FieldErrors{"email": MsgEmailRequired},
		},
		{
			name: "email without at sign",
			form: Form{Email: "jane.example.com", Password: "secret"},
			want: FieldErrors{"email": MsgEmailInvalid},
		},
		{
			name: "email without domain",
			form: Form{Email: "jane@", Password: "secret"},
			want: FieldErrors{"email": MsgEmailInvalid},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, errs := ParseCredentials(tc.form)
			assert.Equal(t, tc.want, errs)
			assert.Equal(t, Credentials{}, c)
		})
	}
}

func TestParseCredentialsValid(t *testing.T) {
	c, errs := ParseCredentials(Form{Email: " jane@example.com ", Password: " secret "})
	require.Nil(t, errs)
	assert.Equal(t, Credentials{Email: "jane@example.com", Password: " secret "}, c)
}

func TestFieldErrorsMessage(t *testing.T) {
	errs := FieldErrors{"password": MsgPasswordRequired, "email": MsgEmailInvalid}
	assert.Equal(t, "invalid login form: email: Email is invalid, password: Please input your password!", errs.Error())
}
