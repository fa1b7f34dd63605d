package adminform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	is := assert.New(t)

	is.Equal("Save", gettext("Save"))
	is.Equal(`File "foo" already exists.`, gettext(`File "%s" already exists.`, "foo"))
}
