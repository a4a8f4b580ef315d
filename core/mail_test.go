package core

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmailMessage_Render(t *testing.T) {
	t.Run("plain body", func(t *testing.T) {
		msg := EmailMessage{BodyStr: "hello"}
		require.NoError(t, msg.Render("School Portal"))
		assert.Equal(t, "hello", msg.TextContent)
		assert.True(t, msg.HasContent())
		assert.False(t, msg.HasRecipients())
	})

	t.Run("unknown template", func(t *testing.T) {
		msg := EmailMessage{TemplateName: "lol"}
		err := msg.Render("School Portal")
		assert.Equal(t, ErrNoTemplate, errors.Cause(err))
		assert.False(t, msg.HasContent())
	})
}
