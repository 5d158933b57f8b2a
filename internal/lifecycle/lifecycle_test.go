package lifecycle

import (
	"testing"

	appErrors "precast-tracker/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type light string

var lights = Table[light]{
	"red":    {"green"},
	"green":  {"yellow", "red"},
	"yellow": {"red"},
	"off":    {},
}

func TestTable(t *testing.T) {
	assert.True(t, lights.Known("red"))
	assert.False(t, lights.Known("blue"))

	assert.True(t, lights.Allowed("green", "yellow"))
	assert.False(t, lights.Allowed("red", "yellow"))

	assert.True(t, lights.Terminal("off"))
	assert.False(t, lights.Terminal("red"))
	assert.False(t, lights.Terminal("blue"), "unknown statuses are not terminal")

	next := lights.Next("green")
	next[0] = "off"
	assert.Equal(t, []light{"yellow", "red"}, lights["green"], "Next returns a copy")
}

func TestValidate(t *testing.T) {
	assert.NoError(t, lights.Validate("red", "green"))

	err := lights.Validate("red", "yellow")
	var appErr *appErrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.KindInvalidTransition, appErr.Kind())
	assert.Equal(t, "red", appErr.Details["from"])
	assert.Equal(t, "yellow", appErr.Details["to"])
	assert.Equal(t, []string{"green"}, appErr.Details["allowed"])

	assert.Equal(t, appErrors.KindInvalidTransition, appErrors.KindOf(lights.Validate("blue", "red")))
	assert.Equal(t, appErrors.KindInvalidTransition, appErrors.KindOf(lights.Validate("red", "blue")))
	assert.Equal(t, appErrors.KindInvalidTransition, appErrors.KindOf(lights.Validate("off", "red")))
}
