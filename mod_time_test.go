package rainglare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeModule_ElapsedNeverDecreases(t *testing.T) {
	app := NewApp().UseModules(TimeModule{})
	cmd := app.Commands()

	clock := GetResource[Time](cmd)
	require.NotNil(t, clock)

	prev := clock.Elapsed
	for i := 0; i < 5; i++ {
		app.Step()
		assert.GreaterOrEqual(t, clock.Elapsed, prev)
		assert.GreaterOrEqual(t, clock.Dt, float32(0))
		prev = clock.Elapsed
	}
}
