package arena

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/codeduel/internal/model"
)

func TestCountdownRunsToZero(t *testing.T) {
	c := StartCountdown(3, time.Millisecond)
	var seen []int
	for left := range c.Ticks() {
		seen = append(seen, left)
	}
	require.NotEmpty(t, seen)
	assert.Equal(t, 0, seen[len(seen)-1])
	for _, left := range seen {
		assert.GreaterOrEqual(t, left, 0)
	}
	c.Stop()
	assert.True(t, c.Expired())
	assert.True(t, c.Stopped())
}

func TestCountdownStop(t *testing.T) {
	c := StartCountdown(1800, time.Hour)
	assert.False(t, c.Stopped())
	c.Stop()
	c.Stop()
	assert.True(t, c.Stopped())
	assert.Equal(t, 1800, c.Remaining())
	_, open := <-c.Ticks()
	assert.False(t, open)
}

func TestCountdownZeroStartsStopped(t *testing.T) {
	c := StartCountdown(-5, time.Millisecond)
	c.Stop()
	assert.Equal(t, 0, c.Remaining())
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "30:00", FormatClock(1800))
	assert.Equal(t, "2:05", FormatClock(125))
	assert.Equal(t, "0:00", FormatClock(-3))
}

func TestWrapDriver(t *testing.T) {
	assert.Equal(t, "a\nmain()", WrapDriver("{{USER_CODE}}\nmain()", "a"))
	assert.Equal(t, "a\n\nmain()", WrapDriver("main()", "a"))

	p := model.Problem{DriverCode: map[string]string{"cpp": "int main(){}", "Java": "  "}}
	tpl, ok := DriverTemplate(p, "C++")
	require.True(t, ok)
	assert.Equal(t, "int main(){}", tpl)
	_, ok = DriverTemplate(p, "Java")
	assert.False(t, ok)
	_, ok = DriverTemplate(p, "Python")
	assert.False(t, ok)
}
