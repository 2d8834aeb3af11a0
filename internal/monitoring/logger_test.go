package monitoring

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetLogger(t *testing.T) {
	orig := Logf
	defer SetLogger(orig)

	var captured []string
	SetLogger(func(format string, v ...interface{}) {
		captured = append(captured, fmt.Sprintf(format, v...))
	})

	Logf("skipping year %d", 2019)
	assert.Equal(t, []string{"skipping year 2019"}, captured)

	SetLogger(nil)
	Logf("dropped")
	assert.Len(t, captured, 1)
}
