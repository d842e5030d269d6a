package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arthur-debert/dots/pkg/types"
)

func TestEnv_With_DoesNotMutateReceiver(t *testing.T) {
	base := types.EnvFrom(map[string]string{"app": "*"})

	left := base.With("app", "vim")
	right := base.With("app", "tmux")

	v, ok := base.Get("app")
	assert.True(t, ok)
	assert.Equal(t, "*", v)

	v, _ = left.Get("app")
	assert.Equal(t, "vim", v)

	v, _ = right.Get("app")
	assert.Equal(t, "tmux", v)
}

func TestEnv_Get_Missing(t *testing.T) {
	env := types.NewEnv()
	_, ok := env.Get("nope")
	assert.False(t, ok)
	assert.Equal(t, 0, env.Len())
}

func TestEnv_EnvFrom_CopiesInput(t *testing.T) {
	src := map[string]string{"a": "1"}
	env := types.EnvFrom(src)
	src["a"] = "mutated"

	v, _ := env.Get("a")
	assert.Equal(t, "1", v)
}

func TestEnv_Names_Sorted(t *testing.T) {
	env := types.EnvFrom(map[string]string{"b": "2", "a": "1", "c": "3"})
	assert.Equal(t, []string{"a", "b", "c"}, env.Names())
}

func TestEnv_Map_Copies(t *testing.T) {
	env := types.EnvFrom(map[string]string{"a": "1"})
	m := env.Map()
	m["a"] = "mutated"

	v, _ := env.Get("a")
	assert.Equal(t, "1", v)
}
