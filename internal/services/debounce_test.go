package services_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventdesk/internal/models"
	"eventdesk/internal/services"
)

func TestDebouncer_RunsOnlyLastCall(t *testing.T) {
	d := services.NewDebouncer(15 * time.Millisecond)
	var last atomic.Int32
	var runs atomic.Int32

	for i := int32(1); i <= 5; i++ {
		n := i
		d.Debounce(func() {
			runs.Add(1)
			last.Store(n)
		})
	}

	require.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, int32(1), runs.Load())
	assert.Equal(t, int32(5), last.Load())
}

func TestDebouncer_Cancel(t *testing.T) {
	d := services.NewDebouncer(15 * time.Millisecond)
	assert.False(t, d.Cancel(), "nothing pending")

	var runs atomic.Int32
	d.Debounce(func() { runs.Add(1) })
	assert.True(t, d.Cancel())
	assert.False(t, d.Cancel())

	time.Sleep(40 * time.Millisecond)
	assert.Zero(t, runs.Load())
	assert.Equal(t, 15*time.Millisecond, d.Duration())
}

func TestResolveTheme(t *testing.T) {
	dark := func() bool { return true }
	light := func() bool { return false }

	assert.Equal(t, models.ThemeDark, services.ResolveTheme(models.ThemeSystem, dark))
	assert.Equal(t, models.ThemeLight, services.ResolveTheme(models.ThemeSystem, light))
	assert.Equal(t, models.ThemeLight, services.ResolveTheme(models.ThemeSystem, nil))
	assert.Equal(t, models.ThemeLight, services.ResolveTheme(models.ThemeLight, dark))
	assert.Equal(t, models.Theme("sepia"), services.ResolveTheme("sepia", dark))

	var appearance services.SystemAppearance
	assert.Equal(t, models.ThemeLight, services.ResolveTheme(models.ThemeSystem, appearance.PrefersDark))
	appearance.SetPrefersDark(true)
	assert.Equal(t, models.ThemeDark, services.ResolveTheme(models.ThemeSystem, appearance.PrefersDark))
}
