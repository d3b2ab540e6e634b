package settings

import (
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPath = "/config/HistoricWeatherData/settings.json"

func TestFileStore_MissingFile(t *testing.T) {
	s := NewFileStore(afero.NewMemMapFs(), testPath, nil)

	key, err := s.GetAPIKey("WeatherAPI")
	require.NoError(t, err)
	assert.Empty(t, key)
}

func TestFileStore_SaveAndGet(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := NewFileStore(fs, testPath, nil)

	require.NoError(t, s.SaveAPIKey("WeatherAPI", "wa-key"))
	require.NoError(t, s.SaveAPIKey("Visual Crossing", "vc-key"))

	key, err := s.GetAPIKey("WeatherAPI")
	require.NoError(t, err)
	assert.Equal(t, "wa-key", key)

	data, err := afero.ReadFile(fs, testPath)
	require.NoError(t, err)
	assert.JSONEq(t, `{"WeatherAPI":"wa-key","Visual Crossing":"vc-key"}`, string(data))

	// A second store over the same file sees the persisted keys.
	other := NewFileStore(fs, testPath, nil)
	key, err = other.GetAPIKey("Visual Crossing")
	require.NoError(t, err)
	assert.Equal(t, "vc-key", key)
}

func TestFileStore_DefaultsUnderneathFile(t *testing.T) {
	s := NewFileStore(afero.NewMemMapFs(), testPath, map[string]string{
		"OpenWeatherMap": "env-owm",
		"WeatherAPI":     "env-wa",
	})
	require.NoError(t, s.SaveAPIKey("WeatherAPI", "file-wa"))

	owm, err := s.GetAPIKey("OpenWeatherMap")
	require.NoError(t, err)
	assert.Equal(t, "env-owm", owm)

	wa, err := s.GetAPIKey("WeatherAPI")
	require.NoError(t, err)
	assert.Equal(t, "file-wa", wa)
}

func TestFileStore_Clear(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := NewFileStore(fs, testPath, nil)
	require.NoError(t, s.SaveAPIKey("WeatherAPI", "wa-key"))

	require.NoError(t, s.Clear())
	require.NoError(t, s.Clear(), "clearing twice is not an error")

	exists, err := afero.Exists(fs, testPath)
	require.NoError(t, err)
	assert.False(t, exists)

	key, err := s.GetAPIKey("WeatherAPI")
	require.NoError(t, err)
	assert.Empty(t, key)
}

func TestFileStore_CorruptFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, testPath, []byte("{not json"), 0o600))
	s := NewFileStore(fs, testPath, nil)

	_, err := s.GetAPIKey("WeatherAPI")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode settings")
}

func TestFileStore_ConcurrentSaves(t *testing.T) {
	s := NewFileStore(afero.NewMemMapFs(), testPath, nil)
	names := []string{"OpenWeatherMap", "WeatherAPI", "Visual Crossing", "OpenMeteo"}

	var wg sync.WaitGroup
	for _, name := range names {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.SaveAPIKey(name, name+"-key"))
		}()
	}
	wg.Wait()

	for _, name := range names {
		key, err := s.GetAPIKey(name)
		require.NoError(t, err)
		assert.Equal(t, name+"-key", key)
	}
}
