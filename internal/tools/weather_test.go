package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const currentParis = `{
  "name": "Paris",
  "sys": {"country": "FR"},
  "main": {"temp": 18.4, "feels_like": 17.9, "temp_min": 16.1, "temp_max": 20.2, "humidity": 64, "pressure": 1016},
  "weather": [{"main": "Clouds", "description": "scattered clouds"}],
  "wind": {"speed": 4.1},
  "clouds": {"all": 40}
}`

const forecastParis = `{
  "city": {"name": "Paris", "country": "FR"},
  "list": [
    {"dt_txt": "2024-05-01 09:00:00", "main": {"temp": 15}, "weather": [{"main": "Rain", "description": "light rain"}]},
    {"dt_txt": "2024-05-01 12:00:00", "main": {"temp": 17}, "weather": [{"main": "Rain", "description": "light rain"}]},
    {"dt_txt": "2024-05-02 00:00:00", "main": {"temp": 11}, "weather": [{"main": "Clear", "description": "clear sky"}]},
    {"dt_txt": "2024-05-03 00:00:00", "main": {"temp": 12}, "weather": [{"main": "Clear", "description": "clear sky"}]},
    {"dt_txt": "2024-05-04 00:00:00", "main": {"temp": 13}, "weather": [{"main": "Clear", "description": "clear sky"}]},
    {"dt_txt": "2024-05-05 00:00:00", "main": {"temp": 14}, "weather": [{"main": "Clear", "description": "clear sky"}]},
    {"dt_txt": "2024-05-06 00:00:00", "main": {"temp": 15}, "weather": [{"main": "Clear", "description": "clear sky"}]}
  ]
}`

func newWeatherServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/weather", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("appid") != "owm-key" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"cod":401,"message":"Invalid API key"}`))
			return
		}
		if r.URL.Query().Get("q") != "Paris" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"cod":"404","message":"city not found"}`))
			return
		}
		_, _ = w.Write([]byte(currentParis))
	})
	mux.HandleFunc("/forecast", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(forecastParis))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestWeatherCurrentTool(t *testing.T) {
	srv := newWeatherServer(t)
	tool := NewWeatherCurrentTool(NewWeatherClient(WeatherOptions{APIKey: "owm-key", BaseURL: srv.URL + "/"}))

	out, err := tool.Invoke(context.Background(), map[string]any{"city": "Paris"})
	require.NoError(t, err)
	w := out.(*CurrentWeather)
	assert.Equal(t, "Paris", w.City)
	assert.Equal(t, "FR", w.Country)
	assert.Equal(t, 18.4, w.Temperature)
	assert.Equal(t, 64, w.Humidity)
	assert.Equal(t, "Clouds", w.Weather)
	assert.Equal(t, 40, w.Clouds)
	assert.Equal(t, "°C", w.Units)
}

func TestWeatherCurrentTool_Errors(t *testing.T) {
	srv := newWeatherServer(t)

	t.Run("unknown city", func(t *testing.T) {
		tool := NewWeatherCurrentTool(NewWeatherClient(WeatherOptions{APIKey: "owm-key", BaseURL: srv.URL}))
		_, err := tool.Invoke(context.Background(), map[string]any{"city": "Atlantis"})
		assert.EqualError(t, err, "weather API error: 404 city not found")
	})

	t.Run("bad key", func(t *testing.T) {
		tool := NewWeatherCurrentTool(NewWeatherClient(WeatherOptions{APIKey: "wrong", BaseURL: srv.URL}))
		_, err := tool.Invoke(context.Background(), map[string]any{"city": "Paris"})
		assert.ErrorContains(t, err, "Invalid API key")
	})

	t.Run("no key", func(t *testing.T) {
		tool := NewWeatherCurrentTool(NewWeatherClient(WeatherOptions{BaseURL: srv.URL}))
		_, err := tool.Invoke(context.Background(), map[string]any{"city": "Paris"})
		assert.ErrorIs(t, err, ErrWeatherAPIKey)
	})

	t.Run("missing city", func(t *testing.T) {
		tool := NewWeatherCurrentTool(NewWeatherClient(WeatherOptions{APIKey: "owm-key", BaseURL: srv.URL}))
		_, err := tool.Invoke(context.Background(), map[string]any{})
		assert.ErrorIs(t, err, ErrMissingParameter)
	})

	t.Run("timeout", func(t *testing.T) {
		slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-time.After(time.Second):
			case <-r.Context().Done():
			}
		}))
		defer slow.Close()
		tool := NewWeatherCurrentTool(NewWeatherClient(WeatherOptions{APIKey: "k", BaseURL: slow.URL, Timeout: 20 * time.Millisecond}))
		_, err := tool.Invoke(context.Background(), map[string]any{"city": "Paris"})
		assert.Error(t, err)
	})
}

func TestWeatherForecastTool(t *testing.T) {
	srv := newWeatherServer(t)
	tool := NewWeatherForecastTool(NewWeatherClient(WeatherOptions{APIKey: "owm-key", BaseURL: srv.URL}))

	out, err := tool.Invoke(context.Background(), map[string]any{"city": "Paris", "units": "imperial"})
	require.NoError(t, err)
	f := out.(*Forecast)
	assert.Equal(t, "°F", f.Units)
	require.Len(t, f.Forecasts, 5)
	assert.Equal(t, "2024-05-01", f.Forecasts[0].Date)
	assert.Equal(t, 15.0, f.Forecasts[0].Temperature, "first entry of a date wins")
	assert.Equal(t, "2024-05-05", f.Forecasts[4].Date)
}

func TestUnitLabel(t *testing.T) {
	assert.Equal(t, "°C", unitLabel("metric"))
	assert.Equal(t, "°F", unitLabel("imperial"))
	assert.Equal(t, "K", unitLabel("standard"))
	assert.Equal(t, "K", unitLabel(""))
}
