package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultUnits      = "metric"
	maxForecastDays   = 5
	defaultWeatherURL = "https://api.openweathermap.org/data/2.5"
)

var ErrWeatherAPIKey = errors.New("OPENWEATHER_API_KEY is not configured")

type CurrentWeather struct {
	City        string  `json:"city"`
	Country     string  `json:"country"`
	Temperature float64 `json:"temperature"`
	FeelsLike   float64 `json:"feels_like"`
	TempMin     float64 `json:"temp_min"`
	TempMax     float64 `json:"temp_max"`
	Humidity    int     `json:"humidity"`
	Pressure    int     `json:"pressure"`
	Weather     string  `json:"weather"`
	Description string  `json:"description"`
	WindSpeed   float64 `json:"wind_speed"`
	Clouds      int     `json:"clouds"`
	Units       string  `json:"units"`
}

type DailyForecast struct {
	Date        string  `json:"date"`
	Temperature float64 `json:"temperature"`
	Weather     string  `json:"weather"`
	Description string  `json:"description"`
}

type Forecast struct {
	City      string          `json:"city"`
	Country   string          `json:"country"`
	Forecasts []DailyForecast `json:"forecasts"`
	Units     string          `json:"units"`
}

// unitLabel maps an OpenWeather units value to its temperature symbol.
func unitLabel(units string) string {
	switch units {
	case "metric":
		return "°C"
	case "imperial":
		return "°F"
	default:
		return "K"
	}
}

type WeatherOptions struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// WeatherClient talks to the OpenWeather 2.5 REST API.
type WeatherClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

func NewWeatherClient(opts WeatherOptions) *WeatherClient {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultWeatherURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &WeatherClient{
		apiKey:  opts.APIKey,
		baseURL: strings.TrimSuffix(opts.BaseURL, "/"),
		http:    &http.Client{Timeout: opts.Timeout},
	}
}

type owmCondition struct {
	Main        string `json:"main"`
	Description string `json:"description"`
}

type owmMain struct {
	Temp      float64 `json:"temp"`
	FeelsLike float64 `json:"feels_like"`
	TempMin   float64 `json:"temp_min"`
	TempMax   float64 `json:"temp_max"`
	Pressure  int     `json:"pressure"`
	Humidity  int     `json:"humidity"`
}

type owmCurrent struct {
	Name    string         `json:"name"`
	Main    owmMain        `json:"main"`
	Weather []owmCondition `json:"weather"`
	Wind    struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Clouds struct {
		All int `json:"all"`
	} `json:"clouds"`
	Sys struct {
		Country string `json:"country"`
	} `json:"sys"`
}

type owmForecast struct {
	List []struct {
		Main    owmMain        `json:"main"`
		Weather []owmCondition `json:"weather"`
		DtTxt   string         `json:"dt_txt"`
	} `json:"list"`
	City struct {
		Name    string `json:"name"`
		Country string `json:"country"`
	} `json:"city"`
}

func (c *WeatherClient) get(ctx context.Context, endpoint, city, units string, out any) error {
	if c.apiKey == "" {
		return ErrWeatherAPIKey
	}
	q := url.Values{}
	q.Set("q", city)
	q.Set("appid", c.apiKey)
	q.Set("units", units)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("weather request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("weather API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Message string `json:"message"`
		}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("weather API error: %d %s", resp.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("weather API error: status code %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding weather response: %w", err)
	}
	return nil
}

func (c *WeatherClient) Current(ctx context.Context, city, units string) (*CurrentWeather, error) {
	var raw owmCurrent
	if err := c.get(ctx, "weather", city, units, &raw); err != nil {
		return nil, err
	}
	w := &CurrentWeather{
		City:        raw.Name,
		Country:     raw.Sys.Country,
		Temperature: raw.Main.Temp,
		FeelsLike:   raw.Main.FeelsLike,
		TempMin:     raw.Main.TempMin,
		TempMax:     raw.Main.TempMax,
		Humidity:    raw.Main.Humidity,
		Pressure:    raw.Main.Pressure,
		WindSpeed:   raw.Wind.Speed,
		Clouds:      raw.Clouds.All,
		Units:       unitLabel(units),
	}
	if len(raw.Weather) > 0 {
		w.Weather = raw.Weather[0].Main
		w.Description = raw.Weather[0].Description
	}
	return w, nil
}

// Forecast returns at most five days, keeping the first 3-hour entry of
// each date.
func (c *WeatherClient) Forecast(ctx context.Context, city, units string) (*Forecast, error) {
	var raw owmForecast
	if err := c.get(ctx, "forecast", city, units, &raw); err != nil {
		return nil, err
	}

	f := &Forecast{
		City:      raw.City.Name,
		Country:   raw.City.Country,
		Forecasts: []DailyForecast{},
		Units:     unitLabel(units),
	}
	seen := make(map[string]bool)
	for _, item := range raw.List {
		if len(f.Forecasts) == maxForecastDays {
			break
		}
		date, _, _ := strings.Cut(item.DtTxt, " ")
		if date == "" || seen[date] {
			continue
		}
		seen[date] = true
		day := DailyForecast{Date: date, Temperature: item.Main.Temp}
		if len(item.Weather) > 0 {
			day.Weather = item.Weather[0].Main
			day.Description = item.Weather[0].Description
		}
		f.Forecasts = append(f.Forecasts, day)
	}
	return f, nil
}

var weatherParameters = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"city": map[string]any{
			"type":        "string",
			"description": "City name, optionally with country code (e.g. \"London,UK\")",
		},
		"units": map[string]any{
			"type":        "string",
			"enum":        []string{"metric", "imperial", "standard"},
			"description": "Temperature units, default metric",
		},
	},
	"required": []string{"city"},
}

func weatherArgs(params map[string]any) (city, units string, err error) {
	city, err = requiredString(params, "city")
	if err != nil {
		return "", "", err
	}
	return city, stringParam(params, "units", defaultUnits), nil
}

// WeatherCurrentTool implements weather_current.
type WeatherCurrentTool struct {
	client *WeatherClient
}

func NewWeatherCurrentTool(client *WeatherClient) *WeatherCurrentTool {
	return &WeatherCurrentTool{client: client}
}

func (t *WeatherCurrentTool) Name() Action { return ActionWeatherCurrent }

func (t *WeatherCurrentTool) Description() string {
	return "Get current weather for a city"
}

func (t *WeatherCurrentTool) Parameters() map[string]any { return weatherParameters }

func (t *WeatherCurrentTool) Invoke(ctx context.Context, params map[string]any) (any, error) {
	city, units, err := weatherArgs(params)
	if err != nil {
		return nil, err
	}
	return t.client.Current(ctx, city, units)
}

// WeatherForecastTool implements weather_forecast.
type WeatherForecastTool struct {
	client *WeatherClient
}

func NewWeatherForecastTool(client *WeatherClient) *WeatherForecastTool {
	return &WeatherForecastTool{client: client}
}

func (t *WeatherForecastTool) Name() Action { return ActionWeatherForecast }

func (t *WeatherForecastTool) Description() string {
	return "Get 5-day weather forecast for a city"
}

func (t *WeatherForecastTool) Parameters() map[string]any { return weatherParameters }

func (t *WeatherForecastTool) Invoke(ctx context.Context, params map[string]any) (any, error) {
	city, units, err := weatherArgs(params)
	if err != nil {
		return nil, err
	}
	return t.client.Forecast(ctx, city, units)
}
