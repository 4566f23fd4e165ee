// Package tools provides the example tools offered to the model: a safe
// calculator, a simulated weather lookup and a simulated web search.
package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/martinemde/toolloop/agentloop"
)

// CalculateArgs are the arguments of the calculate tool.
type CalculateArgs struct {
	Expression string `json:"expression" jsonschema_description:"Arithmetic expression to evaluate, e.g. (2024 - 1991) * 365"`
}

// Calculate evaluates args.Expression and returns the number as text.
func Calculate(_ context.Context, args CalculateArgs) (any, error) {
	v, err := Evaluate(args.Expression)
	if err != nil {
		return nil, err
	}
	return FormatNumber(v), nil
}

// WeatherArgs are the arguments of the get_weather tool.
type WeatherArgs struct {
	Location string `json:"location" jsonschema_description:"City name, e.g. San Francisco"`
}

var weatherData = map[string]string{
	"san francisco": "Sunny, 72°F",
	"new york":      "Cloudy, 65°F",
	"london":        "Rainy, 58°F",
	"tokyo":         "Clear, 75°F",
}

// GetWeather looks the city up in a fixed table.
func GetWeather(_ context.Context, args WeatherArgs) (any, error) {
	key := strings.ToLower(strings.TrimSpace(args.Location))
	if w, ok := weatherData[key]; ok {
		return w, nil
	}
	return fmt.Sprintf("Weather data not available for %s", args.Location), nil
}

// SearchArgs are the arguments of the search_web tool.
type SearchArgs struct {
	Query string `json:"query" jsonschema_description:"The search query"`
}

var searchResults = map[string]string{
	"python version": "Python 3.13 is the latest stable version released in 2024",
	"claude ai":      "Claude is an AI assistant created by Anthropic, launched in 2023",
	"latest":         "Current year is 2025",
}

// searchKeys is searchResults' keys, longest first, so specific topics win
// over generic ones.
var searchKeys = func() []string {
	keys := make([]string, 0, len(searchResults))
	for k := range searchResults {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}()

// SearchWeb answers from a fixed table of topics.
func SearchWeb(_ context.Context, args SearchArgs) (any, error) {
	q := strings.ToLower(args.Query)
	for _, k := range searchKeys {
		if strings.Contains(q, k) {
			return searchResults[k], nil
		}
	}
	return fmt.Sprintf("Search results for '%s': no simulated results for this query", args.Query), nil
}

// Names lists the built-in tools in registration order.
func Names() []string {
	return []string{"calculate", "get_weather", "search_web"}
}

// Register adds the named built-in tools to reg; no names means all of them.
func Register(reg *agentloop.Registry, names ...string) error {
	if len(names) == 0 {
		names = Names()
	}
	for _, name := range names {
		var err error
		switch name {
		case "calculate":
			err = agentloop.RegisterFunc(reg, name, "Perform mathematical calculations", Calculate)
		case "get_weather":
			err = agentloop.RegisterFunc(reg, name, "Get the current weather for a location", GetWeather)
		case "search_web":
			err = agentloop.RegisterFunc(reg, name, "Search the web for information (simulated)", SearchWeb)
		default:
			err = fmt.Errorf("unknown built-in tool %q", name)
		}
		if err != nil {
			return fmt.Errorf("register %s: %w", name, err)
		}
	}
	return nil
}
