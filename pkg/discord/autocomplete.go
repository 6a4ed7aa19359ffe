package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// maxAutocompleteChoices is the most choices Discord accepts in one response.
const maxAutocompleteChoices = 25

// AutoCompleteResponse is an ordered set of autocomplete choices keyed by name.
type AutoCompleteResponse struct {
	names  []string
	values map[string]any
}

// NewAutoCompleteResponse creates an empty response
func NewAutoCompleteResponse() *AutoCompleteResponse {
	return &AutoCompleteResponse{values: make(map[string]any)}
}

// AddOption appends a choice. Adding an existing name replaces its value in place.
func (r *AutoCompleteResponse) AddOption(name string, value any) *AutoCompleteResponse {
	if r.values == nil {
		r.values = make(map[string]any)
	}
	if _, ok := r.values[name]; !ok {
		r.names = append(r.names, name)
	}
	r.values[name] = value
	return r
}

// RemoveOption drops a choice by name.
func (r *AutoCompleteResponse) RemoveOption(name string) error {
	if _, ok := r.values[name]; !ok {
		return fmt.Errorf("autocomplete choice %q not found", name)
	}
	delete(r.values, name)
	for i, n := range r.names {
		if n == name {
			r.names = append(r.names[:i], r.names[i+1:]...)
			break
		}
	}
	return nil
}

// Len returns the number of choices.
func (r *AutoCompleteResponse) Len() int { return len(r.names) }

// Choices returns the choices in insertion order.
func (r *AutoCompleteResponse) Choices() []*discordgo.ApplicationCommandOptionChoice {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(r.names))
	for _, name := range r.names {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: name, Value: r.values[name]})
	}
	return choices
}

// toChoices accepts whatever an autocomplete hook returned and turns it into a
// finite, ordered choice list.
func toChoices(v any) ([]*discordgo.ApplicationCommandOptionChoice, error) {
	var choices []*discordgo.ApplicationCommandOptionChoice
	switch res := v.(type) {
	case *AutoCompleteResponse:
		if res == nil {
			return nil, fmt.Errorf("%w: nil response", ErrAutoCompleteFormatting)
		}
		choices = res.Choices()
	case AutoCompleteResponse:
		choices = res.Choices()
	case []*discordgo.ApplicationCommandOptionChoice:
		choices = res
	case []discordgo.ApplicationCommandOptionChoice:
		choices = make([]*discordgo.ApplicationCommandOptionChoice, len(res))
		for i := range res {
			choices[i] = &res[i]
		}
	case map[string]string:
		choices = sortedChoices(res)
	case map[string]any:
		choices = sortedChoices(res)
	case []string:
		choices = make([]*discordgo.ApplicationCommandOptionChoice, len(res))
		for i, s := range res {
			choices[i] = &discordgo.ApplicationCommandOptionChoice{Name: s, Value: s}
		}
	default:
		return nil, fmt.Errorf("%w: unsupported type %T", ErrAutoCompleteFormatting, v)
	}

	if len(choices) > maxAutocompleteChoices {
		choices = choices[:maxAutocompleteChoices]
	}
	return choices, nil
}
