package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"helix/internal/logging"
	"helix/internal/search"
	"helix/internal/sequence"
)

// Generator is the slice of the content generator the catalog invokes.
type Generator interface {
	GenerateSequence(ctx context.Context, sessionID, role, location string, stepCount int, targetProfile string) (string, *sequence.Error)
	ReviseStep(ctx context.Context, sessionID string, stepNumber int, instruction string) (string, *sequence.Error)
	ChangeTone(ctx context.Context, sessionID, tone string) (string, *sequence.Error)
	AddStep(ctx context.Context, sessionID, stepContent string, position int) (string, *sequence.Error)
	GenerateAsset(ctx context.Context, sessionID, task string) (string, *sequence.Error)
	PersonalizedOutreach(ctx context.Context, sessionID, profileURL, profileContent string) (string, *sequence.Error)
}

// Searcher is the slice of the search capability the catalog invokes.
type Searcher interface {
	SearchProfessionals(ctx context.Context, query string, filters search.Filters) (*search.Results, error)
	GetProfileDetails(ctx context.Context, profileURL string) (*search.ProfileDetails, error)
}

// SearchCache persists raw search results on the session for later turns.
type SearchCache interface {
	SetSearchResults(sessionID, resultsJSON string) error
}

// NewCatalog builds the registry of operations exposed to the model.
func NewCatalog(gen Generator, searcher Searcher, cache SearchCache) *Registry {
	r := NewRegistry()

	sessionIDProp := Property{Type: "string", Description: "The session ID as a string UUID"}

	r.MustRegister(&Tool{
		Name:        "generate_sequence",
		Description: "Generates a candidate outreach sequence based on role and location",
		Family:      FamilySequence,
		Schema: ToolSchema{
			Required: []string{"role", "location", "session_id"},
			Properties: map[string]Property{
				"role":       {Type: "string", Description: "The role being hired for"},
				"location":   {Type: "string", Description: "Where the job is based"},
				"step_count":     {Type: "integer", Description: "Optional. Number of outreach steps to include"},
				"target_profile": {Type: "string", Description: "Optional. Candidate profile to tailor the sequence toward"},
				"session_id":     sessionIDProp,
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			result, perr := gen.GenerateSequence(ctx,
				stringArg(args, "session_id"),
				stringArg(args, "role"),
				stringArg(args, "location"),
				intArg(args, "step_count"),
				stringArg(args, "target_profile"))
			if perr != nil {
				return "", perr
			}
			return result, nil
		},
	})

	r.MustRegister(&Tool{
		Name:        "revise_step",
		Description: "Revises the content of a specific step using an instruction",
		Family:      FamilyEdit,
		Schema: ToolSchema{
			Required: []string{"step_number", "new_instruction", "session_id"},
			Properties: map[string]Property{
				"step_number":     {Type: "integer", Description: "Step number to revise"},
				"new_instruction": {Type: "string", Description: "How to revise this step"},
				"session_id":      sessionIDProp,
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			result, perr := gen.ReviseStep(ctx,
				stringArg(args, "session_id"),
				intArg(args, "step_number"),
				stringArg(args, "new_instruction"))
			if perr != nil {
				return "", perr
			}
			return result, nil
		},
	})

	r.MustRegister(&Tool{
		Name:        "change_tone",
		Description: "Changes the tone of the entire sequence (e.g. casual, personal, professional)",
		Family:      FamilyEdit,
		Schema: ToolSchema{
			Required: []string{"tone", "session_id"},
			Properties: map[string]Property{
				"tone":       {Type: "string", Description: "Tone to apply (e.g. personal, bold, casual)"},
				"session_id": sessionIDProp,
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			result, perr := gen.ChangeTone(ctx, stringArg(args, "session_id"), stringArg(args, "tone"))
			if perr != nil {
				return "", perr
			}
			return result, nil
		},
	})

	r.MustRegister(&Tool{
		Name:        "add_step",
		Description: "Adds a new step to the outreach sequence",
		Family:      FamilyEdit,
		Schema: ToolSchema{
			Required: []string{"step_content", "session_id"},
			Properties: map[string]Property{
				"step_content": {Type: "string", Description: "Content of the new step"},
				"position":     {Type: "integer", Description: "Position to insert the step"},
				"session_id":   sessionIDProp,
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			result, perr := gen.AddStep(ctx,
				stringArg(args, "session_id"),
				stringArg(args, "step_content"),
				intArg(args, "position"))
			if perr != nil {
				return "", perr
			}
			return result, nil
		},
	})

	r.MustRegister(&Tool{
		Name:        "generate_recruiting_asset",
		Description: "Creates a single recruiting-related message (offer letter, thank you note, follow-up, etc) from a task description",
		Family:      FamilyAsset,
		Schema: ToolSchema{
			Required: []string{"task", "session_id"},
			Properties: map[string]Property{
				"task":       {Type: "string", Description: "Instruction like 'Write a thank you email to Sarah after the interview'"},
				"session_id": sessionIDProp,
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			result, perr := gen.GenerateAsset(ctx, stringArg(args, "session_id"), stringArg(args, "task"))
			if perr != nil {
				return "", perr
			}
			return result, nil
		},
	})

	r.MustRegister(&Tool{
		Name:        "search_and_analyze_professionals",
		Description: "Searches for professionals based on role and location, and provides a detailed analysis",
		Family:      FamilySearch,
		Schema: ToolSchema{
			Required: []string{"session_id", "query"},
			Properties: map[string]Property{
				"session_id": sessionIDProp,
				"query":      {Type: "string", Description: "The search query (e.g., 'top designers', 'founding engineers')"},
				"location":   {Type: "string", Description: "Optional. Location to search in (e.g., 'San Francisco')"},
				"experience": {Type: "string", Description: "Optional. Experience level to filter by"},
				"skills":     {Type: "string", Description: "Optional. Skills to filter by"},
				"company":    {Type: "string", Description: "Optional. Company to filter by"},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			return searchAndAnalyze(ctx, searcher, cache, args)
		},
	})

	r.MustRegister(&Tool{
		Name:        "generate_personalized_outreach",
		Description: "Generates a personalized outreach message for a specific professional based on their profile",
		Family:      FamilySearch,
		Schema: ToolSchema{
			Required: []string{"session_id", "profile_url"},
			Properties: map[string]Property{
				"session_id":  sessionIDProp,
				"profile_url": {Type: "string", Description: "The URL of the professional's profile"},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			sessionID := stringArg(args, "session_id")
			profileURL := stringArg(args, "profile_url")

			details, err := searcher.GetProfileDetails(ctx, profileURL)
			if err != nil {
				return "", fmt.Errorf("could not look up profile: %w", err)
			}
			result, perr := gen.PersonalizedOutreach(ctx, sessionID, profileURL, details.Content)
			if perr != nil {
				return "", perr
			}
			return result, nil
		},
	})

	return r
}

// searchAndAnalyze runs a professional search, formats a readable summary,
// and caches the raw results on the session for later turns.
func searchAndAnalyze(ctx context.Context, searcher Searcher, cache SearchCache, args map[string]any) (string, error) {
	sessionID := stringArg(args, "session_id")
	query := stringArg(args, "query")
	location := stringArg(args, "location")
	filters := search.Filters{
		Location:   location,
		Experience: stringArg(args, "experience"),
		Skills:     stringArg(args, "skills"),
		Company:    stringArg(args, "company"),
	}

	results, err := searcher.SearchProfessionals(ctx, query, filters)
	if err != nil {
		return "", fmt.Errorf("an error occurred while searching: %w", err)
	}
	if len(results.Professionals) == 0 {
		return "I couldn't find any professionals matching your search criteria.", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "I found %d professionals matching your search for '%s'", len(results.Professionals), query)
	if location != "" {
		fmt.Fprintf(&b, " in %s", location)
	}
	b.WriteString(":\n\n")
	for i, prof := range results.Professionals {
		name := prof.Name
		if name == "" {
			name = "Unknown"
		}
		source := prof.Source
		if source == "" {
			source = "Unknown"
		}
		snippet := prof.Snippet
		if snippet == "" {
			snippet = "No description available"
		}
		fmt.Fprintf(&b, "%d. %s\n   Source: %s\n   %s\n\n", i+1, name, source, snippet)
	}

	if cache != nil {
		raw, merr := json.Marshal(results)
		if merr == nil {
			if cerr := cache.SetSearchResults(sessionID, string(raw)); cerr != nil {
				logging.Tools("searchAndAnalyze: failed to cache results for session %s: %v", sessionID, cerr)
			}
		}
	}

	return strings.TrimRight(b.String(), "\n"), nil
}

// stringArg extracts a string argument, empty when absent or mistyped.
func stringArg(args map[string]any, key string) string {
	v, ok := args[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// intArg extracts an integer argument. JSON decoding hands numbers over
// as float64; models occasionally send them as strings.
func intArg(args map[string]any, key string) int {
	switch v := args[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0
		}
		return int(n)
	case string:
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}
