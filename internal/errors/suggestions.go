package errors

import (
	"fmt"
	"strings"
)

// ErrorSuggestion represents a suggestion for fixing an error
type ErrorSuggestion struct {
	Title       string
	Description string
	Command     string
	Example     string
}

// TemplateNotFound generates suggestions for a missing redirects template.
func TemplateNotFound(templateFile, root string) []ErrorSuggestion {
	return []ErrorSuggestion{
		{
			Title:       "Create the template",
			Description: "Add " + templateFile + " to the project root (" + root + ")",
			Example:     "/api/* {{API_URL}}/*\n/old-page /new-page",
		},
		{
			Title:       "Point at an existing template",
			Description: "Set the template path in .redirector.yml or with --template",
			Command:     "redirector build --template path/to/redirects.template",
		},
	}
}

// UnknownPlatform generates suggestions for an unsupported deploy platform.
func UnknownPlatform(value string, supported []string) []ErrorSuggestion {
	list := strings.Join(supported, "|")
	suggestions := []ErrorSuggestion{
		{
			Title:       "Set DEPLOY_PLATFORM",
			Description: "Supported platforms are " + list,
			Command:     "DEPLOY_PLATFORM=netlify redirector build",
		},
		{
			Title:   "Pass the platform explicitly",
			Command: "redirector build --platform " + supported[0],
		},
	}

	if value != "" {
		suggestions = append(suggestions, ErrorSuggestion{
			Title:       "Unrecognised value",
			Description: fmt.Sprintf("%q is not one of %s", value, list),
		})
	}

	return suggestions
}

// ArtifactWriteFailed generates suggestions for a failed artifact write.
func ArtifactWriteFailed(path string, err error) []ErrorSuggestion {
	suggestions := []ErrorSuggestion{
		{
			Title:       "Check the output directory",
			Description: "Make sure the build output directory is writable",
			Command:     "ls -ld " + path,
		},
	}

	errStr := strings.ToLower(err.Error())

	if strings.Contains(errStr, "permission denied") {
		suggestions = append(suggestions, ErrorSuggestion{
			Title:       "Permission denied",
			Description: "The current user cannot write " + path,
		})
	}

	if strings.Contains(errStr, "no space left") {
		suggestions = append(suggestions, ErrorSuggestion{
			Title:       "Disk full",
			Description: "Free some space and rebuild",
		})
	}

	return suggestions
}

// InvalidConfig generates suggestions for configuration errors.
func InvalidConfig(configPath string) []ErrorSuggestion {
	suggestions := []ErrorSuggestion{
		{
			Title:       "Review the configuration",
			Description: "Check keys and values against the defaults",
			Example:     "template: redirects.template\nout_dir: dist\ndeploy_platform: netlify",
		},
	}

	if configPath != "" {
		suggestions = append(suggestions, ErrorSuggestion{
			Title:   "Inspect the config file",
			Command: "cat " + configPath,
		})
	}

	return suggestions
}

// FormatSuggestions formats suggestions into a user-friendly string
func FormatSuggestions(title string, suggestions []ErrorSuggestion) string {
	if len(suggestions) == 0 {
		return title
	}

	var output strings.Builder
	output.WriteString(title + "\n\n")
	output.WriteString("Suggestions:\n")

	for i, suggestion := range suggestions {
		output.WriteString(fmt.Sprintf("  %d. %s\n", i+1, suggestion.Title))
		if suggestion.Description != "" {
			output.WriteString(fmt.Sprintf("     %s\n", suggestion.Description))
		}
		if suggestion.Command != "" {
			output.WriteString(fmt.Sprintf("     Run: %s\n", suggestion.Command))
		}
		if suggestion.Example != "" {
			output.WriteString(fmt.Sprintf("     Example: %s\n", suggestion.Example))
		}
		output.WriteString("\n")
	}

	return output.String()
}

// EnhancedError wraps an error with suggestions
type EnhancedError struct {
	OriginalError error
	Title         string
	Suggestions   []ErrorSuggestion
}

// Error implements the error interface
func (e *EnhancedError) Error() string {
	title := e.Title
	if e.OriginalError != nil {
		title += ": " + e.OriginalError.Error()
	}
	return FormatSuggestions(title, e.Suggestions)
}

// Unwrap returns the original error
func (e *EnhancedError) Unwrap() error {
	return e.OriginalError
}

// NewEnhancedError creates a new enhanced error with suggestions
func NewEnhancedError(title string, originalError error, suggestions []ErrorSuggestion) *EnhancedError {
	return &EnhancedError{
		OriginalError: originalError,
		Title:         title,
		Suggestions:   suggestions,
	}
}
