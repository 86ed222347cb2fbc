package pyext

import (
	"fmt"
	"regexp"
	"strings"
)

// MatchesPattern checks if a filename matches any of the given regex patterns.
//
// This is a helper function for builder implementations to determine if they
// can handle a given extension file based on filename patterns.
//
// Returns true if the filename matches any pattern, false otherwise.
// If a pattern is invalid regex, it is silently skipped.
//
// # Example
//
//	// Check if file is setup.py
//	if MatchesPattern(filename, `setup\.py$`) {
//	    // Handle setup.py
//	}
//
//	// Check for Cython sources
//	if MatchesPattern(filename, `\.pyx$`) {
//	    // Handle Cython
//	}
//
// # Thread Safety
//
// This function is thread-safe and can be called concurrently.
func MatchesPattern(filename string, patterns ...string) bool {
	for _, pattern := range patterns {
		if matched, _ := regexp.MatchString(pattern, filename); matched {
			return true
		}
	}
	return false
}

// MatchesExtension checks if a filename has any of the given extensions.
//
// This is a case-insensitive check for file extensions.
// Useful for checking compiled extension files (.so, .pyd, .dylib).
//
// # Example
//
//	// Check for compiled extensions
//	if MatchesExtension(filename, ".so", ".pyd", ".dylib") {
//	    // This is a compiled extension
//	}
//
// # Thread Safety
//
// This function is thread-safe and can be called concurrently.
func MatchesExtension(filename string, extensions ...string) bool {
	for _, ext := range extensions {
		if strings.HasSuffix(strings.ToLower(filename), strings.ToLower(ext)) {
			return true
		}
	}
	return false
}

// BuildError creates a standardized build error with output context.
//
// This helper formats build errors consistently across all builders,
// including the build output for debugging.
//
// # Format
//
// With error and output:
//
//	Cython build failed: make: *** [target] Error 1
//
//	Build output:
//	g++ -o extension.o -c extension.cpp
//	g++: error: invalid option
//
// With error but no output:
//
//	Cython build failed: make: *** [target] Error 1
//
// # Thread Safety
//
// This function is thread-safe and can be called concurrently.
func BuildError(builder string, output []string, err error) error {
	outputStr := strings.Join(output, "\n")

	var prefix string
	if err != nil {
		prefix = fmt.Sprintf("%s build failed: %v", builder, err)
	} else {
		prefix = fmt.Sprintf("%s build failed", builder)
	}

	if outputStr != "" {
		return fmt.Errorf("%s\n\nBuild output:\n%s", prefix, outputStr)
	}

	return fmt.Errorf("%s", prefix)
}
