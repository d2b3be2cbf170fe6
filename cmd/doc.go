// Package cmd provides the command-line interface for redirector.
//
// This package implements the CLI commands using the Cobra framework.
//
// # Available Commands
//
//   - serve: Start the development proxy with route hot reload
//   - build: Write the redirect file for the deploy platform
//   - routes: Print the development route table
//   - check: Report how each template line is handled
//   - version: Show build information
//
// # Command Examples
//
//	// Front a Vite dev server
//	redirector serve --upstream http://localhost:5173
//
//	// Build for Vercel regardless of the environment
//	redirector build --platform vercel
//
//	// Route table as JSON
//	redirector routes --format json
//
//	// Fail CI when a placeholder has no value
//	redirector check --strict --mode production
//
// # Configuration Integration
//
// Commands read configuration from several sources in order of precedence:
//
//  1. Command-line flags (highest priority)
//  2. Environment variables (REDIRECTOR_*, e.g. REDIRECTOR_SERVER_PORT)
//  3. Configuration file (.redirector.yml, or the file named by --config or
//     REDIRECTOR_CONFIG_FILE)
//  4. Default values (lowest priority)
//
// Placeholder values are a separate layer: .env, .env.local, .env.<mode>
// and .env.<mode>.local under the project root, overridden by the process
// environment.
//
// # Error Handling
//
// Only a failure to write the redirect file exits non-zero during a build.
// A missing template, unresolved placeholders or an unknown platform are
// reported as warnings.
package cmd
