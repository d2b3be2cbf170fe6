// Package internal contains the implementation packages for redirector.
//
// # Package Organization
//
// The internal packages are organized by functional domain:
//
//   - template: Reading redirect templates into directives
//   - placeholder: {{NAME}} extraction and substitution
//   - env: Dotenv loading and environment snapshots
//   - route: Route pattern and destination helpers
//   - proxy: Development route table, reverse proxy handler and rate limiting
//   - platform: Deploy platform detection and redirect file emitters
//   - artifact: Atomic writes of generated files
//   - plugins: Plugin lifecycle and the builtin redirects plugin
//   - server: Development server, fallback handling and status page
//   - watcher: File system monitoring with debouncing
//   - websocket: Route update broadcasts to connected browsers
//   - config, logging, errors, validation, version: CLI support
//
// For detailed documentation, see the individual package documentation.
package internal
