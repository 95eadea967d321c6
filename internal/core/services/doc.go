// Package services implements the core application logic behind the
// driving ports: indexing, retrieval, the tool layer, the agent loop
// and its retrieval-only fallback, and settings management.
//
// Services depend only on domain types and port interfaces; all
// infrastructure arrives through driven ports injected at wiring time.
package services
