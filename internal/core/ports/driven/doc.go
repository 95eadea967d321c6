// Package driven declares the outbound ports of the lorebook core:
// the embedding gateway, the driving language model and the vector
// collection store. Adapters under internal/adapters/driven implement
// these against concrete providers.
package driven
