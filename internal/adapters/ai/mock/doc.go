// Package mock provides deterministic test doubles for the ai capability
// contracts. Each double uses reasonable default behavior and allows
// injection of custom behavior through function fields.
package mock
