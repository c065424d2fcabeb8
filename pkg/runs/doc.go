// Package runs manages run identity: creation of timestamp-identified runs
// and resolution of selectors (explicit IDs or "latest") against a RunStore.
package runs
