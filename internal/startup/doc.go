// Package startup owns process bring-up: environment configuration,
// directory validation, tool checks, and the structured startup and
// shutdown log sections.
package startup
