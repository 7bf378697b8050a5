// Package command exposes go-command compatible command handlers implementing
// safety-plan business logic (plan updates, lifecycle transitions, sharing,
// invites, exports). Commands are wired by the service layer and can be
// invoked by any transport.
package command
