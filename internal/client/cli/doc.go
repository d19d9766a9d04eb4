// Package cli is the interactive devcms client.
//
// App.Run restores the cached session, starts the connectivity watcher and
// the background sync loop, and then reads commands until exit. Writes go
// to the local event log first and reach the remote through the outbox, so
// every command except login works offline.
//
// See runREPL for the command list.
package cli
