// Package services defines the shared error taxonomy and context plumbing used
// by the melodex pipelines.
//
// Every failure a pipeline can produce is tagged with one of the sentinel
// errors here so the HTTP boundary can translate it into a response status
// without inspecting message text. Context helpers carry request correlation
// IDs and authenticated user IDs across the handler/pipeline boundary.
package services
