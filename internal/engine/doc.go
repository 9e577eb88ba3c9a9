// Package engine is the bridge between HTTP requests and the external
// recognition engine.
//
// A Bridge turns an InvocationSpec into exactly one child process, captures
// stdout and stderr incrementally while mirroring stderr to the operator
// console, and resolves to a terminal Output or a tagged error. Concurrency is
// bounded by a semaphore and each invocation carries an optional timeout;
// cancelling the request context terminates the child.
//
// The extractor half of the package owns the noisy-output convention: the
// engine may print progress lines before its final JSON payload line, and only
// that last line is decoded. Nothing outside this package parses engine text.
package engine
